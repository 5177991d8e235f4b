package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/mdhub/note-service/internal/export"
	"github.com/mdhub/note-service/internal/i18n"
	"github.com/mdhub/note-service/internal/models"
	"github.com/mdhub/note-service/internal/render"
	"github.com/mdhub/note-service/internal/response"
	"github.com/mdhub/note-service/internal/service"
)

// GetAccount serves the profile: JSON for XHR/API clients, the settings page
// otherwise
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(user *models.User) {
		if wantsJSON(r) {
			profile := models.GetProfile(user)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"status": "ok",
				"id":     user.ID,
				"name":   profile.Name,
				"photo":  profile.Photo,
			})
			return
		}
		err := render.AccountSettings(w, render.AccountPage{
			Title: i18n.Sprintf("Profile for %s", user.Name()),
			User:  user,
		})
		if err != nil {
			h.log.Errorf("failed to render account page: %v", err)
		}
	})
}

// UpdateAccount applies the submitted form fields to the account. Only
// non-empty fields overwrite the stored attributes.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(user *models.User) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		if v := r.PostFormValue("email"); v != "" {
			user.Email = v
		}
		if v := r.PostFormValue("username"); v != "" {
			user.Username = v
		}
		if v := r.PostFormValue("displayname"); v != "" {
			user.DisplayName = v
		}
		oldPassword := r.PostFormValue("old_password")
		if oldPassword != "" && h.svc.VerifyPassword(user, oldPassword) {
			user.NewPassword = r.PostFormValue("new_password")
			user.PasswordConfirmation = r.PostFormValue("password_confirmation")
		} else if oldPassword != "" {
			user.InvalidPasswordGiven = true
		}

		err := h.svc.SaveAccount(user)
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			// the user keeps the rejected edits for correction
			renderErr := render.AccountSettings(w, render.AccountPage{
				Title:            i18n.Sprintf("Account Settings for %s", user.Name()),
				ValidationErrors: verr,
				User:             user,
			})
			if renderErr != nil {
				h.log.Errorf("failed to render account page: %v", renderErr)
			}
			return
		}
		if err != nil {
			h.log.Errorf("account update failed: %v", err)
			response.ErrorInternalError(w)
			return
		}
		http.Redirect(w, r, h.cfg.ServerURL+"/settings/account", http.StatusFound)
	})
}

// DeleteAccount destroys the account when the path token matches the stored
// one-time delete token
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(user *models.User) {
		token := mux.Vars(r)["token"]
		err := h.svc.DeleteAccount(user, token)
		if errors.Is(err, service.ErrDeleteTokenMismatch) {
			response.ErrorForbidden(w)
			return
		}
		if err != nil {
			h.log.Errorf("account deletion failed: %v", err)
			response.ErrorInternalError(w)
			return
		}
		http.Redirect(w, r, h.cfg.ServerURL+"/", http.StatusFound)
	})
}

// RequestDeleteToken issues a fresh delete token and mails the confirmation
// link to the account's address
func (h *Handler) RequestDeleteToken(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(user *models.User) {
		if err := h.svc.RequestDeleteToken(user); err != nil {
			h.log.Errorf("delete token request failed: %v", err)
			response.ErrorInternalError(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// ExportAccount streams all of the user's notes as a zip attachment
func (h *Handler) ExportAccount(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(user *models.User) {
		notes, err := h.svc.NotesForExport(user)
		if err != nil {
			h.log.Errorf("export user data failed: %v", err)
			response.ErrorInternalError(w)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="archive.zip"`)

		// headers may already be flushed when this fails, so the 500 is
		// best effort
		if err := export.Write(w, notes); err != nil {
			h.log.Errorf("export user data failed: %v", err)
			response.ErrorInternalError(w)
		}
	})
}

// wantsJSON reports whether the client asked for a machine-readable response
func wantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
