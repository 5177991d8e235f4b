package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mdhub/note-service/internal/config"
	"github.com/mdhub/note-service/internal/middleware"
	"github.com/mdhub/note-service/internal/models"
	"github.com/mdhub/note-service/internal/repository"
	"github.com/mdhub/note-service/internal/response"
	"github.com/mdhub/note-service/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
	cfg *config.Config
}

func NewHandler(svc *service.Service, log *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{svc: svc, log: log, cfg: cfg}
}

// withUser resolves the authenticated session to a persisted user record and
// hands it to fn, or short-circuits with the appropriate error response. All
// settings handlers run behind this guard; it performs exactly one lookup per
// request.
func (h *Handler) withUser(w http.ResponseWriter, r *http.Request, fn func(user *models.User)) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		response.ErrorForbidden(w)
		return
	}
	user, err := h.svc.GetUser(id)
	if errors.Is(err, repository.ErrNotFound) {
		response.ErrorNotFound(w)
		return
	}
	if err != nil {
		h.log.Errorf("user action failed: %v", err)
		response.ErrorInternalError(w)
		return
	}
	fn(user)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
