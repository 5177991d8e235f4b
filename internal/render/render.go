// Package render draws HTML pages from embedded templates.
package render

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/mdhub/note-service/internal/models"
	"github.com/mdhub/note-service/internal/service"
)

//go:embed templates
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/settings/*.html"))

// AccountPage is the data handed to the account settings template
type AccountPage struct {
	Title            string
	ValidationErrors *service.ValidationError
	User             *models.User
}

// AccountSettings renders the account settings page
func AccountSettings(w http.ResponseWriter, data AccountPage) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return pages.ExecuteTemplate(w, "account.html", data)
}
