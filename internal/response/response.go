// Package response emits the fixed-status error responses shared by all
// handlers.
package response

import "net/http"

// ErrorForbidden responds with 403
func ErrorForbidden(w http.ResponseWriter) {
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// ErrorNotFound responds with 404
func ErrorNotFound(w http.ResponseWriter) {
	http.Error(w, "Not Found", http.StatusNotFound)
}

// ErrorInternalError responds with 500
func ErrorInternalError(w http.ResponseWriter) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
