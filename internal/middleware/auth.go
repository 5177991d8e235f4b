package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/mdhub/note-service/internal/config"
	"github.com/mdhub/note-service/internal/response"
)

// SessionCookie is the cookie carrying the session token
const SessionCookie = "note_session"

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID attaches an authenticated user id to the context
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user id from the context
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// AuthMiddleware validates the session token and puts the user id into the
// request context. Requests without a valid session are rejected with 403.
func AuthMiddleware(cfg *config.Config) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				response.ErrorForbidden(w)
				return
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				response.ErrorForbidden(w)
				return
			}

			subject, err := token.Claims.GetSubject()
			if err != nil {
				response.ErrorForbidden(w)
				return
			}
			id, err := strconv.ParseInt(subject, 10, 64)
			if err != nil {
				response.ErrorForbidden(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

// tokenFromRequest reads the session token from the cookie or, failing that,
// an Authorization bearer header
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
