package handlers

import (
	"context"
	"net/http"

	"willr/internal/models"
)

type ctxKey struct{}

// WithUser resolves the session cookie to a full user row and stores
// it in the request context. It runs on every request; everything
// downstream reads "who is logged in" from the context only.
func (h *Handler) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := h.sessions.CurrentUserID(r); ok {
			if u, err := h.store.UserByID(r.Context(), uid); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the logged-in user, or nil.
func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(ctxKey{}).(*models.User)
	return u
}

// RequireAuth redirects anonymous requests to the login page; the
// wrapped handler is never invoked for them.
func (h *Handler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}
