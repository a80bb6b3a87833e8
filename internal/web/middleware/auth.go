package middleware

import (
	"context"
	"net/http"

	"github.com/simpleemail/simpleemail/internal/auth"
	"github.com/simpleemail/simpleemail/internal/models"
)

// contextKey is an unexported type used for context keys in this package.
type contextKey string

// UserContextKey is the context key used to store the authenticated user.
const UserContextKey contextKey = "user"

// SessionContextKey is the context key used to store the active session.
const SessionContextKey contextKey = "session"

// RequireClaims returns middleware that enforces authentication plus
// possession of every listed claim. It reads the "session_token" cookie,
// validates the session, checks its claims, and stores user and session in
// the request context. Missing or invalid sessions redirect to /login;
// a valid session lacking a claim is rejected with 403.
func RequireClaims(authService *auth.Service, claims ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_token")
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			user, session, err := authService.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			for _, claim := range claims {
				if !session.HasClaim(claim) {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			ctx = context.WithValue(ctx, SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns middleware that attempts to authenticate the user
// but does not redirect if the session is invalid. If a valid session exists,
// the user is stored in the request context.
func OptionalAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_token")
			if err == nil && cookie.Value != "" {
				user, session, err := authService.ValidateSession(r.Context(), cookie.Value)
				if err == nil {
					ctx := context.WithValue(r.Context(), UserContextKey, user)
					ctx = context.WithValue(ctx, SessionContextKey, session)
					r = r.WithContext(ctx)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext extracts the authenticated user from the context.
// Returns nil if no user is present.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}

// SessionFromContext extracts the active session from the context.
// Returns nil if no session is present.
func SessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(SessionContextKey).(*models.Session)
	return session
}
