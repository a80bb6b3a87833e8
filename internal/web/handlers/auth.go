package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/simpleemail/simpleemail/internal/auth"
	"github.com/simpleemail/simpleemail/internal/web/middleware"
	"github.com/simpleemail/simpleemail/internal/web/render"
)

// AuthHandler handles HTTP requests for login, logout and registration.
type AuthHandler struct {
	auth          *auth.Service
	render        *render.Renderer
	secureCookies bool
}

func NewAuthHandler(authService *auth.Service, renderer *render.Renderer, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		auth:          authService,
		render:        renderer,
		secureCookies: secureCookies,
	}
}

// ShowLogin renders the login page. Already-authenticated users are sent to
// their inbox.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := map[string]interface{}{}
	if msg, msgType := consumeFlash(w, r, h.secureCookies); msg != "" {
		data["Flash"] = msg
		data["FlashType"] = msgType
	}
	h.render.Render(w, r, "login.html", data)
}

// HandleLogin processes the login form submission. Unknown users and wrong
// passwords collapse into one generic message; only the lockout case is
// surfaced distinctly.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setFlashError(w, "Invalid form data.", h.secureCookies)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	session, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrAccountLocked) {
			setFlashError(w, "Account locked after too many failed logins.", h.secureCookies)
		} else {
			setFlashError(w, "Invalid username or password.", h.secureCookies)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	setFlashSuccess(w, fmt.Sprintf("Welcome back %s!", username), h.secureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowRegister renders the registration page.
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := map[string]interface{}{}
	if msg, msgType := consumeFlash(w, r, h.secureCookies); msg != "" {
		data["Flash"] = msg
		data["FlashType"] = msgType
	}
	h.render.Render(w, r, "register.html", data)
}

// HandleRegister processes the registration form submission and logs the new
// user straight in.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setFlashError(w, "Invalid form data.", h.secureCookies)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	confirm := r.FormValue("re_password")

	user, err := h.auth.Register(r.Context(), username, password, confirm)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			setFlashError(w, "Passwords do not match.", h.secureCookies)
		case errors.Is(err, auth.ErrUsernameTaken):
			setFlashError(w, "A user with that username already exists.", h.secureCookies)
		default:
			setFlashError(w, err.Error(), h.secureCookies)
		}
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	session, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		setFlashSuccess(w, "Account created. Please log in.", h.secureCookies)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	setFlashSuccess(w, fmt.Sprintf("Welcome %s!", user.Username), h.secureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout logs out the current user by deleting their session and
// clearing the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_token")
	if err == nil && cookie.Value != "" {
		_ = h.auth.Logout(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	setFlashSuccess(w, "Successfully logged out!", h.secureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
