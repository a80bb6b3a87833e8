package web

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/simpleemail/simpleemail/internal/auth"
	"github.com/simpleemail/simpleemail/internal/ratelimit"
	"github.com/simpleemail/simpleemail/internal/web/handlers"
	"github.com/simpleemail/simpleemail/internal/web/middleware"
)

// RouterDeps holds all dependencies needed to build the router.
type RouterDeps struct {
	AuthHandler    *handlers.AuthHandler
	FolderHandler  *handlers.FolderHandler
	MessageHandler *handlers.MessageHandler
	ComposeHandler *handlers.ComposeHandler
	SearchHandler  *handlers.SearchHandler
	AuthService    *auth.Service
	Limiter        *ratelimit.Limiter
	StaticFS       fs.FS
}

// NewRouter wires all routes into a Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RealIP)

	// Serve static files
	fileServer := http.FileServer(http.FS(deps.StaticFS))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Public auth routes (with CSRF, rate limited)
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF)
		r.Use(middleware.RateLimit(deps.Limiter))
		r.Use(middleware.OptionalAuth(deps.AuthService))

		r.Get("/login", deps.AuthHandler.ShowLogin)
		r.Post("/login", deps.AuthHandler.HandleLogin)
		r.Get("/register", deps.AuthHandler.ShowRegister)
		r.Post("/register", deps.AuthHandler.HandleRegister)
		r.Get("/logout", deps.AuthHandler.HandleLogout)
	})

	// Authenticated mail routes (CSRF + session holding the mail claim)
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF)
		r.Use(middleware.RequireClaims(deps.AuthService, auth.ClaimMail))

		r.Get("/", deps.FolderHandler.ShowInbox)
		r.Get("/outbox", deps.FolderHandler.ShowOutbox)

		r.Get("/view/{messageID}", deps.MessageHandler.ShowMessage)
		r.Get("/attachments/{attachmentID}", deps.MessageHandler.HandleDownloadAttachment)
		r.Post("/messages/{recipientID}/read", deps.MessageHandler.HandleMarkRead)
		r.Post("/messages/{recipientID}/archive", deps.MessageHandler.HandleMarkArchived)

		r.Get("/compose", deps.ComposeHandler.ShowCompose)
		r.Post("/compose", deps.ComposeHandler.HandleCompose)
		r.Get("/forward/{messageID}", deps.ComposeHandler.ShowForward)
		r.Post("/forward", deps.ComposeHandler.HandleForward)

		r.Get("/search", deps.SearchHandler.ShowResults)
	})

	return r
}
