package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simpleemail/simpleemail/internal/auth"
	"github.com/simpleemail/simpleemail/internal/blob"
	"github.com/simpleemail/simpleemail/internal/config"
	"github.com/simpleemail/simpleemail/internal/database"
	"github.com/simpleemail/simpleemail/internal/folder"
	"github.com/simpleemail/simpleemail/internal/message"
	"github.com/simpleemail/simpleemail/internal/ratelimit"
	"github.com/simpleemail/simpleemail/internal/search"
	"github.com/simpleemail/simpleemail/internal/store/postgres"
	"github.com/simpleemail/simpleemail/internal/web"
	"github.com/simpleemail/simpleemail/internal/web/handlers"
	"github.com/simpleemail/simpleemail/internal/web/render"
	"github.com/simpleemail/simpleemail/migrations"
	"github.com/simpleemail/simpleemail/static"
	"github.com/simpleemail/simpleemail/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Migrations
	if err := database.RunMigrations(migrations.FS, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Attachment payload storage
	blobs, err := blob.NewFromConfig(context.Background(), blob.Config{
		Backend:           cfg.BlobBackend,
		FSRoot:            cfg.BlobFSRoot,
		S3Bucket:          cfg.S3Bucket,
		S3Region:          cfg.S3Region,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3ForcePathStyle:  cfg.S3ForcePathStyle,
	})
	if err != nil {
		slog.Error("failed to configure blob storage", "error", err)
		os.Exit(1)
	}

	// Stores
	userStore := postgres.NewUserStore(db)
	sessionStore := postgres.NewSessionStore(db)
	messageStore := postgres.NewMessageStore(db)
	folderStore := postgres.NewFolderStore(db)
	searchStore := postgres.NewSearchStore(db)

	// Services
	authService := auth.NewService(userStore, sessionStore, cfg.MailDomain, cfg.SessionMaxAge)
	messageService := message.NewService(messageStore, userStore, blobs)
	folderService := folder.NewService(folderStore)
	searchService := search.NewService(searchStore)

	// Rate limiter
	limiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Renderer
	renderer := render.NewRenderer(templates.FS)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, renderer, cfg.SecureCookies)
	folderHandler := handlers.NewFolderHandler(folderService, renderer, cfg.SecureCookies)
	messageHandler := handlers.NewMessageHandler(messageService, renderer, cfg.SecureCookies)
	composeHandler := handlers.NewComposeHandler(messageService, renderer, cfg.SecureCookies)
	searchHandler := handlers.NewSearchHandler(searchService, renderer, cfg.SecureCookies)

	// Router
	router := web.NewRouter(web.RouterDeps{
		AuthHandler:    authHandler,
		FolderHandler:  folderHandler,
		MessageHandler: messageHandler,
		ComposeHandler: composeHandler,
		SearchHandler:  searchHandler,
		AuthService:    authService,
		Limiter:        limiter,
		StaticFS:       static.FS,
	})

	// Session cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessionStore.DeleteExpiredSessions(context.Background()); err != nil {
				slog.Error("failed to clean up expired sessions", "error", err)
			}
		}
	}()

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Simple Email starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
