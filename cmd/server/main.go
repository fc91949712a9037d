package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"

	"github.com/potatoomann/11code-site/internal/config"
	"github.com/potatoomann/11code-site/internal/contact"
	"github.com/potatoomann/11code-site/internal/events"
	"github.com/potatoomann/11code-site/internal/handlers"
	"github.com/potatoomann/11code-site/internal/store"
)

func main() {
	// Configure slog as early as possible in main.
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	// TextHandler for console readability; JSONHandler might be preferred in production.
	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Init stores
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	if err := db.InitSchema(); err != nil {
		slog.Error("Failed to init schema", "error", err)
		os.Exit(1)
	}
	products := store.NewProductStore(cfg.DataDir)
	adminUsers := store.NewAdminUserStore(cfg.DataDir)
	eventLog := events.NewLog(db, events.NewBus())

	// 3. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"

	// 4. Gate and Handlers
	gate := &handlers.AdminGate{
		SessionStore: sessionStore,
		Limiter:      handlers.NewRateLimiter(cfg.RateWindow, cfg.RateLimit),
		Enabled:      cfg.AdminEnabled,
	}
	adminHandler := &handlers.AdminHandler{
		Users:        adminUsers,
		SessionStore: sessionStore,
	}
	productHandler := &handlers.ProductHandler{
		Products: products,
		Events:   eventLog,
	}
	contactHandler := &handlers.ContactHandler{
		Contacts: contact.NewStore(db),
		Events:   eventLog,
	}
	pageHandler := &handlers.PageHandler{
		AdminDir: cfg.AdminDir,
	}

	mux := http.NewServeMux()

	// Admin pages
	mux.HandleFunc("GET /admin", gate.Public(pageHandler.LoginPage))
	mux.HandleFunc("GET /admin/dashboard", gate.Private(pageHandler.DashboardPage))

	// Auth / CSRF / session APIs
	mux.HandleFunc("GET /api/csrf", gate.Public(adminHandler.CSRFToken))
	mux.HandleFunc("GET /api/session", gate.Public(adminHandler.SessionStatus))
	mux.HandleFunc("POST /api/login", gate.Mutating(adminHandler.Login))
	mux.HandleFunc("POST /api/logout", gate.Mutating(adminHandler.Logout))

	// Site contact details
	mux.HandleFunc("GET /api/contact", gate.Private(contactHandler.Get))
	mux.HandleFunc("PUT /api/contact", gate.MutatingPrivate(contactHandler.Save))

	// Product management API
	mux.HandleFunc("GET /api/products", gate.Private(productHandler.List))
	mux.HandleFunc("POST /api/products", gate.MutatingPrivate(productHandler.Create))
	mux.HandleFunc("PUT /api/products/{id}/stock", gate.MutatingPrivate(productHandler.UpdateStock))
	mux.HandleFunc("PUT /api/products/{id}/sizes", gate.MutatingPrivate(productHandler.UpdateSize))
	mux.HandleFunc("DELETE /api/products/{id}", gate.MutatingPrivate(productHandler.Delete))

	// Paths that look like admin routes are dead ends no matter what is on disk.
	for _, path := range handlers.BlockedAdminPaths {
		mux.HandleFunc(path, handlers.NotFound)
	}

	// Public storefront files
	fileServer := http.FileServer(http.Dir(cfg.StaticDir))
	mux.Handle("/", fileServer)

	// 5. Middleware chain: Logger -> Security Headers -> Mux
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(mux),
	)

	// 6. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "adminEnabled", cfg.AdminEnabled)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	if err := db.Close(); err != nil {
		slog.Error("Failed to close store", "error", err)
	}

	slog.Info("Server exited gracefully.")
}
