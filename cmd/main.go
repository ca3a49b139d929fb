package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ContactDesk/internal/config"
	"ContactDesk/internal/db"
	"ContactDesk/internal/handlers"
	"ContactDesk/internal/logging"
	mw "ContactDesk/internal/middleware"
	"ContactDesk/internal/sessions"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	pool, err := db.Open(context.Background(), cfg.Database)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer pool.Close()

	sm := sessions.NewManager(cfg.SessionSecret, cfg.SecureCookies)
	h, err := handlers.New(pool, sm, logger, cfg.TemplatesDir)
	if err != nil {
		logger.Fatal("handler init failed", zap.Error(err))
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RedirectSlashes)
	r.Use(mw.Recoverer(logger, h.ServerErrorPage))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	r.Get("/", h.Home)

	r.Get("/register", h.ShowRegisterForm)
	r.Post("/register", h.HandleRegister)
	r.Get("/login", h.ShowLoginForm)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)

	// session-gated pages
	r.Group(func(g chi.Router) {
		g.Use(mw.RequireUser(sm))
		g.Get("/contact", h.ShowContactForm)
		g.Post("/contact", h.HandleContact)
	})

	r.NotFound(h.NotFoundPage)

	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
