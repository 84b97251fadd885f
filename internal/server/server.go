package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/referenda/refclient/config"
	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/internal/handlers"
	"github.com/referenda/refclient/internal/logger"
	"github.com/referenda/refclient/internal/router"
	"github.com/referenda/refclient/internal/session"
)

const cookieMaxAge = 24 * time.Hour

// Server wraps the HTTP server and router of the web frontend.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
}

// New constructs a Server serving every client route to browsers. Each
// browser's token travels in a sealed cookie.
func New(cfg config.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	api, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	key, err := cfg.Session.KeyBytes()
	if err != nil {
		return nil, err
	}
	if key == nil {
		log.Warn("SESSION_KEY not set, browser sessions will not survive a restart")
	}
	sealer, err := session.NewSealer(key)
	if err != nil {
		return nil, err
	}

	views, err := handlers.LoadViews()
	if err != nil {
		return nil, err
	}
	handler := handlers.New(views, log)

	provider := &handlers.CookieProvider{
		API:    api,
		Sealer: sealer,
		Options: session.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
			MaxAge: cookieMaxAge,
		},
		Logger: log,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logger.RequestLogger(log),
		middleware.Timeout(60*time.Second),
	)
	r.Get("/healthz", handlers.Healthz)

	var mountErr error
	r.Group(func(r chi.Router) {
		r.Use(handlers.SessionMiddleware(provider))
		mountErr = router.Mount(r, handler.Routes())
	})
	if mountErr != nil {
		return nil, mountErr
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.API.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     r,
		logger:     log,
	}, nil
}

// Router exposes the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr is the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
