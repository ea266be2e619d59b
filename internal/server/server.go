package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gatherly/apiserver/config"
	"github.com/gatherly/apiserver/internal/db"
	"github.com/gatherly/apiserver/internal/handlers"
	"github.com/gatherly/apiserver/internal/mq"
	"github.com/gatherly/apiserver/internal/notify"
	"github.com/gatherly/apiserver/internal/services"
	"github.com/gatherly/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mqBackend  mq.Backend
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	logger := config.NewLogger(cfg.Logging)

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mqBackend, err := mq.NewBackend(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	eventRepo := store.NewEventRepository(dbConn)

	notifier := notify.NewPublisher(mqBackend, cfg.MQ.NotificationsChannel, logger)

	userService := services.NewUserService(userRepo)
	eventService := services.NewEventService(eventRepo, userRepo, notifier, logger)

	authMiddleware := handlers.RequireAuth(cfg.Auth.JWTSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, cfg.Auth.JWTSecret)
	})
	router.Route("/events", func(r chi.Router) {
		handlers.EventRouter(r, eventService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mqBackend:  mqBackend,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.mqBackend != nil {
		_ = s.mqBackend.Close()
	}
	return s.httpServer.Close()
}
