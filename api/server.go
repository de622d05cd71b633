package api

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/creativeprojects/webmail/gateway"
	"github.com/creativeprojects/webmail/lib"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

// Config holds API server configuration.
type Config struct {
	Listen         string
	CORSOrigins    []string
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	SecureCookie   bool
	DebugLogger    lib.Logger
}

// Server is the HTTP adapter of the gateway operations.
type Server struct {
	router     chi.Router
	config     Config
	gateway    *gateway.Gateway
	sessions   *sessionStore
	validator  *validator.Validate
	log        lib.Logger
	httpServer *http.Server
}

func New(cfg Config, gw *gateway.Gateway) *Server {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	log := cfg.DebugLogger
	if log == nil {
		log = &lib.NoLog{}
	}
	s := &Server{
		config:    cfg,
		gateway:   gw,
		sessions:  newSessionStore(cfg.SessionTTL),
		validator: newValidator(),
		log:       log,
	}
	s.setupRoutes()
	return s
}

// newValidator reports the JSON names of the fields
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.RequestTimeout))

	if len(s.config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Get("/avatar/{email}", s.handleAvatar)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Post("/logout", s.handleLogout)
		r.Post("/emails", s.handleListMessages)
		r.Post("/email-body", s.handleMessageBody)
		r.Post("/delete-email", s.handleDelete)
		r.Post("/archive-email", s.handleArchive)
		r.Post("/mark-read", s.handleMarkRead)
		r.Post("/mark-unread", s.handleMarkUnread)
		r.Post("/search-emails", s.handleSearch)
		r.Post("/send-email", s.handleSend)
		r.Get("/folders", s.handleFolders)
		r.Get("/profile", s.handleProfile)
		r.Post("/profile", s.handleUpdateProfile)
		r.Post("/avatar", s.handleUpdateAvatar)
	})

	s.router = r
}

// Handler returns the HTTP handler of all the routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Printf("Starting HTTP server on %s", s.config.Listen)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Stop(context.Background())
	}
}

// Stop waits for the running requests, up to the request timeout
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
