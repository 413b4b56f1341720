// Package web provides the HTTP/JSON API for sharebnb.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/evcraddock/sharebnb/internal/auth"
	"github.com/evcraddock/sharebnb/internal/listing"
	"github.com/evcraddock/sharebnb/internal/logging"
	"github.com/evcraddock/sharebnb/internal/message"
	"github.com/evcraddock/sharebnb/internal/metrics"
	"github.com/evcraddock/sharebnb/internal/user"
)

// DefaultMaxUploadBytes bounds request bodies when Options leaves it unset.
const DefaultMaxUploadBytes = 10 << 20

// Options configures a Server.
type Options struct {
	Tokens         *auth.Tokens // nil signs with a random per-process secret
	Uploader       listing.Uploader
	Metrics        *metrics.Metrics // nil disables /metrics
	BcryptCost     int
	MaxUploadBytes int64
	DevMode        bool
	Now            func() time.Time // message clock; nil means time.Now in UTC
}

// Server is the API HTTP server.
type Server struct {
	listings  *listing.Repository
	creator   *listing.Service
	users     *user.Repository
	messages  *message.Repository
	tokens    *auth.Tokens
	metrics   *metrics.Metrics
	devMode   bool
	maxUpload int64
	router    chi.Router
}

// NewServer creates an API server over the given database.
func NewServer(db *sql.DB, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	if opts.Tokens == nil {
		slog.Warn("no token signer configured; tokens will not survive a restart")
		opts.Tokens = auth.NewTokens(uuid.NewString(), auth.DefaultTTL)
	}

	uploader := opts.Uploader
	if opts.Metrics != nil && uploader != nil {
		uploader = opts.Metrics.InstrumentUploader(uploader)
	}

	listings := listing.NewRepository(db)
	s := &Server{
		listings:  listings,
		creator:   listing.NewService(listings, uploader),
		users:     user.NewRepository(db, opts.BcryptCost),
		messages:  message.NewRepository(db, opts.Now),
		tokens:    opts.Tokens,
		metrics:   opts.Metrics,
		devMode:   opts.DevMode,
		maxUpload: opts.MaxUploadBytes,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(s.recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(cors)
	r.Use(s.authenticate)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, "Not Found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.Get("/health", handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/token", s.handleToken)
	})

	r.Route("/listings", func(r chi.Router) {
		r.Get("/", s.handleListListings)
		r.Get("/search", s.handleSearchListings)
		r.Get("/{id}", s.handleGetListing)
		r.With(requireUser).Post("/", s.handleCreateListing)
	})

	r.Get("/users/{id}", s.handleGetUser)

	r.Route("/messages", func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/", s.handleCreateMessage)
		r.Get("/{id}", s.handleGetMessage)
		r.Get("/to/{userId}", s.handleMessagesToUser)
		r.Post("/{id}/read", s.handleMarkRead)
	})

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("starting API server", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
