// Package web is the HTTP façade over the task store: an HTML home view,
// form actions that redirect back to it, and a small JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/mux"

	"github.com/maloquacious/todolist/internal/config"
	"github.com/maloquacious/todolist/internal/logger"
	"github.com/maloquacious/todolist/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

var cssColor = regexp.MustCompile(`^([a-zA-Z]+|#[0-9a-fA-F]{3,8})$`)

// Server maps HTTP requests onto store operations.
type Server struct {
	cfg    config.Config
	store  store.Store
	log    logger.Logger
	router *mux.Router
}

// New wires the routes. A nil log falls back to logger.Default.
// The store must already be initialized for the task routes to succeed;
// /ready reports whether it is.
func New(cfg config.Config, st store.Store, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default
	}
	s := &Server{
		cfg:    cfg,
		store:  st,
		log:    log,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.recoverer, s.requestLogger)

	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/add", s.handleAdd).Methods(http.MethodPost)
	r.HandleFunc("/toggle/{id:[0-9]+}", s.handleToggle).Methods(http.MethodGet)
	r.HandleFunc("/delete/{id:[0-9]+}", s.handleDelete).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/live", s.handleLive).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/todos", s.handleAPITodos).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleAPIStats).Methods(http.MethodGet)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is canceled, then shuts down within
// the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("public server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("shutdown complete")
	return nil
}

func (s *Server) badgeColor() string {
	if cssColor.MatchString(s.cfg.Environment) {
		return s.cfg.Environment
	}
	return "gray"
}
