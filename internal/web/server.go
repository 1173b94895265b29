// Package web exposes the accounting services as a JSON HTTP API.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/ongbook-dev/ongbook/internal/audit"
	"github.com/ongbook-dev/ongbook/internal/auth"
	"github.com/ongbook-dev/ongbook/internal/bankrec"
	"github.com/ongbook-dev/ongbook/internal/budget"
	"github.com/ongbook-dev/ongbook/internal/csvio"
	"github.com/ongbook-dev/ongbook/internal/ledger"
	"github.com/ongbook-dev/ongbook/internal/report"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// Config holds everything the server needs.
type Config struct {
	Addr          string
	SessionSecret string
	SessionMaxAge int
	Logger        *slog.Logger

	Store   *store.Store
	Ledger  *ledger.Service
	Budget  *budget.Service
	Reports *report.Service
	Auth    *auth.Service
	Audit   *audit.Recorder
	CSV     *csvio.Service
	BankRec *bankrec.Service
}

// Server is the HTTP API server.
type Server struct {
	addr     string
	log      *slog.Logger
	sessions *sessions.CookieStore

	store   *store.Store
	ledger  *ledger.Service
	budget  *budget.Service
	reports *report.Service
	auth    *auth.Service
	audit   *audit.Recorder
	csv     *csvio.Service
	bankrec *bankrec.Service
}

// NewServer creates the API server with its cookie session store.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(cfg.SessionMaxAge)
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		addr:     cfg.Addr,
		log:      cfg.Logger,
		sessions: sessionStore,
		store:    cfg.Store,
		ledger:   cfg.Ledger,
		budget:   cfg.Budget,
		reports:  cfg.Reports,
		auth:     cfg.Auth,
		audit:    cfg.Audit,
		csv:      cfg.CSV,
		bankrec:  cfg.BankRec,
	}
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("starting server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.log.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Routes builds the full route tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", s.handleLogin)
		api.Post("/auth/password-reset", s.handlePasswordResetStart)
		api.Post("/auth/password-reset/confirm", s.handlePasswordResetConfirm)

		api.Group(func(authed chi.Router) {
			authed.Use(s.requireUser)

			authed.Post("/auth/logout", s.handleLogout)
			authed.Get("/auth/me", s.handleMe)
			authed.Post("/auth/password", s.handleChangePassword)

			s.entryRoutes(authed)
			s.templateRoutes(authed)
			s.reconciliationRoutes(authed)
			s.projectRoutes(authed)
			s.reportRoutes(authed)
			s.adminRoutes(authed)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
