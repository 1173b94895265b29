package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ongbook-dev/ongbook/internal/model"
)

func (s *Server) reportRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(s.requirePerm(model.PermViewReports))
		r.Get("/trial-balance", s.handleTrialBalance)
		r.Get("/financial-statements", s.handleStatements)
		r.Get("/reconciliation", s.handleReconciliation)
		r.Get("/dashboard", s.handleDashboard)
	})
}

// reportYear reads the year query parameter, defaulting to the current year.
func reportYear(r *http.Request) int {
	if y := queryInt(r, "year"); y != 0 {
		return y
	}
	return time.Now().Year()
}

func (s *Server) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	tb, err := s.reports.TrialBalanceFor(r.Context(), reportYear(r), queryBool(r, "with_drafts"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (s *Server) handleStatements(w http.ResponseWriter, r *http.Request) {
	fs, err := s.reports.Statements(r.Context(), reportYear(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (s *Server) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.reports.Reconcile(r.Context(), reportYear(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.DashboardFor(r.Context(), reportYear(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
