package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ongbook-dev/ongbook/internal/csvio"
	"github.com/ongbook-dev/ongbook/internal/ledger"
	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

func (s *Server) entryRoutes(r chi.Router) {
	r.Route("/entries", func(r chi.Router) {
		r.Get("/", s.handleListEntries)
		r.Get("/{id}", s.handleGetEntry)

		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermExportData))
			r.Get("/export", s.handleExportEntries)
			r.Get("/import/template", s.handleImportTemplate)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermEnterEntries))
			r.Post("/", s.handleCreateEntry)
			r.Post("/simple", s.handleCreateSimpleEntry)
			r.Post("/import", s.handleImportEntries)
			r.Put("/{id}", s.handleUpdateEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermValidateEntries))
			r.Post("/{id}/validate", s.handleValidateEntry)
			r.Post("/{id}/invalidate", s.handleInvalidateEntry)
			r.Post("/validate-batch", s.handleValidateBatch)
		})
	})
}

func (s *Server) entryFilter(r *http.Request) store.EntryFilter {
	f := store.EntryFilter{
		FiscalYearID: queryInt64(r, "fiscal_year_id"),
		JournalID:    queryInt64(r, "journal_id"),
		ProjectID:    queryInt64(r, "project_id"),
		Status:       model.EntryStatus(r.URL.Query().Get("status")),
		Search:       r.URL.Query().Get("q"),
		Limit:        queryInt(r, "limit"),
		Offset:       queryInt(r, "offset"),
	}
	if from := r.URL.Query().Get("from"); from != "" {
		f.From, _ = time.Parse("2006-01-02", from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		f.To, _ = time.Parse("2006-01-02", to)
	}
	if f.Limit == 0 {
		f.Limit = 100
	}
	return f
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.List(r.Context(), s.entryFilter(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var params ledger.CreateParams
	if err := decodeJSON(r.Body, &params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.ledger.Create(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleCreateSimpleEntry(w http.ResponseWriter, r *http.Request) {
	var params ledger.SimpleParams
	if err := decodeJSON(r.Body, &params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.ledger.CreateSimple(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var params ledger.CreateParams
	if err := decodeJSON(r.Body, &params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.ledger.Update(r.Context(), id, params)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleValidateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.ledger.Validate(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleInvalidateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.ledger.Invalidate(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleValidateBatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs []int64 `json:"ids"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	n, err := s.ledger.ValidateBatch(r.Context(), payload.IDs)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"validated": n})
}

func (s *Server) handleExportEntries(w http.ResponseWriter, r *http.Request) {
	f := s.entryFilter(r)
	f.Limit = 0 // exports are never paged

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=entries-%s.csv", time.Now().Format("2006-01-02")))
	if err := s.csv.Export(r.Context(), w, f); err != nil {
		s.log.Error("export failed", "error", err)
	}
}

func (s *Server) handleImportEntries(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	n, err := s.csv.Import(r.Context(), r.Body)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"imported": n})
}

func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=entries-template.csv")
	_, _ = strings.NewReader(csvio.Header + "\n").WriteTo(w)
}
