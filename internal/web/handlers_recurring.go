package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ongbook-dev/ongbook/internal/bankrec"
	"github.com/ongbook-dev/ongbook/internal/ledger"
	"github.com/ongbook-dev/ongbook/internal/model"
)

func (s *Server) templateRoutes(r chi.Router) {
	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Get("/{id}", s.handleGetTemplate)

		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermEnterEntries))
			r.Post("/", s.handleCreateTemplate)
			r.Put("/{id}", s.handleUpdateTemplate)
			r.Delete("/{id}", s.handleDeleteTemplate)
			r.Post("/{id}/apply", s.handleApplyTemplate)
		})
	})
}

func (s *Server) reconciliationRoutes(r chi.Router) {
	r.Route("/bank-reconciliations", func(r chi.Router) {
		r.Get("/", s.handleListReconciliations)
		r.Get("/{id}", s.handleGetReconciliation)

		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermEnterEntries))
			r.Post("/", s.handleStartReconciliation)
			r.Post("/{id}/match", s.handleMatchReconciliation)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermValidateEntries))
			r.Post("/{id}/validate", s.handleValidateReconciliation)
		})
	})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.ledger.ListTemplates(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.ledger.GetTemplate(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var params ledger.TemplateParams
	if err := decodeJSON(r.Body, &params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.ledger.CreateTemplate(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var params ledger.TemplateParams
	if err := decodeJSON(r.Body, &params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.ledger.UpdateTemplate(r.Context(), id, params)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ledger.DeleteTemplate(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.ledger.ApplyTemplate(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleListReconciliations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.bankrec.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetReconciliation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.bankrec.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStartReconciliation(w http.ResponseWriter, r *http.Request) {
	var params bankrec.StartParams
	if err := decodeJSON(r.Body, &params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.bankrec.Start(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleMatchReconciliation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload struct {
		LineIDs []int64 `json:"line_ids"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.bankrec.Match(r.Context(), id, payload.LineIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleValidateReconciliation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.bankrec.Validate(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
