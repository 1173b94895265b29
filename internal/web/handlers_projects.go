package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ongbook-dev/ongbook/internal/model"
)

func (s *Server) projectRoutes(r chi.Router) {
	r.Route("/donors", func(r chi.Router) {
		r.Get("/", s.handleListDonors)
		r.Get("/{id}", s.handleGetDonor)
		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermManageProjects))
			r.Post("/", s.handleCreateDonor)
			r.Put("/{id}", s.handleUpdateDonor)
		})
	})

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.handleListProjects)
		r.Get("/{id}", s.handleGetProject)
		r.Get("/{id}/budget-lines", s.handleListBudgetLines)
		r.Get("/{id}/report", s.handleProjectReport)
		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermManageProjects))
			r.Post("/", s.handleCreateProject)
			r.Put("/{id}", s.handleUpdateProject)
			r.Post("/{id}/budget-lines", s.handleCreateBudgetLine)
		})
	})

	r.Route("/budget-lines", func(r chi.Router) {
		r.Use(s.requirePerm(model.PermManageProjects))
		r.Put("/{id}", s.handleUpdateBudgetLine)
		r.Delete("/{id}", s.handleDeleteBudgetLine)
	})

	r.Get("/alerts", s.handleAlerts)
	r.Get("/budget-overview", s.handleBudgetOverview)
}

func (s *Server) handleListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := s.store.ListDonors(r.Context(), queryBool(r, "active"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donors)
}

func (s *Server) handleGetDonor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	donor, err := s.store.GetDonor(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donor)
}

func (s *Server) handleCreateDonor(w http.ResponseWriter, r *http.Request) {
	var donor model.Donor
	if err := decodeJSON(r.Body, &donor); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	donor.ID = 0
	donor.Active = true
	if err := s.store.CreateDonor(r.Context(), &donor); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditCreate, "donors", donor.ID, nil, donor); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, donor)
}

func (s *Server) handleUpdateDonor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	old, err := s.store.GetDonor(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	donor := old
	if err := decodeJSON(r.Body, &donor); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	donor.ID = id
	if err := s.store.UpdateDonor(r.Context(), &donor); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditUpdate, "donors", id, old, donor); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donor)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	status := model.ProjectStatus(r.URL.Query().Get("status"))
	projects, err := s.store.ListProjects(r.Context(), status)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var project model.Project
	if err := decodeJSON(r.Body, &project); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	project.ID = 0
	if project.Status == "" {
		project.Status = model.ProjectActive
	}
	if err := s.store.CreateProject(r.Context(), &project); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditCreate, "projects", project.ID, nil, project); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	old, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	project := old
	if err := decodeJSON(r.Body, &project); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	project.ID = id
	if err := s.store.UpdateProject(r.Context(), &project); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditUpdate, "projects", id, old, project); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleListBudgetLines(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lines, err := s.store.ListBudgetLines(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) handleCreateBudgetLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var line model.BudgetLine
	if err := decodeJSON(r.Body, &line); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	line.ID = 0
	line.ProjectID = id
	if line.PlannedAmount.IsZero() && !line.Quantity.IsZero() {
		line.PlannedAmount = line.Quantity.Mul(line.UnitCost).Round(2)
	}
	if err := s.store.CreateBudgetLine(r.Context(), &line); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditCreate, "budget_lines", line.ID, nil, line); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (s *Server) handleUpdateBudgetLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	old, err := s.store.GetBudgetLine(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	line := old
	if err := decodeJSON(r.Body, &line); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	line.ID = id
	line.ProjectID = old.ProjectID
	if err := s.store.UpdateBudgetLine(r.Context(), &line); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditUpdate, "budget_lines", id, old, line); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) handleDeleteBudgetLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteBudgetLine(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditDelete, "budget_lines", id, nil, nil); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjectReport(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := s.budget.Report(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.budget.Alerts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.budget.Overview(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
