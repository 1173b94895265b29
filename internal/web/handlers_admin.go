package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ongbook-dev/ongbook/internal/auth"
	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

func (s *Server) adminRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", s.handleListAccounts)
		r.Get("/{id}", s.handleGetAccount)
		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermManageSettings))
			r.Post("/", s.handleCreateAccount)
			r.Put("/{id}", s.handleUpdateAccount)
		})
	})

	r.Route("/journals", func(r chi.Router) {
		r.Get("/", s.handleListJournals)
		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermManageSettings))
			r.Post("/", s.handleCreateJournal)
			r.Put("/{id}", s.handleUpdateJournal)
			r.Delete("/{id}", s.handleDeleteJournal)
		})
	})

	r.Route("/fiscal-years", func(r chi.Router) {
		r.Get("/", s.handleListFiscalYears)
		r.Get("/{id}/closing", s.handleClosingPreview)
		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermCloseFiscalYear))
			r.Post("/", s.handleCreateFiscalYear)
			r.Post("/{id}/close", s.handleCloseFiscalYear)
		})
	})

	r.Get("/currencies", s.handleListCurrencies)

	r.Route("/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requirePerm(model.PermManageUsers))
			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Put("/users/{id}", s.handleUpdateUser)
		})
		r.With(s.requirePerm(model.PermViewAuditTrail)).Get("/audit", s.handleListAudit)
		r.Get("/exchange-rates", s.handleListRates)
		r.With(s.requirePerm(model.PermManageSettings)).Post("/exchange-rates", s.handleUpsertRate)
	})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context(), queryBool(r, "active"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var account model.Account
	if err := decodeJSON(r.Body, &account); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account.ID = 0
	account.Active = true
	if account.Class == 0 && account.Number != "" {
		account.Class = int(account.Number[0] - '0')
	}
	if err := s.store.CreateAccount(r.Context(), &account); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditCreate, "accounts", account.ID, nil, account); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	old, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	account := old
	if err := decodeJSON(r.Body, &account); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account.ID = id
	if err := s.store.UpdateAccount(r.Context(), &account); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditUpdate, "accounts", id, old, account); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleListJournals(w http.ResponseWriter, r *http.Request) {
	journals, err := s.store.ListJournals(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, journals)
}

func (s *Server) handleCreateJournal(w http.ResponseWriter, r *http.Request) {
	var journal model.Journal
	if err := decodeJSON(r.Body, &journal); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	journal.ID = 0
	if err := s.store.CreateJournal(r.Context(), &journal); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditCreate, "journals", journal.ID, nil, journal); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, journal)
}

func (s *Server) handleUpdateJournal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	old, err := s.store.GetJournal(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	journal := old
	if err := decodeJSON(r.Body, &journal); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	journal.ID = id
	if err := s.store.UpdateJournal(r.Context(), &journal); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditUpdate, "journals", id, old, journal); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, journal)
}

func (s *Server) handleDeleteJournal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteJournal(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	if err := s.audit.Record(r.Context(), model.AuditDelete, "journals", id, nil, nil); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFiscalYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.ledger.ListFiscalYears(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleCreateFiscalYear(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Year int `json:"year"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	fy, err := s.ledger.CreateFiscalYear(r.Context(), payload.Year)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fy)
}

func (s *Server) handleClosingPreview(w http.ResponseWriter, r *http.Request) {
	fy, err := s.fiscalYearFromPath(r)
	if err != nil {
		respondError(w, err)
		return
	}
	preview, err := s.ledger.PreviewClose(r.Context(), fy.Year)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleCloseFiscalYear(w http.ResponseWriter, r *http.Request) {
	fy, err := s.fiscalYearFromPath(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var payload struct {
		Force bool `json:"force"`
	}
	// An empty body means a regular, unforced closure.
	if err := decodeJSON(r.Body, &payload); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.ledger.CloseFiscalYear(r.Context(), fy.Year, payload.Force)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) fiscalYearFromPath(r *http.Request) (model.FiscalYear, error) {
	id, err := idParam(r)
	if err != nil {
		return model.FiscalYear{}, store.ErrNotFound
	}
	return s.store.GetFiscalYear(r.Context(), id)
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.store.ListCurrencies(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, currencies)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var params auth.CreateUserParams
	if err := decodeJSON(r.Body, &params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := s.auth.CreateUser(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var params auth.UpdateUserParams
	if err := decodeJSON(r.Body, &params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := s.auth.UpdateUser(r.Context(), id, params)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	f := store.AuditFilter{
		Table:  r.URL.Query().Get("table"),
		Action: r.URL.Query().Get("action"),
		User:   r.URL.Query().Get("user"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if since := r.URL.Query().Get("since"); since != "" {
		f.Since, _ = time.Parse("2006-01-02", since)
	}
	if f.Limit == 0 {
		f.Limit = 100
	}

	records, err := s.audit.List(r.Context(), f)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.store.ListExchangeRates(r.Context(), queryInt64(r, "currency_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (s *Server) handleUpsertRate(w http.ResponseWriter, r *http.Request) {
	var rate model.ExchangeRate
	if err := decodeJSON(r.Body, &rate); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.UpsertExchangeRate(r.Context(), &rate); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}
