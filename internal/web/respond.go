package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ongbook-dev/ongbook/internal/auth"
	"github.com/ongbook-dev/ongbook/internal/bankrec"
	"github.com/ongbook-dev/ongbook/internal/ledger"
	"github.com/ongbook-dev/ongbook/internal/store"
)

func decodeJSON(body io.ReadCloser, dst any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// respondError maps service errors to HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	var verrs ledger.ValidationErrors
	if errors.As(err, &verrs) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":      "validation failed",
			"violations": verrs,
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, store.ErrInUse):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrEntryValidated),
		errors.Is(err, ledger.ErrEntryNotDraft),
		errors.Is(err, ledger.ErrEntryNotValidated),
		errors.Is(err, ledger.ErrFiscalYearClosed),
		errors.Is(err, ledger.ErrDraftEntries),
		errors.Is(err, ledger.ErrTemplateInactive),
		errors.Is(err, bankrec.ErrReconciliationValidated):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrNoOpenFiscalYear), errors.Is(err, ledger.ErrUnknownMode):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, auth.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, auth.ErrUserInactive):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, auth.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// idParam reads the {id} URL parameter.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// queryInt reads an integer query parameter, 0 when absent.
func queryInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

// queryInt64 reads an int64 query parameter, 0 when absent.
func queryInt64(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v
}

// queryBool reads a boolean query parameter, false when absent.
func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}
