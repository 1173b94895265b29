package web

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ongbook-dev/ongbook/internal/audit"
	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

const sessionName = "ongbook"

type userKey struct{}

// currentUser returns the authenticated user attached to the request.
func currentUser(r *http.Request) model.User {
	u, _ := r.Context().Value(userKey{}).(model.User)
	return u
}

// requireUser resolves the session into a user and attaches it, along
// with the audit actor, to the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessions.Get(r, sessionName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("invalid session"))
			return
		}
		userID, ok := session.Values["user_id"].(int64)
		if !ok || userID == 0 {
			writeError(w, http.StatusUnauthorized, errors.New("not logged in"))
			return
		}

		u, err := s.auth.Get(r.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, errors.New("not logged in"))
			return
		}
		if err != nil {
			respondError(w, err)
			return
		}
		if !u.Active {
			writeError(w, http.StatusForbidden, errors.New("account deactivated"))
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, u)
		ctx = audit.WithActor(ctx, audit.Actor{
			Username:   u.Email,
			RemoteAddr: remoteAddr(r),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePerm guards a subtree behind a role permission.
func (s *Server) requirePerm(p model.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !currentUser(r).Can(p) {
				writeError(w, http.StatusForbidden, errors.New("permission denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
