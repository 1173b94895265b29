// Package auth manages users, credentials and login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ongbook-dev/ongbook/internal/audit"
	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

var (
	// ErrBadCredentials is returned for an unknown user or wrong password.
	ErrBadCredentials = errors.New("invalid email or password")
	// ErrUserInactive is returned when a deactivated user logs in.
	ErrUserInactive = errors.New("user account is deactivated")
	// ErrTooManyAttempts is returned when login attempts are throttled.
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// Service authenticates users and manages their accounts.
type Service struct {
	store   *store.Store
	audit   *audit.Recorder
	log     *slog.Logger
	limiter *attemptLimiter
	resets  *resetTokens
	now     func() time.Time
}

// NewService creates an auth Service.
func NewService(st *store.Store, rec *audit.Recorder, log *slog.Logger) *Service {
	return &Service{
		store:   st,
		audit:   rec,
		log:     log,
		limiter: newAttemptLimiter(),
		resets:  newResetTokens(),
		now:     time.Now,
	}
}

// Authenticate checks an email/password pair. Attempts are throttled per
// email and per remote address.
func (s *Service) Authenticate(ctx context.Context, email, password, remoteAddr string) (model.User, error) {
	if !s.limiter.allow(email) || !s.limiter.allow(remoteAddr) {
		s.log.Warn("login throttled", "email", email, "remote", remoteAddr)
		return model.User{}, ErrTooManyAttempts
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, ErrBadCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if !u.Active {
		return model.User{}, ErrUserInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.log.Warn("login failed", "email", email, "remote", remoteAddr)
		return model.User{}, ErrBadCredentials
	}

	u.LastLoginAt = s.now()
	if err := s.store.TouchLastLogin(ctx, u.ID, u.LastLoginAt); err != nil {
		return model.User{}, err
	}
	s.limiter.reset(email)
	s.log.Info("login", "email", email, "role", u.Role)
	return u, nil
}

// CreateUserParams holds parameters for creating a user.
type CreateUserParams struct {
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// CreateUser hashes the password and stores a new active user.
func (s *Service) CreateUser(ctx context.Context, params CreateUserParams) (model.User, error) {
	if !params.Role.Valid() {
		return model.User{}, fmt.Errorf("unknown role %q", params.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	u := model.User{
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: string(hash),
		Role:         params.Role,
		Active:       true,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	if err := s.audit.Record(ctx, model.AuditCreate, "users", u.ID, nil, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// UpdateUserParams holds the mutable user fields.
type UpdateUserParams struct {
	Email  string     `json:"email"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
	Active bool       `json:"active"`
}

// UpdateUser changes profile, role and active flag of a user.
func (s *Service) UpdateUser(ctx context.Context, id int64, params UpdateUserParams) (model.User, error) {
	if !params.Role.Valid() {
		return model.User{}, fmt.Errorf("unknown role %q", params.Role)
	}

	old, err := s.store.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	u := old
	u.Email = params.Email
	u.Name = params.Name
	u.Role = params.Role
	u.Active = params.Active
	if err := s.store.UpdateUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	if err := s.audit.Record(ctx, model.AuditUpdate, "users", u.ID, old, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// SetPassword replaces a user's password.
func (s *Service) SetPassword(ctx context.Context, id int64, password string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.PasswordHash = string(hash)
	if err := s.store.UpdateUser(ctx, &u); err != nil {
		return err
	}
	return s.audit.Record(ctx, model.AuditUpdate, "users", u.ID, nil, nil)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (model.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsers(ctx)
}

// StartReset issues a short-lived password reset token for the account
// behind an email address. The token is returned to the caller for
// delivery; unknown addresses yield an empty token without error so the
// endpoint does not leak which emails exist.
func (s *Service) StartReset(ctx context.Context, email string) (string, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	token := s.resets.issue(u.ID, s.now())
	s.log.Info("password reset requested", "email", u.Email)
	return token, nil
}

// CompleteReset redeems a reset token and sets the new password.
func (s *Service) CompleteReset(ctx context.Context, token, password string) error {
	userID, ok := s.resets.redeem(token, s.now())
	if !ok {
		return ErrBadCredentials
	}
	return s.SetPassword(ctx, userID, password)
}
