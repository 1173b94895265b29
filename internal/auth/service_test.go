package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongbook-dev/ongbook/internal/audit"
	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, audit.NewRecorder(st), logger), st
}

func createUser(t *testing.T, svc *Service, email, password string, role model.Role) model.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), CreateUserParams{
		Email: email, Name: "Test User", Password: password, Role: role,
	})
	require.NoError(t, err)
	return u
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createUser(t, svc, "marie@ong.org", "s3cret-pass", model.RoleAccountant)

	u, err := svc.Authenticate(ctx, "marie@ong.org", "s3cret-pass", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "marie@ong.org", u.Email)
	assert.False(t, u.LastLoginAt.IsZero())

	_, err = svc.Authenticate(ctx, "marie@ong.org", "wrong", "10.0.0.1")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "nobody@ong.org", "s3cret-pass", "10.0.0.1")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := createUser(t, svc, "ancien@ong.org", "s3cret-pass", model.RoleAuditor)

	_, err := svc.UpdateUser(ctx, u.ID, UpdateUserParams{
		Email: u.Email, Name: u.Name, Role: u.Role, Active: false,
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "ancien@ong.org", "s3cret-pass", "10.0.0.1")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestAuthenticate_Throttled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createUser(t, svc, "marie@ong.org", "s3cret-pass", model.RoleAccountant)

	for range attemptBurst {
		_, err := svc.Authenticate(ctx, "marie@ong.org", "wrong", "")
		assert.ErrorIs(t, err, ErrBadCredentials)
	}

	_, err := svc.Authenticate(ctx, "marie@ong.org", "s3cret-pass", "")
	assert.ErrorIs(t, err, ErrTooManyAttempts, "burst exhausted")
}

func TestAuthenticate_ThrottleResetsOnSuccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createUser(t, svc, "marie@ong.org", "s3cret-pass", model.RoleAccountant)

	for range attemptBurst - 1 {
		_, err := svc.Authenticate(ctx, "marie@ong.org", "wrong", "")
		assert.ErrorIs(t, err, ErrBadCredentials)
	}

	_, err := svc.Authenticate(ctx, "marie@ong.org", "s3cret-pass", "")
	require.NoError(t, err)

	// The counter started over: a full burst is available again.
	for range attemptBurst {
		_, err := svc.Authenticate(ctx, "marie@ong.org", "wrong", "")
		assert.ErrorIs(t, err, ErrBadCredentials)
	}
}

func TestCreateUser_InvalidRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserParams{
		Email: "x@ong.org", Name: "X", Password: "pass", Role: "superadmin",
	})
	assert.Error(t, err)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	createUser(t, svc, "marie@ong.org", "s3cret-pass", model.RoleAccountant)

	_, err := svc.CreateUser(context.Background(), CreateUserParams{
		Email: "marie@ong.org", Name: "Autre", Password: "pass", Role: model.RoleAuditor,
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestSetPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := createUser(t, svc, "marie@ong.org", "old-pass", model.RoleAccountant)

	require.NoError(t, svc.SetPassword(ctx, u.ID, "new-pass"))

	_, err := svc.Authenticate(ctx, "marie@ong.org", "old-pass", "10.0.0.1")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "marie@ong.org", "new-pass", "10.0.0.2")
	assert.NoError(t, err)
}

func TestPasswordReset_Flow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createUser(t, svc, "marie@ong.org", "old-pass", model.RoleAccountant)

	token, err := svc.StartReset(ctx, "marie@ong.org")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, svc.CompleteReset(ctx, token, "new-pass"))

	_, err = svc.Authenticate(ctx, "marie@ong.org", "new-pass", "10.0.0.1")
	assert.NoError(t, err)

	// Tokens are single-use.
	assert.ErrorIs(t, svc.CompleteReset(ctx, token, "other-pass"), ErrBadCredentials)
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.StartReset(context.Background(), "nobody@ong.org")
	require.NoError(t, err, "unknown addresses must not leak through an error")
	assert.Empty(t, token)
}

func TestPasswordReset_Expiry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createUser(t, svc, "marie@ong.org", "old-pass", model.RoleAccountant)

	token, err := svc.StartReset(ctx, "marie@ong.org")
	require.NoError(t, err)

	// Move the clock past the token lifetime.
	svc.now = func() time.Time { return time.Now().Add(resetTTL + time.Minute) }

	assert.ErrorIs(t, svc.CompleteReset(ctx, token, "new-pass"), ErrBadCredentials)
}
