// Package audit records who changed what in the ledger.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// Actor identifies the user behind a change.
type Actor struct {
	Username   string
	RemoteAddr string
}

type actorKey struct{}

// WithActor attaches an actor to the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor attached to the context, if any.
func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

// Recorder writes audit trail records.
type Recorder struct {
	store *store.Store
	now   func() time.Time
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(st *store.Store) *Recorder {
	return &Recorder{store: st, now: time.Now}
}

// Record writes one audit record. Old and new values are stored as JSON
// snapshots; either may be nil.
func (r *Recorder) Record(ctx context.Context, action, table string, recordID int64, oldValue, newValue any) error {
	rec := model.AuditRecord{
		Table:     table,
		RecordID:  recordID,
		Action:    action,
		CreatedAt: r.now(),
	}

	actor := ActorFrom(ctx)
	rec.User = actor.Username
	rec.RemoteAddr = actor.RemoteAddr

	var err error
	if rec.OldValues, err = marshal(oldValue); err != nil {
		return fmt.Errorf("encoding old values: %w", err)
	}
	if rec.NewValues, err = marshal(newValue); err != nil {
		return fmt.Errorf("encoding new values: %w", err)
	}

	if err := r.store.InsertAudit(ctx, &rec); err != nil {
		return fmt.Errorf("recording %s on %s/%d: %w", action, table, recordID, err)
	}
	return nil
}

// List returns audit records matching the filter.
func (r *Recorder) List(ctx context.Context, f store.AuditFilter) ([]model.AuditRecord, error) {
	return r.store.ListAudit(ctx, f)
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
