// Package audit maintains the tamper-evident activity trail. Every entry is linked to
// its predecessor by hash, and Record must run inside the unit of work of the change
// it documents so that neither can commit without the other.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qcportal/internal/qc/model"
	"qcportal/internal/qc/repository"

	"github.com/google/uuid"
)

var ErrInvalidEvent = errors.New("invalid audit event")

// Event describes one action to record
type Event struct {
	Actor      *model.User
	Action     model.AuditAction
	EntityType string
	EntityID   string
	Details    map[string]string
	// At is the time of the documented change. The entry is never stamped earlier.
	At time.Time
}

type Logger struct {
	repo repository.AuditRepository
	uow  repository.UnitOfWork
	now  func() time.Time
}

type Option func(*Logger)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

func NewLogger(repo repository.AuditRepository, uow repository.UnitOfWork, opts ...Option) *Logger {
	l := &Logger{repo: repo, uow: uow, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends one entry. Called with a ctx already inside a unit of work it joins
// that unit; otherwise it opens its own.
func (l *Logger) Record(ctx context.Context, ev Event) (*model.AuditLogEntry, error) {
	if ev.Actor == nil {
		return nil, fmt.Errorf("%w: missing actor", ErrInvalidEvent)
	}
	if !model.AllowedActions[ev.Action] {
		return nil, fmt.Errorf("%w: action %q", ErrInvalidEvent, ev.Action)
	}
	if ev.EntityType == "" {
		return nil, fmt.Errorf("%w: missing entity type", ErrInvalidEvent)
	}

	// Millisecond precision survives a MongoDB round trip, which keeps hashes stable
	ts := l.now().UTC().Truncate(time.Millisecond)
	if at := ev.At.UTC().Truncate(time.Millisecond); at.After(ts) {
		ts = at
	}

	details := make(map[string]string, len(ev.Details))
	for k, v := range ev.Details {
		details[k] = v
	}

	entry := &model.AuditLogEntry{
		ID:         uuid.NewString(),
		UserID:     ev.Actor.ID,
		Username:   ev.Actor.Username,
		Action:     ev.Action,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Details:    details,
		Timestamp:  ts,
	}

	err := l.uow.WithTx(ctx, func(ctx context.Context) error {
		return l.repo.AppendAudit(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Query returns matching entries newest-first
func (l *Logger) Query(ctx context.Context, filter model.AuditLogFilter) ([]*model.AuditLogEntry, error) {
	entries, err := l.repo.FindAuditLogs(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*model.AuditLogEntry{}
	}
	return entries, nil
}
