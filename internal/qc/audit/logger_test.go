package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"qcportal/internal/qc/model"
	"qcportal/internal/qc/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = &model.User{ID: "u-alice", Username: "alice", Role: model.RoleQCAnalyst}
	t0    = time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestLogger(clock func() time.Time) (*Logger, *repository.MemoryRepository) {
	repo := repository.NewMemoryRepository()
	return NewLogger(repo, repo, WithClock(clock)), repo
}

func TestRecord(t *testing.T) {
	logger, _ := newTestLogger(fixedClock(t0.Add(1500 * time.Microsecond)))
	ctx := context.Background()

	entry, err := logger.Record(ctx, Event{
		Actor:      alice,
		Action:     model.ActionCreate,
		EntityType: model.EntityTest,
		EntityID:   "r1",
		Details:    map[string]string{"batch_number": "BN001"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, int64(1), entry.Seq)
	assert.Equal(t, "alice", entry.Username)
	assert.Equal(t, "u-alice", entry.UserID)
	assert.Equal(t, t0.Add(time.Millisecond), entry.Timestamp, "truncated to milliseconds")
	assert.Equal(t, "BN001", entry.Details["batch_number"])
	assert.Empty(t, entry.PrevHash)
	assert.Equal(t, entry.ComputeHash(), entry.Hash)
}

func TestRecord_NeverBeforeEvent(t *testing.T) {
	// Wall clock behind the entity's own timestamp
	logger, _ := newTestLogger(fixedClock(t0))
	at := t0.Add(2 * time.Second)

	entry, err := logger.Record(context.Background(), Event{
		Actor: alice, Action: model.ActionSign, EntityType: model.EntityTest, EntityID: "r1", At: at,
	})
	require.NoError(t, err)
	assert.False(t, entry.Timestamp.Before(at))
}

func TestRecord_InvalidEvents(t *testing.T) {
	logger, _ := newTestLogger(fixedClock(t0))
	ctx := context.Background()

	tests := []struct {
		name string
		ev   Event
	}{
		{"missing actor", Event{Action: model.ActionCreate, EntityType: model.EntityTest}},
		{"unknown action", Event{Actor: alice, Action: "PURGE", EntityType: model.EntityTest}},
		{"missing entity type", Event{Actor: alice, Action: model.ActionCreate}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := logger.Record(ctx, tc.ev)
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestRecord_JoinsUnitOfWork(t *testing.T) {
	logger, repo := newTestLogger(fixedClock(t0))
	ctx := context.Background()
	boom := errors.New("downstream failure")

	err := repo.WithTx(ctx, func(ctx context.Context) error {
		if _, err := logger.Record(ctx, Event{Actor: alice, Action: model.ActionCreate, EntityType: model.EntityTest, EntityID: "r1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := logger.Query(ctx, model.AuditLogFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "entry rolls back with the failed unit of work")
	assert.NotNil(t, entries)
}

func TestQuery(t *testing.T) {
	clock := t0
	logger, _ := newTestLogger(func() time.Time { return clock })
	ctx := context.Background()
	bob := &model.User{ID: "u-bob", Username: "bob"}

	record := func(actor *model.User, action model.AuditAction, entity string) {
		_, err := logger.Record(ctx, Event{Actor: actor, Action: action, EntityType: entity, EntityID: "x"})
		require.NoError(t, err)
		clock = clock.Add(time.Hour)
	}
	record(alice, model.ActionCreate, model.EntityTest)
	record(bob, model.ActionCreate, model.EntityBatch)
	clock = clock.AddDate(0, 0, 1)
	record(alice, model.ActionSign, model.EntityTest)

	all, err := logger.Query(ctx, model.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.ActionSign, all[0].Action, "newest first")

	byUser, err := logger.Query(ctx, model.AuditLogFilter{Username: "LIC"})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	from := t0
	until := t0.AddDate(0, 0, 1)
	firstDay, err := logger.Query(ctx, model.AuditLogFilter{From: &from, Until: &until})
	require.NoError(t, err)
	assert.Len(t, firstDay, 2)

	batches, err := logger.Query(ctx, model.AuditLogFilter{EntityType: model.EntityBatch})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "bob", batches[0].Username)
}
