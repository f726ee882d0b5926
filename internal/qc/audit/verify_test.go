package audit

import (
	"context"
	"testing"
	"time"

	"qcportal/internal/qc/model"
	"qcportal/internal/qc/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tamperedRepo alters entries as they are read back, standing in for edits made
// directly in the database.
type tamperedRepo struct {
	*repository.MemoryRepository
	mutate func(*model.AuditLogEntry) bool // returning false drops the entry
}

func (r *tamperedRepo) IterateAudit(ctx context.Context, fn func(*model.AuditLogEntry) error) error {
	return r.MemoryRepository.IterateAudit(ctx, func(e *model.AuditLogEntry) error {
		if !r.mutate(e) {
			return nil
		}
		return fn(e)
	})
}

func seedChain(t *testing.T, repo *repository.MemoryRepository, n int) {
	t.Helper()
	logger := NewLogger(repo, repo, WithClock(fixedClock(t0)))
	for i := 0; i < n; i++ {
		_, err := logger.Record(context.Background(), Event{
			Actor: alice, Action: model.ActionCreate, EntityType: model.EntityTest, EntityID: "r",
			Details: map[string]string{"result_value": "100"},
		})
		require.NoError(t, err)
	}
}

func TestVerify_IntactChain(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedChain(t, repo, 5)

	report, err := NewLogger(repo, repo).Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, int64(5), report.EntriesChecked)
	assert.Equal(t, int64(5), report.HeadSeq)
	assert.NotEmpty(t, report.HeadHash)
	assert.Zero(t, report.BrokenSeq)
}

func TestVerify_EmptyChain(t *testing.T) {
	repo := repository.NewMemoryRepository()
	report, err := NewLogger(repo, repo).Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Zero(t, report.EntriesChecked)
}

func TestVerify_DetectsTampering(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.AuditLogEntry) bool
		brokenSeq int64
		reason    string
	}{
		{
			name: "edited details",
			mutate: func(e *model.AuditLogEntry) bool {
				if e.Seq == 3 {
					e.Details["result_value"] = "99"
				}
				return true
			},
			brokenSeq: 3,
			reason:    "hash",
		},
		{
			name: "backdated entry",
			mutate: func(e *model.AuditLogEntry) bool {
				if e.Seq == 2 {
					e.Timestamp = e.Timestamp.Add(-time.Hour)
				}
				return true
			},
			brokenSeq: 2,
			reason:    "hash",
		},
		{
			name:      "deleted entry",
			mutate:    func(e *model.AuditLogEntry) bool { return e.Seq != 2 },
			brokenSeq: 3,
			reason:    "expected seq 2",
		},
		{
			name: "rehashed entry",
			mutate: func(e *model.AuditLogEntry) bool {
				if e.Seq == 2 {
					e.Username = "mallory"
					e.Hash = e.ComputeHash()
				}
				return true
			},
			brokenSeq: 3,
			reason:    "prev_hash",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mem := repository.NewMemoryRepository()
			seedChain(t, mem, 4)
			repo := &tamperedRepo{MemoryRepository: mem, mutate: tc.mutate}

			report, err := NewLogger(repo, repo).Verify(context.Background())
			require.NoError(t, err)
			assert.False(t, report.Valid)
			assert.Equal(t, tc.brokenSeq, report.BrokenSeq)
			assert.Contains(t, report.Reason, tc.reason)
		})
	}
}
