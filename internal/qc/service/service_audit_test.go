package service

import (
	"context"
	"testing"

	"qcportal/internal/qc/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditTrail_Completeness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.createRecord(t, "BN-AUD", "Aspirin", "100", "98", "102")
	comments := "corrected unit"
	_, err := f.svc.UpdateTestRecord(ctx, f.analyst, rec.ID, &model.UpdateTestRecordReq{Comments: &comments})
	require.NoError(t, err)
	signed, err := f.svc.SignTestRecord(ctx, f.analyst, rec.ID, f.signReq(f.analyst))
	require.NoError(t, err)

	creates := f.entriesFor(t, rec.ID, model.ActionCreate)
	updates := f.entriesFor(t, rec.ID, model.ActionUpdate)
	signs := f.entriesFor(t, rec.ID, model.ActionSign)
	require.Len(t, creates, 1)
	require.Len(t, updates, 1)
	require.Len(t, signs, 1)

	// Entries never predate the change they document
	assert.False(t, creates[0].Timestamp.Before(rec.CreatedAt))
	assert.False(t, signs[0].Timestamp.Before(signed.Signature.SignedAt))

	// Chain order matches time order
	trail := f.auditTrail(t)
	for i := 1; i < len(trail); i++ {
		assert.Equal(t, trail[i-1].Seq+1, trail[i].Seq)
		assert.False(t, trail[i].Timestamp.Before(trail[i-1].Timestamp), "seq %d", trail[i].Seq)
	}
}

func TestGetAuditLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.createRecord(t, "BN-LOG", "Aspirin", "100", "98", "102")

	t.Run("analysts cannot read the trail", func(t *testing.T) {
		_, err := f.svc.GetAuditLogs(ctx, f.analyst, &model.GetAuditLogsReq{})
		assert.ErrorIs(t, err, ErrAuthorization)
	})

	t.Run("filter by entity", func(t *testing.T) {
		entries, err := f.svc.GetAuditLogs(ctx, f.manager, &model.GetAuditLogsReq{EntityID: rec.ID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, model.ActionCreate, entries[0].Action)
	})

	t.Run("newest first", func(t *testing.T) {
		entries, err := f.svc.GetAuditLogs(ctx, f.auditor, &model.GetAuditLogsReq{})
		require.NoError(t, err)
		for i := 1; i < len(entries); i++ {
			assert.False(t, entries[i].Timestamp.After(entries[i-1].Timestamp))
		}
	})

	t.Run("action filter is case-insensitive", func(t *testing.T) {
		entries, err := f.svc.GetAuditLogs(ctx, f.auditor, &model.GetAuditLogsReq{Action: "view"})
		require.NoError(t, err)
		assert.NotEmpty(t, entries)
		for _, e := range entries {
			assert.Equal(t, model.ActionView, e.Action)
			assert.Equal(t, model.EntityAuditLog, e.EntityType)
		}
	})

	t.Run("bad action", func(t *testing.T) {
		_, err := f.svc.GetAuditLogs(ctx, f.auditor, &model.GetAuditLogsReq{Action: "PURGE"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("viewing is recorded", func(t *testing.T) {
		before := len(f.auditTrail(t))
		_, err := f.svc.GetAuditLogs(ctx, f.auditor, &model.GetAuditLogsReq{Username: "analyst"})
		require.NoError(t, err)

		trail := f.auditTrail(t)
		require.Len(t, trail, before+1)
		last := trail[len(trail)-1]
		assert.Equal(t, model.ActionView, last.Action)
		assert.Equal(t, f.auditor.Username, last.Username)
		assert.Equal(t, "analyst", last.Details["username"])
	})
}

func TestVerifyAuditChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createRecord(t, "BN-V", "Aspirin", "100", "98", "102")

	_, err := f.svc.VerifyAuditChain(ctx, f.manager)
	assert.ErrorIs(t, err, ErrAuthorization)

	report, err := f.svc.VerifyAuditChain(ctx, f.auditor)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, int64(len(f.auditTrail(t))), report.EntriesChecked)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createRecord(t, "BN-D1", "Aspirin", "100", "98", "102")
	f.createRecord(t, "BN-D1", "Aspirin", "90", "98", "102")
	pending := f.createRecord(t, "BN-D2", "Ibuprofen", "5", "", "")

	dash, err := f.svc.Dashboard(ctx, f.auditor, &model.DashboardReq{})
	require.NoError(t, err)
	assert.Equal(t, 3, dash.TotalTests)
	assert.Equal(t, 1, dash.PassTests)
	assert.Equal(t, 1, dash.FailTests)
	assert.Equal(t, 1, dash.PendingTests)
	assert.Equal(t, 0, dash.SignedTests)
	assert.Equal(t, 3, dash.RecentTestsCount)
	assert.InDelta(t, 33.3, dash.PassRate, 0.001)

	// A mutation is visible on the next read
	_, err = f.svc.SignTestRecord(ctx, f.analyst, pending.ID, f.signReq(f.analyst))
	require.NoError(t, err)
	dash, err = f.svc.Dashboard(ctx, f.auditor, &model.DashboardReq{})
	require.NoError(t, err)
	assert.Equal(t, 1, dash.SignedTests)

	_, err = f.svc.Dashboard(ctx, f.auditor, &model.DashboardReq{DateFrom: "2025-02-01", DateTo: "2025-01-01"})
	assert.ErrorIs(t, err, ErrValidation)
}
