package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"qcportal/internal/qc/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTestRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.createRecord(t, "BN-001", "Aspirin 100mg", "99.5", "98.0", "102.0")

	assert.Equal(t, model.StatusPass, rec.PassFailStatus)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, f.analyst.Username, rec.AnalystUsername)
	assert.Equal(t, f.analyst.FullName, rec.AnalystName)
	assert.NotEmpty(t, rec.BatchID)
	assert.NotEmpty(t, rec.TestDate)
	assert.NotEmpty(t, rec.TestTime)
	assert.False(t, rec.IsSigned())

	stored, err := f.svc.GetTestRecord(ctx, f.auditor, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)

	batch, err := f.svc.GetBatch(ctx, f.analyst, rec.BatchID)
	require.NoError(t, err)
	assert.Equal(t, "BN-001", batch.BatchNumber)

	// One CREATE for the batch, one for the record
	assert.Len(t, f.entriesFor(t, rec.ID, model.ActionCreate), 1)
	assert.Len(t, f.entriesFor(t, batch.ID, model.ActionCreate), 1)

	// A second record on the same batch reuses it
	again := f.createRecord(t, "BN-001", "aspirin 100MG", "120", "98.0", "102.0")
	assert.Equal(t, batch.ID, again.BatchID)
	assert.Equal(t, model.StatusFail, again.PassFailStatus)
	assert.Len(t, f.entriesFor(t, batch.ID, model.ActionCreate), 1)
}

func TestCreateTestRecord_StatusIsDerived(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		result string
		lo, hi string
		want   model.Status
	}{
		{"inside", "100", "98", "102", model.StatusPass},
		{"lower bound inclusive", "98", "98", "102", model.StatusPass},
		{"upper bound inclusive", "102", "98", "102", model.StatusPass},
		{"below", "97.99", "98", "102", model.StatusFail},
		{"above", "102.01", "98", "102", model.StatusFail},
		{"missing min", "100", "", "102", model.StatusPending},
		{"unparsable max", "100", "98", "n/a", model.StatusPending},
		{"inverted limits", "100", "102", "98", model.StatusFail},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.createRecord(t, "BN-STATUS", "Paracetamol", tc.result, tc.lo, tc.hi)
			assert.Equal(t, tc.want, rec.PassFailStatus)
		})
	}
}

func TestCreateTestRecord_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createRecord(t, "BN-100", "Ibuprofen", "1", "0", "2")
	before := len(f.auditTrail(t))

	t.Run("missing result", func(t *testing.T) {
		_, err := f.svc.CreateTestRecord(ctx, f.analyst, &model.CreateTestRecordReq{
			BatchNumber: "BN-101", ProductName: "Ibuprofen",
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Equal(t, "result_value", verr.Detail.Fields[0].Field)
	})

	t.Run("non numeric result", func(t *testing.T) {
		_, err := f.svc.CreateTestRecord(ctx, f.analyst, &model.CreateTestRecordReq{
			BatchNumber: "BN-101", ProductName: "Ibuprofen", ResultValue: "abc",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("batch belongs to another product", func(t *testing.T) {
		_, err := f.svc.CreateTestRecord(ctx, f.analyst, &model.CreateTestRecordReq{
			BatchNumber: "BN-100", ProductName: "Aspirin", ResultValue: "1",
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "product_name", verr.Detail.Fields[0].Field)
	})

	t.Run("auditor cannot submit", func(t *testing.T) {
		_, err := f.svc.CreateTestRecord(ctx, f.auditor, &model.CreateTestRecordReq{
			BatchNumber: "BN-102", ProductName: "Ibuprofen", ResultValue: "1",
		})
		assert.ErrorIs(t, err, ErrAuthorization)
	})

	t.Run("no actor", func(t *testing.T) {
		_, err := f.svc.CreateTestRecord(ctx, nil, &model.CreateTestRecordReq{})
		assert.ErrorIs(t, err, ErrAuthentication)
	})

	// Nothing was written by any rejected call
	assert.Len(t, f.auditTrail(t), before)
	records, err := f.svc.ListTestRecords(ctx, f.analyst, &model.ListTestRecordsReq{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCreateTestRecord_Timeout(t *testing.T) {
	f := newFixture(t)
	before := len(f.auditTrail(t))
	WithTimeout(time.Nanosecond)(f.svc)

	_, err := f.svc.CreateTestRecord(context.Background(), f.analyst, &model.CreateTestRecordReq{
		BatchNumber: "BN-T", ProductName: "Ibuprofen", ResultValue: "1",
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Len(t, f.auditTrail(t), before)
}

func TestListTestRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createRecord(t, "BN-A1", "Aspirin", "100", "98", "102")
	f.createRecord(t, "BN-A2", "Aspirin", "90", "98", "102")
	f.createRecord(t, "BN-I1", "Ibuprofen", "5", "", "")

	tests := []struct {
		name string
		req  model.ListTestRecordsReq
		want int
	}{
		{"all", model.ListTestRecordsReq{}, 3},
		{"product substring any case", model.ListTestRecordsReq{ProductName: "aspi"}, 2},
		{"batch substring", model.ListTestRecordsReq{BatchNumber: "i1"}, 1},
		{"status", model.ListTestRecordsReq{Status: "Fail"}, 1},
		{"pending", model.ListTestRecordsReq{Status: "Pending"}, 1},
		{"page size", model.ListTestRecordsReq{Size: 2}, 2},
		{"second page", model.ListTestRecordsReq{Size: 2, Page: 2}, 1},
		{"future dates", model.ListTestRecordsReq{DateFrom: "2999-01-01"}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			got, err := f.svc.ListTestRecords(ctx, f.analyst, &req)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tc.want)
		})
	}

	_, err := f.svc.ListTestRecords(ctx, f.analyst, &model.ListTestRecordsReq{Status: "Unknown"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetTestRecord_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetTestRecord(context.Background(), f.analyst, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTestRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.createRecord(t, "BN-U", "Aspirin", "100", "98", "102")

	result := model.Measurement("97")
	version := rec.Version
	updated, err := f.svc.UpdateTestRecord(ctx, f.analyst, rec.ID, &model.UpdateTestRecordReq{
		ResultValue: &result,
		Version:     &version,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFail, updated.PassFailStatus)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt)

	entries := f.entriesFor(t, rec.ID, model.ActionUpdate)
	require.Len(t, entries, 1)
	assert.Equal(t, "result_value", entries[0].Details["updated_fields"])
	assert.Equal(t, "Pass", entries[0].Details["previous_status"])

	t.Run("stale version", func(t *testing.T) {
		_, err := f.svc.UpdateTestRecord(ctx, f.analyst, rec.ID, &model.UpdateTestRecordReq{
			ResultValue: &result,
			Version:     &version,
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("batch is fixed", func(t *testing.T) {
		batch := "BN-OTHER"
		_, err := f.svc.UpdateTestRecord(ctx, f.analyst, rec.ID, &model.UpdateTestRecordReq{BatchNumber: &batch})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := f.svc.UpdateTestRecord(ctx, f.analyst, "missing", &model.UpdateTestRecordReq{ResultValue: &result})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("signed record is immutable", func(t *testing.T) {
		signed, err := f.svc.SignTestRecord(ctx, f.analyst, rec.ID, f.signReq(f.analyst))
		require.NoError(t, err)

		comments := "late edit"
		_, err = f.svc.UpdateTestRecord(ctx, f.analyst, rec.ID, &model.UpdateTestRecordReq{Comments: &comments})
		assert.ErrorIs(t, err, ErrAlreadySigned)

		after, err := f.svc.GetTestRecord(ctx, f.analyst, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, signed, after)
	})
}

func TestPreviewStatus(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.PreviewStatus(context.Background(), f.analyst, &model.PreviewReq{
		ResultValue: "5", SpecificationMin: "1", SpecificationMax: "10",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPass, resp.PassFailStatus)

	resp, err = f.svc.PreviewStatus(context.Background(), f.analyst, &model.PreviewReq{ResultValue: "5"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, resp.PassFailStatus)

	// Previews write nothing
	records, err := f.svc.ListTestRecords(context.Background(), f.analyst, &model.ListTestRecordsReq{})
	require.NoError(t, err)
	assert.Empty(t, records)
}
