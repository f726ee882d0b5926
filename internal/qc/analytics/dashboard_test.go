package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"qcportal/internal/qc/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/mock"
)

var now = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func rec(product, testType string, status model.Status, age time.Duration, signed bool) *model.TestRecord {
	r := &model.TestRecord{
		ProductName:    product,
		TestType:       testType,
		PassFailStatus: status,
		CreatedAt:      now.Add(-age),
	}
	if signed {
		r.Signature = &model.Signature{Signer: "alice"}
	}
	return r
}

func TestCompute_Empty(t *testing.T) {
	d := Compute(nil, now)
	assert.Zero(t, d.TotalTests)
	assert.Equal(t, 0.0, d.PassRate)
	assert.NotNil(t, d.TestTypesDistribution)
	assert.NotNil(t, d.ProductStatistics)
}

func TestCompute(t *testing.T) {
	records := []*model.TestRecord{
		rec("Aspirin", "Assay", model.StatusPass, time.Hour, true),
		rec("Aspirin", "Assay", model.StatusFail, 2*time.Hour, false),
		rec("Aspirin", "Dissolution", model.StatusPending, 8*24*time.Hour, false),
		rec("Ibuprofen", "Custom Potency", model.StatusPass, 7*24*time.Hour, false),
		rec("Ibuprofen", "", model.StatusPass, 30*24*time.Hour, true),
		rec("Ibuprofen", "Assay", model.StatusPass, -time.Hour, false), // clock skew: created in the future
	}

	d := Compute(records, now)

	assert.Equal(t, 6, d.TotalTests)
	assert.Equal(t, 4, d.PassTests)
	assert.Equal(t, 1, d.FailTests)
	assert.Equal(t, 1, d.PendingTests)
	assert.Equal(t, 2, d.SignedTests)
	assert.Equal(t, 66.7, d.PassRate)
	assert.Equal(t, 3, d.RecentTestsCount, "window is inclusive of exactly seven days")

	assert.Equal(t, map[string]int{
		"Assay": 3, "Dissolution": 1, "Custom Potency": 1, UnknownTestType: 1,
	}, d.TestTypesDistribution)

	assert.Equal(t, ProductStats{Total: 3, Pass: 1, Fail: 1, Pending: 1}, d.ProductStatistics["Aspirin"])
	assert.Equal(t, ProductStats{Total: 3, Pass: 3}, d.ProductStatistics["Ibuprofen"])
}

func TestCompute_Identities(t *testing.T) {
	statuses := []model.Status{model.StatusPass, model.StatusFail, model.StatusPending}
	products := []string{"A", "B", "C", "D"}

	var records []*model.TestRecord
	for i := 0; i < 97; i++ {
		records = append(records, rec(products[i%len(products)], "Assay", statuses[(i*7)%3], time.Duration(i)*time.Hour, i%5 == 0))
	}
	d := Compute(records, now)

	assert.Equal(t, d.TotalTests, d.PassTests+d.FailTests+d.PendingTests)
	total := 0
	for p, ps := range d.ProductStatistics {
		assert.Equal(t, ps.Total, ps.Pass+ps.Fail+ps.Pending, "product %s", p)
		total += ps.Total
	}
	assert.Equal(t, d.TotalTests, total)
}

func TestPassRate(t *testing.T) {
	assert.Equal(t, 0.0, PassRate(0, 0))
	assert.Equal(t, 100.0, PassRate(3, 3))
	assert.Equal(t, 33.3, PassRate(1, 3))
	assert.Equal(t, 12.5, PassRate(1, 8))
}

type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) FindTestRecords(ctx context.Context, filter model.TestRecordFilter) ([]*model.TestRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TestRecord), args.Error(1)
}

// blockingSource holds every read until release is closed
type blockingSource struct {
	calls   atomic.Int32
	release chan struct{}
	records []*model.TestRecord
}

func (s *blockingSource) FindTestRecords(ctx context.Context, _ model.TestRecordFilter) ([]*model.TestRecord, error) {
	s.calls.Add(1)
	select {
	case <-s.release:
		return s.records, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestAggregator_CoalescesConcurrentCalls(t *testing.T) {
	src := &blockingSource{release: make(chan struct{}), records: []*model.TestRecord{rec("A", "Assay", model.StatusPass, 0, false)}}
	agg := NewAggregator(src, time.Second)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]*Dashboard, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := agg.Dashboard(context.Background(), Filter{})
			assert.NoError(t, err)
			results[i] = d
		}(i)
	}

	assert.Eventually(t, func() bool { return src.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, d := range results {
		require.NotNil(t, d)
		assert.Equal(t, 1, d.TotalTests)
	}
}

func TestAggregator_InvalidateForcesRecompute(t *testing.T) {
	src := new(MockRecordSource)
	first := []*model.TestRecord{rec("A", "Assay", model.StatusPass, 0, false)}
	second := append(first, rec("A", "Assay", model.StatusFail, 0, false))
	src.On("FindTestRecords", mock.Anything, model.TestRecordFilter{}).Return(first, nil).Once()
	src.On("FindTestRecords", mock.Anything, model.TestRecordFilter{}).Return(second, nil).Once()

	agg := NewAggregator(src, time.Second)
	ctx := context.Background()

	d1, err := agg.Dashboard(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, d1.TotalTests)

	agg.Invalidate()

	d2, err := agg.Dashboard(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, d2.TotalTests)
	assert.Equal(t, 50.0, d2.PassRate)
	src.AssertExpectations(t)
}

func TestAggregator_PassesDateBounds(t *testing.T) {
	src := new(MockRecordSource)
	src.On("FindTestRecords", mock.Anything, model.TestRecordFilter{DateFrom: "2025-06-01", DateTo: "2025-06-30"}).
		Return([]*model.TestRecord{}, nil).Once()

	d, err := NewAggregator(src, time.Second).Dashboard(context.Background(), Filter{DateFrom: "2025-06-01", DateTo: "2025-06-30"})
	require.NoError(t, err)
	assert.Zero(t, d.TotalTests)
	src.AssertExpectations(t)
}

func TestAggregator_CallerDeadline(t *testing.T) {
	src := &blockingSource{release: make(chan struct{})}
	defer close(src.release)
	agg := NewAggregator(src, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := agg.Dashboard(ctx, Filter{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
