package analytics

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"qcportal/internal/qc/metrics"
	"qcportal/internal/qc/model"

	"golang.org/x/sync/singleflight"
)

// RecordSource is the slice of the record store the aggregator reads
type RecordSource interface {
	FindTestRecords(ctx context.Context, filter model.TestRecordFilter) ([]*model.TestRecord, error)
}

// Filter bounds the aggregation by inclusive test date
type Filter struct {
	DateFrom string
	DateTo   string
}

// Aggregator computes dashboards on demand. Identical concurrent requests share one
// computation, keyed by a generation counter that Invalidate bumps on every record
// mutation, so a result computed before a mutation is never handed to a caller that
// arrives after it.
type Aggregator struct {
	records    RecordSource
	group      singleflight.Group
	generation atomic.Uint64
	now        func() time.Time
	timeout    time.Duration
}

func NewAggregator(records RecordSource, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Aggregator{records: records, now: time.Now, timeout: timeout}
}

// Invalidate marks every in-flight or future computation under the old generation stale
func (a *Aggregator) Invalidate() {
	a.generation.Add(1)
}

func (a *Aggregator) Dashboard(ctx context.Context, filter Filter) (*Dashboard, error) {
	key := fmt.Sprintf("%d|%s|%s", a.generation.Load(), filter.DateFrom, filter.DateTo)

	ch := a.group.DoChan(key, func() (interface{}, error) {
		// Shared work must not die with whichever caller happened to start it
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		records, err := a.records.FindTestRecords(workCtx, model.TestRecordFilter{
			DateFrom: filter.DateFrom,
			DateTo:   filter.DateTo,
		})
		if err != nil {
			return nil, err
		}
		metrics.AnalyticsComputations.Inc()
		return Compute(records, a.now()), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dashboard), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
