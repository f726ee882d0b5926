// Package analytics derives dashboard statistics from test records. It only reads.
package analytics

import (
	"math"
	"time"

	"qcportal/internal/qc/model"
)

// RecentWindow bounds recent_tests_count
const RecentWindow = 7 * 24 * time.Hour

// UnknownTestType buckets records submitted without a test type
const UnknownTestType = "Unknown"

type ProductStats struct {
	Total   int `json:"total"`
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Pending int `json:"pending"`
}

// Dashboard is a read-only snapshot. Callers must not modify its maps; concurrent
// requests may share one instance.
type Dashboard struct {
	TotalTests            int                     `json:"total_tests"`
	PassTests             int                     `json:"pass_tests"`
	FailTests             int                     `json:"fail_tests"`
	PendingTests          int                     `json:"pending_tests"`
	SignedTests           int                     `json:"signed_tests"`
	PassRate              float64                 `json:"pass_rate"`
	RecentTestsCount      int                     `json:"recent_tests_count"`
	TestTypesDistribution map[string]int          `json:"test_types_distribution"`
	ProductStatistics     map[string]ProductStats `json:"product_statistics"`
	GeneratedAt           time.Time               `json:"generated_at"`
}

// Compute aggregates records as of now
func Compute(records []*model.TestRecord, now time.Time) *Dashboard {
	d := &Dashboard{
		TestTypesDistribution: map[string]int{},
		ProductStatistics:     map[string]ProductStats{},
		GeneratedAt:           now.UTC(),
	}
	recentFrom := now.Add(-RecentWindow)

	for _, r := range records {
		d.TotalTests++

		ps := d.ProductStatistics[r.ProductName]
		ps.Total++
		switch r.PassFailStatus {
		case model.StatusPass:
			d.PassTests++
			ps.Pass++
		case model.StatusFail:
			d.FailTests++
			ps.Fail++
		default:
			d.PendingTests++
			ps.Pending++
		}
		d.ProductStatistics[r.ProductName] = ps

		testType := r.TestType
		if testType == "" {
			testType = UnknownTestType
		}
		d.TestTypesDistribution[testType]++

		if r.IsSigned() {
			d.SignedTests++
		}
		if !r.CreatedAt.Before(recentFrom) && !r.CreatedAt.After(now) {
			d.RecentTestsCount++
		}
	}

	d.PassRate = PassRate(d.PassTests, d.TotalTests)
	return d
}

// PassRate is pass/total as a percentage rounded to one decimal, 0 for no records
func PassRate(pass, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(pass)*1000/float64(total)) / 10
}
