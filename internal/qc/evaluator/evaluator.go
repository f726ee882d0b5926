// Package evaluator derives the compliance status of a measurement. The same function
// backs the live preview and the stored status, so the two can never disagree.
package evaluator

import "qcportal/internal/qc/model"

// Evaluate returns Pending when any input is missing or not a finite number, Pass when
// min <= result <= max, and Fail otherwise. Bounds are inclusive; an inverted range
// (min > max) admits no value and always fails.
func Evaluate(result, min, max model.Measurement) model.Status {
	v, ok := result.Float()
	if !ok {
		return model.StatusPending
	}
	lo, ok := min.Float()
	if !ok {
		return model.StatusPending
	}
	hi, ok := max.Float()
	if !ok {
		return model.StatusPending
	}
	if lo <= v && v <= hi {
		return model.StatusPass
	}
	return model.StatusFail
}

// EvaluateRecord recomputes the status from the record's own stored inputs.
func EvaluateRecord(rec *model.TestRecord) model.Status {
	return Evaluate(rec.ResultValue, rec.SpecificationMin, rec.SpecificationMax)
}
