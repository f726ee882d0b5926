package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Measurement holds a numeric value exactly as it was submitted. Clients may send a
// JSON number or a string; both are kept as decimal text so that re-evaluating a
// stored record always sees the same input.
type Measurement string

func (m *Measurement) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*m = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = Measurement(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("measurement must be a number or a string: %w", err)
	}
	*m = Measurement(n.String())
	return nil
}

func (m Measurement) String() string {
	return string(m)
}

// IsSet reports whether a value was supplied at all.
func (m Measurement) IsSet() bool {
	return strings.TrimSpace(string(m)) != ""
}

// Float parses the measurement. ok is false for empty, malformed, NaN or infinite values.
func (m Measurement) Float() (v float64, ok bool) {
	s := strings.TrimSpace(string(m))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
