package model

import "strings"

// DashboardReq bounds the dashboard by inclusive test date. Both ends are optional.
type DashboardReq struct {
	DateFrom string `query:"date_from" validate:"omitempty,calendar_date"`
	DateTo   string `query:"date_to" validate:"omitempty,calendar_date"`
}

func (r *DashboardReq) Validate() error {
	r.DateFrom = strings.TrimSpace(r.DateFrom)
	r.DateTo = strings.TrimSpace(r.DateTo)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	if r.DateFrom != "" && r.DateTo != "" && r.DateFrom > r.DateTo {
		return NewFieldError("date_to", "must not be before date_from")
	}
	return nil
}
