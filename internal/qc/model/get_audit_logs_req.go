package model

import (
	"strings"
	"time"
)

// GetAuditLogsReq filters the audit trail. Dates are inclusive calendar days in UTC.
type GetAuditLogsReq struct {
	Username   string `query:"username" validate:"omitempty,max=50"`
	Action     string `query:"action" validate:"omitempty,oneof=CREATE UPDATE DELETE SIGN VIEW"`
	EntityType string `query:"entity_type" validate:"omitempty,oneof=test batch specification equipment user audit_log"`
	EntityID   string `query:"entity_id" validate:"omitempty,max=64"`
	DateFrom   string `query:"date_from" validate:"omitempty,calendar_date"`
	DateTo     string `query:"date_to" validate:"omitempty,calendar_date"`

	// Pagination
	Page int `query:"page" validate:"omitempty,min=1"`
	Size int `query:"size" validate:"omitempty,min=1,max=1000"`
}

func (r *GetAuditLogsReq) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Action = strings.ToUpper(strings.TrimSpace(r.Action))
	r.EntityType = strings.ToLower(strings.TrimSpace(r.EntityType))
	r.EntityID = strings.TrimSpace(r.EntityID)
	r.DateFrom = strings.TrimSpace(r.DateFrom)
	r.DateTo = strings.TrimSpace(r.DateTo)

	if r.Page <= 0 {
		r.Page = 1
	}
	if r.Size <= 0 {
		r.Size = 100
	}
	if r.Size > 1000 {
		r.Size = 1000
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	if r.DateFrom != "" && r.DateTo != "" && r.DateFrom > r.DateTo {
		return NewFieldError("date_to", "must not be before date_from")
	}
	return nil
}

// ToFilter turns the inclusive day range into [from, next midnight after date_to).
func (r *GetAuditLogsReq) ToFilter() AuditLogFilter {
	f := AuditLogFilter{
		Username:   r.Username,
		Action:     AuditAction(r.Action),
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Skip:       (r.Page - 1) * r.Size,
		Limit:      r.Size,
	}
	if t, err := time.Parse(DateLayout, r.DateFrom); err == nil {
		f.From = &t
	}
	if t, err := time.Parse(DateLayout, r.DateTo); err == nil {
		until := t.AddDate(0, 0, 1)
		f.Until = &until
	}
	return f
}
