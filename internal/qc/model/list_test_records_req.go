package model

import "strings"

// ListTestRecordsReq filters test records. Bound from the query string on GET and from
// the JSON body on POST /tests/search.
type ListTestRecordsReq struct {
	BatchNumber string `query:"batch_number" json:"batch_number" validate:"omitempty,max=50"`
	ProductName string `query:"product_name" json:"product_name" validate:"omitempty,max=200"`
	TestType    string `query:"test_type" json:"test_type" validate:"omitempty,max=100"`
	Status      string `query:"status" json:"status" validate:"omitempty,oneof=Pass Fail Pending"`
	DateFrom    string `query:"date_from" json:"date_from" validate:"omitempty,calendar_date"`
	DateTo      string `query:"date_to" json:"date_to" validate:"omitempty,calendar_date"`
	Order       string `query:"order" json:"order" validate:"omitempty,oneof=asc desc"`

	// Pagination
	Page int `query:"page" json:"page" validate:"omitempty,min=1"`
	Size int `query:"size" json:"size" validate:"omitempty,min=1,max=1000"`
}

func (r *ListTestRecordsReq) Validate() error {
	r.BatchNumber = strings.TrimSpace(r.BatchNumber)
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.TestType = strings.TrimSpace(r.TestType)
	r.Status = strings.TrimSpace(r.Status)
	r.DateFrom = strings.TrimSpace(r.DateFrom)
	r.DateTo = strings.TrimSpace(r.DateTo)
	r.Order = strings.ToLower(strings.TrimSpace(r.Order))

	// Set default pagination
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

	// Dates are YYYY-MM-DD so lexical order is calendar order
	if r.DateFrom != "" && r.DateTo != "" && r.DateFrom > r.DateTo {
		return NewFieldError("date_to", "must not be before date_from")
	}
	return nil
}

func (r *ListTestRecordsReq) ToFilter() TestRecordFilter {
	return TestRecordFilter{
		BatchNumber: r.BatchNumber,
		ProductName: r.ProductName,
		TestType:    r.TestType,
		Status:      Status(r.Status),
		DateFrom:    r.DateFrom,
		DateTo:      r.DateTo,
		Ascending:   r.Order == "asc",
		Skip:        (r.Page - 1) * r.Size,
		Limit:       r.Size,
	}
}
