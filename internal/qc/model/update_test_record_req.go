package model

import "strings"

// UpdateTestRecordReq edits an unsigned record. Nil fields are left untouched.
// Batch and product cannot change after submission; submit a new record instead.
type UpdateTestRecordReq struct {
	TestType         *string      `json:"test_type" validate:"omitempty,max=100"`
	TestMethod       *string      `json:"test_method" validate:"omitempty,max=200"`
	EquipmentUsed    *string      `json:"equipment_used" validate:"omitempty,max=100"`
	TestDate         *string      `json:"test_date" validate:"omitempty,calendar_date"`
	TestTime         *string      `json:"test_time" validate:"omitempty,clock_time"`
	ResultValue      *Measurement `json:"result_value"`
	ResultUnit       *string      `json:"result_unit" validate:"omitempty,max=50"`
	SpecificationMin *Measurement `json:"specification_min"`
	SpecificationMax *Measurement `json:"specification_max"`
	Comments         *string      `json:"comments" validate:"omitempty,max=2000"`
	DeviationNotes   *string      `json:"deviation_notes" validate:"omitempty,max=2000"`
	RetestRequired   *bool        `json:"retest_required"`

	// Version, when set, must match the stored record's version.
	Version *int64 `json:"version"`

	// Rejected outright; present only to detect the attempt
	BatchNumber *string `json:"batch_number"`
	ProductName *string `json:"product_name"`
}

func (r *UpdateTestRecordReq) Validate() error {
	for _, s := range []*string{r.TestType, r.TestMethod, r.EquipmentUsed, r.TestDate, r.TestTime, r.ResultUnit} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	for _, m := range []*Measurement{r.ResultValue, r.SpecificationMin, r.SpecificationMax} {
		if m != nil {
			*m = Measurement(strings.TrimSpace(string(*m)))
		}
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	if r.BatchNumber != nil {
		return NewFieldError("batch_number", "cannot be changed after submission")
	}
	if r.ProductName != nil {
		return NewFieldError("product_name", "cannot be changed after submission")
	}
	if r.TestDate != nil && *r.TestDate == "" {
		return NewFieldError("test_date", "must not be empty")
	}
	if r.TestTime != nil && *r.TestTime == "" {
		return NewFieldError("test_time", "must not be empty")
	}
	if r.ResultValue != nil {
		if _, ok := r.ResultValue.Float(); !ok {
			return NewFieldError("result_value", "must be a finite number")
		}
	}
	if len(r.ChangedFields()) == 0 {
		return &ErrorDetail{Code: CodeValidation, Message: "no fields to update"}
	}
	return nil
}

// ChangedFields lists the wire names of the fields present in the request.
func (r *UpdateTestRecordReq) ChangedFields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(r.TestType != nil, "test_type")
	add(r.TestMethod != nil, "test_method")
	add(r.EquipmentUsed != nil, "equipment_used")
	add(r.TestDate != nil, "test_date")
	add(r.TestTime != nil, "test_time")
	add(r.ResultValue != nil, "result_value")
	add(r.ResultUnit != nil, "result_unit")
	add(r.SpecificationMin != nil, "specification_min")
	add(r.SpecificationMax != nil, "specification_max")
	add(r.Comments != nil, "comments")
	add(r.DeviationNotes != nil, "deviation_notes")
	add(r.RetestRequired != nil, "retest_required")
	return fields
}

// Apply copies the present fields onto rec.
func (r *UpdateTestRecordReq) Apply(rec *TestRecord) {
	if r.TestType != nil {
		rec.TestType = *r.TestType
	}
	if r.TestMethod != nil {
		rec.TestMethod = *r.TestMethod
	}
	if r.EquipmentUsed != nil {
		rec.EquipmentUsed = *r.EquipmentUsed
	}
	if r.TestDate != nil {
		rec.TestDate = *r.TestDate
	}
	if r.TestTime != nil {
		rec.TestTime = *r.TestTime
	}
	if r.ResultValue != nil {
		rec.ResultValue = *r.ResultValue
	}
	if r.ResultUnit != nil {
		rec.ResultUnit = *r.ResultUnit
	}
	if r.SpecificationMin != nil {
		rec.SpecificationMin = *r.SpecificationMin
	}
	if r.SpecificationMax != nil {
		rec.SpecificationMax = *r.SpecificationMax
	}
	if r.Comments != nil {
		rec.Comments = *r.Comments
	}
	if r.DeviationNotes != nil {
		rec.DeviationNotes = *r.DeviationNotes
	}
	if r.RetestRequired != nil {
		rec.RetestRequired = *r.RetestRequired
	}
}
