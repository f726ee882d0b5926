package model

import "strings"

// CreateTestRecordReq is a test result submission. Any pass/fail status sent by the
// client is not part of this type and is therefore discarded.
type CreateTestRecordReq struct {
	BatchNumber      string      `json:"batch_number" validate:"required,max=50"`
	ProductName      string      `json:"product_name" validate:"required,max=200"`
	TestType         string      `json:"test_type" validate:"omitempty,max=100"`
	TestMethod       string      `json:"test_method" validate:"omitempty,max=200"`
	EquipmentUsed    string      `json:"equipment_used" validate:"omitempty,max=100"`
	TestDate         string      `json:"test_date" validate:"omitempty,calendar_date"`
	TestTime         string      `json:"test_time" validate:"omitempty,clock_time"`
	ResultValue      Measurement `json:"result_value" validate:"required,measurement"`
	ResultUnit       string      `json:"result_unit" validate:"omitempty,max=50"`
	SpecificationMin Measurement `json:"specification_min" validate:"omitempty,max=50"`
	SpecificationMax Measurement `json:"specification_max" validate:"omitempty,max=50"`
	Comments         string      `json:"comments" validate:"omitempty,max=2000"`
	DeviationNotes   string      `json:"deviation_notes" validate:"omitempty,max=2000"`
	RetestRequired   bool        `json:"retest_required"`
}

func (r *CreateTestRecordReq) Validate() error {
	r.BatchNumber = strings.TrimSpace(r.BatchNumber)
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.TestType = strings.TrimSpace(r.TestType)
	r.TestMethod = strings.TrimSpace(r.TestMethod)
	r.EquipmentUsed = strings.TrimSpace(r.EquipmentUsed)
	r.TestDate = strings.TrimSpace(r.TestDate)
	r.TestTime = strings.TrimSpace(r.TestTime)
	r.ResultValue = Measurement(strings.TrimSpace(string(r.ResultValue)))
	r.ResultUnit = strings.TrimSpace(r.ResultUnit)
	r.SpecificationMin = Measurement(strings.TrimSpace(string(r.SpecificationMin)))
	r.SpecificationMax = Measurement(strings.TrimSpace(string(r.SpecificationMax)))

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
