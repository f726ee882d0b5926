package model

import "strings"

type CreateBatchReq struct {
	// BatchNumber is generated when left empty
	BatchNumber           string `json:"batch_number" validate:"omitempty,max=50"`
	ProductName           string `json:"product_name" validate:"required,max=200"`
	ManufacturingDate     string `json:"manufacturing_date" validate:"omitempty,calendar_date"`
	ExpiryDate            string `json:"expiry_date" validate:"omitempty,calendar_date"`
	BatchSize             string `json:"batch_size" validate:"omitempty,max=50"`
	ManufacturingLocation string `json:"manufacturing_location" validate:"omitempty,max=200"`
}

func (r *CreateBatchReq) Validate() error {
	r.BatchNumber = strings.TrimSpace(r.BatchNumber)
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.ManufacturingDate = strings.TrimSpace(r.ManufacturingDate)
	r.ExpiryDate = strings.TrimSpace(r.ExpiryDate)
	r.BatchSize = strings.TrimSpace(r.BatchSize)
	r.ManufacturingLocation = strings.TrimSpace(r.ManufacturingLocation)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	if r.ManufacturingDate != "" && r.ExpiryDate != "" && r.ExpiryDate < r.ManufacturingDate {
		return NewFieldError("expiry_date", "must not be before manufacturing_date")
	}
	return nil
}

type ListBatchesReq struct {
	BatchNumber string `query:"batch_number" validate:"omitempty,max=50"`
	ProductName string `query:"product_name" validate:"omitempty,max=200"`
}

func (r *ListBatchesReq) Validate() error {
	r.BatchNumber = strings.TrimSpace(r.BatchNumber)
	r.ProductName = strings.TrimSpace(r.ProductName)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

func (r *ListBatchesReq) ToFilter() BatchFilter {
	return BatchFilter{BatchNumber: r.BatchNumber, ProductName: r.ProductName}
}

type NextBatchNumberResp struct {
	BatchNumber string `json:"batch_number"`
}

type CreateSpecificationReq struct {
	ProductName     string      `json:"product_name" validate:"required,max=200"`
	TestType        string      `json:"test_type" validate:"required,max=100"`
	MinLimit        Measurement `json:"min_limit" validate:"required,measurement"`
	MaxLimit        Measurement `json:"max_limit" validate:"required,measurement"`
	Unit            string      `json:"unit" validate:"omitempty,max=50"`
	MethodReference string      `json:"method_reference" validate:"omitempty,max=200"`
}

func (r *CreateSpecificationReq) Validate() error {
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.TestType = strings.TrimSpace(r.TestType)
	r.MinLimit = Measurement(strings.TrimSpace(string(r.MinLimit)))
	r.MaxLimit = Measurement(strings.TrimSpace(string(r.MaxLimit)))
	r.Unit = strings.TrimSpace(r.Unit)
	r.MethodReference = strings.TrimSpace(r.MethodReference)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	lo, _ := r.MinLimit.Float()
	hi, _ := r.MaxLimit.Float()
	if lo > hi {
		return NewFieldError("max_limit", "must not be below min_limit")
	}
	return nil
}

type ListSpecificationsReq struct {
	ProductName string `query:"product_name" validate:"omitempty,max=200"`
	TestType    string `query:"test_type" validate:"omitempty,max=100"`
}

func (r *ListSpecificationsReq) Validate() error {
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.TestType = strings.TrimSpace(r.TestType)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

func (r *ListSpecificationsReq) ToFilter() SpecificationFilter {
	return SpecificationFilter{ProductName: r.ProductName, TestType: r.TestType}
}

type CreateEquipmentReq struct {
	EquipmentName       string `json:"equipment_name" validate:"required,max=100"`
	EquipmentID         string `json:"equipment_id" validate:"required,max=50"`
	CalibrationStatus   string `json:"calibration_status" validate:"omitempty,max=50"`
	LastCalibrationDate string `json:"last_calibration_date" validate:"omitempty,calendar_date"`
	NextCalibrationDate string `json:"next_calibration_date" validate:"omitempty,calendar_date"`
}

func (r *CreateEquipmentReq) Validate() error {
	r.EquipmentName = strings.TrimSpace(r.EquipmentName)
	r.EquipmentID = strings.ToUpper(strings.TrimSpace(r.EquipmentID))
	r.CalibrationStatus = strings.TrimSpace(r.CalibrationStatus)
	r.LastCalibrationDate = strings.TrimSpace(r.LastCalibrationDate)
	r.NextCalibrationDate = strings.TrimSpace(r.NextCalibrationDate)

	if r.CalibrationStatus == "" {
		r.CalibrationStatus = "Calibrated"
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
