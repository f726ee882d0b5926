package model

import "time"

// Batch identifies a manufactured lot under test.
type Batch struct {
	ID                    string    `json:"id" bson:"_id"`
	BatchNumber           string    `json:"batch_number" bson:"batch_number"`
	ProductName           string    `json:"product_name" bson:"product_name"`
	ManufacturingDate     string    `json:"manufacturing_date,omitempty" bson:"manufacturing_date,omitempty"`
	ExpiryDate            string    `json:"expiry_date,omitempty" bson:"expiry_date,omitempty"`
	BatchSize             string    `json:"batch_size,omitempty" bson:"batch_size,omitempty"`
	ManufacturingLocation string    `json:"manufacturing_location,omitempty" bson:"manufacturing_location,omitempty"`
	CreatedBy             string    `json:"created_by" bson:"created_by"`
	CreatedAt             time.Time `json:"created_at" bson:"created_at"`
}

// Signature is the electronic signature block. Its presence makes a record terminal.
type Signature struct {
	Signer     string    `json:"signer" bson:"signer"`
	SignerName string    `json:"signer_name,omitempty" bson:"signer_name,omitempty"`
	Meaning    string    `json:"meaning" bson:"meaning"`
	Comments   string    `json:"comments,omitempty" bson:"comments,omitempty"`
	SignedAt   time.Time `json:"signed_at" bson:"signed_at"`
}

// TestRecord is one QC measurement event against a batch.
type TestRecord struct {
	ID               string      `json:"id" bson:"_id"`
	BatchID          string      `json:"batch_id" bson:"batch_id"`
	BatchNumber      string      `json:"batch_number" bson:"batch_number"`
	ProductName      string      `json:"product_name" bson:"product_name"`
	TestType         string      `json:"test_type" bson:"test_type"`
	TestMethod       string      `json:"test_method" bson:"test_method"`
	EquipmentUsed    string      `json:"equipment_used" bson:"equipment_used"`
	TestDate         string      `json:"test_date" bson:"test_date"`
	TestTime         string      `json:"test_time" bson:"test_time"`
	ResultValue      Measurement `json:"result_value" bson:"result_value"`
	ResultUnit       string      `json:"result_unit" bson:"result_unit"`
	SpecificationMin Measurement `json:"specification_min" bson:"specification_min"`
	SpecificationMax Measurement `json:"specification_max" bson:"specification_max"`
	PassFailStatus   Status      `json:"pass_fail_status" bson:"pass_fail_status"`
	Comments         string      `json:"comments" bson:"comments"`
	DeviationNotes   string      `json:"deviation_notes" bson:"deviation_notes"`
	RetestRequired   bool        `json:"retest_required" bson:"retest_required"`

	// Analyst captured from the authenticated submitter
	AnalystID       string `json:"analyst_id" bson:"analyst_id"`
	AnalystUsername string `json:"analyst_username" bson:"analyst_username"`
	AnalystName     string `json:"analyst_name" bson:"analyst_name"`

	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
	Version   int64      `json:"version" bson:"version"`
	Signature *Signature `json:"signature,omitempty" bson:"signature,omitempty"`
}

// IsSigned reports whether the record reached its terminal signed state.
func (r *TestRecord) IsSigned() bool {
	return r.Signature != nil
}

// User is an authenticated actor. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty"`
	FullName     string    `json:"full_name" bson:"full_name"`
	Role         string    `json:"role" bson:"role"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	IsActive     bool      `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Specification holds reference limits for a product/test type pair.
type Specification struct {
	ID              string      `json:"id" bson:"_id"`
	ProductName     string      `json:"product_name" bson:"product_name"`
	TestType        string      `json:"test_type" bson:"test_type"`
	MinLimit        Measurement `json:"min_limit" bson:"min_limit"`
	MaxLimit        Measurement `json:"max_limit" bson:"max_limit"`
	Unit            string      `json:"unit" bson:"unit"`
	MethodReference string      `json:"method_reference" bson:"method_reference"`
	CreatedBy       string      `json:"created_by" bson:"created_by"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
}

// Equipment is an entry of the equipment registry.
type Equipment struct {
	ID                  string    `json:"id" bson:"_id"`
	EquipmentName       string    `json:"equipment_name" bson:"equipment_name"`
	EquipmentID         string    `json:"equipment_id" bson:"equipment_id"`
	CalibrationStatus   string    `json:"calibration_status" bson:"calibration_status"`
	LastCalibrationDate string    `json:"last_calibration_date,omitempty" bson:"last_calibration_date,omitempty"`
	NextCalibrationDate string    `json:"next_calibration_date,omitempty" bson:"next_calibration_date,omitempty"`
	CreatedBy           string    `json:"created_by" bson:"created_by"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at"`
}

// TestRecordFilter is the repository-level query for test records.
type TestRecordFilter struct {
	BatchNumber string
	ProductName string
	TestType    string
	Status      Status
	DateFrom    string // inclusive, YYYY-MM-DD, compared against test_date
	DateTo      string // inclusive
	Ascending   bool
	Skip        int
	Limit       int
}

// AuditLogFilter is the repository-level query for audit entries.
type AuditLogFilter struct {
	Username   string
	Action     AuditAction
	EntityType string
	EntityID   string
	From       *time.Time // inclusive
	Until      *time.Time // exclusive
	Skip       int
	Limit      int
}

// BatchFilter narrows the batch registry. Both fields are case-insensitive substrings.
type BatchFilter struct {
	BatchNumber string
	ProductName string
}

// SpecificationFilter narrows the specification registry.
type SpecificationFilter struct {
	ProductName string
	TestType    string
}

// ErrorResponse for consistent error handling
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Fields    []FieldError `json:"fields,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

func (e *ErrorDetail) Error() string {
	return e.Message
}

// FieldError points at one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
