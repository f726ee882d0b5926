package model

// Roles
const (
	RoleQCAnalyst = "QC Analyst"
	RoleQCManager = "QC Manager"
	RoleAdmin     = "Admin"
	RoleAuditor   = "Auditor"
)

// AllowedRoles defines which roles can be assigned at registration
var AllowedRoles = map[string]bool{
	RoleQCAnalyst: true,
	RoleQCManager: true,
	RoleAdmin:     true,
	RoleAuditor:   true,
}

// Status is the derived compliance result of a test record.
type Status string

const (
	StatusPass    Status = "Pass"
	StatusFail    Status = "Fail"
	StatusPending Status = "Pending"
)

// Signature meanings (closed set, regulatory)
const (
	MeaningTestedBy   = "Tested by"
	MeaningReviewedBy = "Reviewed by"
	MeaningApprovedBy = "Approved by"
)

var AllowedMeanings = map[string]bool{
	MeaningTestedBy:   true,
	MeaningReviewedBy: true,
	MeaningApprovedBy: true,
}

// AuditAction is the kind of action recorded in the audit trail.
type AuditAction string

const (
	ActionCreate AuditAction = "CREATE"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"
	ActionSign   AuditAction = "SIGN"
	ActionView   AuditAction = "VIEW"
)

var AllowedActions = map[AuditAction]bool{
	ActionCreate: true,
	ActionUpdate: true,
	ActionDelete: true,
	ActionSign:   true,
	ActionView:   true,
}

// Entity types referenced by audit entries
const (
	EntityTest          = "test"
	EntityBatch         = "batch"
	EntitySpecification = "specification"
	EntityEquipment     = "equipment"
	EntityUser          = "user"
	EntityAuditLog      = "audit_log"
)

// Permission constants checked by the policy engine
const (
	PermTestCreate          = "test.create"
	PermTestRead            = "test.read"
	PermTestUpdate          = "test.update"
	PermTestSign            = "test.sign"
	PermBatchCreate         = "batch.create"
	PermBatchRead           = "batch.read"
	PermSpecificationCreate = "specification.create"
	PermSpecificationRead   = "specification.read"
	PermEquipmentCreate     = "equipment.create"
	PermEquipmentRead       = "equipment.read"
	PermAuditRead           = "audit.read"
	PermAuditVerify         = "audit.verify"
	PermAnalyticsRead       = "analytics.read"
)

// CanonicalTestTypes is the reference list offered to clients. Test type stays an
// open string; records may carry values outside this list.
var CanonicalTestTypes = []string{
	"Assay",
	"Identity",
	"Dissolution",
	"Content Uniformity",
	"Microbial Limits",
	"Heavy Metals",
	"Residual Solvents",
	"Moisture Content",
	"Particulate Matter",
	"pH Test",
	"Related Substances",
	"Sterility Test",
}

// DefaultEquipment seeds the equipment registry on a fresh install.
var DefaultEquipment = []string{
	"HPLC-001",
	"HPLC-002",
	"UV-Spectrophotometer-001",
	"Dissolution Apparatus-001",
	"Karl Fischer Titrator",
	"GC-MS-001",
	"ICP-MS-001",
	"Microscope-001",
	"pH Meter-001",
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// BatchNumberPrefix starts every generated batch number: BN + YYMM + sequence.
	BatchNumberPrefix = "BN"
)

// Error codes carried in ErrorDetail.Code
const (
	CodeValidation    = "validation_error"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeNotFound      = "not_found"
	CodeAlreadySigned = "already_signed"
	CodeConflict      = "conflict"
	CodeTimeout       = "timeout"
	CodeStorage       = "storage_error"
	CodeInternal      = "internal_error"
)
