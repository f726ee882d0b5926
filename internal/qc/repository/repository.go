// Package repository persists QC records, the audit chain, users and the reference
// registries. MongoDB is the production store; MemoryRepository backs tests and the
// single-process development mode.
package repository

import (
	"context"
	"errors"
	"time"

	"qcportal/internal/qc/model"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrSigned          = errors.New("record is signed")
	ErrVersionConflict = errors.New("record version changed")
)

// UnitOfWork defines a transaction boundary. Returning an error from fn rolls back
// every write made through ctx; returning nil commits. Nested calls join the outer
// unit of work.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type RecordRepository interface {
	// EnsureBatch returns the batch with batch.BatchNumber, inserting batch if none
	// exists. created is true only for the caller whose insert won.
	EnsureBatch(ctx context.Context, batch *model.Batch) (stored *model.Batch, created bool, err error)
	// CreateBatch inserts a new batch, ErrDuplicate if the number is taken
	CreateBatch(ctx context.Context, batch *model.Batch) error
	GetBatch(ctx context.Context, id string) (*model.Batch, error)
	GetBatchByNumber(ctx context.Context, batchNumber string) (*model.Batch, error)
	FindBatches(ctx context.Context, filter model.BatchFilter) ([]*model.Batch, error)
	// NextSequence atomically increments and returns the named counter
	NextSequence(ctx context.Context, key string) (int64, error)

	CreateTestRecord(ctx context.Context, rec *model.TestRecord) error
	GetTestRecord(ctx context.Context, id string) (*model.TestRecord, error)
	FindTestRecords(ctx context.Context, filter model.TestRecordFilter) ([]*model.TestRecord, error)
	// UpdateTestRecord replaces an unsigned record whose stored version equals
	// expectedVersion. rec.Version must already hold the next version.
	UpdateTestRecord(ctx context.Context, rec *model.TestRecord, expectedVersion int64) error
	// SignTestRecord attaches sig only if the record carries no signature yet.
	// Fails with ErrSigned when another signature won, ErrNotFound when id is unknown.
	SignTestRecord(ctx context.Context, id string, sig *model.Signature) (*model.TestRecord, error)
}

// AuditRepository is append-only. There is deliberately no update or delete.
type AuditRepository interface {
	// AppendAudit links entry after the current chain head (Seq, PrevHash, Hash) and stores it
	AppendAudit(ctx context.Context, entry *model.AuditLogEntry) error
	// FindAuditLogs returns entries newest-first, ties broken by insertion order
	FindAuditLogs(ctx context.Context, filter model.AuditLogFilter) ([]*model.AuditLogEntry, error)
	// IterateAudit visits every entry in chain order. Returning an error from fn stops the walk.
	IterateAudit(ctx context.Context, fn func(*model.AuditLogEntry) error) error
}

type UserRepository interface {
	// CreateUser inserts a user, ErrDuplicate if username or email is taken
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

type RegistryRepository interface {
	CreateSpecification(ctx context.Context, spec *model.Specification) error
	FindSpecifications(ctx context.Context, filter model.SpecificationFilter) ([]*model.Specification, error)
	// CreateEquipment inserts an instrument, ErrDuplicate if its equipment_id is taken
	CreateEquipment(ctx context.Context, eq *model.Equipment) error
	FindEquipment(ctx context.Context) ([]*model.Equipment, error)
}

// Store bundles every repository behind one transactional backend.
type Store interface {
	UnitOfWork
	RecordRepository
	AuditRepository
	UserRepository
	RegistryRepository

	// EnsureIndexes prepares unique constraints and the audit chain head
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
}

// BatchSequenceKey names the monthly batch-number counter, e.g. "batch:2501".
func BatchSequenceKey(t time.Time) string {
	return "batch:" + t.UTC().Format("0601")
}

// IsTimeout reports whether err came from an expired deadline rather than a failed write.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || isMongoTimeout(err)
}

var (
	_ Store = (*MongoRepository)(nil)
	_ Store = (*MemoryRepository)(nil)
)
