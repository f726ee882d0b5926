// Package service implements the QC record lifecycle: submission, evaluation,
// edit-before-sign, electronic signature, the audit trail and analytics. Every
// operation takes the acting user explicitly and runs under a deadline.
package service

import (
	"context"
	"time"

	"qcportal/internal/qc/analytics"
	"qcportal/internal/qc/audit"
	"qcportal/internal/qc/identity"
	"qcportal/internal/qc/metrics"
	"qcportal/internal/qc/model"
	"qcportal/internal/qc/policy"
	"qcportal/internal/qc/repository"
	"qcportal/internal/qc/util"
)

const DefaultOperationTimeout = 10 * time.Second

type QCService interface {
	// Records
	CreateTestRecord(ctx context.Context, actor *model.User, req *model.CreateTestRecordReq) (*model.TestRecord, error)
	GetTestRecord(ctx context.Context, actor *model.User, id string) (*model.TestRecord, error)
	ListTestRecords(ctx context.Context, actor *model.User, req *model.ListTestRecordsReq) ([]*model.TestRecord, error)
	UpdateTestRecord(ctx context.Context, actor *model.User, id string, req *model.UpdateTestRecordReq) (*model.TestRecord, error)
	SignTestRecord(ctx context.Context, actor *model.User, id string, req *model.SignTestRecordReq) (*model.TestRecord, error)
	PreviewStatus(ctx context.Context, actor *model.User, req *model.PreviewReq) (*model.PreviewResp, error)

	// Registries
	CreateBatch(ctx context.Context, actor *model.User, req *model.CreateBatchReq) (*model.Batch, error)
	GetBatch(ctx context.Context, actor *model.User, id string) (*model.Batch, error)
	ListBatches(ctx context.Context, actor *model.User, req *model.ListBatchesReq) ([]*model.Batch, error)
	NextBatchNumber(ctx context.Context, actor *model.User) (string, error)
	CreateSpecification(ctx context.Context, actor *model.User, req *model.CreateSpecificationReq) (*model.Specification, error)
	ListSpecifications(ctx context.Context, actor *model.User, req *model.ListSpecificationsReq) ([]*model.Specification, error)
	CreateEquipment(ctx context.Context, actor *model.User, req *model.CreateEquipmentReq) (*model.Equipment, error)
	ListEquipment(ctx context.Context, actor *model.User) ([]*model.Equipment, error)

	// Audit & analytics
	GetAuditLogs(ctx context.Context, actor *model.User, req *model.GetAuditLogsReq) ([]*model.AuditLogEntry, error)
	VerifyAuditChain(ctx context.Context, actor *model.User) (*audit.VerifyReport, error)
	Dashboard(ctx context.Context, actor *model.User, req *model.DashboardReq) (*analytics.Dashboard, error)

	// Identity
	Register(ctx context.Context, req *model.RegisterReq) (*model.User, error)
	Login(ctx context.Context, req *model.LoginReq) (*model.LoginResp, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type Service struct {
	Store     repository.Store
	Audit     *audit.Logger
	Identity  *identity.Provider
	Policy    *policy.Engine
	Analytics *analytics.Aggregator
	Signer    *Signer

	timeout time.Duration
	now     func() time.Time
}

type Option func(*Service)

// WithTimeout bounds every operation. Callers with a tighter deadline keep theirs.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	store repository.Store,
	auditLog *audit.Logger,
	ident *identity.Provider,
	engine *policy.Engine,
	agg *analytics.Aggregator,
	opts ...Option,
) *Service {
	s := &Service{
		Store:     store,
		Audit:     auditLog,
		Identity:  ident,
		Policy:    engine,
		Analytics: agg,
		timeout:   DefaultOperationTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Signer = NewSigner(ident, s.now)
	return s
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// clock returns the current UTC time at the precision the stores keep
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// authorize checks the actor's role grants. The RBAC middleware checks the same
// grants per route; this keeps direct callers such as qcctl honest.
func (s *Service) authorize(actor *model.User, permission string) error {
	if actor == nil || !actor.IsActive {
		return ErrAuthentication
	}
	if !s.Policy.HasPermission(actor.Role, permission) {
		util.GetLogger().Warn("permission denied",
			"username", actor.Username, "role", actor.Role, "permission", permission)
		return ErrAuthorization
	}
	return nil
}

// journal collects audit actions appended inside one unit of work so the counters
// move only after commit. Reset at the start of every attempt.
type journal struct {
	actions []model.AuditAction
}

func (j *journal) reset() {
	j.actions = j.actions[:0]
}

func (j *journal) commit() {
	for _, a := range j.actions {
		metrics.AuditEntries.WithLabelValues(string(a)).Inc()
	}
}

func (s *Service) record(ctx context.Context, j *journal, ev audit.Event) error {
	if _, err := s.Audit.Record(ctx, ev); err != nil {
		return err
	}
	j.actions = append(j.actions, ev.Action)
	return nil
}

var _ QCService = (*Service)(nil)
