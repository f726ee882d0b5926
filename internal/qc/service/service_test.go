package service

import (
	"context"
	"testing"
	"time"

	"qcportal/internal/qc/analytics"
	"qcportal/internal/qc/audit"
	"qcportal/internal/qc/identity"
	"qcportal/internal/qc/model"
	"qcportal/internal/qc/policy"
	"qcportal/internal/qc/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	svc  *Service
	repo *repository.MemoryRepository

	analyst *model.User
	manager *model.User
	admin   *model.User
	auditor *model.User
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepository()

	hasher, err := identity.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := identity.NewTokenIssuer(testSecret, "qcportal-test", time.Hour)
	require.NoError(t, err)
	engine, err := policy.NewEngine()
	require.NoError(t, err)

	svc := NewService(
		repo,
		audit.NewLogger(repo, repo),
		identity.NewProvider(repo, hasher, tokens),
		engine,
		analytics.NewAggregator(repo, time.Second),
		opts...,
	)

	f := &fixture{svc: svc, repo: repo}
	f.analyst = f.register(t, "analyst", model.RoleQCAnalyst)
	f.manager = f.register(t, "manager", model.RoleQCManager)
	f.admin = f.register(t, "admin", model.RoleAdmin)
	f.auditor = f.register(t, "auditor", model.RoleAuditor)
	return f
}

func passwordFor(username string) string {
	return username + "-Secret#1"
}

func (f *fixture) register(t *testing.T, username, role string) *model.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), &model.RegisterReq{
		Username: username,
		Password: passwordFor(username),
		FullName: "User " + username,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) createRecord(t *testing.T, batch, product, result, lo, hi string) *model.TestRecord {
	t.Helper()
	rec, err := f.svc.CreateTestRecord(context.Background(), f.analyst, &model.CreateTestRecordReq{
		BatchNumber:      batch,
		ProductName:      product,
		TestType:         "Assay",
		ResultValue:      model.Measurement(result),
		ResultUnit:       "%",
		SpecificationMin: model.Measurement(lo),
		SpecificationMax: model.Measurement(hi),
	})
	require.NoError(t, err)
	return rec
}

func (f *fixture) signReq(user *model.User) *model.SignTestRecordReq {
	return &model.SignTestRecordReq{
		Username: user.Username,
		Password: passwordFor(user.Username),
		Meaning:  model.MeaningReviewedBy,
	}
}

// auditTrail returns every entry in chain order
func (f *fixture) auditTrail(t *testing.T) []*model.AuditLogEntry {
	t.Helper()
	var entries []*model.AuditLogEntry
	require.NoError(t, f.repo.IterateAudit(context.Background(), func(e *model.AuditLogEntry) error {
		entries = append(entries, e)
		return nil
	}))
	return entries
}

func (f *fixture) entriesFor(t *testing.T, entityID string, action model.AuditAction) []*model.AuditLogEntry {
	t.Helper()
	var out []*model.AuditLogEntry
	for _, e := range f.auditTrail(t) {
		if e.EntityID == entityID && e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
