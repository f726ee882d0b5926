package service

import (
	"context"
	"strconv"

	"qcportal/internal/qc/analytics"
	"qcportal/internal/qc/audit"
	"qcportal/internal/qc/model"
)

// GetAuditLogs returns matching entries newest-first. Reading the trail is itself
// recorded as a VIEW entry.
func (s *Service) GetAuditLogs(ctx context.Context, actor *model.User, req *model.GetAuditLogsReq) ([]*model.AuditLogEntry, error) {
	if err := s.authorize(actor, model.PermAuditRead); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	entries, err := s.Audit.Query(ctx, req.ToFilter())
	if err != nil {
		return nil, classify("query audit logs", err)
	}

	details := map[string]string{"results": strconv.Itoa(len(entries))}
	for k, v := range map[string]string{
		"username":    req.Username,
		"action":      req.Action,
		"entity_type": req.EntityType,
		"entity_id":   req.EntityID,
		"date_from":   req.DateFrom,
		"date_to":     req.DateTo,
	} {
		if v != "" {
			details[k] = v
		}
	}

	var j journal
	err = s.Store.WithTx(ctx, func(ctx context.Context) error {
		j.reset()
		return s.record(ctx, &j, audit.Event{
			Actor:      actor,
			Action:     model.ActionView,
			EntityType: model.EntityAuditLog,
			Details:    details,
		})
	})
	if err != nil {
		return nil, classify("record audit view", err)
	}
	j.commit()

	return entries, nil
}

func (s *Service) VerifyAuditChain(ctx context.Context, actor *model.User) (*audit.VerifyReport, error) {
	if err := s.authorize(actor, model.PermAuditVerify); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	report, err := s.Audit.Verify(ctx)
	if err != nil {
		return nil, classify("verify audit chain", err)
	}
	return report, nil
}

func (s *Service) Dashboard(ctx context.Context, actor *model.User, req *model.DashboardReq) (*analytics.Dashboard, error) {
	if err := s.authorize(actor, model.PermAnalyticsRead); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	dash, err := s.Analytics.Dashboard(ctx, analytics.Filter{DateFrom: req.DateFrom, DateTo: req.DateTo})
	if err != nil {
		return nil, classify("compute dashboard", err)
	}
	return dash, nil
}
