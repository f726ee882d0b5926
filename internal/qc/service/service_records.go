package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"qcportal/internal/qc/audit"
	"qcportal/internal/qc/evaluator"
	"qcportal/internal/qc/metrics"
	"qcportal/internal/qc/model"
	"qcportal/internal/qc/util"

	"github.com/google/uuid"
)

func (s *Service) CreateTestRecord(ctx context.Context, actor *model.User, req *model.CreateTestRecordReq) (*model.TestRecord, error) {
	// 0. Validate caller & input
	if err := s.authorize(actor, model.PermTestCreate); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// 1. Build the record; date and time default to the moment of submission
	now := s.clock()
	rec := &model.TestRecord{
		ID:               uuid.NewString(),
		BatchNumber:      req.BatchNumber,
		ProductName:      req.ProductName,
		TestType:         req.TestType,
		TestMethod:       req.TestMethod,
		EquipmentUsed:    req.EquipmentUsed,
		TestDate:         req.TestDate,
		TestTime:         req.TestTime,
		ResultValue:      req.ResultValue,
		ResultUnit:       req.ResultUnit,
		SpecificationMin: req.SpecificationMin,
		SpecificationMax: req.SpecificationMax,
		Comments:         req.Comments,
		DeviationNotes:   req.DeviationNotes,
		RetestRequired:   req.RetestRequired,
		AnalystID:        actor.ID,
		AnalystUsername:  actor.Username,
		AnalystName:      actor.FullName,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}
	if rec.TestDate == "" {
		rec.TestDate = now.Format(model.DateLayout)
	}
	if rec.TestTime == "" {
		rec.TestTime = now.Format(model.TimeLayout)
	}

	// 2. Status is always derived, never taken from the client
	rec.PassFailStatus = evaluator.EvaluateRecord(rec)

	// 3. Batch, record and audit entries commit together
	var j journal
	err := s.Store.WithTx(ctx, func(ctx context.Context) error {
		j.reset()
		batch, created, err := s.Store.EnsureBatch(ctx, &model.Batch{
			ID:          uuid.NewString(),
			BatchNumber: rec.BatchNumber,
			ProductName: rec.ProductName,
			CreatedBy:   actor.Username,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		if !strings.EqualFold(batch.ProductName, rec.ProductName) {
			return invalidField("product_name",
				fmt.Sprintf("batch %s is registered for product %q", batch.BatchNumber, batch.ProductName))
		}
		rec.BatchID = batch.ID

		if created {
			if err := s.record(ctx, &j, audit.Event{
				Actor:      actor,
				Action:     model.ActionCreate,
				EntityType: model.EntityBatch,
				EntityID:   batch.ID,
				Details: map[string]string{
					"batch_number": batch.BatchNumber,
					"product_name": batch.ProductName,
				},
				At: now,
			}); err != nil {
				return err
			}
		}

		if err := s.Store.CreateTestRecord(ctx, rec); err != nil {
			return err
		}
		return s.record(ctx, &j, audit.Event{
			Actor:      actor,
			Action:     model.ActionCreate,
			EntityType: model.EntityTest,
			EntityID:   rec.ID,
			Details: map[string]string{
				"batch_number":     rec.BatchNumber,
				"test_type":        rec.TestType,
				"pass_fail_status": string(rec.PassFailStatus),
			},
			At: now,
		})
	})
	if err != nil {
		return nil, classify("create test record", err)
	}

	// 4. Post-commit bookkeeping
	j.commit()
	metrics.TestRecordsCreated.WithLabelValues(string(rec.PassFailStatus)).Inc()
	s.Analytics.Invalidate()
	util.GetLogger().Info("test record created",
		"record_id", rec.ID, "batch_number", rec.BatchNumber,
		"status", rec.PassFailStatus, "analyst", actor.Username)

	return rec, nil
}

func (s *Service) GetTestRecord(ctx context.Context, actor *model.User, id string) (*model.TestRecord, error) {
	if err := s.authorize(actor, model.PermTestRead); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidField("id", "is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.Store.GetTestRecord(ctx, id)
	if err != nil {
		return nil, classify("get test record", err)
	}
	return rec, nil
}

func (s *Service) ListTestRecords(ctx context.Context, actor *model.User, req *model.ListTestRecordsReq) ([]*model.TestRecord, error) {
	if err := s.authorize(actor, model.PermTestRead); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, err := s.Store.FindTestRecords(ctx, req.ToFilter())
	if err != nil {
		return nil, classify("list test records", err)
	}
	if records == nil {
		records = []*model.TestRecord{}
	}
	return records, nil
}

// UpdateTestRecord edits a record that has not been signed yet. The status is
// recomputed from the merged values.
func (s *Service) UpdateTestRecord(ctx context.Context, actor *model.User, id string, req *model.UpdateTestRecordReq) (*model.TestRecord, error) {
	// 0. Validate caller & input
	if err := s.authorize(actor, model.PermTestUpdate); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidField("id", "is required")
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock()
	var (
		j       journal
		updated *model.TestRecord
	)
	err := s.Store.WithTx(ctx, func(ctx context.Context) error {
		j.reset()

		// 1. Current state
		current, err := s.Store.GetTestRecord(ctx, id)
		if err != nil {
			return err
		}
		if current.IsSigned() {
			return fmt.Errorf("update test record %s: %w", id, ErrAlreadySigned)
		}
		if req.Version != nil && *req.Version != current.Version {
			return fmt.Errorf("update test record %s: %w: version is %d, not %d",
				id, ErrConflict, current.Version, *req.Version)
		}

		// 2. Merge and re-evaluate
		next := *current
		req.Apply(&next)
		next.PassFailStatus = evaluator.EvaluateRecord(&next)
		next.Version = current.Version + 1
		next.UpdatedAt = now
		if next.UpdatedAt.Before(current.UpdatedAt) {
			next.UpdatedAt = current.UpdatedAt
		}

		// 3. Compare-and-swap on version
		if err := s.Store.UpdateTestRecord(ctx, &next, current.Version); err != nil {
			return err
		}

		details := map[string]string{
			"updated_fields":   strings.Join(req.ChangedFields(), ","),
			"pass_fail_status": string(next.PassFailStatus),
			"version":          strconv.FormatInt(next.Version, 10),
		}
		if next.PassFailStatus != current.PassFailStatus {
			details["previous_status"] = string(current.PassFailStatus)
		}
		if err := s.record(ctx, &j, audit.Event{
			Actor:      actor,
			Action:     model.ActionUpdate,
			EntityType: model.EntityTest,
			EntityID:   id,
			Details:    details,
			At:         next.UpdatedAt,
		}); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, classify("update test record", err)
	}

	j.commit()
	s.Analytics.Invalidate()
	util.GetLogger().Info("test record updated",
		"record_id", id, "version", updated.Version, "analyst", actor.Username)

	return updated, nil
}

// PreviewStatus evaluates values without persisting anything.
func (s *Service) PreviewStatus(_ context.Context, actor *model.User, req *model.PreviewReq) (*model.PreviewResp, error) {
	if err := s.authorize(actor, model.PermTestRead); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, invalid(errors.New("request body is required"))
	}
	return &model.PreviewResp{
		PassFailStatus: evaluator.Evaluate(req.ResultValue, req.SpecificationMin, req.SpecificationMax),
	}, nil
}
