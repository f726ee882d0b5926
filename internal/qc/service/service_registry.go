package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"qcportal/internal/qc/audit"
	"qcportal/internal/qc/model"
	"qcportal/internal/qc/repository"
	"qcportal/internal/qc/util"

	"github.com/google/uuid"
)

// CreateBatch registers a batch. Without a batch number one is generated from the
// monthly counter.
func (s *Service) CreateBatch(ctx context.Context, actor *model.User, req *model.CreateBatchReq) (*model.Batch, error) {
	if err := s.authorize(actor, model.PermBatchCreate); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock()
	batch := &model.Batch{
		ID:                    uuid.NewString(),
		BatchNumber:           req.BatchNumber,
		ProductName:           req.ProductName,
		ManufacturingDate:     req.ManufacturingDate,
		ExpiryDate:            req.ExpiryDate,
		BatchSize:             req.BatchSize,
		ManufacturingLocation: req.ManufacturingLocation,
		CreatedBy:             actor.Username,
		CreatedAt:             now,
	}

	var j journal
	err := s.Store.WithTx(ctx, func(ctx context.Context) error {
		j.reset()
		if req.BatchNumber == "" {
			number, err := s.nextBatchNumber(ctx)
			if err != nil {
				return err
			}
			batch.BatchNumber = number
		}
		if err := s.Store.CreateBatch(ctx, batch); err != nil {
			return err
		}
		return s.record(ctx, &j, audit.Event{
			Actor:      actor,
			Action:     model.ActionCreate,
			EntityType: model.EntityBatch,
			EntityID:   batch.ID,
			Details: map[string]string{
				"batch_number": batch.BatchNumber,
				"product_name": batch.ProductName,
			},
			At: now,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create batch %s: %w: batch number already exists", batch.BatchNumber, ErrConflict)
		}
		return nil, classify("create batch", err)
	}

	j.commit()
	util.GetLogger().Info("batch created", "batch_id", batch.ID, "batch_number", batch.BatchNumber)
	return batch, nil
}

func (s *Service) GetBatch(ctx context.Context, actor *model.User, id string) (*model.Batch, error) {
	if err := s.authorize(actor, model.PermBatchRead); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidField("id", "is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	batch, err := s.Store.GetBatch(ctx, id)
	if err != nil {
		return nil, classify("get batch", err)
	}
	return batch, nil
}

func (s *Service) ListBatches(ctx context.Context, actor *model.User, req *model.ListBatchesReq) ([]*model.Batch, error) {
	if err := s.authorize(actor, model.PermBatchRead); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	batches, err := s.Store.FindBatches(ctx, req.ToFilter())
	if err != nil {
		return nil, classify("list batches", err)
	}
	if batches == nil {
		batches = []*model.Batch{}
	}
	return batches, nil
}

// NextBatchNumber reserves the next number of the current month. Reserved numbers
// are never handed out twice; unused ones leave gaps.
func (s *Service) NextBatchNumber(ctx context.Context, actor *model.User) (string, error) {
	if err := s.authorize(actor, model.PermBatchRead); err != nil {
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	number, err := s.nextBatchNumber(ctx)
	if err != nil {
		return "", classify("next batch number", err)
	}
	return number, nil
}

func (s *Service) nextBatchNumber(ctx context.Context) (string, error) {
	now := s.clock()
	seq, err := s.Store.NextSequence(ctx, repository.BatchSequenceKey(now))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%04d", model.BatchNumberPrefix, now.Format("0601"), seq), nil
}

func (s *Service) CreateSpecification(ctx context.Context, actor *model.User, req *model.CreateSpecificationReq) (*model.Specification, error) {
	if err := s.authorize(actor, model.PermSpecificationCreate); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock()
	spec := &model.Specification{
		ID:              uuid.NewString(),
		ProductName:     req.ProductName,
		TestType:        req.TestType,
		MinLimit:        req.MinLimit,
		MaxLimit:        req.MaxLimit,
		Unit:            req.Unit,
		MethodReference: req.MethodReference,
		CreatedBy:       actor.Username,
		CreatedAt:       now,
	}

	var j journal
	err := s.Store.WithTx(ctx, func(ctx context.Context) error {
		j.reset()
		if err := s.Store.CreateSpecification(ctx, spec); err != nil {
			return err
		}
		return s.record(ctx, &j, audit.Event{
			Actor:      actor,
			Action:     model.ActionCreate,
			EntityType: model.EntitySpecification,
			EntityID:   spec.ID,
			Details: map[string]string{
				"product_name": spec.ProductName,
				"test_type":    spec.TestType,
				"min_limit":    spec.MinLimit.String(),
				"max_limit":    spec.MaxLimit.String(),
			},
			At: now,
		})
	})
	if err != nil {
		return nil, classify("create specification", err)
	}

	j.commit()
	return spec, nil
}

func (s *Service) ListSpecifications(ctx context.Context, actor *model.User, req *model.ListSpecificationsReq) ([]*model.Specification, error) {
	if err := s.authorize(actor, model.PermSpecificationRead); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	specs, err := s.Store.FindSpecifications(ctx, req.ToFilter())
	if err != nil {
		return nil, classify("list specifications", err)
	}
	if specs == nil {
		specs = []*model.Specification{}
	}
	return specs, nil
}

func (s *Service) CreateEquipment(ctx context.Context, actor *model.User, req *model.CreateEquipmentReq) (*model.Equipment, error) {
	if err := s.authorize(actor, model.PermEquipmentCreate); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock()
	eq := &model.Equipment{
		ID:                  uuid.NewString(),
		EquipmentName:       req.EquipmentName,
		EquipmentID:         req.EquipmentID,
		CalibrationStatus:   req.CalibrationStatus,
		LastCalibrationDate: req.LastCalibrationDate,
		NextCalibrationDate: req.NextCalibrationDate,
		CreatedBy:           actor.Username,
		CreatedAt:           now,
	}

	var j journal
	err := s.Store.WithTx(ctx, func(ctx context.Context) error {
		j.reset()
		if err := s.Store.CreateEquipment(ctx, eq); err != nil {
			return err
		}
		return s.record(ctx, &j, audit.Event{
			Actor:      actor,
			Action:     model.ActionCreate,
			EntityType: model.EntityEquipment,
			EntityID:   eq.ID,
			Details: map[string]string{
				"equipment_id":   eq.EquipmentID,
				"equipment_name": eq.EquipmentName,
			},
			At: now,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create equipment %s: %w: equipment id already exists", eq.EquipmentID, ErrConflict)
		}
		return nil, classify("create equipment", err)
	}

	j.commit()
	return eq, nil
}

func (s *Service) ListEquipment(ctx context.Context, actor *model.User) ([]*model.Equipment, error) {
	if err := s.authorize(actor, model.PermEquipmentRead); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	list, err := s.Store.FindEquipment(ctx)
	if err != nil {
		return nil, classify("list equipment", err)
	}
	if list == nil {
		list = []*model.Equipment{}
	}
	return list, nil
}

// SeedEquipment registers the default instrument list, skipping entries that
// already exist. It returns how many were added.
func (s *Service) SeedEquipment(ctx context.Context, actor *model.User) (int, error) {
	added := 0
	for _, name := range model.DefaultEquipment {
		_, err := s.CreateEquipment(ctx, actor, &model.CreateEquipmentReq{
			EquipmentName: name,
			EquipmentID:   strings.ReplaceAll(name, " ", "-"),
		})
		switch {
		case err == nil:
			added++
		case errors.Is(err, ErrConflict):
		default:
			return added, err
		}
	}
	return added, nil
}
