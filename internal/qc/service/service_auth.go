package service

import (
	"context"
	"errors"
	"fmt"

	"qcportal/internal/qc/audit"
	"qcportal/internal/qc/identity"
	"qcportal/internal/qc/model"
	"qcportal/internal/qc/repository"
	"qcportal/internal/qc/util"

	"github.com/google/uuid"
)

// Register creates an active account. The registration is audited with the new
// user as actor.
func (s *Service) Register(ctx context.Context, req *model.RegisterReq) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	hash, err := s.Identity.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, classify("register", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.clock(),
	}

	var j journal
	err = s.Store.WithTx(ctx, func(ctx context.Context) error {
		j.reset()
		if err := s.Store.CreateUser(ctx, user); err != nil {
			return err
		}
		return s.record(ctx, &j, audit.Event{
			Actor:      user,
			Action:     model.ActionCreate,
			EntityType: model.EntityUser,
			EntityID:   user.ID,
			Details:    map[string]string{"username": user.Username, "role": user.Role},
			At:         user.CreatedAt,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("register %s: %w: username or email already exists", user.Username, ErrConflict)
		}
		return nil, classify("register", err)
	}

	j.commit()
	util.GetLogger().Info("user registered", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginReq) (*model.LoginResp, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.Identity.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrInactive) {
			util.GetLogger().Warn("login failed", "username", req.Username, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		return nil, classify("login", err)
	}
	return resp, nil
}

// Authenticate resolves a bearer token to the current user
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing bearer token", ErrAuthentication)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.Identity.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) || errors.Is(err, identity.ErrInactive) {
			return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		return nil, classify("authenticate", err)
	}
	return user, nil
}
