package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qcportal/internal/qc/audit"
	"qcportal/internal/qc/identity"
	"qcportal/internal/qc/metrics"
	"qcportal/internal/qc/model"
	"qcportal/internal/qc/util"
)

// Signer re-verifies a user's credentials at the moment of signing and produces
// the signature block.
type Signer struct {
	identity *identity.Provider
	now      func() time.Time
}

func NewSigner(ident *identity.Provider, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{identity: ident, now: now}
}

// VerifyAndSign checks the meaning, that the signing username is the
// authenticated actor, and the password. A session token alone never signs.
func (s *Signer) VerifyAndSign(ctx context.Context, actor *model.User, req *model.SignTestRecordReq) (*model.Signature, error) {
	if !model.AllowedMeanings[req.Meaning] {
		return nil, invalidField("meaning", "must be one of [Tested by, Reviewed by, Approved by]")
	}
	if actor == nil || !strings.EqualFold(req.Username, actor.Username) {
		return nil, fmt.Errorf("%w: signature username does not match the signed-in user", ErrAuthentication)
	}

	user, err := s.identity.Verify(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrInactive) {
			return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		return nil, classify("verify signer", err)
	}
	if user.ID != actor.ID {
		return nil, fmt.Errorf("%w: signature username does not match the signed-in user", ErrAuthentication)
	}

	return &model.Signature{
		Signer:     user.Username,
		SignerName: user.FullName,
		Meaning:    req.Meaning,
		Comments:   req.Comments,
		SignedAt:   s.now().UTC().Truncate(time.Millisecond),
	}, nil
}

// SignTestRecord attaches an electronic signature. Of any number of concurrent
// attempts on one record exactly one succeeds and exactly one SIGN entry is written.
func (s *Service) SignTestRecord(ctx context.Context, actor *model.User, id string, req *model.SignTestRecordReq) (*model.TestRecord, error) {
	// 0. Validate caller & input
	if err := s.authorize(actor, model.PermTestSign); err != nil {
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

	// 1. Existence, then terminal state
	current, err := s.Store.GetTestRecord(ctx, id)
	if err != nil {
		return nil, s.signFailed(classify("sign test record", err))
	}
	if current.IsSigned() {
		return nil, s.signFailed(fmt.Errorf("sign test record %s: %w", id, ErrAlreadySigned))
	}

	// 2. Re-assert identity
	sig, err := s.Signer.VerifyAndSign(ctx, actor, req)
	if err != nil {
		util.GetLogger().Warn("signature rejected", "record_id", id, "username", req.Username, "error", err)
		return nil, s.signFailed(err)
	}
	if sig.SignedAt.Before(current.CreatedAt) {
		sig.SignedAt = current.CreatedAt
	}

	// 3. Compare-and-swap on "unsigned" plus the SIGN entry, in one unit of work
	var (
		j      journal
		signed *model.TestRecord
	)
	err = s.Store.WithTx(ctx, func(ctx context.Context) error {
		j.reset()
		rec, err := s.Store.SignTestRecord(ctx, id, sig)
		if err != nil {
			return err
		}
		details := map[string]string{
			"meaning":     sig.Meaning,
			"signer":      sig.Signer,
			"signer_name": sig.SignerName,
		}
		if sig.Comments != "" {
			details["comments"] = sig.Comments
		}
		if err := s.record(ctx, &j, audit.Event{
			Actor:      actor,
			Action:     model.ActionSign,
			EntityType: model.EntityTest,
			EntityID:   id,
			Details:    details,
			At:         sig.SignedAt,
		}); err != nil {
			return err
		}
		signed = rec
		return nil
	})
	if err != nil {
		return nil, s.signFailed(classify("sign test record", err))
	}

	j.commit()
	metrics.Signatures.WithLabelValues(metrics.SignSigned).Inc()
	s.Analytics.Invalidate()
	util.GetLogger().Info("test record signed",
		"record_id", id, "signer", sig.Signer, "meaning", sig.Meaning)

	return signed, nil
}

func (s *Service) signFailed(err error) error {
	result := metrics.SignError
	switch {
	case errors.Is(err, ErrAlreadySigned):
		result = metrics.SignAlreadySigned
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrValidation):
		result = metrics.SignRejected
	}
	metrics.Signatures.WithLabelValues(result).Inc()
	return err
}
