package service

import (
	"context"
	"errors"
	"fmt"

	"qcportal/internal/qc/model"
	"qcportal/internal/qc/repository"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrAlreadySigned  = errors.New("record is already signed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("permission denied")
	ErrTimeout        = errors.New("operation timed out")
	ErrStorage        = errors.New("storage failure")
	ErrConflict       = errors.New("conflict")
)

// ValidationError carries the offending fields. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Detail *model.ErrorDetail
}

func (e *ValidationError) Error() string {
	return e.Detail.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// invalid wraps a DTO validation failure
func invalid(err error) error {
	var detail *model.ErrorDetail
	if errors.As(err, &detail) {
		return &ValidationError{Detail: detail}
	}
	return &ValidationError{Detail: &model.ErrorDetail{Code: model.CodeValidation, Message: err.Error()}}
}

func invalidField(field, message string) error {
	return &ValidationError{Detail: model.NewFieldError(field, message)}
}

var serviceErrors = []error{
	ErrValidation, ErrNotFound, ErrAlreadySigned, ErrAuthentication,
	ErrAuthorization, ErrTimeout, ErrStorage, ErrConflict,
}

// classify maps a repository or context error onto the service sentinels.
// Errors already carrying a sentinel pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range serviceErrors {
		if errors.Is(err, target) {
			return err
		}
	}

	switch {
	case repository.IsTimeout(err), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrSigned):
		return fmt.Errorf("%s: %w", op, ErrAlreadySigned)
	case errors.Is(err, repository.ErrVersionConflict):
		return fmt.Errorf("%s: %w: record was modified concurrently", op, ErrConflict)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}
}
