package services

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Error kinds. Every error returned by an engine operation wraps exactly one
// of these so callers can branch with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrConsistency = errors.New("consistency error")
	ErrNotFound    = errors.New("not found")
)

var (
	ErrNoRateFound         = fmt.Errorf("%w: no rate found", ErrConsistency)
	ErrContingencyExceeded = fmt.Errorf("%w: contingency exceeded", ErrConsistency)
	ErrSnapshotExists      = fmt.Errorf("%w: snapshot already exists", ErrConsistency)
	ErrProjectClosed       = fmt.Errorf("%w: project is closed", ErrConsistency)
	ErrInvalidTransition   = fmt.Errorf("%w: invalid status transition", ErrConsistency)

	ErrDeliverableCycle = fmt.Errorf("%w: deliverable parent cycle", ErrValidation)
	ErrRateOverlap      = fmt.Errorf("%w: overlapping rate interval", ErrValidation)
)

// validationErr wraps an ozzo-validation result in ErrValidation. A nil
// input returns nil.
func validationErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return fmt.Errorf("%s: %w: %s", op, ErrValidation, verrs.Error())
	}
	return fmt.Errorf("%s: %w: %v", op, ErrValidation, err)
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
}
