package selection

import (
	"errors"
	"fmt"
)

var (
	// ErrConstraint is matched by every *ConstraintError.
	ErrConstraint = errors.New("selection constraint violated")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid selection state")
)

// ConstraintError reports a call that violates the active selection mode.
// The call is aborted and state is left unchanged.
type ConstraintError struct {
	Mode   Mode
	Nodes  int
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("selection: %s (mode %s, %d nodes)", e.Reason, e.Mode, e.Nodes)
}

func (e *ConstraintError) Unwrap() error { return ErrConstraint }

// ValidationError reports a malformed snapshot passed to a restore.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "selection state: " + e.Reason
	}
	return fmt.Sprintf("selection state: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
