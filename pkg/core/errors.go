package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotFound      = errors.New("scribble not found")
	ErrEmptyID       = errors.New("scribble ID cannot be empty")
	ErrNotDraft      = errors.New("scribble is not a draft")
	ErrOriginMissing = errors.New("draft origin no longer exists")
	ErrReadOnly      = errors.New("storage is in read-only mode")
)

// InvariantViolation marks a programming error: a component received input
// its preconditions forbid. It is raised with panic and must not be recovered
// silently.
type InvariantViolation struct {
	Op     string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Detail)
}

// Invariant builds an InvariantViolation.
func Invariant(op, format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Op: op, Detail: fmt.Sprintf(format, args...)}
}
