package report

import (
	"errors"
	"fmt"
)

// ErrVersionConflict is returned by the persistence layer when a save loses
// an optimistic-concurrency race. The caller must re-read and re-validate.
var ErrVersionConflict = errors.New("report was modified concurrently")

// ValidationError reports a missing or malformed required field. It is
// always recoverable by the caller supplying corrected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing report or item
type NotFoundError struct {
	Kind string // "report" or "item"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ForbiddenTransitionError reports a (status, fund type, role, action)
// combination that is not in the routing table. It carries enough context
// for the caller to render a precise message.
type ForbiddenTransitionError struct {
	Status   Status
	FundType FundType
	Role     Role
	Action   string
}

func (e *ForbiddenTransitionError) Error() string {
	return fmt.Sprintf("role %s may not %s a report in status %s (fund type %q)",
		e.Role, e.Action, e.Status, e.FundType)
}
