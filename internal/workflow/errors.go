// Package workflow implements the task ordering and sprint/status rules of the
// planner: rank allocation inside (project, sprint, status) buckets, the
// single-active-sprint state machine, bucket validation, membership guards and
// the atomic move operation. Every operation takes the acting user explicitly;
// nothing in here reads ambient identity.
package workflow

import "errors"

var (
	// ErrNotFound covers both absent entities and entities the actor may not
	// see, so existence is not leaked to non-members.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor is known but lacks membership or role.
	ErrForbidden = errors.New("forbidden")

	// ErrConcurrencyConflict is surfaced after a version conflict survived the
	// single retry.
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")

	ErrCannotRemoveOwner = errors.New("owner cannot be removed from the project")
)

// ValidationError marks business-rule violations detected before any write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(msg string) error { return &ValidationError{Msg: msg} }

// Sentinel validation failures the HTTP layer and tests match on.
var (
	ErrBacklogStatusMismatch  = &ValidationError{Msg: "backlog items must use Backlog status"}
	ErrSprintStatusMismatch   = &ValidationError{Msg: "sprint items cannot use Backlog status"}
	ErrInvalidSprintReference = &ValidationError{Msg: "sprint does not exist or is archived"}
	ErrInvalidAssignee        = &ValidationError{Msg: "assignee must be a member of the project"}
	ErrStatusNotEnabled       = &ValidationError{Msg: "status is not enabled for this project"}
	ErrArchivedSprint         = &ValidationError{Msg: "cannot activate archived sprint"}
)

// IsValidation reports whether err is any business-rule violation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
