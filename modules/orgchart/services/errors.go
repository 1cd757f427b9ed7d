package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	ErrKindInvalid       ErrorKind = "INVALID"
	ErrKindNotFound      ErrorKind = "NOT_FOUND"
	ErrKindScopeMismatch ErrorKind = "SCOPE_MISMATCH"
	ErrKindConflict      ErrorKind = "CONFLICT"
	ErrKindCycleDetected ErrorKind = "CYCLE_DETECTED"
	ErrKindStoreFailure  ErrorKind = "STORE_FAILURE"
)

// Reference describes one row that blocks a delete.
type Reference struct {
	Kind            EntityKind `json:"kind"`
	ID              int64      `json:"id"`
	CounterpartKind EntityKind `json:"counterpart_kind"`
	CounterpartID   int64      `json:"counterpart_id"`
	CounterpartName string     `json:"counterpart_name"`
	Direction       string     `json:"direction,omitempty"`
}

func (r Reference) String() string {
	if r.Direction != "" {
		return fmt.Sprintf("%s #%d (%s %s #%d %q)", r.Kind, r.ID, r.Direction, r.CounterpartKind, r.CounterpartID, r.CounterpartName)
	}
	return fmt.Sprintf("%s #%d (%s #%d %q)", r.Kind, r.ID, r.CounterpartKind, r.CounterpartID, r.CounterpartName)
}

type ServiceError struct {
	Status     int
	Code       string
	Kind       ErrorKind
	Message    string
	Entity     EntityKind
	EntityID   int64
	References []Reference
	Cause      error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Kind: kindForStatus(status), Message: message, Cause: cause}
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusNotFound:
		return ErrKindNotFound
	case http.StatusConflict:
		return ErrKindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrKindInvalid
	default:
		return ErrKindStoreFailure
	}
}

func (e *ServiceError) on(kind EntityKind, id int64) *ServiceError {
	e.Entity = kind
	e.EntityID = id
	return e
}

func errInvalid(code, message string) *ServiceError {
	return newServiceError(http.StatusBadRequest, code, message, nil)
}

func errNotFound(kind EntityKind, id int64) *ServiceError {
	return newServiceError(http.StatusNotFound, "ORGCHART_NOT_FOUND", fmt.Sprintf("%s %d not found", kind, id), nil).on(kind, id)
}

func errScopeMismatch(kind EntityKind, id int64, message string) *ServiceError {
	e := newServiceError(http.StatusUnprocessableEntity, "ORGCHART_SCOPE_MISMATCH", message, nil).on(kind, id)
	e.Kind = ErrKindScopeMismatch
	return e
}

func errCodeConflict(kind EntityKind, code string) *ServiceError {
	return newServiceError(http.StatusConflict, "ORGCHART_CODE_CONFLICT", fmt.Sprintf("%s code %q already exists", kind, code), nil).on(kind, 0)
}

func errConflict(kind EntityKind, id int64, code, message string) *ServiceError {
	return newServiceError(http.StatusConflict, code, message, nil).on(kind, id)
}

func errCycle(kind EntityKind, id, parentID int64) *ServiceError {
	e := newServiceError(http.StatusUnprocessableEntity, "ORGCHART_CYCLE_DETECTED",
		fmt.Sprintf("%s %d cannot be placed under %d: parent chain would loop", kind, id, parentID), nil).on(kind, id)
	e.Kind = ErrKindCycleDetected
	return e
}

const codeDeleteBlocked = "ORGCHART_DELETE_BLOCKED"

func errBlocked(kind EntityKind, id int64, refs []Reference) *ServiceError {
	e := newServiceError(http.StatusConflict, codeDeleteBlocked,
		fmt.Sprintf("%s %d is referenced by %d row(s)", kind, id, len(refs)), nil).on(kind, id)
	e.References = refs
	return e
}

// IsKind reports whether err is a ServiceError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}
