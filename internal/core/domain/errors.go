package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown manifest format or object type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Import Errors.

	// ErrValidation indicates an item is missing its name or every form of destination.
	ErrValidation = errors.New("item is not valid")

	// ErrResolution indicates an item's destination or primary type could not be resolved.
	ErrResolution = errors.New("resolution failed")

	// ErrMimetypeRequired indicates a new document has no mimetype and
	// none can be inferred from its name.
	ErrMimetypeRequired = errors.New("mimetype required")

	// ErrRepositoryUnavailable indicates there is no repository session.
	// It is fatal for the call that observes it.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// Repository Errors.

	// ErrContentAlreadyExists indicates the repository refused a create because
	// the object already exists.
	ErrContentAlreadyExists = errors.New("content already exists")

	// ErrStreamNotSupported indicates the target object cannot carry a content stream.
	ErrStreamNotSupported = errors.New("stream not supported")

	// ErrAuthInvalid indicates the repository rejected the credentials.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrRateLimited indicates the repository rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// Stage identifies a gate in the per-item import state machine.
// Linking and caching never reject an item, so they have no stage.
type Stage string

// Import stages, in processing order.
const (
	StageSession     Stage = "session"
	StageValidate    Stage = "validate"
	StageDestination Stage = "destination"
	StageType        Stage = "type"
	StageMerge       Stage = "merge"
)

// ImportError reports the gate at which an item was rejected.
type ImportError struct {
	// Stage is the gate that failed.
	Stage Stage

	// Item is the item's name, or its String form when unnamed.
	Item string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	return fmt.Sprintf("import %q failed at %s: %v", e.Item, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage recorded on err, or "" when err is not an ImportError.
func StageOf(err error) Stage {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Stage
	}
	return ""
}
