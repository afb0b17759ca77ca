package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStateConflict is returned when an operation is invoked in an incompatible lifecycle phase.
	ErrStateConflict = errors.New("document state conflict")

	// ErrContextDestroyed is returned by every operation on a destroyed document context.
	ErrContextDestroyed = fmt.Errorf("%w: context destroyed", ErrStateConflict)

	// ErrNotRendered is returned by operations that require a displayed document.
	ErrNotRendered = fmt.Errorf("%w: document not rendered", ErrStateConflict)

	// ErrMalformedCommand is returned when a command payload is not well-formed structured data.
	ErrMalformedCommand = errors.New("malformed command")

	// ErrDocumentRequired is returned when a request carries no document source.
	ErrDocumentRequired = errors.New("document is required")

	// ErrNotBound is returned when rendering while no view surface is bound.
	ErrNotBound = errors.New("not bound to view")

	// ErrPrepareFailed is returned when a document could not reach the prepared state.
	ErrPrepareFailed = errors.New("failed to prepare document")

	// ErrHandleReleased is returned when a revoked document handle is used.
	ErrHandleReleased = errors.New("document handle released")

	// ErrAlreadyExtracted is returned when a prepared document is used after extraction or destruction.
	ErrAlreadyExtracted = errors.New("document is already destroyed or extracted")

	// ErrNotReady is returned when extracting a prepared document that is not in the prepared state.
	ErrNotReady = errors.New("document in invalid state")

	// ErrPackageNotFound is returned by package caches on a miss.
	ErrPackageNotFound = errors.New("package not found")

	// ErrPackagesUnresolved is returned when content keeps waiting on imports that cannot be satisfied.
	ErrPackagesUnresolved = errors.New("packages unresolved")

	// ErrNoEmbeddedFactory is returned when a document embeds another without a factory to fetch it.
	ErrNoEmbeddedFactory = errors.New("no embedded document factory provided")
)

// StateConflictError records which operation was refused and in what state.
type StateConflictError struct {
	Op    string
	State DocumentState
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s: document is %s", e.Op, e.State)
}

// Is makes StateConflictError match ErrStateConflict.
func (e *StateConflictError) Is(target error) bool {
	return target == ErrStateConflict
}

// PackageError describes the failure of a single import request.
type PackageError struct {
	Name    string
	Version string
	Err     error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("package %s/%s: %v", e.Name, e.Version, e.Err)
}

func (e *PackageError) Unwrap() error {
	return e.Err
}
