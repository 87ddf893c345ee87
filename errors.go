package wv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed indicates an operation was issued against a weave after Close.
	ErrClosed = errors.New("wv: weave is closed")
	// ErrReference matches every *ReferenceError via errors.Is.
	ErrReference = errors.New("wv: invalid reference")
	// ErrNilEntity indicates the reserved Nil id (or a zero Ref) was supplied.
	ErrNilEntity = errors.New("wv: nil entity")
	// ErrUnknownEntity indicates an id that was never issued by the weave.
	ErrUnknownEntity = errors.New("wv: unknown entity")
	// ErrForeignEntity indicates a reference issued by a different weave.
	ErrForeignEntity = errors.New("wv: entity belongs to another weave")
	// ErrNotKnot indicates a reference to an arrow, mark or tether where a knot is required.
	ErrNotKnot = errors.New("wv: entity is not a knot")
	// ErrIDSpaceExhausted indicates the weave cannot issue another entity id.
	ErrIDSpaceExhausted = errors.New("wv: entity id space exhausted")
)

// ReferenceError reports a rejected entity reference. Err holds the specific cause
// (ErrNilEntity, ErrUnknownEntity, ErrForeignEntity or ErrNotKnot).
type ReferenceError struct {
	Op   Op
	Role string
	ID   EntityID
	Err  error
}

func (e *ReferenceError) Error() string {
	cause := "invalid reference"
	if e.Err != nil {
		cause = strings.TrimPrefix(e.Err.Error(), "wv: ")
	}
	return fmt.Sprintf("wv: %s: %s %d: %s", e.Op, e.Role, e.ID, cause)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrReference, so callers can match the whole class.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrReference
}

func refError(op Op, role string, id EntityID, cause error) error {
	return &ReferenceError{Op: op, Role: role, ID: id, Err: cause}
}
