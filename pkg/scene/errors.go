package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrMismatchedAttributeCount is returned when an auxiliary per-vertex
	// buffer does not have exactly one entry per model vertex.
	ErrMismatchedAttributeCount = errors.New("scene: mismatched attribute count")

	// ErrUnknownResource is returned when a model, gradient, texcoord,
	// texture or style was never created by this display.
	ErrUnknownResource = errors.New("scene: unknown resource")

	// ErrDuplicateStyle is returned when two style definitions share a
	// name.
	ErrDuplicateStyle = errors.New("scene: duplicate style name")

	// ErrInvalidGeometry is returned for vertex data that is not a whole
	// number of four-float vertices, or fans outside the vertex range.
	ErrInvalidGeometry = errors.New("scene: invalid geometry")

	// ErrNoSuchField is returned when setting alpha or tint on a shape
	// whose style does not consume it.
	ErrNoSuchField = errors.New("scene: style has no such field")

	// ErrInvalidHandle is the panic value (wrapped) when a nil, foreign or
	// destroyed handle is used.
	ErrInvalidHandle = errors.New("scene: invalid handle")

	// ErrHandleDestroyed is returned by a second Destroy of the same handle.
	ErrHandleDestroyed = errors.New("scene: handle already destroyed")
)

// AttributeCountError reports an auxiliary buffer whose vertex count does
// not match the model's.
type AttributeCountError struct {
	Attribute string
	Got       int
	Want      int
}

func (e *AttributeCountError) Error() string {
	return fmt.Sprintf("scene: %s has %d vertices, model has %d", e.Attribute, e.Got, e.Want)
}

func (e *AttributeCountError) Unwrap() error {
	return ErrMismatchedAttributeCount
}
