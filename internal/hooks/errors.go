package hooks

import "fmt"

// UnexpectedEventError is returned by typed adapters given the wrong event
// variant.
type UnexpectedEventError struct {
	Event Event
}

// Error implements the error interface.
func (e *UnexpectedEventError) Error() string {
	return fmt.Sprintf("unexpected event type %T", e.Event)
}
