package sandbox

import "fmt"

// NotFoundError is returned when the backend has no sandbox for the given identifier.
type NotFoundError struct {
	SandboxID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sandbox %s not found", e.SandboxID)
}
