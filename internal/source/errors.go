package source

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports that a source has no usable record for a name.
// The cache remembers it so the name is not fetched again.
var ErrNotFound = errors.New("version record not found")

// RegistryError is returned when the registry cannot be reached or answers with a non-success status
type RegistryError struct {
	Name       string
	URL        string
	StatusCode int
	Err        error
}

func (e *RegistryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("registry lookup for %s failed: HTTP %d from %s", e.Name, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("registry lookup for %s failed: %v", e.Name, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when a response lacks the fields of a version record
type MalformedResponseError struct {
	Name   string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response for %s: %s", e.Name, e.Reason)
}

// ToolInvocationError is returned when the external package manager fails
type ToolInvocationError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolInvocationError) Error() string {
	msg := fmt.Sprintf("package manager invocation '%s' failed (exit code %d)", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Err
}
