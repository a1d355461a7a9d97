package actions

import "fmt"

// InvalidArgumentsError reports unusable command input. It is raised before any I/O.
type InvalidArgumentsError struct {
	Reason string
	Err    error
}

func (e *InvalidArgumentsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid arguments: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid arguments: %s", e.Reason)
}

func (e *InvalidArgumentsError) Unwrap() error {
	return e.Err
}
