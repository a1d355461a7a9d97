package util

import (
	"errors"

	"github.com/eweilow/paket/internal/actions"
)

// Exit codes shared by the binaries
const (
	ExitFailure          = 1
	ExitInvalidArguments = 2
	ExitConfiguration    = 3
)

// ExitCode maps an action error to the process exit code
func ExitCode(err error) int {
	var argsErr *actions.InvalidArgumentsError
	if errors.As(err, &argsErr) {
		return ExitInvalidArguments
	}
	var validationErr *actions.ValidationFailedError
	if errors.As(err, &validationErr) {
		return ExitConfiguration
	}
	return ExitFailure
}
