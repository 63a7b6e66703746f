package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
)

// Errors already categorised by go-errors (remote failures from the client,
// for instance) pass through every wrapper untouched.

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapContextError(err)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}
