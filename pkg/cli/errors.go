package cli

import (
	"errors"
	"fmt"

	"strategos-hq/riskengine/pkg/bundle"
	"strategos-hq/riskengine/pkg/model"
)

// Exit codes returned by the riskengine command.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitNotFound    = 3
	ExitConflict    = 4
	ExitReplayDrift = 5
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ErrReplayDrift is returned when a replay does not reproduce the stored run.
var ErrReplayDrift = errors.New("replay does not match the stored run")

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		cfgErr    *ConfigError
		bundleErr *bundle.ValidationError
	)
	switch {
	case errors.Is(err, ErrReplayDrift):
		return ExitReplayDrift
	case errors.As(err, &cfgErr), errors.As(err, &bundleErr), model.IsInvalidInput(err):
		return ExitUsage
	case model.IsNotFound(err):
		return ExitNotFound
	case model.IsConflict(err), model.IsNoActiveModel(err):
		return ExitConflict
	default:
		return ExitFailure
	}
}
