package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ArgumentError reports a command line that cannot be reconciled into one
// action and at most one change reference.
type ArgumentError struct {
	Reason string
}

func (e *ArgumentError) Error() string {
	return e.Reason
}

// ArgumentErrorf builds an ArgumentError with a formatted reason.
func ArgumentErrorf(format string, args ...any) error {
	return &ArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// CollaboratorKind names the external system a CollaboratorError came from.
type CollaboratorKind int

const (
	CollaboratorVCS CollaboratorKind = iota
	CollaboratorReviewServer
	CollaboratorReviewTool
)

func (k CollaboratorKind) String() string {
	switch k {
	case CollaboratorVCS:
		return "perforce"
	case CollaboratorReviewServer:
		return "review board"
	case CollaboratorReviewTool:
		return "rbt"
	default:
		return "collaborator"
	}
}

// CollaboratorError reports a failed call to p4, rbt or the Review Board server.
// Detail carries the collaborator's own diagnostic text, if any.
type CollaboratorError struct {
	Kind   CollaboratorKind
	Op     string
	Detail string
	Err    error
}

func (e *CollaboratorError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if detail := strings.TrimSpace(e.Detail); detail != "" {
		b.WriteString("\n")
		b.WriteString(detail)
	}
	return b.String()
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// VCSError returns a CollaboratorError for a failed Perforce operation.
func VCSError(op, detail string, err error) error {
	return &CollaboratorError{Kind: CollaboratorVCS, Op: op, Detail: detail, Err: err}
}

// ReviewServerError returns a CollaboratorError for a failed Review Board call.
func ReviewServerError(op, detail string, err error) error {
	return &CollaboratorError{Kind: CollaboratorReviewServer, Op: op, Detail: detail, Err: err}
}

// ReviewToolError returns a CollaboratorError for a failed rbt invocation.
func ReviewToolError(op, detail string, err error) error {
	return &CollaboratorError{Kind: CollaboratorReviewTool, Op: op, Detail: detail, Err: err}
}

// UnrecognizedOutputError reports collaborator output that matched none of
// the known templates.
type UnrecognizedOutputError struct {
	Command string
	Output  string
}

func (e *UnrecognizedOutputError) Error() string {
	return fmt.Sprintf("unrecognized output from %s:\n%s", e.Command, strings.TrimRight(e.Output, "\n"))
}

// ConfigError reports a problem with the configuration files or server URL.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// DependencyError reports a missing or too old external tool.
type DependencyError struct {
	Tool        string
	Unsupported bool
	Err         error
}

func (e *DependencyError) Error() string {
	if e.Unsupported {
		return fmt.Sprintf("unsupported %s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s not available: %v", e.Tool, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// ErrUnsupportedOS is returned when the tool runs on a platform without a p4 client.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// ErrUnknownAction is returned when the dispatcher is handed an action it does not handle.
var ErrUnknownAction = errors.New("unknown action")

// ExitCodeFor maps an error returned by the dispatcher to the process exit code.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitOK
	}

	var argErr *ArgumentError
	var cfgErr *ConfigError
	var depErr *DependencyError
	var outErr *UnrecognizedOutputError
	var collabErr *CollaboratorError

	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, ErrUnknownAction):
		return ExitUnknownAction
	case errors.As(err, &argErr):
		return ExitArgumentError
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &depErr):
		if depErr.Unsupported {
			return ExitUnsupportedDependency
		}
		return ExitMissingDependency
	case errors.Is(err, ErrUnsupportedOS):
		return ExitUnsupportedOS
	case errors.As(err, &outErr):
		return ExitVCSError
	case errors.As(err, &collabErr):
		if collabErr.Kind == CollaboratorVCS {
			return ExitVCSError
		}
		return ExitReviewServerError
	default:
		return ExitReviewServerError
	}
}
