package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ExitCode
	}{
		{"nil", nil, ExitOK},
		{"argument", ArgumentErrorf("need a change list number"), ExitArgumentError},
		{"wrapped argument", fmt.Errorf("parse: %w", ArgumentErrorf("bad")), ExitArgumentError},
		{"config", &ConfigError{Err: errors.New("no server url")}, ExitConfigError},
		{"missing dep", &DependencyError{Tool: "rbt", Err: errors.New("not found")}, ExitMissingDependency},
		{"old dep", &DependencyError{Tool: "rbt", Unsupported: true, Err: errors.New("0.5.0")}, ExitUnsupportedDependency},
		{"os", fmt.Errorf("plan9: %w", ErrUnsupportedOS), ExitUnsupportedOS},
		{"vcs", VCSError("p4 submit", "", errors.New("exit status 1")), ExitVCSError},
		{"review server", ReviewServerError("get review", "", errors.New("500")), ExitReviewServerError},
		{"review tool", ReviewToolError("rbt post", "", errors.New("exit status 1")), ExitReviewServerError},
		{"unknown action", fmt.Errorf("%w: 7", ErrUnknownAction), ExitUnknownAction},
		{"interrupted", VCSError("p4 submit", "", context.Canceled), ExitInterrupted},
		{"unrecognized", VCSError("p4 submit", "", &UnrecognizedOutputError{Command: "p4 submit", Output: "huh"}), ExitVCSError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor() = %d (%s), want %d (%s)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestCollaboratorError_Message(t *testing.T) {
	err := VCSError("p4 shelve -d -c 42", "  no such changelist\n", errors.New("exit status 1"))
	got := err.Error()
	if !strings.HasPrefix(got, "p4 shelve -d -c 42: exit status 1") {
		t.Errorf("Error() = %q, want op and cause first", got)
	}
	if !strings.HasSuffix(got, "\nno such changelist") {
		t.Errorf("Error() = %q, want trimmed detail on its own line", got)
	}
}

func TestCollaboratorError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := ReviewServerError("publish", "", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see the wrapped cause")
	}
}

func TestUnrecognizedOutputError(t *testing.T) {
	err := &UnrecognizedOutputError{Command: "p4 submit -c 7", Output: "Something odd.\n"}
	want := "unrecognized output from p4 submit -c 7:\nSomething odd."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
