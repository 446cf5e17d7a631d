// Package runner runs the external command line tools post drives.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/sallan/RBScript/internal/terminal"
)

// Command is one external program invocation.
type Command struct {
	Name  string
	Args  []string
	Stdin []byte
}

// String returns the command line quoted for a POSIX shell.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// Key returns the command line joined with single spaces, unquoted.
func (c Command) Key() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner executes external commands.
type Runner interface {
	// Output runs cmd and captures stdout and stderr. A non-zero exit is
	// returned as an error alongside the captured Result.
	Output(ctx context.Context, cmd Command) (Result, error)
	// Attached runs cmd connected to the terminal's stdin, stdout and stderr.
	Attached(ctx context.Context, cmd Command) error
}

// Exec runs commands with os/exec.
type Exec struct {
	logger *terminal.Logger
}

// NewExec creates an Exec runner. Each command line is logged at debug level.
func NewExec(logger *terminal.Logger) *Exec {
	return &Exec{logger: logger}
}

// Output implements Runner.
func (e *Exec) Output(ctx context.Context, c Command) (Result, error) {
	e.logger.Command(c.Name, c.Args)

	// #nosec G204 - Name is p4, rbt or the user's configured editor.
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	e.logger.Debugf("%s finished in %s", c.Name, terminal.FormatDuration(res.Duration))

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, fmt.Errorf("%s: %w", c.Name, err)
	}
	return res, nil
}

// Attached implements Runner.
func (e *Exec) Attached(ctx context.Context, c Command) error {
	e.logger.Command(c.Name, c.Args)

	// #nosec G204 - Name is p4, rbt or the user's configured editor.
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// LookPath reports the full path of an executable on PATH.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
