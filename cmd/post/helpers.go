package main

import (
	"errors"
	"fmt"

	"github.com/sallan/RBScript/internal/domain"
)

// exitCodeError is a wrapper type for returning exit codes via error interface.
// The failure it stands for has already been reported.
type exitCodeError struct {
	code domain.ExitCode
}

func (e exitCodeError) Error() string {
	switch e.code {
	case domain.ExitInterrupted:
		return "post was interrupted"
	default:
		return fmt.Sprintf("exit code %d", e.code)
	}
}

func exitCode(code domain.ExitCode) error {
	if code == domain.ExitOK {
		return nil
	}
	return exitCodeError{code: code}
}

// exitCodeFor maps an error from the root command to the process exit code.
// report is false when the error was already shown to the user.
func exitCodeFor(err error) (code domain.ExitCode, report bool) {
	var exitErr exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code, false
	}
	return domain.ExitCodeFor(err), err != nil
}
