// Package domain provides core types shared by the post command and its collaborators.
package domain

// ExitCode represents the exit status of the post command.
type ExitCode int

const (
	// ExitOK indicates success, or that help was printed because no action was given.
	ExitOK ExitCode = 0
	// ExitMissingDependency indicates p4 or rbt could not be found.
	ExitMissingDependency ExitCode = 1
	// ExitUnsupportedDependency indicates rbt is older than the minimum supported version.
	ExitUnsupportedDependency ExitCode = 2
	// ExitUnsupportedOS indicates the tool was started on an operating system it cannot drive p4 from.
	ExitUnsupportedOS ExitCode = 3
	// ExitUnsupportedRuntime is reserved for runtime version checks.
	ExitUnsupportedRuntime ExitCode = 4
	// ExitConfigError indicates the configuration files or server URL could not be resolved.
	ExitConfigError ExitCode = 5
	// ExitUnknownAction indicates an action the dispatcher does not handle.
	ExitUnknownAction ExitCode = 6
	// ExitVCSError indicates a Perforce command failed.
	ExitVCSError ExitCode = 7
	// ExitReviewServerError indicates a Review Board or rbt call failed.
	ExitReviewServerError ExitCode = 8
	// ExitArgumentError indicates the command line could not be reconciled.
	ExitArgumentError ExitCode = 9
	// ExitInterrupted indicates the run was interrupted by a signal.
	ExitInterrupted ExitCode = 130
)

// Int returns the exit code as an int for use with os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}

// String describes the exit code for error wrappers and debug output.
func (e ExitCode) String() string {
	switch e {
	case ExitOK:
		return "success"
	case ExitMissingDependency:
		return "missing dependency"
	case ExitUnsupportedDependency:
		return "unsupported dependency version"
	case ExitUnsupportedOS:
		return "unsupported operating system"
	case ExitUnsupportedRuntime:
		return "unsupported runtime"
	case ExitConfigError:
		return "configuration error"
	case ExitUnknownAction:
		return "unknown action"
	case ExitVCSError:
		return "perforce error"
	case ExitReviewServerError:
		return "review server error"
	case ExitArgumentError:
		return "argument error"
	case ExitInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}
