package p4

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/sallan/RBScript/internal/domain"
)

var (
	submittedPattern = regexp.MustCompile(`^Change ([0-9]+) submitted\.$`)
	renamedPattern   = regexp.MustCompile(`^Change ([0-9]+) renamed change ([0-9]+) and submitted\.$`)
)

// SubmitResult is the outcome of p4 submit.
type SubmitResult struct {
	// Change is the number the change list was submitted as.
	Change int
	// Renamed is true when p4 gave the change list a new number.
	Renamed bool
}

// ParseSubmitOutput reads the submitted change number from p4 submit output.
// "Change N submitted." yields N; "Change N renamed change M and submitted."
// yields M. Any other output is an UnrecognizedOutputError.
func ParseSubmitOutput(out string) (SubmitResult, error) {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if m := renamedPattern.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[2])
			if err == nil {
				return SubmitResult{Change: n, Renamed: true}, nil
			}
		}
		if m := submittedPattern.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return SubmitResult{Change: n}, nil
			}
		}
	}
	return SubmitResult{}, &domain.UnrecognizedOutputError{Command: "p4 submit", Output: out}
}

// Submit submits change list n and returns the submitted change number.
func (c *Client) Submit(ctx context.Context, n string) (SubmitResult, error) {
	out, err := c.run(ctx, nil, "submit", "-c", n)
	if err != nil {
		return SubmitResult{}, err
	}
	return ParseSubmitOutput(out)
}
