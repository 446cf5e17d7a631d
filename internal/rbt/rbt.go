// Package rbt drives the RBTools command line client.
package rbt

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/runner"
	"github.com/sallan/RBScript/internal/terminal"
)

// MinVersion is the oldest rbt release post works with.
const MinVersion = "0.6.0"

var versionPattern = regexp.MustCompile(`[0-9]+(\.[0-9]+)+`)

// Client runs rbt commands.
type Client struct {
	binary string
	runner runner.Runner
	logger *terminal.Logger
}

// New creates a client for the rbt executable binary.
func New(binary string, r runner.Runner, logger *terminal.Logger) *Client {
	return &Client{binary: binary, runner: r, logger: logger}
}

// Post runs rbt post with the terminal attached so rbt can prompt and
// print the review URL itself.
func (c *Client) Post(ctx context.Context, args []string) error {
	c.logger.Debugf("rbt args: %q", args)
	cmd := runner.Command{Name: c.binary, Args: append([]string{"post"}, args...)}
	if err := c.runner.Attached(ctx, cmd); err != nil {
		return domain.ReviewToolError("rbt post", "", err)
	}
	return nil
}

// Diff runs rbt diff and returns the diff text.
func (c *Client) Diff(ctx context.Context, args []string) ([]byte, error) {
	c.logger.Debugf("rbt args: %q", args)
	res, err := c.runner.Output(ctx, runner.Command{Name: c.binary, Args: append([]string{"diff"}, args...)})
	if err != nil {
		return nil, domain.ReviewToolError("rbt diff", strings.TrimSpace(string(res.Stderr)), err)
	}
	return res.Stdout, nil
}

// Version returns the version reported by rbt --version.
func (c *Client) Version(ctx context.Context) (*semver.Version, error) {
	res, err := c.runner.Output(ctx, runner.Command{Name: c.binary, Args: []string{"--version"}})
	if err != nil {
		return nil, &domain.DependencyError{Tool: c.binary, Err: err}
	}
	return ParseVersion(string(res.Stdout) + string(res.Stderr))
}

// ParseVersion extracts the first dotted version number from rbt --version
// output such as "RBTools 4.0 (Python 3.11.4)".
func ParseVersion(out string) (*semver.Version, error) {
	match := versionPattern.FindString(out)
	if match == "" {
		return nil, &domain.DependencyError{Tool: "rbt", Unsupported: true,
			Err: fmt.Errorf("could not read version from %q", strings.TrimSpace(out))}
	}
	v, err := semver.NewVersion(match)
	if err != nil {
		return nil, &domain.DependencyError{Tool: "rbt", Unsupported: true, Err: err}
	}
	return v, nil
}

// CheckVersion fails with an unsupported DependencyError when rbt is older
// than MinVersion.
func (c *Client) CheckVersion(ctx context.Context) error {
	v, err := c.Version(ctx)
	if err != nil {
		return err
	}
	c.logger.Debugf("rbt version %s", v)
	if v.LessThan(semver.MustParse(MinVersion)) {
		return &domain.DependencyError{Tool: "rbt", Unsupported: true,
			Err: fmt.Errorf("version %s is older than %s", v, MinVersion)}
	}
	return nil
}
