// Package p4 drives the Perforce command line client.
package p4

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/runner"
	"github.com/sallan/RBScript/internal/terminal"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(question string, defaultYes bool) (bool, error)
}

// Identity is the Perforce user, server and workspace a client acts as.
type Identity struct {
	User   string
	Port   string
	Client string
}

func (id Identity) complete() bool {
	return id.User != "" && id.Port != "" && id.Client != ""
}

// Client runs p4 commands. Once Connect has filled in the identity, every
// command carries explicit -u, -p and -c flags.
type Client struct {
	binary    string
	id        Identity
	runner    runner.Runner
	logger    *terminal.Logger
	confirmer Confirmer
	getenv    func(string) string
	goos      string
}

// Option configures a Client.
type Option func(*Client)

// WithIdentity presets the identity; Connect then only fills missing fields.
func WithIdentity(id Identity) Option {
	return func(c *Client) { c.id = id }
}

// WithConfirmer sets the prompt used when a change form is rejected.
func WithConfirmer(cf Confirmer) Option {
	return func(c *Client) { c.confirmer = cf }
}

// WithEnv replaces os.Getenv and runtime.GOOS for editor resolution.
func WithEnv(getenv func(string) string, goos string) Option {
	return func(c *Client) {
		c.getenv = getenv
		c.goos = goos
	}
}

// New creates a client for the p4 executable binary.
func New(binary string, r runner.Runner, logger *terminal.Logger, opts ...Option) *Client {
	c := &Client{
		binary: binary,
		runner: r,
		logger: logger,
		getenv: os.Getenv,
		goos:   runtime.GOOS,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Identity returns the identity the client acts as.
func (c *Client) Identity() Identity {
	return c.id
}

// Info holds the fields of p4 info that post uses.
type Info struct {
	UserName      string
	ClientName    string
	ServerAddress string
	ServerVersion string
}

// Info runs p4 info.
func (c *Client) Info(ctx context.Context) (Info, error) {
	records, err := c.ztag(ctx, "info")
	if err != nil {
		return Info{}, err
	}
	if len(records) == 0 {
		return Info{}, domain.VCSError("p4 info", "", errNoServer)
	}
	r := records[0]
	return Info{
		UserName:      r.Get("userName"),
		ClientName:    r.Get("clientName"),
		ServerAddress: r.Get("serverAddress"),
		ServerVersion: r.Get("serverVersion"),
	}, nil
}

// Connect fills in any missing identity fields from p4 info.
func (c *Client) Connect(ctx context.Context) error {
	if c.id.complete() {
		return nil
	}
	info, err := c.Info(ctx)
	if err != nil {
		return err
	}
	if c.id.User == "" {
		c.id.User = info.UserName
	}
	if c.id.Port == "" {
		c.id.Port = info.ServerAddress
	}
	if c.id.Client == "" {
		c.id.Client = info.ClientName
	}
	c.logger.Debugf("p4 user: %s port: %s client: %s", c.id.User, c.id.Port, c.id.Client)
	return nil
}

func (c *Client) command(stdin []byte, args ...string) runner.Command {
	var full []string
	if c.id.User != "" {
		full = append(full, "-u", c.id.User)
	}
	if c.id.Port != "" {
		full = append(full, "-p", c.id.Port)
	}
	if c.id.Client != "" {
		full = append(full, "-c", c.id.Client)
	}
	return runner.Command{Name: c.binary, Args: append(full, args...), Stdin: stdin}
}

// run executes a p4 command and returns stdout. Failures become VCS
// collaborator errors carrying p4's own diagnostic text.
func (c *Client) run(ctx context.Context, stdin []byte, args ...string) (string, error) {
	res, err := c.runner.Output(ctx, c.command(stdin, args...))
	if err != nil {
		return "", domain.VCSError("p4 "+strings.Join(args, " "), diagnostic(res), err)
	}
	return string(res.Stdout), nil
}

// ztag runs p4 -ztag <args> and parses the tagged output.
func (c *Client) ztag(ctx context.Context, args ...string) ([]Record, error) {
	res, err := c.runner.Output(ctx, c.command(nil, append([]string{"-ztag"}, args...)...))
	if err != nil {
		return nil, domain.VCSError("p4 "+strings.Join(args, " "), diagnostic(res), err)
	}
	return ParseZtag(string(res.Stdout)), nil
}

func diagnostic(res runner.Result) string {
	if s := strings.TrimSpace(string(res.Stderr)); s != "" {
		return s
	}
	return strings.TrimSpace(string(res.Stdout))
}
