package p4

import (
	"context"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/runner"
)

// Set runs p4 set and returns the variables it reports. Values keep p4's
// source annotations such as " (config)".
func (c *Client) Set(ctx context.Context) (map[string]string, error) {
	out, err := c.run(ctx, nil, "set")
	if err != nil {
		return nil, err
	}
	vars := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(strings.TrimRight(line, "\r"), "=")
		if ok {
			vars[strings.TrimSpace(k)] = v
		}
	}
	return vars, nil
}

// p4 set marks where a value came from with a trailing annotation.
var setAnnotations = []string{" (config)", " (set)", " (enviro)"}

// Editor returns the editor command line: notepad on Windows, otherwise
// P4EDITOR from p4 set, then $EDITOR, then vi.
func (c *Client) Editor(ctx context.Context) (string, error) {
	if c.goos == "windows" {
		return "notepad", nil
	}
	vars, err := c.Set(ctx)
	if err != nil {
		return "", err
	}
	if editor := vars["P4EDITOR"]; editor != "" {
		for _, a := range setAnnotations {
			editor = strings.TrimSuffix(editor, a)
		}
		return editor, nil
	}
	if editor := c.getenv("EDITOR"); editor != "" {
		return editor, nil
	}
	return "vi", nil
}

// EditFile opens path in the user's editor and waits for it to exit.
func (c *Client) EditFile(ctx context.Context, path string) error {
	editor, err := c.Editor(ctx)
	if err != nil {
		return err
	}
	argv, err := shellquote.Split(editor)
	if err != nil || len(argv) == 0 {
		return domain.VCSError("edit change form", "", fmt.Errorf("invalid editor command %q", editor))
	}
	cmd := runner.Command{Name: argv[0], Args: append(argv[1:], path)}
	if err := c.runner.Attached(ctx, cmd); err != nil {
		return domain.VCSError("edit change form", "", err)
	}
	return nil
}
