package p4

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/terminal"
)

var (
	// ErrNoOpenedFiles is returned by NewChange when the default change list is empty.
	ErrNoOpenedFiles = errors.New("no files opened in default changelist")
	// ErrNoChangesMade is returned when the user saves the change form unchanged.
	ErrNoChangesMade = errors.New("no changes made to change list")
	// ErrFormNotFixed is returned when the user declines to fix a rejected change form.
	ErrFormNotFixed = errors.New("change specification errors not fixed")
)

var changeCreatedPattern = regexp.MustCompile(`^Change ([0-9]+) created`)

// Change is a numbered change list as described by p4 change -o.
type Change struct {
	Number      string
	User        string
	Client      string
	Status      string
	Description string
	Jobs        []string
	Files       []string

	form *Form
}

func changeFromForm(form *Form) *Change {
	c := &Change{
		Number:      form.Value("Change"),
		User:        form.Value("User"),
		Client:      form.Value("Client"),
		Status:      form.Value("Status"),
		Description: form.Text("Description"),
		form:        form,
	}
	for _, l := range form.Lines("Jobs") {
		if job := firstWord(l); job != "" {
			c.Jobs = append(c.Jobs, job)
		}
	}
	for _, l := range form.Lines("Files") {
		if file := firstWord(l); file != "" {
			c.Files = append(c.Files, file)
		}
	}
	return c
}

func firstWord(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// GetChange returns change list n.
func (c *Client) GetChange(ctx context.Context, n string) (*Change, error) {
	out, err := c.run(ctx, nil, "change", "-o", n)
	if err != nil {
		return nil, err
	}
	return changeFromForm(ParseForm(out)), nil
}

// Jobs returns the jobs attached to change list n, sorted.
func (c *Client) Jobs(ctx context.Context, n string) ([]string, error) {
	change, err := c.GetChange(ctx, n)
	if err != nil {
		return nil, err
	}
	jobs := slices.Clone(change.Jobs)
	slices.Sort(jobs)
	return jobs, nil
}

// AddReviewedBy records the approvers in the description of change list n.
func (c *Client) AddReviewedBy(ctx context.Context, n string, approvers []string) error {
	change, err := c.GetChange(ctx, n)
	if err != nil {
		return err
	}
	updated := WithReviewedBy(change.Description, approvers)
	if updated == change.Description {
		return nil
	}
	change.form.SetText("Description", updated)
	_, err = c.run(ctx, []byte(change.form.String()), "change", "-i")
	return err
}

// WithReviewedBy returns description with a "Reviewed by:" line naming the
// approvers. An existing "Reviewed by:" line is replaced; otherwise the line
// is appended after a blank line. The result ends with a newline.
func WithReviewedBy(description string, approvers []string) string {
	line := "Reviewed by: " + strings.Join(approvers, ", ")

	trimmed := strings.TrimRight(description, "\n")
	if trimmed == "" {
		return line + "\n"
	}

	lines := strings.Split(trimmed, "\n")
	replaced := false
	for i, l := range lines {
		if strings.HasPrefix(l, "Reviewed by:") {
			lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, "", line)
	}
	return strings.Join(lines, "\n") + "\n"
}

// VerifyOwner fails unless change list n belongs to the connected user.
func (c *Client) VerifyOwner(ctx context.Context, n string) error {
	change, err := c.GetChange(ctx, n)
	if err != nil {
		return err
	}
	if change.User != c.id.User {
		return domain.VCSError("p4 change -o "+n, "",
			fmt.Errorf("perforce change %s is owned by %s - you are running as %s", n, change.User, c.id.User))
	}
	return nil
}

// EditChange opens change list n in the user's editor through p4 itself.
func (c *Client) EditChange(ctx context.Context, n string) error {
	if err := c.runner.Attached(ctx, c.command(nil, "change", n)); err != nil {
		return domain.VCSError("p4 change "+n, "", err)
	}
	return nil
}

// Opened returns the depot paths of files opened in change list n
// ("default" for the default change list).
func (c *Client) Opened(ctx context.Context, n string) ([]string, error) {
	args := []string{"opened"}
	if n != "" {
		args = append(args, "-c", n)
	}
	records, err := c.ztag(ctx, args...)
	if err != nil {
		var collab *domain.CollaboratorError
		if errors.As(err, &collab) && strings.Contains(collab.Detail, "not opened") {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, r := range records {
		if f := r.Get("depotFile"); f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// NewChange turns the files in the default change list into a new numbered
// change list. The change form is opened in the user's editor; saving it
// unchanged is an error. If p4 rejects the edited form the user may fix it once.
func (c *Client) NewChange(ctx context.Context) (string, error) {
	opened, err := c.Opened(ctx, "default")
	if err != nil {
		return "", err
	}
	if len(opened) == 0 {
		return "", domain.VCSError("p4 opened -c default", "", ErrNoOpenedFiles)
	}

	template, err := c.run(ctx, nil, "change", "-o")
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "p4.change.")
	if err != nil {
		return "", domain.VCSError("new change", "", fmt.Errorf("failed to create change form: %w", err))
	}
	formPath := f.Name()
	defer os.Remove(formPath)

	if _, err := f.WriteString(template); err != nil {
		f.Close()
		return "", domain.VCSError("new change", "", fmt.Errorf("failed to write change form: %w", err))
	}
	if err := f.Close(); err != nil {
		return "", domain.VCSError("new change", "", fmt.Errorf("failed to write change form: %w", err))
	}

	edited, err := c.editForm(ctx, formPath)
	if err != nil {
		return "", err
	}
	if sameForm(template, edited) {
		return "", domain.VCSError("new change", "", ErrNoChangesMade)
	}

	out, err := c.run(ctx, []byte(edited), "change", "-i")
	if err != nil {
		c.logger.Logf(terminal.StyleError, "Error in change specification:\n%v", err)
		if c.confirmer == nil {
			return "", err
		}
		again, cerr := c.confirmer.Confirm("Try again?", true)
		if cerr != nil || !again {
			return "", domain.VCSError("p4 change -i", "", ErrFormNotFixed)
		}
		if edited, err = c.editForm(ctx, formPath); err != nil {
			return "", err
		}
		if out, err = c.run(ctx, []byte(edited), "change", "-i"); err != nil {
			return "", err
		}
	}

	return ParseChangeCreated(out)
}

func (c *Client) editForm(ctx context.Context, path string) (string, error) {
	if err := c.EditFile(ctx, path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", domain.VCSError("new change", "", fmt.Errorf("couldn't read the saved change list form: %w", err))
	}
	return string(data), nil
}

// sameForm compares forms line by line, ignoring trailing whitespace.
func sameForm(a, b string) bool {
	norm := func(s string) []string {
		lines := strings.Split(strings.TrimRight(strings.ReplaceAll(s, "\r\n", "\n"), "\n"), "\n")
		for i := range lines {
			lines[i] = strings.TrimRight(lines[i], " \t")
		}
		return lines
	}
	return slices.Equal(norm(a), norm(b))
}

// ParseChangeCreated extracts N from p4 change -i output "Change N created ...".
func ParseChangeCreated(out string) (string, error) {
	for _, line := range strings.Split(out, "\n") {
		if m := changeCreatedPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1], nil
		}
	}
	return "", &domain.UnrecognizedOutputError{Command: "p4 change -i", Output: out}
}
