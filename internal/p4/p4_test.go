package p4

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/runner"
	"github.com/sallan/RBScript/internal/terminal"
)

const testFlags = "-u sallan -p perforce:1666 -c sallan-ws"

func key(args string) string {
	return "p4 " + testFlags + " " + args
}

func noEnv(string) string { return "" }

func newTestClient(f *runner.Fake, opts ...Option) *Client {
	base := []Option{
		WithIdentity(Identity{User: "sallan", Port: "perforce:1666", Client: "sallan-ws"}),
		WithEnv(noEnv, "linux"),
	}
	return New("p4", f, terminal.NewLoggerTo(io.Discard), append(base, opts...)...)
}

const changeForm = `# A Perforce Change Specification.
#
#  Change:      The change number. 'new' on a new changelist.

Change:	830

Date:	2014/05/01 10:00:00

Client:	sallan-ws

User:	sallan

Status:	pending

Description:
	Fix bug

Jobs:
	job000123	# Crash on start

Files:
	//depot/main/foo.c	# edit
`

const newChangeTemplate = `# A Perforce Change Specification.

Change:	new

Client:	sallan-ws

User:	sallan

Status:	new

Description:
	<enter description here>

Files:
	//depot/main/foo.c	# edit
`

type fakeConfirmer struct {
	answer bool
	asked  int
}

func (f *fakeConfirmer) Confirm(string, bool) (bool, error) {
	f.asked++
	return f.answer, nil
}

func TestConnect_FillsIdentityFromInfo(t *testing.T) {
	f := runner.NewFake().
		On("p4 -ztag info", runner.Reply{Stdout: "... userName sallan\n... clientName sallan-ws\n... serverAddress perforce:1666\n"}).
		On(key("submit -c 5"), runner.Reply{Stdout: "Change 5 submitted.\n"})
	c := New("p4", f, terminal.NewLoggerTo(io.Discard))

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Identity{User: "sallan", Port: "perforce:1666", Client: "sallan-ws"}
	if c.Identity() != want {
		t.Errorf("identity = %+v, want %+v", c.Identity(), want)
	}
	if _, err := c.Submit(context.Background(), "5"); err != nil {
		t.Fatalf("expected identity flags on later commands: %v", err)
	}
}

func TestConnect_ErrorIsVCSError(t *testing.T) {
	f := runner.NewFake().On("p4 -ztag info", runner.Reply{Stderr: "Connect to server failed", Err: errors.New("exit status 1")})
	c := New("p4", f, terminal.NewLoggerTo(io.Discard))

	err := c.Connect(context.Background())
	if domain.ExitCodeFor(err) != domain.ExitVCSError {
		t.Fatalf("expected VCS error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Connect to server failed") {
		t.Errorf("expected p4 diagnostic in error, got %q", err)
	}
}

func TestGetChange(t *testing.T) {
	f := runner.NewFake().On(key("change -o 830"), runner.Reply{Stdout: changeForm})
	c := newTestClient(f)

	change, err := c.GetChange(context.Background(), "830")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.Number != "830" || change.User != "sallan" || change.Status != "pending" {
		t.Errorf("unexpected change %+v", change)
	}
	if change.Description != "Fix bug\n" {
		t.Errorf("description = %q", change.Description)
	}
	if len(change.Jobs) != 1 || change.Jobs[0] != "job000123" {
		t.Errorf("jobs = %q", change.Jobs)
	}
	if len(change.Files) != 1 || change.Files[0] != "//depot/main/foo.c" {
		t.Errorf("files = %q", change.Files)
	}
}

func TestJobs_Sorted(t *testing.T) {
	form := strings.Replace(changeForm, "\tjob000123\t# Crash on start\n",
		"\tjob000456\t# Slow start\n\tjob000123\t# Crash on start\n", 1)
	f := runner.NewFake().On(key("change -o 830"), runner.Reply{Stdout: form})
	c := newTestClient(f)

	jobs, err := c.Jobs(context.Background(), "830")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(jobs, ",") != "job000123,job000456" {
		t.Errorf("jobs = %q, want sorted", jobs)
	}
}

func TestWithReviewedBy(t *testing.T) {
	tests := []struct {
		name      string
		desc      string
		approvers []string
		want      string
	}{
		{"append", "Fix bug\n", []string{"sallan"}, "Fix bug\n\nReviewed by: sallan\n"},
		{"replace", "Fix bug\n\nReviewed by: bob\n", []string{"sallan"}, "Fix bug\n\nReviewed by: sallan\n"},
		{"several approvers", "Fix bug", []string{"Alice Smith", "bob"}, "Fix bug\n\nReviewed by: Alice Smith, bob\n"},
		{"keeps text after line", "Fix bug\nReviewed by: x\nmore\n", []string{"y"}, "Fix bug\nReviewed by: y\nmore\n"},
		{"empty description", "", []string{"sallan"}, "Reviewed by: sallan\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithReviewedBy(tt.desc, tt.approvers); got != tt.want {
				t.Errorf("WithReviewedBy() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithReviewedBy_Idempotent(t *testing.T) {
	once := WithReviewedBy("Fix bug\n", []string{"sallan"})
	twice := WithReviewedBy(once, []string{"sallan"})
	if once != twice {
		t.Errorf("second application changed description: %q -> %q", once, twice)
	}
	if strings.Count(twice, "Reviewed by:") != 1 {
		t.Errorf("expected exactly one Reviewed by line, got %q", twice)
	}
}

func TestAddReviewedBy_WritesForm(t *testing.T) {
	f := runner.NewFake().
		On(key("change -o 830"), runner.Reply{Stdout: changeForm}).
		On(key("change -i"), runner.Reply{Stdout: "Change 830 updated.\n"})
	c := newTestClient(f)

	if err := c.AddReviewedBy(context.Background(), "830", []string{"sallan"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := f.Calls()
	last := calls[len(calls)-1]
	if last.Key() != key("change -i") {
		t.Fatalf("expected change -i, got %s", last.Key())
	}
	form := ParseForm(string(last.Stdin))
	if form.Text("Description") != "Fix bug\n\nReviewed by: sallan\n" {
		t.Errorf("description written = %q", form.Text("Description"))
	}
	if form.Value("Change") != "830" || len(form.Lines("Jobs")) != 1 {
		t.Errorf("other fields not preserved: %s", last.Stdin)
	}
}

func TestVerifyOwner(t *testing.T) {
	f := runner.NewFake().On(key("change -o 830"), runner.Reply{Stdout: strings.Replace(changeForm, "User:\tsallan", "User:\tbob", 1)})
	c := newTestClient(f)

	err := c.VerifyOwner(context.Background(), "830")
	if err == nil {
		t.Fatal("expected ownership error")
	}
	if !strings.Contains(err.Error(), "owned by bob - you are running as sallan") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestOpened(t *testing.T) {
	f := runner.NewFake().
		On(key("-ztag opened -c 830"), runner.Reply{Stdout: "... depotFile //depot/a.c\n... action edit\n\n... depotFile //depot/b.c\n... action add\n"}).
		On(key("-ztag opened -c default"), runner.Reply{Stderr: "File(s) not opened on this client.", Err: errors.New("exit status 1")})
	c := newTestClient(f)

	files, err := c.Opened(context.Background(), "830")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || files[1] != "//depot/b.c" {
		t.Errorf("files = %q", files)
	}

	files, err = c.Opened(context.Background(), "default")
	if err != nil || len(files) != 0 {
		t.Errorf("expected no files and no error, got %q, %v", files, err)
	}
}

func TestShelved(t *testing.T) {
	f := runner.NewFake().On(key("-ztag changes -u sallan -s shelved"), runner.Reply{Stdout: "... change 830\n... status shelved\n\n... change 900\n... status shelved\n"})
	c := newTestClient(f)

	for n, want := range map[string]bool{"830": true, "900": true, "831": false} {
		got, err := c.Shelved(context.Background(), n)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("Shelved(%s) = %v, want %v", n, got, want)
		}
	}
}

func TestShelveAndDeleteShelf(t *testing.T) {
	f := runner.NewFake().
		On(key("shelve -f -c 830"), runner.Reply{Stdout: "Change 830 files shelved.\n"}).
		On(key("shelve -d -c 830"), runner.Reply{Stdout: "Shelved change 830 deleted.\n"})
	c := newTestClient(f)

	if err := c.Shelve(context.Background(), "830"); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteShelf(context.Background(), "830"); err != nil {
		t.Fatal(err)
	}
	if len(f.Calls()) != 2 {
		t.Errorf("expected 2 calls, got %q", f.Keys())
	}
}

func TestEditor(t *testing.T) {
	tests := []struct {
		name   string
		goos   string
		set    string
		editor string
		want   string
	}{
		{"windows", "windows", "", "", "notepad"},
		{"p4editor from config", "linux", "P4EDITOR=vim -f (config)\nP4PORT=perforce:1666\n", "emacs", "vim -f"},
		{"p4editor from environment", "darwin", "P4EDITOR=nano\n", "", "nano"},
		{"editor env", "linux", "P4PORT=perforce:1666\n", "emacs -nw", "emacs -nw"},
		{"fallback", "linux", "", "", "vi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := runner.NewFake().On(key("set"), runner.Reply{Stdout: tt.set})
			env := func(k string) string {
				if k == "EDITOR" {
					return tt.editor
				}
				return ""
			}
			c := newTestClient(f, WithEnv(env, tt.goos))

			got, err := c.Editor(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Editor() = %q, want %q", got, tt.want)
			}
		})
	}
}

// editInPlace returns an attached-command handler that rewrites the form file.
func editInPlace(t *testing.T, old, new string) func(runner.Command) error {
	return func(cmd runner.Command) error {
		path := cmd.Args[len(cmd.Args)-1]
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("editor could not read form: %v", err)
		}
		return os.WriteFile(path, []byte(strings.Replace(string(data), old, new, 1)), 0600)
	}
}

func newChangeFake() *runner.Fake {
	return runner.NewFake().
		On(key("-ztag opened -c default"), runner.Reply{Stdout: "... depotFile //depot/main/foo.c\n... action edit\n"}).
		On(key("change -o"), runner.Reply{Stdout: newChangeTemplate}).
		On(key("set"), runner.Reply{Stdout: "P4EDITOR=fakeedit --wait (config)\n"})
}

func TestNewChange(t *testing.T) {
	f := newChangeFake().On(key("change -i"), runner.Reply{Stdout: "Change 831 created with 1 open file(s).\n"})
	f.OnAttached = editInPlace(t, "<enter description here>", "New work")
	c := newTestClient(f)

	n, err := c.NewChange(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != "831" {
		t.Errorf("change = %q, want 831", n)
	}

	var submitted string
	for _, call := range f.Calls() {
		if call.Name == "fakeedit" && (len(call.Args) != 2 || call.Args[0] != "--wait") {
			t.Errorf("editor argv not split: %q", call.Args)
		}
		if call.Key() == key("change -i") {
			submitted = string(call.Stdin)
		}
	}
	if !strings.Contains(submitted, "\tNew work\n") {
		t.Errorf("edited form not sent to p4: %q", submitted)
	}
}

func TestNewChange_Unchanged(t *testing.T) {
	f := newChangeFake()
	c := newTestClient(f)

	_, err := c.NewChange(context.Background())
	if !errors.Is(err, ErrNoChangesMade) {
		t.Fatalf("expected ErrNoChangesMade, got %v", err)
	}
	for _, k := range f.Keys() {
		if k == key("change -i") {
			t.Error("unchanged form must not be submitted")
		}
	}
}

func TestNewChange_NothingOpened(t *testing.T) {
	f := runner.NewFake().On(key("-ztag opened -c default"), runner.Reply{})
	c := newTestClient(f)

	_, err := c.NewChange(context.Background())
	if !errors.Is(err, ErrNoOpenedFiles) {
		t.Fatalf("expected ErrNoOpenedFiles, got %v", err)
	}
}

func TestNewChange_RetryAfterRejectedForm(t *testing.T) {
	f := newChangeFake().
		On(key("change -i"), runner.Reply{Stderr: "Error in change specification.", Err: errors.New("exit status 1")}).
		On(key("change -i"), runner.Reply{Stdout: "Change 832 created.\n"})
	f.OnAttached = editInPlace(t, "<enter description here>", "New work")
	confirm := &fakeConfirmer{answer: true}
	c := newTestClient(f, WithConfirmer(confirm))

	n, err := c.NewChange(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != "832" || confirm.asked != 1 {
		t.Errorf("change = %q, asked = %d", n, confirm.asked)
	}
}

func TestNewChange_DeclineRetry(t *testing.T) {
	f := newChangeFake().On(key("change -i"), runner.Reply{Stderr: "Error in change specification.", Err: errors.New("exit status 1")})
	f.OnAttached = editInPlace(t, "<enter description here>", "New work")
	c := newTestClient(f, WithConfirmer(&fakeConfirmer{answer: false}))

	_, err := c.NewChange(context.Background())
	if !errors.Is(err, ErrFormNotFixed) {
		t.Fatalf("expected ErrFormNotFixed, got %v", err)
	}
}

func TestParseChangeCreated(t *testing.T) {
	n, err := ParseChangeCreated("Change 1234 created with 2 open file(s).\n")
	if err != nil || n != "1234" {
		t.Errorf("got %q, %v", n, err)
	}
	_, err = ParseChangeCreated("something else\n")
	var outErr *domain.UnrecognizedOutputError
	if !errors.As(err, &outErr) {
		t.Errorf("expected UnrecognizedOutputError, got %v", err)
	}
}

func TestEditChange_Attached(t *testing.T) {
	f := runner.NewFake()
	c := newTestClient(f)

	if err := c.EditChange(context.Background(), "830"); err != nil {
		t.Fatal(err)
	}
	if keys := f.Keys(); len(keys) != 1 || keys[0] != key("change 830") {
		t.Errorf("unexpected calls %q", keys)
	}
}
