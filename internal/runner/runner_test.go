package runner

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/sallan/RBScript/internal/terminal"
)

func TestCommand_String(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Command{Name: "p4", Args: []string{"submit", "-c", "830"}}, "p4 submit -c 830"},
		{Command{Name: "rbt", Args: []string{"post", "--summary", "Fix the bug"}}, "rbt post --summary 'Fix the bug'"},
		{Command{Name: "p4"}, "p4"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommand_Key(t *testing.T) {
	c := Command{Name: "rbt", Args: []string{"post", "--summary", "Fix the bug"}}
	if got := c.Key(); got != "rbt post --summary Fix the bug" {
		t.Errorf("Key() = %q", got)
	}
}

func TestFake_RepliesInOrder(t *testing.T) {
	f := NewFake().
		On("p4 -ztag info", Reply{Stdout: "first"}).
		On("p4 -ztag info", Reply{Stdout: "second"})
	ctx := context.Background()
	cmd := Command{Name: "p4", Args: []string{"-ztag", "info"}}

	for _, want := range []string{"first", "second", "second"} {
		res, err := f.Output(ctx, cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(res.Stdout) != want {
			t.Errorf("stdout = %q, want %q", res.Stdout, want)
		}
	}
	if len(f.Calls()) != 3 {
		t.Errorf("expected 3 recorded calls, got %d", len(f.Calls()))
	}
}

func TestFake_UnknownCommand(t *testing.T) {
	_, err := NewFake().Output(context.Background(), Command{Name: "p4", Args: []string{"opened"}})
	if err == nil {
		t.Fatal("expected error for unexpected command")
	}
}

func TestFake_ErrorReply(t *testing.T) {
	boom := errors.New("exit status 1")
	f := NewFake().On("p4 submit -c 1", Reply{Stderr: "locked", Err: boom})
	res, err := f.Output(context.Background(), Command{Name: "p4", Args: []string{"submit", "-c", "1"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected canned error, got %v", err)
	}
	if string(res.Stderr) != "locked" || res.ExitCode != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestFake_Attached(t *testing.T) {
	f := NewFake()
	var seen []string
	f.OnAttached = func(cmd Command) error {
		seen = cmd.Args
		return nil
	}
	if err := f.Attached(context.Background(), Command{Name: "vi", Args: []string{"/tmp/form"}}); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(seen, []string{"/tmp/form"}) {
		t.Errorf("handler saw %q", seen)
	}
	if !slices.Equal(f.Keys(), []string{"vi /tmp/form"}) {
		t.Errorf("Keys() = %q", f.Keys())
	}
}

func TestExec_Output(t *testing.T) {
	if _, err := LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	e := NewExec(terminal.NewLoggerTo(io.Discard))

	res, err := e.Output(context.Background(), Command{Name: "sh", Args: []string{"-c", "cat; echo oops >&2"}, Stdin: []byte("hello")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Stdout) != "hello" || string(res.Stderr) != "oops\n" {
		t.Errorf("unexpected output %+v", res)
	}

	res, err = e.Output(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}
