package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when a prompt reaches end of input without an answer.
var ErrNoInput = errors.New("no input")

// Prompter asks the user questions on the terminal.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	fd    int
	isTTY bool
}

// NewPrompter creates a prompter reading stdin and writing prompts to stderr.
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	return &Prompter{
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stderr,
		fd:    fd,
		isTTY: IsTTY(fd),
	}
}

// NewPrompterFrom creates a prompter over arbitrary streams. Passwords are
// read as plain lines.
func NewPrompterFrom(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(r), out: w, fd: -1}
}

// Interactive reports whether input comes from a terminal.
func (p *Prompter) Interactive() bool {
	return p.isTTY
}

// formatPrompt creates a colored prompt string for user input.
func formatPrompt(question, options string) string {
	if options == "" {
		return fmt.Sprintf("%s?%s %s ", Color(Cyan), Color(Reset), question)
	}
	return fmt.Sprintf("%s?%s %s %s%s%s ",
		Color(Cyan), Color(Reset),
		question,
		Color(Dim), options, Color(Reset))
}

// Line prints prompt and returns the trimmed line the user typed.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, formatPrompt(prompt, ""))
	return p.readLine()
}

// Confirm asks a yes/no question. An empty answer selects the default.
func (p *Prompter) Confirm(question string, defaultYes bool) (bool, error) {
	options := "[y]/n"
	if !defaultYes {
		options = "y/[n]"
	}
	fmt.Fprint(p.out, formatPrompt(question, options))

	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return defaultYes, nil
	}
}

// Password prints prompt and reads a line without echo when stdin is a terminal.
func (p *Prompter) Password(prompt string) (string, error) {
	fmt.Fprint(p.out, formatPrompt(prompt, ""))
	if !p.isTTY {
		return p.readLine()
	}
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
