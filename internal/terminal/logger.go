package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Style represents a log message style.
type Style string

const (
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleWarning Style = "warning"
	StyleError   Style = "error"
	StyleDim     Style = "dim"
	StylePhase   Style = "phase"
)

// Logger provides styled logging to stderr. Debug lines are only written
// after SetDebug(true).
type Logger struct {
	out   io.Writer
	isTTY bool
	debug bool
}

// NewLogger creates a logger writing to stderr.
func NewLogger() *Logger {
	return &Logger{
		out:   os.Stderr,
		isTTY: IsStderrTTY(),
	}
}

// NewLoggerTo creates a logger writing to w. Line clearing is disabled.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{out: w}
}

// SetDebug turns debug output on or off.
func (l *Logger) SetDebug(on bool) {
	l.debug = on
}

// DebugEnabled reports whether debug output is on.
func (l *Logger) DebugEnabled() bool {
	return l.debug
}

func styleColor(style Style) string {
	switch style {
	case StyleSuccess:
		return Green
	case StyleWarning:
		return Yellow
	case StyleError:
		return Red
	case StyleDim:
		return Dim
	case StylePhase:
		return Magenta + Bold
	default:
		return Cyan
	}
}

// Log prints a styled log message.
func (l *Logger) Log(msg string, style Style) {
	// Clear a spinner line if one is showing.
	if l.isTTY {
		fmt.Fprint(l.out, "\r"+strings.Repeat(" ", 100)+"\r")
	}

	fmt.Fprintf(l.out, "%s %s\n", tag(styleColor(style)), msg)
}

// Logf prints a formatted styled log message.
func (l *Logger) Logf(style Style, format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...), style)
}

// Debugf prints a dim diagnostic line when debug output is on.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	l.Log(Color(Dim)+"debug: "+fmt.Sprintf(format, args...)+Color(Reset), StyleDim)
}

// Command logs an external command line, quoted so it can be pasted into a shell.
func (l *Logger) Command(name string, args []string) {
	if !l.debug {
		return
	}
	l.Debugf("run: %s", shellquote.Join(append([]string{name}, args...)...))
}

func tag(c string) string {
	return fmt.Sprintf("%s[%s%spost%s%s]%s",
		Color(Dim), Color(Reset), Color(c), Color(Reset), Color(Dim), Color(Reset))
}
