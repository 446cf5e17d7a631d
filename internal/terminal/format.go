package terminal

import (
	"fmt"
	"strings"
	"time"
)

// MaxHelpWidth is the maximum width used when wrapping help text.
const MaxHelpWidth = 100

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	remainSecs := secs - float64(mins*60)
	return fmt.Sprintf("%dm %.1fs", mins, remainSecs)
}

// WrapText wraps text to width, prefixing every line with indent. Words longer
// than the width are kept whole.
func WrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if width <= len(indent) {
		return indent + strings.Join(words, " ")
	}

	var lines []string
	var line strings.Builder
	line.WriteString(indent + words[0])
	lineWidth := len(indent) + len(words[0])

	for _, word := range words[1:] {
		if lineWidth+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(indent + word)
			lineWidth = len(indent) + len(word)
			continue
		}
		line.WriteString(" " + word)
		lineWidth += 1 + len(word)
	}
	lines = append(lines, line.String())

	return strings.Join(lines, "\n")
}

// HelpWidth returns the help text width based on terminal width.
func HelpWidth() int {
	return min(Width(), MaxHelpWidth)
}
