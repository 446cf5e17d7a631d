package diff

import (
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// StyleName is the chroma style used for coloured diffs.
const StyleName = "dracula"

// Highlight writes raw to w with ANSI colours for a 256 colour terminal.
func Highlight(w io.Writer, raw string) error {
	lexer := lexers.Get("diff")
	if lexer == nil {
		_, err := io.WriteString(w, raw)
		return err
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, raw)
	if err != nil {
		_, err := io.WriteString(w, raw)
		return err
	}

	style := styles.Get(StyleName)
	if style == nil {
		style = styles.Fallback
	}
	return formatters.TTY256.Format(w, style, iterator)
}

// Options selects how Write renders a diff.
type Options struct {
	// Stat prints a per-file summary instead of the diff.
	Stat bool
	// Color highlights the diff.
	Color bool
}

// Write renders raw to w.
func Write(w io.Writer, raw string, opts Options) error {
	switch {
	case opts.Stat:
		stats, err := Stat(raw)
		if err != nil {
			return err
		}
		return WriteStat(w, stats)
	case opts.Color:
		return Highlight(w, raw)
	default:
		_, err := io.WriteString(w, raw)
		return err
	}
}
