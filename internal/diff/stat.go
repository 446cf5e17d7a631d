// Package diff renders the diff of a change list for the terminal.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileStat counts the changed lines of one file in a diff.
type FileStat struct {
	Name    string
	Added   int
	Deleted int
	Binary  bool
}

// Stat parses a unified diff and counts added and deleted lines per file.
func Stat(raw string) ([]FileStat, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	stats := make([]FileStat, 0, len(files))
	for _, f := range files {
		st := FileStat{Name: fileName(f), Binary: f.IsBinary}
		for _, frag := range f.TextFragments {
			st.Added += int(frag.LinesAdded)
			st.Deleted += int(frag.LinesDeleted)
		}
		stats = append(stats, st)
	}
	return stats, nil
}

func fileName(f *gitdiff.File) string {
	name := f.NewName
	if name == "" {
		name = f.OldName
	}
	// The parser collapses the leading "//" of a depot path.
	if strings.HasPrefix(name, "/") && !strings.HasPrefix(name, "//") {
		name = "/" + name
	}
	return name
}

// WriteStat prints one line per file followed by a summary, in the style
// of git diff --stat.
func WriteStat(w io.Writer, stats []FileStat) error {
	width := 0
	for _, st := range stats {
		width = max(width, len(st.Name))
	}

	var added, deleted int
	for _, st := range stats {
		added += st.Added
		deleted += st.Deleted
		if st.Binary {
			if _, err := fmt.Fprintf(w, " %-*s | Bin\n", width, st.Name); err != nil {
				return err
			}
			continue
		}
		bar := strings.Repeat("+", min(st.Added, 40)) + strings.Repeat("-", min(st.Deleted, 40))
		if _, err := fmt.Fprintf(w, " %-*s | %d %s\n", width, st.Name, st.Added+st.Deleted, bar); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, " %d %s changed, %d %s(+), %d %s(-)\n",
		len(stats), plural(len(stats), "file", "files"),
		added, plural(added, "insertion", "insertions"),
		deleted, plural(deleted, "deletion", "deletions"))
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
