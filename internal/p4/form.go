package p4

import (
	"strings"
)

// Field is one entry of a p4 spec form such as the output of p4 change -o.
type Field struct {
	Name string
	// Lines holds the value. Single-line fields have exactly one entry and
	// Multi is false.
	Lines []string
	Multi bool
}

// Form is a parsed p4 spec form. Field order is kept so the form can be
// written back unchanged apart from edited fields.
type Form struct {
	Fields []Field
}

// ParseForm parses spec form text. Comment lines are dropped.
func ParseForm(text string) *Form {
	f := &Form{}
	var cur *Field

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "\t"):
			if cur != nil && cur.Multi {
				cur.Lines = append(cur.Lines, line[1:])
			}
		case strings.TrimSpace(line) == "":
			cur = nil
		default:
			name, value, ok := strings.Cut(line, ":")
			if !ok {
				cur = nil
				continue
			}
			value = strings.TrimSpace(value)
			f.Fields = append(f.Fields, Field{Name: name})
			cur = &f.Fields[len(f.Fields)-1]
			if value == "" {
				cur.Multi = true
			} else {
				cur.Lines = []string{value}
			}
		}
	}
	return f
}

func (f *Form) field(name string) *Field {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i]
		}
	}
	return nil
}

// Value returns a single-line field, or "".
func (f *Form) Value(name string) string {
	if fd := f.field(name); fd != nil && len(fd.Lines) > 0 {
		return fd.Lines[0]
	}
	return ""
}

// Lines returns the lines of a field, or nil.
func (f *Form) Lines(name string) []string {
	if fd := f.field(name); fd != nil {
		return fd.Lines
	}
	return nil
}

// Text returns a multi-line field joined with newlines and a trailing newline.
func (f *Form) Text(name string) string {
	lines := f.Lines(name)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// SetText replaces a multi-line field, adding it if missing.
func (f *Form) SetText(name, text string) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if fd := f.field(name); fd != nil {
		fd.Lines = lines
		fd.Multi = true
		return
	}
	f.Fields = append(f.Fields, Field{Name: name, Lines: lines, Multi: true})
}

// String renders the form in the format p4 change -i reads.
func (f *Form) String() string {
	var b strings.Builder
	for _, fd := range f.Fields {
		if !fd.Multi {
			b.WriteString(fd.Name + ":\t" + strings.Join(fd.Lines, " ") + "\n\n")
			continue
		}
		b.WriteString(fd.Name + ":\n")
		for _, l := range fd.Lines {
			b.WriteString("\t" + l + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
