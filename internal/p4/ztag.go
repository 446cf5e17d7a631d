package p4

import (
	"errors"
	"strings"
)

var errNoServer = errors.New("could not talk to the perforce server")

// Record is one object from p4 -ztag output.
type Record map[string]string

// Get returns the value of key, or "".
func (r Record) Get(key string) string {
	return r[key]
}

// ParseZtag parses p4 -ztag output. Each "... key value" line sets a field;
// a blank line ends a record; any other line continues the previous value.
func ParseZtag(out string) []Record {
	var records []Record
	var cur Record
	var lastKey string

	flush := func() {
		if len(cur) > 0 {
			records = append(records, cur)
		}
		cur = nil
		lastKey = ""
	}

	for _, line := range strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "... "):
			if cur == nil {
				cur = Record{}
			}
			key, value, _ := strings.Cut(line[len("... "):], " ")
			// A repeated key within a record starts a new record.
			if _, dup := cur[key]; dup {
				flush()
				cur = Record{}
			}
			cur[key] = value
			lastKey = key
		case line == "":
			flush()
		case lastKey != "":
			cur[lastKey] += "\n" + line
		}
	}
	flush()
	return records
}
