package reviewboard

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SessionCookie is the cookie Review Board uses for the login session.
const SessionCookie = "rbsessionid"

// CookieFile is a persisted set of cookies stored as key=value lines.
// A CookieFile with an empty path lives only in memory.
type CookieFile struct {
	path   string
	values map[string]string
}

// LoadCookieFile reads path. A missing file yields an empty CookieFile.
func LoadCookieFile(path string) (*CookieFile, error) {
	cf := &CookieFile{path: path, values: map[string]string{}}
	if path == "" {
		return cf, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cf, nil
		}
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		cf.values[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	return cf, nil
}

// Path returns the file the cookies are saved to.
func (f *CookieFile) Path() string {
	return f.path
}

// Get returns the value of cookie name, or "".
func (f *CookieFile) Get(name string) string {
	return f.values[name]
}

// Set records a cookie value. Call Save to persist it.
func (f *CookieFile) Set(name, value string) {
	f.values[name] = value
}

// Save writes the cookies back to disk, readable only by the user.
func (f *CookieFile) Save() error {
	if f.path == "" {
		return nil
	}

	names := make([]string, 0, len(f.values))
	for name := range f.values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%s\n", name, f.values[name])
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	return nil
}
