package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RCFileName is the rbt configuration file read for the server URL.
	RCFileName = ".reviewboardrc"
	// LegacyRCFileName is the configuration file of the older rb script.
	LegacyRCFileName = ".rbrc"

	RCServerKey   = "REVIEWBOARD_URL"
	RCUsernameKey = "USERNAME"
)

// RCFile holds the KEY = "value" settings of a .reviewboardrc file.
type RCFile map[string]string

// LoadRCFile reads a .reviewboardrc file. A missing file yields an empty RCFile.
func LoadRCFile(path string) (RCFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return RCFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", path, err)
	}
	return ParseRCFile(data)
}

// ParseRCFile parses KEY = value lines. Values may be single or double quoted;
// blank lines and # comments are ignored.
func ParseRCFile(data []byte) (RCFile, error) {
	rc := RCFile{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%s line %d: expected KEY = value", RCFileName, lineNo)
		}
		rc[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rc, nil
}

func unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// legacyKeys maps .rbrc settings onto their .reviewboardrc names.
var legacyKeys = map[string]string{
	"username": RCUsernameKey,
	"server":   RCServerKey,
}

// MigrateLegacyRC copies the known settings of ~/.rbrc into a new
// ~/.reviewboardrc. Nothing happens when there is no .rbrc or when a
// .reviewboardrc already exists. The returned notices describe what was done.
func MigrateLegacyRC(home string) ([]string, error) {
	legacyPath := filepath.Join(home, LegacyRCFileName)
	rcPath := filepath.Join(home, RCFileName)

	if !fileExists(legacyPath) {
		return nil, nil
	}
	if fileExists(rcPath) {
		return []string{"Found .reviewboardrc and legacy .rbrc file. Using .reviewboardrc"}, nil
	}

	data, err := os.ReadFile(legacyPath)
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", legacyPath, err)
	}

	settings := map[string]string{}
	var order []string
	for _, line := range strings.Split(string(data), "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if _, seen := settings[k]; !seen {
			order = append(order, k)
		}
		settings[k] = strings.TrimSpace(v)
	}

	var out strings.Builder
	for _, k := range order {
		newKey, known := legacyKeys[k]
		if !known {
			continue
		}
		v := settings[k]
		if newKey == RCServerKey && !strings.Contains(v, "://") {
			v = legacyScheme(settings["use_ssl"]) + "://" + v
		}
		fmt.Fprintf(&out, "%s = %q\n", newKey, v)
	}

	if err := os.WriteFile(rcPath, []byte(out.String()), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", rcPath, err)
	}

	return []string{
		fmt.Sprintf("Found legacy %s file.", legacyPath),
		fmt.Sprintf("Migrating to %s", rcPath),
		fmt.Sprintf("Wrote config file: %s", rcPath),
	}, nil
}

// legacyScheme returns https only when .rbrc set use_ssl=1.
func legacyScheme(useSSL string) string {
	if useSSL == "1" {
		return "https"
	}
	return "http"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
