// Package config provides configuration file support for post.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/suggest"
)

// ConfigFileName is the name of the per-user config file.
const ConfigFileName = ".p4rb.yaml"

// CookieFileName is the default name of the Review Board session cookie file.
const CookieFileName = ".post-review-cookies.txt"

// Config represents the ~/.p4rb.yaml configuration file.
type Config struct {
	Server     *string `yaml:"server"`
	Username   *string `yaml:"username"`
	ReviewBot  *string `yaml:"review_bot"`
	P4Binary   *string `yaml:"p4_binary"`
	RBTBinary  *string `yaml:"rbt_binary"`
	CookieFile *string `yaml:"cookie_file"`
}

// LoadResult contains the loaded config and any warnings encountered.
type LoadResult struct {
	Config   *Config
	Warnings []string
}

// LoadFromDirWithWarnings reads .p4rb.yaml from the specified directory and returns warnings.
// Returns an empty config (not error) if the file doesn't exist.
func LoadFromDirWithWarnings(dir string) (*LoadResult, error) {
	return LoadFromPathWithWarnings(filepath.Join(dir, ConfigFileName))
}

// LoadFromPathWithWarnings reads a config file and returns warnings for unknown keys.
// Returns an empty config (not error) if the file doesn't exist.
// Returns an error if the file exists but is invalid YAML or has invalid values.
func LoadFromPathWithWarnings(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LoadResult{Config: &Config{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	warnings := checkUnknownKeys(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFileName, err)
	}

	return &LoadResult{Config: &cfg, Warnings: warnings}, nil
}

// knownTopLevelKeys are the valid top-level keys in the config file.
var knownTopLevelKeys = []string{"server", "username", "review_bot", "p4_binary", "rbt_binary", "cookie_file"}

// checkUnknownKeys checks for unknown keys in the YAML data and returns warnings.
func checkUnknownKeys(data []byte) []string {
	var warnings []string

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// If we can't parse, let the main parser handle the error
		return nil
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if !slices.Contains(knownTopLevelKeys, key) {
			warning := fmt.Sprintf("unknown key %q in %s", key, ConfigFileName)
			if suggestion := suggest.Closest(key, knownTopLevelKeys); suggestion != "" {
				warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
			}
			warnings = append(warnings, warning)
		}
	}

	return warnings
}

// Validate checks that all config values are usable.
func (c *Config) Validate() error {
	for _, f := range []struct {
		key string
		val *string
	}{
		{"review_bot", c.ReviewBot},
		{"p4_binary", c.P4Binary},
		{"rbt_binary", c.RBTBinary},
		{"cookie_file", c.CookieFile},
	} {
		if f.val != nil && strings.TrimSpace(*f.val) == "" {
			return fmt.Errorf("%s must not be empty", f.key)
		}
	}
	return nil
}

// Resolved holds the final configuration values. It is built once at startup.
type Resolved struct {
	Server     string
	Username   string
	ReviewBot  string
	P4Binary   string
	RBTBinary  string
	CookieFile string
}

// Defaults returns the built-in defaults for a user whose home directory is home.
func Defaults(home string) Resolved {
	return Resolved{
		ReviewBot:  "Review Bot",
		P4Binary:   "p4",
		RBTBinary:  "rbt",
		CookieFile: filepath.Join(home, CookieFileName),
	}
}

// FlagState tracks whether a flag was explicitly set.
type FlagState struct {
	ServerSet   bool
	UsernameSet bool
}

// EnvState captures env var values and whether they were set.
type EnvState struct {
	Server        string
	ServerSet     bool
	Username      string
	UsernameSet   bool
	ReviewBot     string
	ReviewBotSet  bool
	P4Binary      string
	P4BinarySet   bool
	RBTBinary     string
	RBTBinarySet  bool
	CookieFile    string
	CookieFileSet bool
}

// LoadEnvState reads environment variables and returns their state.
func LoadEnvState() EnvState {
	var state EnvState

	if v := os.Getenv("P4RB_SERVER"); v != "" {
		state.Server = v
		state.ServerSet = true
	}
	if v := os.Getenv("P4RB_USERNAME"); v != "" {
		state.Username = v
		state.UsernameSet = true
	}
	if v := os.Getenv("P4RB_REVIEW_BOT"); v != "" {
		state.ReviewBot = v
		state.ReviewBotSet = true
	}
	if v := os.Getenv("P4RB_P4"); v != "" {
		state.P4Binary = v
		state.P4BinarySet = true
	}
	if v := os.Getenv("P4RB_RBT"); v != "" {
		state.RBTBinary = v
		state.RBTBinarySet = true
	}
	if v := os.Getenv("P4RB_COOKIE_FILE"); v != "" {
		state.CookieFile = v
		state.CookieFileSet = true
	}

	return state
}

// Resolve merges the .reviewboardrc settings, config file values, env vars and flags.
// Precedence: flags > env vars > config file > .reviewboardrc > defaults
func Resolve(defaults Resolved, rc RCFile, cfg *Config, envState EnvState, flagState FlagState, flagValues Resolved) Resolved {
	result := defaults

	if v, ok := rc[RCServerKey]; ok {
		result.Server = v
	}
	if v, ok := rc[RCUsernameKey]; ok {
		result.Username = v
	}

	if cfg != nil {
		if cfg.Server != nil {
			result.Server = *cfg.Server
		}
		if cfg.Username != nil {
			result.Username = *cfg.Username
		}
		if cfg.ReviewBot != nil {
			result.ReviewBot = *cfg.ReviewBot
		}
		if cfg.P4Binary != nil {
			result.P4Binary = *cfg.P4Binary
		}
		if cfg.RBTBinary != nil {
			result.RBTBinary = *cfg.RBTBinary
		}
		if cfg.CookieFile != nil {
			result.CookieFile = *cfg.CookieFile
		}
	}

	if envState.ServerSet {
		result.Server = envState.Server
	}
	if envState.UsernameSet {
		result.Username = envState.Username
	}
	if envState.ReviewBotSet {
		result.ReviewBot = envState.ReviewBot
	}
	if envState.P4BinarySet {
		result.P4Binary = envState.P4Binary
	}
	if envState.RBTBinarySet {
		result.RBTBinary = envState.RBTBinary
	}
	if envState.CookieFileSet {
		result.CookieFile = envState.CookieFile
	}

	if flagState.ServerSet {
		result.Server = flagValues.Server
	}
	if flagState.UsernameSet {
		result.Username = flagValues.Username
	}

	return result
}

// ErrNoServer is returned when no Review Board URL is configured anywhere.
var ErrNoServer = errors.New("no server url found: set REVIEWBOARD_URL in your .reviewboardrc file or pass it with --server")

// NormalizeServerURL trims the URL and adds https:// when no scheme is given.
func NormalizeServerURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", ErrNoServer
	}
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	return strings.TrimRight(u, "/"), nil
}

// Load builds the resolved configuration for a user whose home directory is
// home. It migrates a legacy .rbrc first, then applies .reviewboardrc, the
// config file, env vars and the given flags. Notices for the user are
// returned alongside; every failure is a *domain.ConfigError.
func Load(home string, flagState FlagState, flagValues Resolved) (Resolved, []string, error) {
	notices, err := MigrateLegacyRC(home)
	if err != nil {
		return Resolved{}, notices, &domain.ConfigError{Err: err}
	}

	rc, err := LoadRCFile(filepath.Join(home, RCFileName))
	if err != nil {
		return Resolved{}, notices, &domain.ConfigError{Err: err}
	}

	loaded, err := LoadFromDirWithWarnings(home)
	if err != nil {
		return Resolved{}, notices, &domain.ConfigError{Err: err}
	}
	notices = append(notices, loaded.Warnings...)

	resolved := Resolve(Defaults(home), rc, loaded.Config, LoadEnvState(), flagState, flagValues)
	resolved.Server, err = NormalizeServerURL(resolved.Server)
	if err != nil {
		return Resolved{}, notices, &domain.ConfigError{Err: err}
	}
	return resolved, notices, nil
}
