package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sallan/RBScript/internal/config"
	"github.com/sallan/RBScript/internal/terminal"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage post configuration",
		Long:  "View, initialize, and validate the post configuration file and environment variables.",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

// loadLayers reads the .reviewboardrc and config file layers from home.
func loadLayers(home string) (config.RCFile, *config.LoadResult, error) {
	rc, err := config.LoadRCFile(filepath.Join(home, config.RCFileName))
	if err != nil {
		return nil, nil, err
	}
	result, err := config.LoadFromDirWithWarnings(home)
	if err != nil {
		return rc, nil, err
	}
	return rc, result, nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display resolved configuration",
		Long:  "Show the fully resolved configuration from defaults, .reviewboardrc, the config file, and environment variables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("can't find home directory: %w", err)
			}
			rc, result, err := loadLayers(home)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			resolved := config.Resolve(config.Defaults(home), rc, result.Config, config.LoadEnvState(), config.FlagState{}, config.Resolved{})

			server := resolved.Server
			if server == "" {
				server = "(not set)"
			}
			username := resolved.Username
			if username == "" {
				username = "(prompted on login)"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Resolved configuration:")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %-14s %s\n", "server:", server)
			fmt.Fprintf(out, "  %-14s %s\n", "username:", username)
			fmt.Fprintf(out, "  %-14s %s\n", "review_bot:", resolved.ReviewBot)
			fmt.Fprintf(out, "  %-14s %s\n", "p4_binary:", resolved.P4Binary)
			fmt.Fprintf(out, "  %-14s %s\n", "rbt_binary:", resolved.RBTBinary)
			fmt.Fprintf(out, "  %-14s %s\n", "cookie_file:", resolved.CookieFile)

			return nil
		},
	}
}

const starterConfig = `# post configuration file

# Review Board URL (default: REVIEWBOARD_URL from ~/.reviewboardrc)
# server: https://reviewboard.example.com

# Review Board username (default: prompted on first login)
# username: ""

# Reviewer whose Ship It alone does not allow a submit
# review_bot: Review Bot

# Perforce and RBTools executables
# p4_binary: p4
# rbt_binary: rbt

# Where the Review Board session cookie is kept
# cookie_file: ~/.post-review-cookies.txt
`

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a starter " + config.ConfigFileName + " file",
		Long:  "Create a commented " + config.ConfigFileName + " configuration file in your home directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("can't find home directory: %w", err)
			}
			configPath := filepath.Join(home, config.ConfigFileName)

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists; remove it first or edit it directly", configPath)
			}

			if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", configPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with default settings (commented out).\n", configPath)
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and environment variables",
		Long:  "Load and validate .reviewboardrc, the config file and environment variables, reporting any warnings or errors.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !terminal.IsStderrTTY() {
				terminal.SetColorsEnabled(false)
			}
			logger := terminal.NewLoggerTo(cmd.ErrOrStderr())

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("can't find home directory: %w", err)
			}

			var errs []string
			var warnings []string

			rc, result, err := loadLayers(home)
			cfg := &config.Config{}
			if err != nil {
				errs = append(errs, err.Error())
			}
			if result != nil {
				cfg = result.Config
				warnings = append(warnings, result.Warnings...)
			}

			resolved := config.Resolve(config.Defaults(home), rc, cfg, config.LoadEnvState(), config.FlagState{}, config.Resolved{})
			if _, err := config.NormalizeServerURL(resolved.Server); err != nil {
				errs = append(errs, err.Error())
			}

			for _, w := range warnings {
				logger.Logf(terminal.StyleWarning, "Config: %s", w)
			}
			for _, e := range errs {
				logger.Logf(terminal.StyleError, "%s", e)
			}

			if len(errs) > 0 {
				return fmt.Errorf("configuration has %d error(s)", len(errs))
			}

			if len(warnings) > 0 {
				logger.Log("Configuration is valid (with warnings).", terminal.StyleSuccess)
			} else {
				logger.Log("Configuration is valid.", terminal.StyleSuccess)
			}
			return nil
		},
	}
}
