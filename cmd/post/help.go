package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sallan/RBScript/internal/options"
)

// metavar is a pflag.Value that never holds a value. Its Type is shown as the
// option's argument name in help output.
type metavar string

func (m metavar) String() string   { return "" }
func (m metavar) Set(string) error { return nil }
func (m metavar) Type() string     { return string(m) }

// registerGrammarFlags adds every option of the post grammar to cmd's flag
// set. Parsing is done by the options package; the flags only drive help.
func registerGrammarFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	for _, spec := range options.DefaultGrammar().Specs() {
		short := ""
		if spec.Short != 0 {
			short = string(spec.Short)
		}
		if !spec.TakesValue {
			fs.BoolP(spec.Long, short, false, spec.Usage)
			continue
		}
		name := spec.Metavar
		if name == "" {
			name = "value"
		}
		fs.VarP(metavar(name), spec.Long, short, spec.Usage)
	}
}

// setGroupedUsage configures the command to display flags in the option groups
// of the post grammar.
func setGroupedUsage(cmd *cobra.Command) {
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		fmt.Fprintf(c.OutOrStderr(), "Usage:\n  %s\n", c.UseLine())

		grouped := make(map[string]bool)
		for _, group := range options.Groups {
			fs := pflag.NewFlagSet(group.Title(), pflag.ContinueOnError)
			for _, spec := range options.DefaultGrammar().Specs() {
				if spec.Group != group {
					continue
				}
				if f := c.Flags().Lookup(spec.Long); f != nil {
					fs.AddFlag(f)
					grouped[spec.Long] = true
				}
			}
			if usages := fs.FlagUsages(); strings.TrimSpace(usages) != "" {
				fmt.Fprintf(c.OutOrStderr(), "\n%s:\n%s", group.Title(), usages)
			}
		}

		other := pflag.NewFlagSet("other", pflag.ContinueOnError)
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if !grouped[f.Name] {
				other.AddFlag(f)
			}
		})
		if usages := other.FlagUsages(); strings.TrimSpace(usages) != "" {
			fmt.Fprintf(c.OutOrStderr(), "\nOther Flags:\n%s", usages)
		}

		if c.HasAvailableSubCommands() {
			fmt.Fprintf(c.OutOrStderr(), "\nCommands:\n")
			for _, sub := range c.Commands() {
				if sub.IsAvailableCommand() {
					fmt.Fprintf(c.OutOrStderr(), "  %-10s %s\n", sub.Name(), sub.Short)
				}
			}
		}
		return nil
	})
}
