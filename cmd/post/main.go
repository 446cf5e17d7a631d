// Package main provides the post command, which creates, updates and submits
// Review Board review requests for Perforce change lists.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "2.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		code, report := exitCodeFor(err)
		if report {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return code.Int()
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "post [OPTIONS] create|edit|submit|diff [changenum]",
		Short: "Create, update and submit review requests",
		Long: `Create, update and submit review requests.

post wraps the rbt commands that come with RBTools. It only works with
Perforce and adds Perforce specific steps: shelving, jobs, ownership checks
and closing the review when the change is submitted. The work flow is
create/edit/submit. The diff action prints a Review Board compatible diff of
a change list without creating or modifying a review.

Options not listed below are passed to rbt post unchanged. Such an option
takes the following word as its value unless that word is an action or a
change reference; write --flag=value when the value is a number or depot path.

Exit codes:
  0 - Success
  1 - p4 or rbt not found
  2 - rbt too old
  3 - Unsupported operating system
  5 - Configuration error
  7 - Perforce error
  8 - Review Board or rbt error
  9 - Invalid arguments
  130 - Interrupted`,
		Args:               cobra.ArbitraryArgs,
		RunE:               runPost,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	registerGrammarFlags(rootCmd)
	setGroupedUsage(rootCmd)
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}
