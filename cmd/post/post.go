package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sallan/RBScript/internal/config"
	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/options"
	"github.com/sallan/RBScript/internal/p4"
	"github.com/sallan/RBScript/internal/rbt"
	"github.com/sallan/RBScript/internal/reviewboard"
	"github.com/sallan/RBScript/internal/runner"
	"github.com/sallan/RBScript/internal/terminal"
	"github.com/sallan/RBScript/internal/workflow"
)

// supportedOS lists the platforms a p4 command line client exists for.
var supportedOS = []string{"linux", "darwin", "windows", "freebsd"}

func versionString() string {
	return fmt.Sprintf("post version %s (rbt >= %s)", version, rbt.MinVersion)
}

func runPost(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	inv, err := options.NewReconciler(options.DefaultGrammar()).Reconcile(args)
	if err != nil {
		return err
	}
	switch {
	case inv.Options.Help:
		return cmd.Help()
	case inv.Options.Version:
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
		return nil
	}

	if !terminal.IsStderrTTY() {
		terminal.SetColorsEnabled(false)
	}
	logger := terminal.NewLogger()
	logger.SetDebug(inv.Options.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr)
			logger.Log("Interrupted, shutting down...", terminal.StyleWarning)
			cancel()
		case <-ctx.Done():
		}
	}()

	home, err := os.UserHomeDir()
	if err != nil {
		return &domain.ConfigError{Err: fmt.Errorf("can't find home directory: %w", err)}
	}
	cfg, notices, err := config.Load(home, flagState(inv), flagValues(inv))
	for _, notice := range notices {
		logger.Log(notice, terminal.StyleWarning)
	}
	if err != nil {
		return err
	}
	logger.Debugf("server %s", cfg.Server)

	if err := checkEnvironment(runtime.GOOS, cfg, runner.LookPath); err != nil {
		return err
	}

	dispatcher, err := newDispatcher(ctx, cfg, logger, cmd)
	if err != nil {
		return err
	}

	err = dispatcher.Dispatch(ctx, inv)
	if ctx.Err() != nil {
		return exitCode(domain.ExitInterrupted)
	}
	return err
}

// flagState reports which configuration keys the command line set.
func flagState(inv domain.Invocation) config.FlagState {
	return config.FlagState{
		ServerSet:   inv.Options.Server != "",
		UsernameSet: inv.Options.Username != "",
	}
}

func flagValues(inv domain.Invocation) config.Resolved {
	return config.Resolved{
		Server:   inv.Options.Server,
		Username: inv.Options.Username,
	}
}

// checkEnvironment fails unless post runs on a supported platform with both
// p4 and rbt available.
func checkEnvironment(goos string, cfg config.Resolved, lookPath func(string) (string, error)) error {
	if !slices.Contains(supportedOS, goos) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedOS, goos)
	}
	for _, dep := range []struct{ tool, binary string }{
		{"p4", cfg.P4Binary},
		{"rbt", cfg.RBTBinary},
	} {
		if _, err := lookPath(dep.binary); err != nil {
			return &domain.DependencyError{Tool: dep.tool, Err: err}
		}
	}
	return nil
}

// newDispatcher wires the Perforce, rbt and Review Board collaborators.
func newDispatcher(ctx context.Context, cfg config.Resolved, logger *terminal.Logger, cmd *cobra.Command) (*workflow.Dispatcher, error) {
	exec := runner.NewExec(logger)

	tool := rbt.New(cfg.RBTBinary, exec, logger)
	if err := tool.CheckVersion(ctx); err != nil {
		return nil, err
	}

	prompter := terminal.NewPrompter()
	vcs := p4.New(cfg.P4Binary, exec, logger, p4.WithConfirmer(prompter))

	cookies, err := reviewboard.LoadCookieFile(cfg.CookieFile)
	if err != nil {
		return nil, &domain.ConfigError{Err: err}
	}
	rbOpts := []reviewboard.Option{
		reviewboard.WithCookies(cookies),
		reviewboard.WithCredentials(prompter),
	}
	if cfg.Username != "" {
		rbOpts = append(rbOpts, reviewboard.WithUsername(cfg.Username))
	}
	client := reviewboard.New(cfg.Server, logger, rbOpts...)

	return workflow.New(vcs, reviewboard.NewCorrelator(client, cfg.ReviewBot), tool, logger, cmd.OutOrStdout(),
		workflow.WithColorDiff(terminal.IsStdoutTTY()),
		workflow.WithReviewServer(cfg.Server, cfg.Username)), nil
}
