// Package cli implements the cobra commands for the webharness binary.
// Each subcommand lives in its own file; this file defines the root
// command, global flags, and shared configuration loading.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"webharness/config"
	"webharness/internal/logging"
)

// Build-time version info, injected from main via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Global flags bound to the root command's persistent flag set.
var (
	flagEnvFile       string
	flagComposeFile   string
	flagProject       string
	flagSudo          bool
	flagUniqueProject bool
	flagTimeout       time.Duration
	flagInterval      time.Duration
	flagVerbose       bool
)

// NewRootCommand creates the root command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "webharness",
		Short: "End-to-end test orchestration for the application stack",
		Long: `webharness manages the docker compose lifecycle around end-to-end test
runs: it starts the stack, polls the page URL until the application answers
healthy, and tears the containers down afterwards on every exit path.`,

		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(flagVerbose)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagEnvFile, "env-file", "", "env file to load (default .env.test)")
	pf.StringVar(&flagComposeFile, "compose-file", "", "compose file (default docker-compose.yml)")
	pf.StringVar(&flagProject, "project", "", "compose project name (default template-test)")
	pf.BoolVar(&flagSudo, "sudo", false, "prefix docker invocations with sudo")
	pf.BoolVar(&flagUniqueProject, "unique-project", false, "append a random suffix to the project name for parallel runs")
	pf.DurationVar(&flagTimeout, "timeout", 0, "health check timeout (default 120s)")
	pf.DurationVar(&flagInterval, "interval", 0, "health check poll interval (default 5s)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		NewUpCommand(),
		NewDownCommand(),
		NewLogsCommand(),
		NewStatusCommand(),
		NewWaitCommand(),
		NewRunCommand(),
		NewStubCommand(),
	)

	return rootCmd
}

// loadConfig loads configuration and applies any flag overrides the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("compose-file") {
		cfg.Compose.File = flagComposeFile
	}
	if flags.Changed("project") {
		cfg.Compose.ProjectName = flagProject
	}
	if flags.Changed("sudo") {
		cfg.Compose.Sudo = flagSudo
	}
	if flags.Changed("unique-project") {
		cfg.Compose.UniqueName = flagUniqueProject
	}
	if flags.Changed("timeout") {
		cfg.Health.Timeout = flagTimeout
	}
	if flags.Changed("interval") {
		cfg.Health.Interval = flagInterval
	}
	return cfg, nil
}

// Execute runs the root command with signal-aware cancellation and exits
// the process with a non-zero code on failure.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
