package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"webharness/internal/stubapp"
)

// NewStubCommand creates the "stub" command: serve a minimal stand-in for
// the web application, useful when developing the harness itself without
// the full stack.
func NewStubCommand() *cobra.Command {
	var (
		addr  string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve a stub web app for harness development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := stubapp.New(delay)

			// Shut down cleanly on SIGINT/SIGTERM via the command context.
			go func() {
				<-cmd.Context().Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = app.Shutdown(shutdownCtx)
			}()

			slog.Info("serving stub app", "addr", addr, "ready_after", delay)
			return app.Start(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":50080", "listen address")
	cmd.Flags().DurationVar(&delay, "ready-after", 0, "delay before the app reports healthy")

	return cmd
}
