// Command cliq runs the invite service and its maintenance tasks.
package main

//go:generate swag init -g internal/invites/http/router.go -d ../../ -o ../../api/invites --packageName invites

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/cliq/internal/invites/app"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cliq",
		Short:         "Cliq invite and parental approval service",
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSweepCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			application, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialise application: %w", err)
			}
			return application.Run(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			version, err := app.Migrate(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}

func newSweepCommand() *cobra.Command {
	var (
		every bool
		batch int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire parent approvals whose window has closed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if batch > 0 {
				cfg.SweepBatch = batch
			}

			interval := cfg.SweepInterval
			if !every {
				interval = 0
			}

			n, err := app.Sweep(cmd.Context(), cfg, interval)
			if err != nil {
				return err
			}
			if !every {
				fmt.Fprintf(cmd.OutOrStdout(), "expired %d approvals\n", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&every, "every", false, "Keep running, sweeping every SWEEP_INTERVAL")
	cmd.Flags().IntVar(&batch, "batch", 0, "Approvals expired per round (default SWEEP_BATCH)")
	return cmd
}
