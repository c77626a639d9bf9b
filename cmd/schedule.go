package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/slot-booker/internal/config"
	"github.com/example/slot-booker/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run as a daemon, starting one booking run per cron trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if spec == "" {
				spec = cfg.ScheduleCron
			}
			if spec == "" {
				return fmt.Errorf("a cron expression is required (--cron or SCHEDULE_CRON)")
			}
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			s := &scheduler.Scheduler{
				Spec:     spec,
				Location: cfg.Location,
				Log:      log.With().Str("component", "scheduler").Logger(),
				Job: func(ctx context.Context) error {
					// each firing reads a fresh config snapshot
					cfg, err := config.FromEnv()
					if err != nil {
						return err
					}
					store := openJournal(ctx, cfg, log)
					if store != nil {
						defer store.Close()
					}
					return runOnce(ctx, cfg, newLogger(cfg), store)
				},
			}
			return s.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "cron expression (overrides SCHEDULE_CRON)")
	return cmd
}
