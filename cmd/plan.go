package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/slot-booker/internal/config"
	"github.com/example/slot-booker/internal/planner"
	"github.com/example/slot-booker/internal/scheduler"
)

func newPlanCmd() *cobra.Command {
	var now string

	c := &cobra.Command{
		Use:   "plan",
		Short: "Print the next session window for the configured rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			at := time.Now()
			if now != "" {
				at, err = time.Parse(time.RFC3339, now)
				if err != nil {
					return fmt.Errorf("invalid --now (want RFC3339): %w", err)
				}
			}
			at = at.In(cfg.Location)

			w := planner.Plan(cfg.Rule, at)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "now:        %s\n", at.Format(time.RFC3339))
			fmt.Fprintf(out, "class date: %s\n", w.ClassDate.Format("2006-01-02 Monday"))
			fmt.Fprintf(out, "opens at:   %s\n", w.OpenAt.Format(time.RFC3339))
			fmt.Fprintf(out, "ready at:   %s\n", w.ReadyAt(cfg.ReadyLead).Format(time.RFC3339))
			if !w.OpenAt.After(at) {
				fmt.Fprintln(out, "note:       booking is already open for this session")
			}
			if cfg.ScheduleCron != "" {
				next, err := scheduler.Next(cfg.ScheduleCron, cfg.Location, at)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "next cron:  %s\n", next.Format(time.RFC3339))
			}
			return nil
		},
	}

	c.Flags().StringVar(&now, "now", "", "evaluate the rule at this instant (RFC3339) instead of the current time")
	return c
}
