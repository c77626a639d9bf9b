package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/slot-booker/internal/browser"
	"github.com/example/slot-booker/internal/config"
	"github.com/example/slot-booker/internal/db"
	"github.com/example/slot-booker/internal/events"
	"github.com/example/slot-booker/internal/journal"
	"github.com/example/slot-booker/internal/logging"
	"github.com/example/slot-booker/internal/migrate"
	"github.com/example/slot-booker/internal/reserve"
	"github.com/example/slot-booker/internal/surface"
)

const journalFinishTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Plan the next session, wait for booking to open and reserve it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			store := openJournal(ctx, cfg, log)
			if store != nil {
				defer store.Close()
			}
			return runOnce(ctx, cfg, log, store)
		},
	}
}

// openJournal connects and migrates the journal database when DATABASE_URL
// is set. Any failure disables the journal instead of failing the run.
func openJournal(ctx context.Context, cfg config.Config, log zerolog.Logger) *db.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("journal disabled")
		return nil
	}
	if err := d.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("journal disabled: db ping failed")
		d.Close()
		return nil
	}
	if err := migrate.Up(ctx, d); err != nil {
		log.Warn().Err(err).Msg("journal disabled: migrations failed")
		d.Close()
		return nil
	}
	return d
}

// runOnce performs one complete booking run with its own surface, clocks
// and journal entry.
func runOnce(ctx context.Context, cfg config.Config, log zerolog.Logger, store *db.DB) error {
	r := &reserve.Runner{
		Config:    cfg,
		Selectors: reserve.DefaultSelectors(),
		Open: func(ctx context.Context) (surface.Surface, error) {
			b, err := browser.Open(ctx, browser.Options{
				Headless: cfg.CI,
				SlowMo:   cfg.SlowMo,
				Log:      log,
			})
			if err != nil {
				return nil, err
			}
			return b, nil
		},
	}
	var ex journal.Execer
	if store != nil {
		ex = store
	}
	res, err := book(ctx, r, ex, log)
	return outcomeError(res, err, log)
}

// book plans the session window once, journals it when ex is set and
// hands the same window to the runner.
func book(ctx context.Context, r *reserve.Runner, ex journal.Execer, log zerolog.Logger) (reserve.Result, error) {
	w := r.Plan()
	r.Window = &w
	observers := []events.Observer{events.NewLogObserver(log)}

	var (
		repo  *journal.Repo
		runID uuid.UUID
	)
	if ex != nil {
		repo, runID = journal.NewRepo(ex), uuid.New()
		err := repo.Start(ctx, journal.Run{
			ID:            runID,
			TargetWeekday: r.Config.Rule.TargetWeekday,
			ClassDate:     w.ClassDate,
			OpenAt:        w.OpenAt,
			Criteria:      r.Config.MustInclude,
		})
		if err != nil {
			log.Warn().Err(err).Msg("journal start failed")
			repo = nil
		} else {
			log = log.With().Str("run_id", runID.String()).Logger()
			observers = []events.Observer{events.NewLogObserver(log), journal.NewObserver(repo, runID, log)}
		}
	}
	r.Observer = events.Fanout(observers...)

	res, err := r.Run(ctx)

	if repo != nil {
		fctx, cancel := context.WithTimeout(context.Background(), journalFinishTimeout)
		if ferr := repo.Finish(fctx, runID, res.Outcome, err); ferr != nil {
			log.Warn().Err(ferr).Msg("journal finish failed")
		}
		cancel()
	}
	return res, err
}

// outcomeError maps a run result to the process result: reserved and
// waitlisted both succeed.
func outcomeError(res reserve.Result, err error, log zerolog.Logger) error {
	if err != nil {
		return err
	}
	if !res.Outcome.Success() {
		return fmt.Errorf("run ended with outcome %s", res.Outcome)
	}
	log.Info().
		Str("outcome", res.Outcome.String()).
		Str("class_date", res.Window.ClassDate.Format("2006-01-02")).
		Str("session", res.CardText).
		Msg("run complete")
	return nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	return logging.New(cfg.LogLevel, cfg.CI)
}
