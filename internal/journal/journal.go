// Package journal records each run and its events in postgres. It is
// write-only: nothing in a run reads earlier rows back.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/slot-booker/internal/domain/booking"
	"github.com/example/slot-booker/internal/events"
)

const writeTimeout = 2 * time.Second

type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) error
}

type Run struct {
	ID            uuid.UUID
	TargetWeekday time.Weekday
	ClassDate     time.Time
	OpenAt        time.Time
	Criteria      booking.MatchCriteria
}

type Repo struct{ db Execer }

func NewRepo(d Execer) *Repo { return &Repo{db: d} }

func (r *Repo) Start(ctx context.Context, run Run) error {
	err := r.db.Exec(ctx, `
INSERT INTO runs(id,target_weekday,class_date,open_at,criteria,status)
VALUES ($1,$2,$3,$4,$5,'running')`,
		run.ID, int(run.TargetWeekday), run.ClassDate.Format("2006-01-02"), run.OpenAt, strings.Join(run.Criteria, ","),
	)
	if err != nil {
		return fmt.Errorf("journal: start run: %w", err)
	}
	return nil
}

func (r *Repo) Append(ctx context.Context, runID uuid.UUID, e events.Event) error {
	var errText *string
	if e.Err != nil {
		s := e.Err.Error()
		errText = &s
	}
	var fields []byte
	if len(e.Fields) > 0 {
		b, err := json.Marshal(e.Fields)
		if err != nil {
			return fmt.Errorf("journal: encode fields: %w", err)
		}
		fields = b
	}
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	return r.db.Exec(ctx, `INSERT INTO run_events(run_id,kind,attempt,detail,error,at,fields) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		runID, string(e.Kind), e.Attempt, e.Detail, errText, at, fields)
}

// Finish stores the terminal outcome. runErr may be nil.
func (r *Repo) Finish(ctx context.Context, runID uuid.UUID, outcome booking.Outcome, runErr error) error {
	status := "failed"
	if runErr == nil && outcome.Success() {
		status = "done"
	}
	var lastErr *string
	if runErr != nil {
		s := runErr.Error()
		lastErr = &s
	}
	return r.db.Exec(ctx, `UPDATE runs SET status=$2, outcome=$3, last_error=$4, finished_at=now() WHERE id=$1`,
		runID, status, outcome.String(), lastErr)
}

// Observer appends every event for one run. Write failures are logged and
// otherwise ignored so the journal can never fail a booking.
type Observer struct {
	repo  *Repo
	runID uuid.UUID
	log   zerolog.Logger
}

func NewObserver(repo *Repo, runID uuid.UUID, log zerolog.Logger) *Observer {
	return &Observer{repo: repo, runID: runID, log: log}
}

func (o *Observer) Emit(e events.Event) {
	// every poll is followed by a reload or terminal event with the same
	// attempt number
	if e.Kind == events.KindPoll {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := o.repo.Append(ctx, o.runID, e); err != nil {
		o.log.Warn().Err(err).Str("run_id", o.runID.String()).Msg("journal append failed")
	}
}
