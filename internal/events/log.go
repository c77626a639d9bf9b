package events

import (
	"github.com/rs/zerolog"
)

// LogObserver renders events as structured zerolog lines.
type LogObserver struct {
	Log zerolog.Logger
}

func NewLogObserver(l zerolog.Logger) *LogObserver {
	return &LogObserver{Log: l}
}

func (o *LogObserver) Emit(e Event) {
	ev := o.Log.WithLevel(levelFor(e))
	if !e.At.IsZero() {
		ev = ev.Time("at", e.At)
	}
	if e.Attempt > 0 {
		ev = ev.Int("attempt", e.Attempt)
	}
	if e.Err != nil {
		ev = ev.Err(e.Err)
	}
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	ev.Str("event", string(e.Kind)).Msg(msg)
}

func levelFor(e Event) zerolog.Level {
	switch e.Kind {
	case KindFailed, KindTimedOut:
		return zerolog.ErrorLevel
	case KindWaitlisted:
		return zerolog.WarnLevel
	case KindPoll, KindReload:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
