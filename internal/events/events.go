// Package events carries state transitions out of the booking core.
// The core only emits; observers decide how (or whether) to render them.
package events

import (
	"sync"
	"time"
)

type Kind string

const (
	KindPlanned      Kind = "planned"
	KindWaiting      Kind = "waiting"
	KindReady        Kind = "ready"
	KindOpen         Kind = "open"
	KindLoggedIn     Kind = "logged_in"
	KindSessionFound Kind = "session_found"
	KindBannerClosed Kind = "banner_dismissed"
	KindPoll         Kind = "poll"
	KindReload       Kind = "reload"
	KindReserving    Kind = "reserving"
	KindFinishing    Kind = "finishing"
	KindReserved     Kind = "reserved"
	KindWaitlisted   Kind = "waitlisted"
	KindTimedOut     Kind = "timed_out"
	KindFailed       Kind = "failed"
)

type Event struct {
	Kind    Kind
	At      time.Time
	Attempt int
	Detail  string
	Err     error
	Fields  map[string]any
}

// Observer receives events. Emit must not block the caller for long.
type Observer interface {
	Emit(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) Emit(e Event) { f(e) }

// Nop discards everything.
var Nop Observer = ObserverFunc(func(Event) {})

// Fanout delivers each event to every observer in order.
func Fanout(obs ...Observer) Observer {
	list := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return ObserverFunc(func(e Event) {
		if e.At.IsZero() {
			e.At = time.Now()
		}
		for _, o := range list {
			o.Emit(e)
		}
	})
}

// Recorder keeps events in memory; handy in tests and for run summaries.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the recorded kinds in emission order.
func (r *Recorder) Kinds() []Kind {
	evs := r.Events()
	out := make([]Kind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}

func (r *Recorder) Count(k Kind) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == k {
			n++
		}
	}
	return n
}
