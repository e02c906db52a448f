package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is how often a running engine re-evaluates.
const TickInterval = time.Second

// Engine re-evaluates Compute once per tick for the current event date.
//
// The loop stops on its own once the event has expired or the timestamp is
// idle, and the last state is kept. SetEventDate cancels the running loop
// and arms a new one for the new timestamp, so a stale loop can never
// publish a state for an old timestamp.
type Engine struct {
	clock clockwork.Clock
	loc   *time.Location

	mu        sync.Mutex
	iso       string
	state     State
	listeners map[int]func(State)
	nextID    int

	parent context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a stopped engine. A nil clock uses the real clock.
func NewEngine(clock clockwork.Clock, loc *time.Location, iso string) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	e := &Engine{
		clock:     clock,
		loc:       loc,
		iso:       iso,
		listeners: make(map[int]func(State)),
	}
	e.state = Compute(iso, clock.Now(), loc)
	return e
}

// Start evaluates immediately and begins ticking until ctx is done or Stop
// is called. Starting a running engine is a no-op; an engine whose context
// has ended can be started again.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.parent != nil && e.parent.Err() == nil {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.disarm()

	e.mu.Lock()
	e.parent = ctx
	e.mu.Unlock()

	e.arm()
}

// Stop cancels the loop and waits for it to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.parent = nil
	e.mu.Unlock()

	e.disarm()
}

// SetEventDate switches the engine to a new timestamp. The new state is
// computed right away; a running engine keeps running on the new value.
func (e *Engine) SetEventDate(iso string) {
	e.mu.Lock()
	if iso == e.iso {
		e.mu.Unlock()
		return
	}
	running := e.parent != nil
	e.mu.Unlock()

	e.disarm()

	e.mu.Lock()
	e.iso = iso
	e.mu.Unlock()

	if running {
		e.arm()
		return
	}
	e.publish(iso, Compute(iso, e.clock.Now(), e.loc))
}

// EventDate returns the timestamp currently tracked.
func (e *Engine) EventDate() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.iso
}

// State returns the latest evaluation.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsExpired reports whether the tracked event has passed.
func (e *Engine) IsExpired() bool {
	return e.State().Expired
}

// Subscribe registers fn for every published state. Listeners run on the
// engine goroutine and must not call Stop or SetEventDate synchronously.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *Engine) arm() {
	e.mu.Lock()
	parent, iso := e.parent, e.iso
	if parent == nil || e.cancel != nil {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	e.cancel, e.done = cancel, done
	e.mu.Unlock()

	st := Compute(iso, e.clock.Now(), e.loc)
	e.publish(iso, st)
	if st.Expired || st.Idle {
		cancel()
		close(done)
		return
	}

	go e.run(ctx, iso, done)
}

func (e *Engine) disarm() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (e *Engine) run(ctx context.Context, iso string, done chan struct{}) {
	defer close(done)

	ticker := e.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			st := Compute(iso, e.clock.Now(), e.loc)
			if !e.publish(iso, st) || st.Expired {
				return
			}
		}
	}
}

// publish stores st if iso is still current and notifies listeners.
func (e *Engine) publish(iso string, st State) bool {
	e.mu.Lock()
	if iso != e.iso {
		e.mu.Unlock()
		return false
	}
	e.state = st
	fns := make([]func(State), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
	return true
}
