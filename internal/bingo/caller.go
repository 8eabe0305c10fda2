package bingo

import (
	"errors"
	"sync"
	"time"
)

// State of an AutoCaller.
type State string

const (
	StateIdle      State = "idle"
	StateCountdown State = "countdown"
	StateCalling   State = "calling"
	StateFinished  State = "finished"
)

// ErrStarted is returned when Start is invoked more than once. One caller
// per room is enforced by the game lifecycle around this type, a second
// Start is a caller bug.
var ErrStarted = errors.New("autocaller already started")

// AutoCaller drives a DrawPool on a fixed interval after an initial
// countdown. Draws stop on exhaustion, on a callback error, or when Stop
// is invoked; finished is terminal.
type AutoCaller struct {
	pool      *DrawPool
	countdown time.Duration
	interval  time.Duration

	// onCall receives every drawn number together with a copy of the full
	// history. Returning an error stops the caller.
	onCall func(number int, history []int) error

	mu      sync.Mutex
	state   State
	err     error
	started bool

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewAutoCaller(pool *DrawPool, countdown, interval time.Duration, onCall func(int, []int) error) *AutoCaller {
	return &AutoCaller{
		pool:      pool,
		countdown: countdown,
		interval:  interval,
		onCall:    onCall,
		state:     StateIdle,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start moves the caller from idle to countdown and begins calling in the
// background once the countdown elapses.
func (a *AutoCaller) Start() error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrStarted
	}
	a.started = true
	a.state = StateCountdown
	a.mu.Unlock()

	go a.run()
	return nil
}

func (a *AutoCaller) run() {
	defer close(a.done)

	timer := time.NewTimer(a.countdown)
	defer timer.Stop()

	select {
	case <-a.stopCh:
		a.setState(StateFinished)
		return
	case <-timer.C:
	}

	a.setState(StateCalling)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			a.setState(StateFinished)
			return
		case <-ticker.C:
			n, err := a.pool.DrawNext()
			if errors.Is(err, ErrExhausted) {
				a.setState(StateFinished)
				return
			}
			if err := a.onCall(n, a.pool.History()); err != nil {
				a.fail(err)
				return
			}
		}
	}
}

// Stop halts the caller and waits for the calling goroutine to exit, so no
// draw happens after Stop returns. Safe to invoke at any time and more
// than once.
func (a *AutoCaller) Stop() {
	a.mu.Lock()
	if !a.started {
		a.state = StateFinished
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.stopOnce.Do(func() { close(a.stopCh) })
	<-a.done
}

// State reports the current lifecycle state.
func (a *AutoCaller) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Err returns the callback error that stopped the caller, if any.
func (a *AutoCaller) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Done is closed when the caller has finished for any reason.
func (a *AutoCaller) Done() <-chan struct{} {
	return a.done
}

func (a *AutoCaller) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *AutoCaller) fail(err error) {
	a.mu.Lock()
	a.err = err
	a.state = StateFinished
	a.mu.Unlock()
}
