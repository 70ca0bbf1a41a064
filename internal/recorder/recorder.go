// Package recorder turns a noisy stream of position fixes into a validated
// trajectory. A Recorder runs one goroutine that owns a Track and serialises
// the 1-second tick, position updates, snapshot reads and the stop request.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// TickInterval is the elapsed-time resolution
const TickInterval = time.Second

var (
	// ErrLocationUnavailable means no position source could be used or it failed.
	// Recovery is a new Recorder, not a resume.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrNotRunning is returned by Stop and Snapshot outside a running session
	ErrNotRunning = errors.New("recorder not running")
	// ErrAlreadyStarted is returned by a second Start
	ErrAlreadyStarted = errors.New("recorder already started")
)

// Option configures a Recorder
type Option func(*Recorder)

// WithTicks replaces the wall-clock ticker with ticks
func WithTicks(ticks <-chan time.Time) Option {
	return func(r *Recorder) {
		r.ticks = ticks
	}
}

// Recorder records one run
type Recorder struct {
	ticks <-chan time.Time

	snapshotReq chan chan Stats
	stopReq     chan chan Trajectory
	done        chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc

	// written by the loop before done is closed
	final Trajectory
	err   error
}

// New creates an idle recorder
func New(opts ...Option) *Recorder {
	r := &Recorder{
		snapshotReq: make(chan chan Stats),
		stopReq:     make(chan chan Trajectory),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start resets state, subscribes to src and begins ticking
func (r *Recorder) Start(ctx context.Context, src Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrAlreadyStarted
	}
	if src == nil {
		return ErrLocationUnavailable
	}

	watchCtx, cancel := context.WithCancel(ctx)
	updates, err := src.Watch(watchCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	ticks := r.ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(TickInterval)
		ticks = ticker.C
	}

	r.started = true
	r.cancel = cancel
	go r.loop(watchCtx, updates, ticks, ticker)
	return nil
}

func (r *Recorder) loop(ctx context.Context, updates <-chan Update, ticks <-chan time.Time, ticker *time.Ticker) {
	defer close(r.done)
	if ticker != nil {
		defer ticker.Stop()
	}

	track := &Track{}
	for {
		select {
		case <-ticks:
			track.Tick()

		case u, ok := <-updates:
			if !ok {
				log.Printf("[Recorder] position subscription closed")
				r.final = track.Trajectory()
				r.err = ErrLocationUnavailable
				return
			}
			if u.Err != nil {
				log.Printf("[Recorder] position subscription failed: %v", u.Err)
				r.final = track.Trajectory()
				r.err = fmt.Errorf("%w: %v", ErrLocationUnavailable, u.Err)
				return
			}
			track.Add(u.Position)

		case reply := <-r.snapshotReq:
			reply <- track.Stats()

		case reply := <-r.stopReq:
			reply <- track.Trajectory()
			return

		case <-ctx.Done():
			r.final = track.Trajectory()
			r.err = ctx.Err()
			return
		}
	}
}

// Snapshot returns the live stats of a running recorder
func (r *Recorder) Snapshot() (Stats, error) {
	if !r.running() {
		return Stats{}, ErrNotRunning
	}

	reply := make(chan Stats, 1)
	select {
	case r.snapshotReq <- reply:
		return <-reply, nil
	case <-r.done:
		return Stats{}, r.exitErr()
	}
}

// Stop cancels the ticker and the position subscription and returns the
// finished trajectory. Both are cancelled before Stop returns; any update
// arriving afterwards is discarded. A second Stop returns ErrNotRunning.
func (r *Recorder) Stop() (Trajectory, error) {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return Trajectory{}, ErrNotRunning
	}
	r.stopped = true
	r.mu.Unlock()

	reply := make(chan Trajectory, 1)
	select {
	case r.stopReq <- reply:
		traj := <-reply
		r.cancel()
		<-r.done
		return traj, nil
	case <-r.done:
		r.cancel()
		return r.final, r.exitErr()
	}
}

// Done is closed when the recording loop has exited
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

// Err reports why the loop exited on its own; nil while running or after a clean Stop
func (r *Recorder) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

func (r *Recorder) running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started && !r.stopped
}

func (r *Recorder) exitErr() error {
	if r.err != nil {
		return r.err
	}
	return ErrNotRunning
}
