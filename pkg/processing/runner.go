package processing

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Runner drives a Machine with one timer task per phase. Cancelling the
// context passed to Start, or calling Stop, halts all timers.
type Runner struct {
	machine *Machine
	wake    chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewRunner(m *Machine) *Runner {
	done := make(chan struct{})
	close(done)
	return &Runner{
		machine: m,
		wake:    make(chan struct{}, 1),
		done:    done,
	}
}

func (r *Runner) Machine() *Machine { return r.machine }

// Start begins driving the machine until it leaves the active phases. If
// the runner is already driving, Start only wakes it.
func (r *Runner) Start(parent context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.signal()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	r.running = true
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx, cancel, r.done)
}

// Wake re-evaluates the machine state, e.g. after an extraction was
// confirmed while OCR progress was saturated.
func (r *Runner) Wake() { r.signal() }

func (r *Runner) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Stop cancels the running task and waits for it to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-done
}

// Done is closed when the current task exits.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) loop(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	for {
		err := r.drive(ctx)

		r.mu.Lock()
		if err == nil && r.machine.Snapshot().Status.IsActive() {
			r.mu.Unlock()
			continue
		}
		r.running = false
		cancel()
		r.mu.Unlock()
		return
	}
}

func (r *Runner) drive(ctx context.Context) error {
	for {
		snap := r.machine.Snapshot()
		phase, ok := snap.Phase()
		if !ok {
			return nil
		}
		if phase == PhaseOCR && snap.Progress.OCR >= 100 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.wake:
				continue
			}
		}
		if err := r.runPhase(ctx, phase); err != nil {
			return err
		}
	}
}

func (r *Runner) runPhase(ctx context.Context, phase Phase) error {
	step := r.machine.cfg.step(phase)
	ticker := time.NewTicker(step.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
			if r.machine.Snapshot().Status != phase.status() {
				return nil
			}
		case <-ticker.C:
			snap, err := r.machine.Tick(ctx)
			if errors.Is(err, ErrNotActive) {
				return nil
			}
			if snap.Status != phase.status() {
				return nil
			}
			if phase == PhaseOCR && snap.Progress.OCR >= 100 {
				return nil
			}
		}
	}
}
