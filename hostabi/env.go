package hostabi

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/hostbind/errors"
)

// Env is the host runtime environment. It owns the runtime loop: the single
// goroutine on which every value handle and call frame must be created,
// read, or converted. Entry points always execute on the loop; async native
// tasks run on worker goroutines and their completions are scheduled back
// onto the loop.
type Env struct {
	loop    chan func()
	closed  chan struct{}
	closeMu sync.Once

	// onLoop is a best-effort thread-affinity diagnostic: true while the
	// loop goroutine is executing scheduled work.
	onLoop atomic.Bool

	// pending is the host exception state. Loop-confined.
	pending error

	sentinel *cell
}

// NewEnv starts a host environment and its runtime loop.
func NewEnv() *Env {
	e := &Env{
		loop:     make(chan func(), 64),
		closed:   make(chan struct{}),
		sentinel: &cell{kind: KindExternal, data: &sentinelMarker},
	}
	go e.run()
	return e
}

func (e *Env) run() {
	for {
		select {
		case f := <-e.loop:
			e.onLoop.Store(true)
			f()
			e.onLoop.Store(false)
		case <-e.closed:
			// Drain whatever was scheduled before close.
			for {
				select {
				case f := <-e.loop:
					e.onLoop.Store(true)
					f()
					e.onLoop.Store(false)
				default:
					return
				}
			}
		}
	}
}

// Close shuts the runtime loop down after draining scheduled work.
func (e *Env) Close() {
	e.closeMu.Do(func() { close(e.closed) })
}

// Do runs f on the runtime loop and waits for it to finish. Do must not
// be called from the loop itself; code already running on the loop holds
// the thread and calls handle operations directly.
func (e *Env) Do(f func()) {
	done := make(chan struct{})
	select {
	case e.loop <- func() { f(); close(done) }:
		<-done
	case <-e.closed:
	}
}

// post schedules f on the runtime loop without waiting.
func (e *Env) post(f func()) {
	select {
	case e.loop <- f:
	case <-e.closed:
	}
}

// Execute dispatches task onto a worker goroutine and schedules complete
// back on the runtime loop after the task finishes. complete runs exactly
// once, on the loop, with the task's result or failure; the task always
// runs to completion - there is no cancellation at this layer.
func (e *Env) Execute(task func() (any, error), complete func(v any, err error)) {
	go func() {
		v, err := task()
		e.post(func() { complete(v, err) })
	}()
}

// Throw records err as the pending host exception. The entry-point wrapper
// uses this to convert otherwise-unhandled failures: throw, then return a
// null handle, never unwind across the boundary.
func (e *Env) Throw(err error) {
	e.pending = err
	Logger().Debug("host exception thrown", zap.Error(err))
}

// ThrowNative records a failure returned by a bound native function as
// the pending host exception, tagged with the function's name.
func (e *Env) ThrowNative(name string, err error) {
	e.Throw(errors.Native(name, err))
}

// Pending returns the pending host exception without clearing it.
func (e *Env) Pending() error {
	return e.pending
}

// TakePending returns and clears the pending host exception.
func (e *Env) TakePending() error {
	err := e.pending
	e.pending = nil
	return err
}

// checkThread reports handle use off the runtime loop. Diagnostic only:
// it cannot distinguish concurrent loop work from the caller's goroutine,
// so a false negative is possible, never a false positive panic.
func (e *Env) checkThread(what string) error {
	if e == nil {
		return errors.NilPointer(errors.PhaseRuntime, nil, "*hostabi.Env")
	}
	if !e.onLoop.Load() {
		return errors.WrongThread(what)
	}
	return nil
}
