package hostabi

import (
	"context"
	"sync"

	"github.com/wippyai/hostbind/errors"
)

// Deferred is the externally visible completion of an asynchronous call.
// It settles exactly once, on the runtime loop, after the dispatched task
// finishes. Await may be used from any goroutine.
type Deferred struct {
	env *Env

	mu      sync.Mutex
	settled bool
	val     Value
	err     error
	done    chan struct{}
}

// NewDeferred creates an unsettled deferred.
func (e *Env) NewDeferred() *Deferred {
	return &Deferred{env: e, done: make(chan struct{})}
}

// Resolve fulfills the deferred. Must be called on the runtime loop;
// settling twice is a no-op.
func (d *Deferred) Resolve(v Value) {
	d.settle(v, nil)
}

// Reject fails the deferred. Must be called on the runtime loop; settling
// twice is a no-op.
func (d *Deferred) Reject(err error) {
	d.settle(Value{}, err)
}

func (d *Deferred) settle(v Value, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return
	}
	d.settled = true
	d.val = v
	d.err = err
	close(d.done)
}

// Await blocks until the deferred settles or ctx is done. The returned
// handle must still only be inspected on the runtime loop.
func (d *Deferred) Await(ctx context.Context) (Value, error) {
	select {
	case <-d.done:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.val, d.err
	case <-ctx.Done():
		return Value{}, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, ctx.Err(), "await deferred")
	}
}

// Settled reports whether the deferred has been resolved or rejected.
func (d *Deferred) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Promise wraps the deferred in a host value handle so the entry point can
// hand it back synchronously.
func (d *Deferred) Promise() Value {
	return d.env.External(d)
}

// DeferredOf unwraps a promise handle produced by Promise.
func DeferredOf(v Value) (*Deferred, bool) {
	ext, err := v.External()
	if err != nil {
		return nil, false
	}
	d, ok := ext.(*Deferred)
	return d, ok
}

// ExecuteAsync dispatches task onto the worker executor and returns a
// promise handle immediately. When the task finishes, complete runs on the
// runtime loop with the deferred and the task's outcome; it performs the
// return-value conversion and settles the deferred. The runtime loop is
// never blocked between dispatch and completion.
func (e *Env) ExecuteAsync(task func() (any, error), complete func(d *Deferred, v any, err error)) Value {
	d := e.NewDeferred()
	e.Execute(task, func(v any, err error) {
		complete(d, v, err)
	})
	return d.Promise()
}
