package hostabi

// ConstructionContext threads the "construction is driven by a factory"
// fact from a factory dispatch into the constructor it delegates to. It
// replaces ambient process state: the only writer is the factory path,
// the only reader is the constructor entry prologue, and both run on the
// runtime loop within one dispatch.
type ConstructionContext struct {
	fromFactory bool
}

// ForFactory returns a context marking construction as factory-driven.
func ForFactory() *ConstructionContext {
	return &ConstructionContext{fromFactory: true}
}

// FromFactory reports whether a factory drives the current construction.
// A constructor entry that sees true returns a null handle immediately:
// the factory path completes construction and the constructor body must
// not run a second time.
func (c *ConstructionContext) FromFactory() bool {
	return c != nil && c.fromFactory
}

// CallFrame is the per-invocation structure the host runtime hands to an
// entry point: indexed positional arguments, the receiver/this binding,
// and the environment. Frames are loop-confined like the handles they
// carry.
type CallFrame struct {
	env          *Env
	this         Value
	args         []Value
	construction *ConstructionContext
}

// NewFrame builds a call frame for an invocation.
func (e *Env) NewFrame(this Value, args ...Value) *CallFrame {
	return &CallFrame{env: e, this: this, args: args}
}

// WithConstruction returns a frame carrying the construction context.
// Factory dispatch uses this when delegating to a constructor entry.
func (f *CallFrame) WithConstruction(ctx *ConstructionContext) *CallFrame {
	clone := *f
	clone.construction = ctx
	return &clone
}

// Arg returns the positional argument at slot i, or undefined when the
// caller supplied fewer arguments.
func (f *CallFrame) Arg(i int) Value {
	if i < 0 || i >= len(f.args) {
		return f.env.Undefined()
	}
	return f.args[i]
}

// Len returns the number of positional arguments supplied.
func (f *CallFrame) Len() int { return len(f.args) }

// This returns the receiver binding.
func (f *CallFrame) This() Value { return f.this }

// Env returns the running environment.
func (f *CallFrame) Env() *Env { return f.env }

// Construction returns the construction context, nil outside factory
// delegation.
func (f *CallFrame) Construction() *ConstructionContext { return f.construction }
