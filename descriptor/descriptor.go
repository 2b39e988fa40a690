package descriptor

import (
	"fmt"
	"strings"

	"github.com/wippyai/hostbind/errors"
)

// Kind classifies how a bound function is dispatched.
type Kind int

const (
	Plain Kind = iota
	Constructor
	Factory
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Constructor:
		return "constructor"
	case Factory:
		return "factory"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Receiver describes how the underlying function takes its instance.
// A by-value receiver is not representable: the upstream parser rejects
// it before a descriptor is ever constructed.
type Receiver int

const (
	ReceiverNone Receiver = iota
	ReceiverBorrowed
	ReceiverMutBorrowed
)

func (r Receiver) String() string {
	switch r {
	case ReceiverNone:
		return "none"
	case ReceiverBorrowed:
		return "borrowed"
	case ReceiverMutBorrowed:
		return "mut-borrowed"
	}
	return fmt.Sprintf("receiver(%d)", int(r))
}

// RefMode describes how a value parameter is passed to the native function.
type RefMode int

const (
	Owned RefMode = iota
	Borrowed
	MutBorrowed
)

func (m RefMode) String() string {
	switch m {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	case MutBorrowed:
		return "mut-borrowed"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Param is a closed sum over the three parameter shapes the planner
// understands. Adding a new shape means adding a type here and a case to
// every switch that consumes it.
type Param interface {
	isParam()
	String() string
}

// ValueParam is a parameter converted from a call-frame slot.
type ValueParam struct {
	Type string // Go type name as it appears in generated source
	Mode RefMode
}

func (ValueParam) isParam() {}

func (p ValueParam) String() string {
	if p.Mode == Owned {
		return p.Type
	}
	return fmt.Sprintf("%s %s", p.Mode, p.Type)
}

// CallbackParam is a higher-order parameter bridged by a trampoline.
type CallbackParam struct {
	Callback Callback
}

func (CallbackParam) isParam() {}

func (p CallbackParam) String() string {
	return p.Callback.Signature()
}

// EnvParam is injected from the running environment and never read from
// the call frame.
type EnvParam struct{}

func (EnvParam) isParam() {}

func (EnvParam) String() string { return "env" }

// Callback describes a higher-order parameter's native signature.
type Callback struct {
	Inputs []string // native parameter types the callback accepts
	Return string   // empty means no return value
	// Pure callbacks are one-shot invocables usable directly. Non-pure
	// callbacks are wrapped in a generic holder and need a synthesized
	// invocation interface in the generated unit.
	Pure bool
	// BindingName is the type variable name for the holder's generic
	// parameter when Pure is false.
	BindingName string
}

// Signature renders the callback as a Go func type.
func (c Callback) Signature() string {
	var b strings.Builder
	b.WriteString("func(")
	b.WriteString(strings.Join(c.Inputs, ", "))
	b.WriteByte(')')
	if c.Return != "" {
		b.WriteString(" (")
		b.WriteString(c.Return)
		b.WriteString(", error)")
	} else {
		b.WriteString(" error")
	}
	return b.String()
}

// Function describes one function to bind. Descriptors are built once by
// the external annotation parser, consumed read-only by the generator and
// the binder, and discarded after emission.
type Function struct {
	Name         string
	ExportedName string
	Kind         Kind
	Receiver     Receiver
	Owner        string
	Params       []Param
	Return       string // empty means no return value
	Fallible     bool
	Async        bool
	Strict       bool
	ModulePath   string
}

// RefOf names a managed reference to an owning type. A value parameter of
// this type reuses the call's recovered instance instead of consuming a
// call-frame slot.
func RefOf(owner string) string {
	return "Ref[" + owner + "]"
}

// IsOwnerRef reports whether p is a managed reference to fn's owner.
func (fn *Function) IsOwnerRef(p Param) bool {
	vp, ok := p.(ValueParam)
	return ok && fn.Owner != "" && vp.Type == RefOf(fn.Owner)
}

// ReturnsSelf reports whether the function returns its own receiver, which
// lets dispatch hand back the original instance handle unchanged.
func (fn *Function) ReturnsSelf() bool {
	return fn.Return == "Self" || fn.Return == "*Self"
}

// SlotCount returns the number of call-frame slots the function consumes.
// Env and owner-reference parameters are slot-free.
func (fn *Function) SlotCount() int {
	n := 0
	for _, p := range fn.Params {
		switch p.(type) {
		case EnvParam:
		case ValueParam, CallbackParam:
			if !fn.IsOwnerRef(p) {
				n++
			}
		}
	}
	return n
}

// Export returns the name visible to the host runtime, falling back to the
// native name.
func (fn *Function) Export() string {
	if fn.ExportedName != "" {
		return fn.ExportedName
	}
	return fn.Name
}

// QualifiedExport prefixes the export with the module path when present.
func (fn *Function) QualifiedExport() string {
	if fn.ModulePath == "" {
		return fn.Export()
	}
	return fn.ModulePath + "." + fn.Export()
}

// Validate checks descriptor invariants before planning.
func (fn *Function) Validate() error {
	if fn.Name == "" {
		return errors.InvalidInput(errors.PhaseDescribe, "function name cannot be empty")
	}
	if fn.Receiver != ReceiverNone && fn.Owner == "" {
		return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
			Path(fn.Name).
			Detail("receiver %s requires an owner type", fn.Receiver).
			Build()
	}
	if fn.Kind == Constructor || fn.Kind == Factory {
		if fn.Owner == "" {
			return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Path(fn.Name).
				Detail("%s requires an owner type", fn.Kind).
				Build()
		}
		if fn.Return == "" {
			return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Path(fn.Name).
				Detail("%s must return the produced instance", fn.Kind).
				Build()
		}
		if fn.Async {
			return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Path(fn.Name).
				Detail("%s cannot be async: instance binding happens during the call", fn.Kind).
				Build()
		}
	}
	if fn.ReturnsSelf() && fn.Receiver == ReceiverNone {
		return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
			Path(fn.Name).
			Detail("Self return requires a receiver").
			Build()
	}
	for i, p := range fn.Params {
		switch p := p.(type) {
		case ValueParam:
			if p.Type == "" {
				return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
					Path(fn.Name, fmt.Sprintf("param%d", i)).
					Detail("value parameter needs a type").
					Build()
			}
			if fn.IsOwnerRef(p) && fn.Receiver == ReceiverNone {
				return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
					Path(fn.Name, fmt.Sprintf("param%d", i)).
					Detail("owner reference parameter requires a receiver").
					Build()
			}
		case CallbackParam:
			if !p.Callback.Pure && p.Callback.BindingName == "" {
				return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
					Path(fn.Name, fmt.Sprintf("param%d", i)).
					Detail("non-pure callback needs a binding name").
					Build()
			}
		case EnvParam:
		default:
			return errors.Unsupported(errors.PhaseDescribe, fmt.Sprintf("parameter kind %T", p))
		}
	}
	return nil
}

// Signature renders a human-readable signature for listings and logs.
func (fn *Function) Signature() string {
	var b strings.Builder
	if fn.Owner != "" {
		b.WriteString(fn.Owner)
		b.WriteByte('.')
	}
	b.WriteString(fn.Name)
	b.WriteByte('(')
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if fn.Return != "" {
		b.WriteString(" -> ")
		if fn.Fallible {
			b.WriteString("Result<")
			b.WriteString(fn.Return)
			b.WriteByte('>')
		} else {
			b.WriteString(fn.Return)
		}
	} else if fn.Fallible {
		b.WriteString(" -> Result<>")
	}
	if fn.Async {
		b.WriteString(" async")
	}
	return b.String()
}
