package hostabi

import (
	"fmt"

	"github.com/wippyai/hostbind/errors"
)

// ValueKind classifies a host runtime value.
type ValueKind int

const (
	KindUndefined ValueKind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
	KindFunction
	KindExternal
)

func (k ValueKind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindExternal:
		return "external"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// sentinelMarker backs the distinguished "overload does not apply" handle.
var sentinelMarker = struct{ name string }{"hostbind overload mismatch sentinel"}

// Callable is the native shape of a host function value.
type Callable func(this Value, args []Value) (Value, error)

type cell struct {
	kind ValueKind
	data any // bool | float64 | string | Callable | instance payload
	// instance is the opaque instance handle payload for objects backed by
	// a native value. The env owns the cell; recovery borrows, it never
	// takes ownership.
	instance any
}

// Value is an opaque handle to a value owned by the host environment.
// Handles are confined to the environment's runtime loop. The zero Value
// is the null handle.
type Value struct {
	env *Env
	c   *cell
}

// EntryPoint is the ABI boundary: the function the host runtime calls to
// execute a bound native function. Failures never unwind out of an entry
// point; they become a pending host exception and a null handle.
type EntryPoint func(env *Env, frame *CallFrame) Value

// Null returns the null handle.
func Null() Value { return Value{} }

// Undefined creates an undefined value.
func (e *Env) Undefined() Value { return Value{env: e, c: &cell{kind: KindUndefined}} }

// Boolean creates a bool value.
func (e *Env) Boolean(b bool) Value { return Value{env: e, c: &cell{kind: KindBool, data: b}} }

// Number creates a number value. The host runtime has a single numeric
// type; integers are widened.
func (e *Env) Number(f float64) Value { return Value{env: e, c: &cell{kind: KindNumber, data: f}} }

// String creates a string value.
func (e *Env) String(s string) Value { return Value{env: e, c: &cell{kind: KindString, data: s}} }

// External wraps an arbitrary native value without conversion.
func (e *Env) External(v any) Value { return Value{env: e, c: &cell{kind: KindExternal, data: v}} }

// Function creates a host function value around a native callable.
func (e *Env) Function(fn Callable) Value {
	return Value{env: e, c: &cell{kind: KindFunction, data: fn}}
}

// Instance creates an object value backed by a native instance; the object
// carries the opaque instance handle the receiver-recovery step reads.
func (e *Env) Instance(native any) Value {
	return Value{env: e, c: &cell{kind: KindObject, instance: native}}
}

// Object creates an object value with no native backing.
func (e *Env) Object() Value {
	return Value{env: e, c: &cell{kind: KindObject}}
}

// MismatchSentinel returns the distinguished non-null handle a strict
// conversion yields when the value does not apply to the expected type.
// An external dispatcher uses it to try the next overload.
func (e *Env) MismatchSentinel() Value {
	return Value{env: e, c: e.sentinel}
}

// Kind returns the value's kind; the null handle reports KindNull.
func (v Value) Kind() ValueKind {
	if v.c == nil {
		return KindNull
	}
	return v.c.kind
}

// IsNull reports whether v is the null handle.
func (v Value) IsNull() bool { return v.c == nil }

// IsMismatchSentinel reports whether v is the strict-mode overload sentinel.
func (v Value) IsMismatchSentinel() bool {
	return v.c != nil && v.c.kind == KindExternal && v.c.data == &sentinelMarker
}

// Bool reads a bool value.
func (v Value) Bool() (bool, error) {
	if v.Kind() != KindBool {
		return false, errors.TypeMismatch(errors.PhaseConvert, nil, "bool", v.Kind().String())
	}
	return v.c.data.(bool), nil
}

// Number reads a number value.
func (v Value) Number() (float64, error) {
	if v.Kind() != KindNumber {
		return 0, errors.TypeMismatch(errors.PhaseConvert, nil, "float64", v.Kind().String())
	}
	return v.c.data.(float64), nil
}

// Str reads a string value.
func (v Value) Str() (string, error) {
	if v.Kind() != KindString {
		return "", errors.TypeMismatch(errors.PhaseConvert, nil, "string", v.Kind().String())
	}
	return v.c.data.(string), nil
}

// External reads the wrapped native value of an external.
func (v Value) External() (any, error) {
	if v.Kind() != KindExternal {
		return nil, errors.TypeMismatch(errors.PhaseConvert, nil, "external", v.Kind().String())
	}
	return v.c.data, nil
}

// Instance borrows the native instance backing an object. The borrow is
// valid for the current call frame: the env owns the cell and the cell
// outlives the call, so recovery never reconstitutes or drops ownership.
func (v Value) Instance() (any, error) {
	if v.Kind() != KindObject {
		return nil, errors.TypeMismatch(errors.PhaseConvert, nil, "object", v.Kind().String())
	}
	if v.c.instance == nil {
		return nil, errors.NilPointer(errors.PhaseConvert, nil, "instance handle")
	}
	return v.c.instance, nil
}

// BindInstance attaches a native instance to an object value. Constructor
// dispatch uses this to bind the produced value to the instance handle.
func (v Value) BindInstance(native any) error {
	if v.Kind() != KindObject {
		return errors.TypeMismatch(errors.PhaseDispatch, nil, "object", v.Kind().String())
	}
	v.c.instance = native
	return nil
}

// Call invokes a host function value with the given this-binding. Failure
// surfaces as HostInvocationError at the ABI layer.
func (v Value) Call(this Value, args ...Value) (Value, error) {
	if v.Kind() != KindFunction {
		return Value{}, errors.HostInvocation("call target",
			errors.TypeMismatch(errors.PhaseInvoke, nil, "function", v.Kind().String()))
	}
	fn := v.c.data.(Callable)
	out, err := fn(this, args)
	if err != nil {
		return Value{}, errors.HostInvocation("host function call", err)
	}
	return out, nil
}

// Env returns the owning environment, nil for the null handle.
func (v Value) Env() *Env { return v.env }
