package hostabi

import (
	"reflect"

	"github.com/wippyai/hostbind/errors"
)

// ValueUnmarshaler lets a native type define its own conversion from a
// host value. The pointer receiver form is checked, mirroring how custom
// conversions are declared on the type itself rather than registered.
type ValueUnmarshaler interface {
	FromValue(env *Env, v Value) error
}

// ValueMarshaler lets a native type define its own conversion to a host
// value.
type ValueMarshaler interface {
	ToValue(env *Env) (Value, error)
}

var (
	valueType       = reflect.TypeFor[Value]()
	unmarshalerType = reflect.TypeFor[ValueUnmarshaler]()
	marshalerType   = reflect.TypeFor[ValueMarshaler]()
)

// From converts a host value into an owned native value. This is the
// value-producing conversion used for owned parameters; failure aborts
// marshalling for the call.
func From[T any](env *Env, v Value) (T, error) {
	var zero T
	rv, err := ConvertTo(env, v, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

// FromRef is the reference-producing conversion for borrowed parameters.
// A handle already backed by native storage of the right type is borrowed
// directly; otherwise the converted value is boxed so the reference has
// storage for the duration of the call.
func FromRef[T any](env *Env, v Value) (*T, error) {
	if p, ok := borrowNative[T](v); ok {
		return p, nil
	}
	owned, err := From[T](env, v)
	if err != nil {
		return nil, err
	}
	return &owned, nil
}

// FromMutRef is the reference-producing conversion for mutably borrowed
// parameters. The target storage must exist outside the conversion, so
// only handles backed by native storage qualify.
func FromMutRef[T any](env *Env, v Value) (*T, error) {
	if p, ok := borrowNative[T](v); ok {
		return p, nil
	}
	return nil, errors.New(errors.PhaseConvert, errors.KindConversion).
		GoType("*" + reflect.TypeFor[T]().String()).
		HostType(v.Kind().String()).
		Detail("mutable borrow requires native-backed storage").
		Build()
}

func borrowNative[T any](v Value) (*T, bool) {
	switch v.Kind() {
	case KindObject:
		if p, ok := v.c.instance.(*T); ok {
			return p, true
		}
	case KindExternal:
		if p, ok := v.c.data.(*T); ok {
			return p, true
		}
	}
	return nil, false
}

// Validate is the strict-mode pre-check: it reports whether v can apply
// to the native type T before any conversion runs. A mismatch yields the
// distinguished non-null sentinel handle; applicability yields the null
// handle and the caller proceeds to convert exactly once.
func Validate[T any](env *Env, v Value) Value {
	return ValidateType(env, v, reflect.TypeFor[T]())
}

// ValidateType is the dynamic form of Validate.
func ValidateType(env *Env, v Value, t reflect.Type) Value {
	if expectedKind(t) == v.Kind() {
		return Null()
	}
	return env.MismatchSentinel()
}

func expectedKind(t reflect.Type) ValueKind {
	switch t.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Func:
		return KindFunction
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindString
		}
		return KindExternal
	case reflect.Ptr, reflect.Struct, reflect.Map:
		return KindObject
	}
	return KindExternal
}

// ConvertTo converts a host value to the native type t.
func ConvertTo(env *Env, v Value, t reflect.Type) (reflect.Value, error) {
	if DebugChecks {
		if err := env.checkThread("convert to " + t.String()); err != nil {
			return reflect.Value{}, err
		}
	}
	if t == valueType {
		return reflect.ValueOf(v), nil
	}

	// Custom conversion declared on *T.
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		out := reflect.New(t)
		if err := out.Interface().(ValueUnmarshaler).FromValue(env, v); err != nil {
			return reflect.Value{}, errors.Wrap(errors.PhaseConvert, errors.KindConversion, err, t.String())
		}
		return out.Elem(), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := v.Bool()
		if err != nil {
			return reflect.Value{}, conversionErr(t, v, err)
		}
		return reflect.ValueOf(b), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, err := v.Number()
		if err != nil {
			return reflect.Value{}, conversionErr(t, v, err)
		}
		out := reflect.New(t).Elem()
		out.SetInt(int64(f))
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f, err := v.Number()
		if err != nil {
			return reflect.Value{}, conversionErr(t, v, err)
		}
		out := reflect.New(t).Elem()
		out.SetUint(uint64(f))
		return out, nil

	case reflect.Float32, reflect.Float64:
		f, err := v.Number()
		if err != nil {
			return reflect.Value{}, conversionErr(t, v, err)
		}
		out := reflect.New(t).Elem()
		out.SetFloat(f)
		return out, nil

	case reflect.String:
		s, err := v.Str()
		if err != nil {
			return reflect.Value{}, conversionErr(t, v, err)
		}
		return reflect.ValueOf(s).Convert(t), nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			s, err := v.Str()
			if err != nil {
				return reflect.Value{}, conversionErr(t, v, err)
			}
			return reflect.ValueOf([]byte(s)).Convert(t), nil
		}

	case reflect.Interface:
		if t.NumMethod() == 0 {
			return reflect.ValueOf(v.anyValue()), nil
		}
	}

	// Remaining shapes (pointers, structs, maps) come through native-backed
	// handles: instance objects or externals.
	if native, ok := nativePayload(v); ok {
		rv := reflect.ValueOf(native)
		if rv.Type().AssignableTo(t) {
			return rv, nil
		}
		if rv.Kind() == reflect.Ptr && rv.Elem().Type().AssignableTo(t) {
			return rv.Elem(), nil
		}
		return reflect.Value{}, errors.Conversion(nil, t.String(), rv.Type().String())
	}
	return reflect.Value{}, errors.Conversion(nil, t.String(), v.Kind().String())
}

func nativePayload(v Value) (any, bool) {
	switch v.Kind() {
	case KindObject:
		if v.c.instance != nil {
			return v.c.instance, true
		}
	case KindExternal:
		return v.c.data, true
	}
	return nil, false
}

func conversionErr(t reflect.Type, v Value, cause error) error {
	return errors.New(errors.PhaseConvert, errors.KindConversion).
		GoType(t.String()).
		HostType(v.Kind().String()).
		Cause(cause).
		Build()
}

// anyValue unwraps a handle into a plain Go value for any-typed targets.
func (v Value) anyValue() any {
	switch v.Kind() {
	case KindNull, KindUndefined:
		return nil
	case KindBool, KindNumber, KindString, KindExternal:
		return v.c.data
	case KindObject:
		return v.c.instance
	case KindFunction:
		return v
	}
	return nil
}

// To converts an owned native value to a host value handle.
func To[T any](env *Env, native T) (Value, error) {
	return ToValue(env, native)
}

// ToValue converts a native value to a host value handle. A nil native
// value becomes undefined; unknown shapes are wrapped as externals.
func ToValue(env *Env, native any) (Value, error) {
	if DebugChecks {
		if err := env.checkThread("convert to host value"); err != nil {
			return Value{}, err
		}
	}
	if native == nil {
		return env.Undefined(), nil
	}
	if v, ok := native.(Value); ok {
		return v, nil
	}
	if m, ok := native.(ValueMarshaler); ok {
		v, err := m.ToValue(env)
		if err != nil {
			return Value{}, errors.Wrap(errors.PhaseConvert, errors.KindConversion, err, reflect.TypeOf(native).String())
		}
		return v, nil
	}

	rv := reflect.ValueOf(native)
	switch rv.Kind() {
	case reflect.Bool:
		return env.Boolean(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return env.Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return env.Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return env.Number(rv.Float()), nil
	case reflect.String:
		return env.String(rv.String()), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return env.String(string(rv.Bytes())), nil
		}
	case reflect.Ptr:
		if rv.IsNil() {
			return env.Undefined(), nil
		}
		return env.Instance(native), nil
	}
	return env.External(native), nil
}

// Unit is the converted form of "no return value": an undefined handle.
func Unit(env *Env) (Value, error) {
	return env.Undefined(), nil
}
