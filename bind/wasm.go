package bind

import (
	"context"
	"reflect"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/hostbind/errors"
)

// NativeFunc builds a typed Go func F around a wasm-exported function so
// it can be bound like any other native callable. F's parameters and the
// leading result must be wasm core value types (i32, i64, f32, f64 and
// their Go integer forms); F must return error last, carrying trap and
// call failures.
func NativeFunc[F any](ctx context.Context, fn api.Function) (F, error) {
	var zero F
	t := reflect.TypeFor[F]()
	if t.Kind() != reflect.Func {
		return zero, errors.InvalidInput(errors.PhasePlan, "NativeFunc target must be a func type")
	}
	if t.NumOut() == 0 || t.Out(t.NumOut()-1) != errorType {
		return zero, errors.InvalidInput(errors.PhasePlan, "NativeFunc target must return error last")
	}
	if t.NumOut() > 2 {
		return zero, errors.Unsupported(errors.PhasePlan, "multi-value wasm results")
	}
	for i := 0; i < t.NumIn(); i++ {
		if !wasmEncodable(t.In(i)) {
			return zero, errors.Unsupported(errors.PhasePlan, "wasm parameter type "+t.In(i).String())
		}
	}
	hasValue := t.NumOut() == 2
	if hasValue && !wasmEncodable(t.Out(0)) {
		return zero, errors.Unsupported(errors.PhasePlan, "wasm result type "+t.Out(0).String())
	}

	impl := func(in []reflect.Value) []reflect.Value {
		fail := func(err error) []reflect.Value {
			out := make([]reflect.Value, 0, t.NumOut())
			if hasValue {
				out = append(out, reflect.Zero(t.Out(0)))
			}
			ev := reflect.New(errorType).Elem()
			ev.Set(reflect.ValueOf(err))
			return append(out, ev)
		}

		stack := make([]uint64, len(in))
		for i, v := range in {
			stack[i] = encodeWasm(v)
		}
		res, err := fn.Call(ctx, stack...)
		if err != nil {
			return fail(errors.HostInvocation("wasm call "+fn.Definition().DebugName(), err))
		}
		if !hasValue {
			return []reflect.Value{reflect.Zero(errorType)}
		}
		if len(res) == 0 {
			return fail(errors.InvalidInput(errors.PhaseInvoke, "wasm function returned no value"))
		}
		return []reflect.Value{decodeWasm(t.Out(0), res[0]), reflect.Zero(errorType)}
	}
	return reflect.MakeFunc(t, impl).Interface().(F), nil
}

func wasmEncodable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint32, reflect.Uint64, reflect.Uint,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func encodeWasm(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Int32:
		return api.EncodeI32(int32(v.Int()))
	case reflect.Int64, reflect.Int:
		return api.EncodeI64(v.Int())
	case reflect.Uint32:
		return api.EncodeU32(uint32(v.Uint()))
	case reflect.Uint64, reflect.Uint:
		return v.Uint()
	case reflect.Float32:
		return api.EncodeF32(float32(v.Float()))
	case reflect.Float64:
		return api.EncodeF64(v.Float())
	}
	return 0
}

func decodeWasm(t reflect.Type, raw uint64) reflect.Value {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int32:
		out.SetInt(int64(api.DecodeI32(raw)))
	case reflect.Int64, reflect.Int:
		out.SetInt(int64(raw))
	case reflect.Uint32:
		out.SetUint(uint64(api.DecodeU32(raw)))
	case reflect.Uint64, reflect.Uint:
		out.SetUint(raw)
	case reflect.Float32:
		out.SetFloat(float64(api.DecodeF32(raw)))
	case reflect.Float64:
		out.SetFloat(api.DecodeF64(raw))
	}
	return out
}
