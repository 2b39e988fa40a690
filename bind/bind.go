package bind

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/hostbind/descriptor"
	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/gen"
	"github.com/wippyai/hostbind/hostabi"
)

// Function binds a native Go function to a descriptor and returns a live
// entry point, following the same marshalling plan the source generator
// emits. Owner-scoped callables take the recovered *Owner as their first
// parameter; constructors and factories return the produced value.
//
// Non-pure callback holders are a generated-source construct; here every
// callback parameter must be a plain func type on the callable.
func Function(fn *descriptor.Function, callable any) (hostabi.EntryPoint, error) {
	plan, err := gen.NewPlan(fn)
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(callable)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, errors.InvalidInput(errors.PhasePlan, "callable must be a func")
	}
	rt := rv.Type()

	wantIn := len(plan.Args)
	if plan.NeedsReceiver() {
		wantIn++
	}
	if rt.NumIn() != wantIn {
		return nil, errors.New(errors.PhasePlan, errors.KindInvalidInput).
			Path(fn.Name).
			Detail("callable takes %d parameters, plan needs %d", rt.NumIn(), wantIn).
			Build()
	}
	if err := checkResults(fn, rt); err != nil {
		return nil, err
	}

	envType := reflect.TypeFor[*hostabi.Env]()
	base := 0
	if plan.NeedsReceiver() {
		base = 1
	}
	for i, arg := range plan.Args {
		if _, ok := arg.Param.(descriptor.EnvParam); ok && rt.In(base+i) != envType {
			return nil, errors.InvalidInput(errors.PhasePlan,
				"environment parameter needs *hostabi.Env on the callable")
		}
	}

	b := &binder{plan: plan, fn: rv, ft: rt}
	Logger().Debug("bound native function",
		zap.String("function", fn.Signature()),
		zap.Int("slots", plan.SlotCount))

	return func(env *hostabi.Env, frame *hostabi.CallFrame) hostabi.Value {
		out, err := b.invoke(env, frame)
		if err != nil {
			env.Throw(err)
			return hostabi.Null()
		}
		return out
	}, nil
}

// Register binds the callable and inserts its record into the default
// export table under the descriptor's export name.
func Register(fn *descriptor.Function, callable any) error {
	entry, err := Function(fn, callable)
	if err != nil {
		return err
	}
	return hostabi.DefaultRegistry().Register(hostabi.Record{
		Export:     fn.Export(),
		ModulePath: fn.ModulePath,
		Entry:      entry,
	})
}

var errorType = reflect.TypeFor[error]()

func checkResults(fn *descriptor.Function, rt reflect.Type) error {
	want := 0
	if fn.Return != "" {
		want++
	}
	if fn.Fallible {
		want++
	}
	if rt.NumOut() != want {
		return errors.New(errors.PhasePlan, errors.KindInvalidInput).
			Path(fn.Name).
			Detail("callable returns %d values, descriptor needs %d", rt.NumOut(), want).
			Build()
	}
	if fn.Fallible && rt.Out(rt.NumOut()-1) != errorType {
		return errors.InvalidInput(errors.PhasePlan, "fallible callable must return error last")
	}
	return nil
}

type binder struct {
	plan *gen.Plan
	fn   reflect.Value
	ft   reflect.Type
}

// invoke runs one call: receiver recovery, argument conversion in slot
// order, dispatch, and return assembly. Conversion failures surface as
// errors and become pending exceptions in the wrapper; native failures of
// fallible functions are thrown here and reported as a null result.
func (b *binder) invoke(env *hostabi.Env, frame *hostabi.CallFrame) (hostabi.Value, error) {
	fn := b.plan.Fn

	if fn.Kind == descriptor.Constructor && frame.Construction().FromFactory() {
		return hostabi.Null(), nil
	}

	// Zero-arg fast path: nothing to recover or convert.
	if b.plan.ZeroArg {
		return b.dispatch(env, frame, nil)
	}

	in := make([]reflect.Value, 0, b.ft.NumIn())
	next := 0

	var receiver reflect.Value
	if b.plan.NeedsReceiver() {
		r, err := b.recoverReceiver(frame, b.ft.In(0))
		if err != nil {
			return hostabi.Null(), err
		}
		receiver = r
		in = append(in, r)
		next = 1
	}

	for _, arg := range b.plan.Args {
		t := b.ft.In(next)
		next++
		switch param := arg.Param.(type) {
		case descriptor.EnvParam:
			in = append(in, reflect.ValueOf(env))
		case descriptor.ValueParam:
			if arg.Source == gen.SourceOwnerRef {
				in = append(in, receiver)
				continue
			}
			v := frame.Arg(arg.Slot)
			if fn.Strict && param.Mode == descriptor.Owned {
				if s := hostabi.ValidateType(env, v, t); !s.IsNull() {
					return s, nil
				}
			}
			cv, err := b.convertValue(env, v, t, param.Mode)
			if err != nil {
				return hostabi.Null(), err
			}
			in = append(in, cv)
		case descriptor.CallbackParam:
			cv, err := b.trampoline(env, frame, arg, t)
			if err != nil {
				return hostabi.Null(), err
			}
			in = append(in, cv)
		}
	}

	return b.dispatch(env, frame, in)
}

// dispatch calls the native function with the assembled arguments and
// applies return assembly, asynchronously when the descriptor says so.
func (b *binder) dispatch(env *hostabi.Env, frame *hostabi.CallFrame, in []reflect.Value) (hostabi.Value, error) {
	fn := b.plan.Fn

	if fn.Async {
		return env.ExecuteAsync(func() (any, error) {
			return splitResults(fn, b.fn.Call(in))
		}, func(d *hostabi.Deferred, v any, err error) {
			if err != nil {
				d.Reject(err)
				return
			}
			out, err := hostabi.ToValue(env, v)
			if err != nil {
				d.Reject(err)
				return
			}
			d.Resolve(out)
		}), nil
	}

	ret, err := splitResults(fn, b.fn.Call(in))
	if err != nil {
		env.ThrowNative(fn.Export(), err)
		return hostabi.Null(), nil
	}
	return b.assembleReturn(env, frame, ret)
}

// recoverReceiver borrows the native instance behind the frame's receiver
// binding. The borrow is non-owning; the handle keeps the instance alive.
func (b *binder) recoverReceiver(frame *hostabi.CallFrame, t reflect.Type) (reflect.Value, error) {
	inst, err := frame.This().Instance()
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.ValueOf(inst)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Kind() == reflect.Ptr && rv.Elem().Type().AssignableTo(t) {
		return rv.Elem(), nil
	}
	return reflect.Value{}, errors.TypeMismatch(errors.PhaseConvert, []string{b.plan.Fn.Name, "receiver"},
		t.String(), rv.Type().String())
}

func (b *binder) convertValue(env *hostabi.Env, v hostabi.Value, t reflect.Type, mode descriptor.RefMode) (reflect.Value, error) {
	switch mode {
	case descriptor.Borrowed:
		if t.Kind() != reflect.Ptr {
			return hostabi.ConvertTo(env, v, t)
		}
		if rv, err := hostabi.ConvertTo(env, v, t); err == nil {
			return rv, nil
		}
		// No native backing; convert the value and box it so the borrow
		// has storage for the duration of the call.
		elem, err := hostabi.ConvertTo(env, v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	case descriptor.MutBorrowed:
		if t.Kind() != reflect.Ptr {
			return reflect.Value{}, errors.InvalidInput(errors.PhasePlan,
				"mutably borrowed parameter needs a pointer type on the callable")
		}
		rv, err := hostabi.ConvertTo(env, v, t)
		if err != nil {
			return reflect.Value{}, errors.Wrap(errors.PhaseConvert, errors.KindConversion, err,
				"mutable borrow requires native-backed storage")
		}
		return rv, nil
	default:
		return hostabi.ConvertTo(env, v, t)
	}
}

// trampoline builds the native func value bridging a callback slot: native
// arguments convert to handles, the host function value is invoked with
// the frame's receiver binding, and the result converts back.
func (b *binder) trampoline(env *hostabi.Env, frame *hostabi.CallFrame, arg gen.Arg, t reflect.Type) (reflect.Value, error) {
	if t.Kind() != reflect.Func {
		return reflect.Value{}, errors.InvalidInput(errors.PhasePlan,
			"callback parameter needs a func type on the callable")
	}
	slot := frame.Arg(arg.Slot)
	if b.plan.Fn.Strict || hostabi.DebugChecks {
		if err := hostabi.AssertKind(slot, hostabi.KindFunction); err != nil {
			return reflect.Value{}, err
		}
	}

	hasValue := t.NumOut() == 2
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

		vals := make([]hostabi.Value, len(in))
		for i, rin := range in {
			hv, err := hostabi.ToValue(env, rin.Interface())
			if err != nil {
				return fail(err)
			}
			vals[i] = hv
		}
		out, err := slot.Call(frame.This(), vals...)
		if err != nil {
			return fail(err)
		}
		if !hasValue {
			return []reflect.Value{reflect.Zero(errorType)}
		}
		rv, err := hostabi.ConvertTo(env, out, t.Out(0))
		if err != nil {
			return fail(err)
		}
		return []reflect.Value{rv, reflect.Zero(errorType)}
	}
	return reflect.MakeFunc(t, impl), nil
}

// splitResults separates the callable's results into the produced value
// and the native failure.
func splitResults(fn *descriptor.Function, results []reflect.Value) (any, error) {
	var value any
	var err error
	i := 0
	if fn.Return != "" {
		value = results[i].Interface()
		i++
	}
	if fn.Fallible {
		if e := results[i].Interface(); e != nil {
			err = e.(error)
		}
	}
	return value, err
}

// assembleReturn applies the dispatch table's sync return shapes.
func (b *binder) assembleReturn(env *hostabi.Env, frame *hostabi.CallFrame, ret any) (hostabi.Value, error) {
	fn := b.plan.Fn
	switch {
	case fn.Kind == descriptor.Constructor:
		if err := frame.This().BindInstance(instancePtr(ret)); err != nil {
			return hostabi.Null(), err
		}
		return frame.This(), nil
	case fn.Kind == descriptor.Factory:
		return env.Instance(instancePtr(ret)), nil
	case fn.ReturnsSelf():
		return frame.This(), nil
	case fn.Return == "":
		return hostabi.Unit(env)
	default:
		return hostabi.ToValue(env, ret)
	}
}

// instancePtr normalizes a produced instance to pointer form so receiver
// recovery on later calls borrows the same storage.
func instancePtr(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		return v
	}
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return p.Interface()
}
