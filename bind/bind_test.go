package bind

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/wippyai/hostbind/descriptor"
	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/hostabi"
)

var errNative = stderrors.New("native failure")

func mustBind(t *testing.T, fn *descriptor.Function, callable any) hostabi.EntryPoint {
	t.Helper()
	entry, err := Function(fn, callable)
	if err != nil {
		t.Fatalf("Function(%s): %v", fn.Name, err)
	}
	return entry
}

func TestFreeFunctionRoundTrip(t *testing.T) {
	entry := mustBind(t, &descriptor.Function{
		Name: "Add",
		Params: []descriptor.Param{
			descriptor.ValueParam{Type: "int32"},
			descriptor.ValueParam{Type: "int32"},
		},
		Return: "int32",
	}, func(a, b int32) int32 { return a + b })

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		out := entry(env, env.NewFrame(env.Undefined(), env.Number(2), env.Number(3)))
		if n, _ := out.Number(); n != 5 {
			t.Errorf("result = %v, want 5", n)
		}
	})
}

func TestZeroArgDispatch(t *testing.T) {
	entry := mustBind(t, &descriptor.Function{
		Name:     "Now",
		Return:   "int64",
		Fallible: true,
	}, func() (int64, error) { return 1700000000, nil })

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		out := entry(env, env.NewFrame(env.Undefined()))
		if n, _ := out.Number(); n != 1700000000 {
			t.Errorf("result = %v, want 1700000000", n)
		}
		if env.Pending() != nil {
			t.Errorf("unexpected pending exception: %v", env.Pending())
		}
	})
}

func TestConversionFailureThrows(t *testing.T) {
	entry := mustBind(t, &descriptor.Function{
		Name:   "Square",
		Params: []descriptor.Param{descriptor.ValueParam{Type: "int32"}},
		Return: "int32",
	}, func(a int32) int32 { return a * a })

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		out := entry(env, env.NewFrame(env.Undefined(), env.String("nope")))
		if !out.IsNull() {
			t.Error("conversion failure must yield the null handle")
		}
		err := env.TakePending()
		if err == nil {
			t.Fatal("conversion failure must leave a pending exception")
		}
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConvert, Kind: errors.KindConversion}) {
			t.Errorf("pending = %v, want a conversion error", err)
		}
	})
}

func TestNativeFailureThrows(t *testing.T) {
	entry := mustBind(t, &descriptor.Function{
		Name:     "Fail",
		Fallible: true,
	}, func() error { return errNative })

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		out := entry(env, env.NewFrame(env.Undefined()))
		if !out.IsNull() {
			t.Error("native failure must yield the null handle")
		}
		err := env.TakePending()
		if !stderrors.Is(err, errNative) {
			t.Errorf("pending = %v, want the native error", err)
		}
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDispatch, Kind: errors.KindNative}) {
			t.Error("native failure must be tagged as such")
		}
	})
}

func TestMethodReceiverAndSelfReturn(t *testing.T) {
	type counter struct{ n int32 }

	entry := mustBind(t, &descriptor.Function{
		Name:     "Inc",
		Owner:    "Counter",
		Receiver: descriptor.ReceiverMutBorrowed,
		Params:   []descriptor.Param{descriptor.ValueParam{Type: "int32"}},
		Return:   "*Self",
	}, func(c *counter, d int32) *counter {
		c.n += d
		return c
	})

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		c := &counter{}
		this := env.Instance(c)
		out := entry(env, env.NewFrame(this, env.Number(5)))
		if out != this {
			t.Error("Self return must hand back the original receiver handle")
		}
		if c.n != 5 {
			t.Errorf("receiver not mutated: n = %d", c.n)
		}
	})
}

func TestEnvAndOwnerRefInjection(t *testing.T) {
	type counter struct{ n int32 }

	entry := mustBind(t, &descriptor.Function{
		Name:     "Mirror",
		Owner:    "Counter",
		Receiver: descriptor.ReceiverBorrowed,
		Params: []descriptor.Param{
			descriptor.EnvParam{},
			descriptor.ValueParam{Type: "int32"},
			descriptor.ValueParam{Type: descriptor.RefOf("Counter")},
		},
		Return: "bool",
	}, func(c *counter, env *hostabi.Env, x int32, same *counter) bool {
		return env != nil && same == c && x == 7
	})

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		this := env.Instance(&counter{})
		// The int32 sits in slot 0; env and the owner reference consume
		// no call-frame slots.
		out := entry(env, env.NewFrame(this, env.Number(7)))
		if ok, _ := out.Bool(); !ok {
			t.Error("slot-free parameters not injected correctly")
		}
	})
}

func TestConstructorBindsInstance(t *testing.T) {
	type point struct{ x int32 }

	entry := mustBind(t, &descriptor.Function{
		Name:   "New",
		Owner:  "Point",
		Kind:   descriptor.Constructor,
		Params: []descriptor.Param{descriptor.ValueParam{Type: "int32"}},
		Return: "Point",
	}, func(x int32) point { return point{x: x} })

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		this := env.Object()
		out := entry(env, env.NewFrame(this, env.Number(3)))
		if out != this {
			t.Error("constructor must return the receiver handle")
		}
		inst, err := this.Instance()
		if err != nil {
			t.Fatalf("Instance: %v", err)
		}
		if p, ok := inst.(*point); !ok || p.x != 3 {
			t.Errorf("bound instance = %#v", inst)
		}
	})
}

func TestFactoryDelegationGuard(t *testing.T) {
	called := false
	entry := mustBind(t, &descriptor.Function{
		Name:   "New",
		Owner:  "Point",
		Kind:   descriptor.Constructor,
		Params: []descriptor.Param{descriptor.ValueParam{Type: "int32"}},
		Return: "int32",
	}, func(x int32) int32 {
		called = true
		return x
	})

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		// The argument would fail conversion; under delegation the guard
		// must return before any conversion runs.
		frame := env.NewFrame(env.Object(), env.String("bad")).WithConstruction(hostabi.ForFactory())
		out := entry(env, frame)
		if !out.IsNull() {
			t.Error("delegated construction must yield the null handle")
		}
		if called {
			t.Error("delegated construction must not invoke the native function")
		}
		if env.Pending() != nil {
			t.Error("delegated construction must not convert arguments")
		}
	})
}

func TestFactoryReturnsInstance(t *testing.T) {
	type point struct{ x int32 }

	entry := mustBind(t, &descriptor.Function{
		Name:   "Origin",
		Owner:  "Point",
		Kind:   descriptor.Factory,
		Return: "*Point",
	}, func() *point { return &point{x: 1} })

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		out := entry(env, env.NewFrame(env.Undefined()))
		inst, err := out.Instance()
		if err != nil {
			t.Fatalf("factory result not an instance object: %v", err)
		}
		if inst.(*point).x != 1 {
			t.Errorf("instance = %#v", inst)
		}
	})
}

func TestStrictMismatchSentinel(t *testing.T) {
	called := false
	entry := mustBind(t, &descriptor.Function{
		Name:   "Pick",
		Strict: true,
		Params: []descriptor.Param{
			descriptor.ValueParam{Type: "float64"},
			descriptor.ValueParam{Type: "float64"},
		},
		Return: "float64",
	}, func(a, b float64) float64 {
		called = true
		return a + b
	})

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		out := entry(env, env.NewFrame(env.Undefined(), env.Number(1), env.String("two")))
		if !out.IsMismatchSentinel() {
			t.Error("strict mismatch must yield the sentinel handle")
		}
		if called {
			t.Error("mismatch must stop before the native call")
		}
		if env.Pending() != nil {
			t.Error("mismatch is not an exception")
		}
	})
}

func TestCallbackTrampoline(t *testing.T) {
	entry := mustBind(t, &descriptor.Function{
		Name: "Transform",
		Params: []descriptor.Param{
			descriptor.ValueParam{Type: "float64"},
			descriptor.CallbackParam{Callback: descriptor.Callback{
				Inputs: []string{"float64"},
				Return: "string",
				Pure:   true,
			}},
		},
		Return:   "string",
		Fallible: true,
	}, func(x float64, cb func(float64) (string, error)) (string, error) {
		return cb(x * 2)
	})

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		var seen float64
		hostFn := env.Function(func(this hostabi.Value, args []hostabi.Value) (hostabi.Value, error) {
			seen, _ = args[0].Number()
			return env.String("doubled"), nil
		})
		out := entry(env, env.NewFrame(env.Undefined(), env.Number(21), hostFn))
		if s, _ := out.Str(); s != "doubled" {
			t.Errorf("result = %q", s)
		}
		if seen != 42 {
			t.Errorf("callback saw %v, want 42", seen)
		}
	})
}

func TestCallbackHostFailurePropagates(t *testing.T) {
	entry := mustBind(t, &descriptor.Function{
		Name: "Each",
		Params: []descriptor.Param{
			descriptor.CallbackParam{Callback: descriptor.Callback{Pure: true}},
		},
		Fallible: true,
	}, func(cb func() error) error { return cb() })

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		hostFn := env.Function(func(this hostabi.Value, args []hostabi.Value) (hostabi.Value, error) {
			return hostabi.Null(), errNative
		})
		out := entry(env, env.NewFrame(env.Undefined(), hostFn))
		if !out.IsNull() {
			t.Error("failed callback must surface as a thrown call")
		}
		err := env.TakePending()
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseInvoke, Kind: errors.KindHostInvocation}) {
			t.Errorf("pending = %v, want a host invocation failure", err)
		}
	})
}

func TestAsyncResolution(t *testing.T) {
	entry := mustBind(t, &descriptor.Function{
		Name:     "Compute",
		Async:    true,
		Fallible: true,
		Params:   []descriptor.Param{descriptor.ValueParam{Type: "int32"}},
		Return:   "int32",
	}, func(x int32) (int32, error) { return x + 1, nil })

	env := hostabi.NewEnv()
	defer env.Close()

	var d *hostabi.Deferred
	env.Do(func() {
		out := entry(env, env.NewFrame(env.Undefined(), env.Number(41)))
		var ok bool
		d, ok = hostabi.DeferredOf(out)
		if !ok {
			t.Fatal("async dispatch must return a promise handle")
		}
		if env.Pending() != nil {
			t.Error("async dispatch never throws synchronously")
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	val, err := d.Await(ctx)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	env.Do(func() {
		if n, _ := val.Number(); n != 42 {
			t.Errorf("resolved = %v, want 42", n)
		}
	})
}

func TestAsyncRejection(t *testing.T) {
	entry := mustBind(t, &descriptor.Function{
		Name:     "Boom",
		Async:    true,
		Fallible: true,
	}, func() error { return errNative })

	env := hostabi.NewEnv()
	defer env.Close()

	var d *hostabi.Deferred
	env.Do(func() {
		out := entry(env, env.NewFrame(env.Undefined()))
		d, _ = hostabi.DeferredOf(out)
		if d == nil {
			t.Fatal("missing promise handle")
		}
		if env.Pending() != nil {
			t.Error("failure must reject the deferred, not throw")
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := d.Await(ctx); !stderrors.Is(err, errNative) {
		t.Errorf("Await err = %v, want the native error", err)
	}
}

func TestBindValidation(t *testing.T) {
	type point struct{ x int32 }

	tests := []struct {
		name     string
		fn       *descriptor.Function
		callable any
	}{
		{
			name:     "not a func",
			fn:       &descriptor.Function{Name: "X"},
			callable: 42,
		},
		{
			name: "arity mismatch",
			fn: &descriptor.Function{
				Name:   "X",
				Params: []descriptor.Param{descriptor.ValueParam{Type: "int32"}},
			},
			callable: func() {},
		},
		{
			name:     "missing error result",
			fn:       &descriptor.Function{Name: "X", Fallible: true},
			callable: func() {},
		},
		{
			name: "env parameter type",
			fn: &descriptor.Function{
				Name:   "X",
				Params: []descriptor.Param{descriptor.EnvParam{}},
			},
			callable: func(x int32) {},
		},
		{
			name: "constructor without return",
			fn: &descriptor.Function{
				Name:  "New",
				Owner: "Point",
				Kind:  descriptor.Constructor,
			},
			callable: func() {},
		},
		{
			name: "async constructor",
			fn: &descriptor.Function{
				Name:   "New",
				Owner:  "Point",
				Kind:   descriptor.Constructor,
				Return: "Point",
				Async:  true,
			},
			callable: func() point { return point{} },
		},
		{
			name: "async factory",
			fn: &descriptor.Function{
				Name:   "Make",
				Owner:  "Point",
				Kind:   descriptor.Factory,
				Return: "*Point",
				Async:  true,
			},
			callable: func() *point { return &point{} },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Function(tt.fn, tt.callable); err == nil {
				t.Error("expected bind error")
			}
		})
	}
}

func TestRegister(t *testing.T) {
	fn := &descriptor.Function{
		Name:       "Version",
		ModulePath: "bindtest",
		Return:     "string",
	}
	if err := Register(fn, func() string { return "v1" }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	rec, ok := hostabi.DefaultRegistry().Lookup("bindtest.Version")
	if !ok {
		t.Fatal("record missing from default registry")
	}

	env := hostabi.NewEnv()
	defer env.Close()
	env.Do(func() {
		out := rec.Entry(env, env.NewFrame(env.Undefined()))
		if s, _ := out.Str(); s != "v1" {
			t.Errorf("entry result = %q", s)
		}
	})
}
