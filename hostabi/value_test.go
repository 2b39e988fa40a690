package hostabi

import "testing"

func TestValueKinds(t *testing.T) {
	env := NewEnv()
	defer env.Close()

	tests := []struct {
		name string
		v    Value
		kind ValueKind
	}{
		{"null handle", Null(), KindNull},
		{"undefined", env.Undefined(), KindUndefined},
		{"bool", env.Boolean(true), KindBool},
		{"number", env.Number(4.5), KindNumber},
		{"string", env.String("hi"), KindString},
		{"object", env.Object(), KindObject},
		{"instance", env.Instance(&struct{}{}), KindObject},
		{"function", env.Function(func(this Value, args []Value) (Value, error) { return Value{}, nil }), KindFunction},
		{"external", env.External(42), KindExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Kind(); got != tt.kind {
				t.Errorf("Kind() = %v, want %v", got, tt.kind)
			}
		})
	}
}

func TestNullHandle(t *testing.T) {
	if !Null().IsNull() {
		t.Error("zero Value must be the null handle")
	}
	env := NewEnv()
	defer env.Close()
	if env.Undefined().IsNull() {
		t.Error("undefined is not the null handle")
	}
}

func TestMismatchSentinel(t *testing.T) {
	env := NewEnv()
	defer env.Close()

	s := env.MismatchSentinel()
	if s.IsNull() {
		t.Error("sentinel must be non-null so callers can distinguish it from failure")
	}
	if !s.IsMismatchSentinel() {
		t.Error("sentinel must identify itself")
	}
	if env.External("x").IsMismatchSentinel() {
		t.Error("ordinary external mistaken for sentinel")
	}
}

func TestValueReads(t *testing.T) {
	env := NewEnv()
	defer env.Close()

	if b, err := env.Boolean(true).Bool(); err != nil || !b {
		t.Errorf("Bool() = %v, %v", b, err)
	}
	if n, err := env.Number(2.5).Number(); err != nil || n != 2.5 {
		t.Errorf("Number() = %v, %v", n, err)
	}
	if s, err := env.String("abc").Str(); err != nil || s != "abc" {
		t.Errorf("Str() = %v, %v", s, err)
	}
	if _, err := env.String("abc").Number(); err == nil {
		t.Error("expected type mismatch reading string as number")
	}
}

func TestInstanceBorrow(t *testing.T) {
	env := NewEnv()
	defer env.Close()

	type counter struct{ n int }
	native := &counter{n: 7}
	obj := env.Instance(native)

	got, err := obj.Instance()
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	// Recovery borrows: same pointer, no copy, no ownership transfer.
	if got.(*counter) != native {
		t.Error("instance recovery must return the same native pointer")
	}

	// A second recovery sees mutations through the first borrow.
	got.(*counter).n = 9
	again, _ := obj.Instance()
	if again.(*counter).n != 9 {
		t.Error("borrow did not alias native storage")
	}
}

func TestBindInstance(t *testing.T) {
	env := NewEnv()
	defer env.Close()

	obj := env.Object()
	if _, err := obj.Instance(); err == nil {
		t.Error("expected error for unbound instance handle")
	}
	if err := obj.BindInstance(&struct{ x int }{x: 1}); err != nil {
		t.Fatalf("BindInstance: %v", err)
	}
	if _, err := obj.Instance(); err != nil {
		t.Errorf("Instance after bind: %v", err)
	}
	if err := env.Number(1).BindInstance(3); err == nil {
		t.Error("expected error binding instance to a non-object")
	}
}

func TestFunctionCall(t *testing.T) {
	env := NewEnv()
	defer env.Close()

	double := env.Function(func(this Value, args []Value) (Value, error) {
		n, err := args[0].Number()
		if err != nil {
			return Value{}, err
		}
		return env.Number(n * 2), nil
	})

	out, err := double.Call(env.Undefined(), env.Number(21))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if n, _ := out.Number(); n != 42 {
		t.Errorf("result = %v, want 42", n)
	}

	if _, err := env.Number(1).Call(Value{}); err == nil {
		t.Error("expected error calling a non-function")
	}
}
