package descriptor

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		fn      *Function
		wantErr bool
	}{
		{
			name: "plain function",
			fn:   &Function{Name: "Add", Return: "int32", Params: []Param{ValueParam{Type: "int32"}, ValueParam{Type: "int32"}}},
		},
		{
			name:    "empty name",
			fn:      &Function{},
			wantErr: true,
		},
		{
			name:    "receiver without owner",
			fn:      &Function{Name: "Get", Receiver: ReceiverBorrowed},
			wantErr: true,
		},
		{
			name: "method",
			fn:   &Function{Name: "Get", Receiver: ReceiverBorrowed, Owner: "Counter", Return: "int64"},
		},
		{
			name:    "constructor without owner",
			fn:      &Function{Name: "New", Kind: Constructor},
			wantErr: true,
		},
		{
			name: "constructor",
			fn:   &Function{Name: "New", Kind: Constructor, Owner: "Counter", Return: "Counter"},
		},
		{
			name:    "constructor without return",
			fn:      &Function{Name: "New", Kind: Constructor, Owner: "Counter"},
			wantErr: true,
		},
		{
			name:    "factory without return",
			fn:      &Function{Name: "Make", Kind: Factory, Owner: "Counter"},
			wantErr: true,
		},
		{
			name:    "async constructor",
			fn:      &Function{Name: "New", Kind: Constructor, Owner: "Counter", Return: "Counter", Async: true},
			wantErr: true,
		},
		{
			name:    "async factory",
			fn:      &Function{Name: "Make", Kind: Factory, Owner: "Counter", Return: "*Counter", Async: true},
			wantErr: true,
		},
		{
			name:    "self return without receiver",
			fn:      &Function{Name: "Chain", Return: "Self"},
			wantErr: true,
		},
		{
			name: "self return on method",
			fn:   &Function{Name: "Chain", Receiver: ReceiverMutBorrowed, Owner: "Builder", Return: "Self"},
		},
		{
			name:    "untyped value parameter",
			fn:      &Function{Name: "F", Params: []Param{ValueParam{}}},
			wantErr: true,
		},
		{
			name:    "owner ref without receiver",
			fn:      &Function{Name: "F", Owner: "Counter", Kind: Factory, Return: "Counter", Params: []Param{ValueParam{Type: RefOf("Counter")}}},
			wantErr: true,
		},
		{
			name:    "non-pure callback without binding name",
			fn:      &Function{Name: "F", Params: []Param{CallbackParam{Callback: Callback{Inputs: []string{"int32"}}}}},
			wantErr: true,
		},
		{
			name: "non-pure callback with binding name",
			fn:   &Function{Name: "F", Params: []Param{CallbackParam{Callback: Callback{Inputs: []string{"int32"}, BindingName: "F"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlotCount(t *testing.T) {
	fn := &Function{
		Name:     "Tick",
		Receiver: ReceiverBorrowed,
		Owner:    "Counter",
		Params: []Param{
			EnvParam{},
			ValueParam{Type: "int32"},
			ValueParam{Type: RefOf("Counter")},
			ValueParam{Type: "int32"},
		},
	}
	if got := fn.SlotCount(); got != 2 {
		t.Errorf("SlotCount() = %d, want 2", got)
	}
}

func TestExportFallsBackToName(t *testing.T) {
	fn := &Function{Name: "Add"}
	if got := fn.Export(); got != "Add" {
		t.Errorf("Export() = %q, want %q", got, "Add")
	}

	fn.ExportedName = "add"
	if got := fn.Export(); got != "add" {
		t.Errorf("Export() = %q, want %q", got, "add")
	}

	fn.ModulePath = "math"
	if got := fn.QualifiedExport(); got != "math.add" {
		t.Errorf("QualifiedExport() = %q, want %q", got, "math.add")
	}
}

func TestReturnsSelf(t *testing.T) {
	fn := &Function{Name: "Chain", Receiver: ReceiverMutBorrowed, Owner: "Builder", Return: "Self"}
	if !fn.ReturnsSelf() {
		t.Error("expected ReturnsSelf for Self return")
	}
	fn.Return = "int32"
	if fn.ReturnsSelf() {
		t.Error("unexpected ReturnsSelf for int32 return")
	}
}

func TestCallbackSignature(t *testing.T) {
	tests := []struct {
		name string
		cb   Callback
		want string
	}{
		{
			name: "with return",
			cb:   Callback{Inputs: []string{"int32", "string"}, Return: "string"},
			want: "func(int32, string) (string, error)",
		},
		{
			name: "no return",
			cb:   Callback{Inputs: []string{"float64"}},
			want: "func(float64) error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cb.Signature(); got != tt.want {
				t.Errorf("Signature() = %q, want %q", got, tt.want)
			}
		})
	}
}
