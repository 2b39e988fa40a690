// Package hostbind generates the glue that lets a dynamically-typed host
// runtime call native Go functions: ABI entry points, per-argument
// conversions, callback trampolines, and export registration records.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	hostbind/
//	├── descriptor/      Function descriptors and the TOML manifest loader
//	├── gen/             Marshalling planner and binding source generator
//	├── bind/            In-process binder interpreting the same plans,
//	│                    plus wazero adapters for wasm-exported functions
//	├── hostabi/         Host runtime contract: Env, Value handles, call
//	│                    frames, conversions, promises, export registry
//	├── errors/          Structured error types for debugging
//	└── cmd/bindgen/     CLI for listing, previewing and emitting bindings
//
// # Quick Start
//
// Generate binding source from a descriptor:
//
//	fns, err := descriptor.LoadFile("bindings.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	units, err := gen.NewGenerator("bindings").GenerateAll(fns)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("add_binding.go", units[0].Source, 0o644)
//
// Or bind directly in-process:
//
//	entry, err := bind.Function(fns[0], func(a, b int32) (int32, error) {
//	    return a + b, nil
//	})
//
//	env := hostabi.NewEnv()
//	defer env.Close()
//	env.Do(func() {
//	    out := entry(env, env.NewFrame(env.Undefined(), env.Number(2), env.Number(3)))
//	    n, _ := out.Number()
//	    fmt.Println(n) // 5
//	})
//
// # Call Shapes
//
// Descriptors cover the full combinatorial space of call shapes: plain
// functions, methods with shared or exclusive receivers, constructors and
// factories, synchronous and asynchronous invocation, fallible and
// infallible returns, strict overload-style validation, and pure or
// holder-wrapped callback parameters. The dispatch behavior is identical
// between generated source and the in-process binder because both consume
// the same marshalling plan.
package hostbind
