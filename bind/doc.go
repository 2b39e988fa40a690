// Package bind turns descriptors into live entry points without emitting
// source: the same marshalling plan the gen package renders as code is
// interpreted here over reflection. Conversion order, strict validation,
// the factory-delegation guard, and the dispatch table behave identically
// on both paths, so the binding semantics can be exercised in-process.
//
// NativeFunc additionally adapts wasm-exported functions into typed Go
// funcs, letting a wasm module's exports be bound like native callables.
package bind
