// Package errors provides structured error types for the binding layer.
//
// Errors carry a Phase (where in processing the failure occurred) and a
// Kind (what went wrong), plus optional type names, a value path, and a
// wrapped cause:
//
//	[convert] conversion at greet.arg0: Go type int32, host type string
//	[register] registration: register "add" (caused by: ...)
//
// The three failure categories of the ABI boundary map onto kinds:
//
//	KindConversion     - a call-frame value could not become the native type
//	KindHostInvocation - calling back into the host runtime failed
//	KindNative         - the wrapped native function itself returned failure
//
// A strict-mode validation mismatch is deliberately NOT an error kind: it
// signals "this overload does not apply" and travels as a sentinel value
// handle, never through the error path.
//
// Match errors by category with errors.Is against a prototype:
//
//	if stderrors.Is(err, &errors.Error{Phase: errors.PhaseConvert, Kind: errors.KindConversion}) {
//		...
//	}
package errors
