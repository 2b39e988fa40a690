// Package hostabi defines the host runtime contract generated and bound
// code runs against.
//
// # ABI
//
// A bound native function is exposed through an EntryPoint:
//
//	func(env *Env, frame *CallFrame) Value
//
// The entry point never unwinds: failures become a pending host exception
// (Env.Throw) plus a null handle. The call frame exposes positional
// arguments, the receiver binding, and the construction context.
//
// # Thread model
//
// Value handles and call frames are confined to the environment's runtime
// loop goroutine. Asynchronous native tasks run on worker goroutines via
// Env.Execute / Env.ExecuteAsync; their completions are scheduled back
// onto the loop and run exactly once, so every conversion still happens on
// the loop. The loop never blocks between dispatch and completion.
//
// # Conversions
//
// The generator decides which conversion entry point to emit; this package
// supplies them:
//
//	From[T]       - owned, value-producing
//	FromRef[T]    - borrowed, reference-producing
//	FromMutRef[T] - mutably borrowed, requires native-backed storage
//	Validate[T]   - strict pre-check; mismatch yields a non-null sentinel
//	To[T]/ToValue - outward conversion for returns and callback arguments
//
// Types may define their own conversions via ValueUnmarshaler and
// ValueMarshaler.
//
// # Registration
//
// Generated registration thunks insert (export name, entry point) records
// into the process-wide DefaultRegistry at load time; ModuleInit turns the
// records into host function values when the hosting module initializes.
package hostabi
