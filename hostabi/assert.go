package hostabi

import "github.com/wippyai/hostbind/errors"

// DebugChecks gates diagnostics that are too costly or too noisy for
// production: the callback-kind assertions the generator emits for
// non-strict functions (strict functions assert unconditionally) and the
// thread-affinity check on conversions, which reports handles converted
// off the runtime loop. These checks are diagnostics, not correctness
// gates.
var DebugChecks = false

// AssertKind verifies a handle's kind.
func AssertKind(v Value, k ValueKind) error {
	if v.Kind() != k {
		return errors.TypeMismatch(errors.PhaseConvert, nil, k.String(), v.Kind().String())
	}
	return nil
}

// MustRegister inserts a record into the default export table, panicking
// on a malformed record. Generated load-time registration thunks use it;
// a failure there is a generator bug, not a runtime condition.
func MustRegister(rec Record) {
	if err := DefaultRegistry().Register(rec); err != nil {
		panic(err)
	}
}
