package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDescribe Phase = "describe" // descriptor validation
	PhasePlan     Phase = "plan"     // marshalling plan construction
	PhaseEmit     Phase = "emit"     // source emission
	PhaseConvert  Phase = "convert"  // value conversion at the ABI boundary
	PhaseInvoke   Phase = "invoke"   // host-runtime invocation (callbacks)
	PhaseDispatch Phase = "dispatch" // call dispatch and return assembly
	PhaseRegister Phase = "register" // export table registration
	PhaseRuntime  Phase = "runtime"  // host environment operations
)

// Kind categorizes the error
type Kind string

const (
	KindConversion     Kind = "conversion"      // value could not be converted
	KindHostInvocation Kind = "host_invocation" // calling into the host runtime failed
	KindNative         Kind = "native"          // the wrapped native function returned failure
	KindTypeMismatch   Kind = "type_mismatch"
	KindInvalidInput   Kind = "invalid_input"
	KindUnsupported    Kind = "unsupported"
	KindNilPointer     Kind = "nil_pointer"
	KindNotFound       Kind = "not_found"
	KindRegistration   Kind = "registration"
	KindWrongThread    Kind = "wrong_thread"
	KindThrown         Kind = "thrown" // pending host exception
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	HostType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.HostType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.HostType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", host type ")
			b.WriteString(e.HostType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.HostType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// HostType sets the host value type name
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Conversion creates a conversion failure for a call-frame slot
func Conversion(path []string, goType, hostType string) *Error {
	return &Error{
		Phase:    PhaseConvert,
		Kind:     KindConversion,
		Path:     path,
		GoType:   goType,
		HostType: hostType,
	}
}

// HostInvocation creates a host invocation failure
func HostInvocation(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindHostInvocation,
		Detail: what,
		Cause:  cause,
	}
}

// Native wraps a failure returned by the bound native function
func Native(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindNative,
		Detail: name,
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Registration creates a registration error
func Registration(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %q", name),
		Cause:  cause,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, hostType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		HostType: hostType,
	}
}

// WrongThread reports a handle touched off the runtime loop
func WrongThread(what string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindWrongThread,
		Detail: fmt.Sprintf("%s used off the runtime thread", what),
	}
}

// Thrown wraps a pending host exception
func Thrown(cause error) *Error {
	return &Error{
		Phase: PhaseRuntime,
		Kind:  KindThrown,
		Cause: cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
