package gen

import (
	"strings"

	"github.com/wippyai/hostbind/descriptor"
)

// dispatchStmts emits the native call and return assembly. The inner
// closure returns (hostabi.Value, error): a returned error becomes a
// pending exception in the entry wrapper, while native failures of
// fallible functions are thrown here and reported as a successful null
// result, so dispatch failures and conversion failures stay distinct.
func dispatchStmts(b *block, p *Plan) {
	call := callableExpr(p.Fn) + "(" + strings.Join(callArgs(p), ", ") + ")"

	if p.Fn.Async {
		asyncStmts(b, p, call)
		return
	}

	switch p.Fn.Kind {
	case descriptor.Constructor:
		instanceStmts(b, p, call, true)
	case descriptor.Factory:
		instanceStmts(b, p, call, false)
	default:
		plainStmts(b, p, call)
	}
}

func plainStmts(b *block, p *Plan, call string) {
	fn := p.Fn
	switch {
	case fn.ReturnsSelf():
		if fn.Fallible {
			b.line("if _, err := %s; err != nil {", call)
			b.in()
			throwNative(b, fn)
			b.out()
			b.line("}")
		} else {
			b.line("_ = %s", call)
		}
		b.line("return frame.This(), nil")

	case fn.Return == "":
		if fn.Fallible {
			b.line("if err := %s; err != nil {", call)
			b.in()
			throwNative(b, fn)
			b.out()
			b.line("}")
		} else {
			b.line("%s", call)
		}
		b.line("return hostabi.Unit(env)")

	default:
		if fn.Fallible {
			b.line("_ret, err := %s", call)
			b.line("if err != nil {")
			b.in()
			throwNative(b, fn)
			b.out()
			b.line("}")
		} else {
			b.line("_ret := %s", call)
		}
		b.line("return hostabi.ToValue(env, _ret)")
	}
}

// instanceStmts emits constructor and factory returns. A constructor binds
// the produced value to the call's receiver object and hands that handle
// back; a factory wraps the value in a fresh instance object.
func instanceStmts(b *block, p *Plan, call string, bindThis bool) {
	fn := p.Fn
	if fn.Fallible {
		b.line("_ret, err := %s", call)
		b.line("if err != nil {")
		b.in()
		throwNative(b, fn)
		b.out()
		b.line("}")
	} else {
		b.line("_ret := %s", call)
	}

	ref := "&_ret"
	if strings.HasPrefix(fn.Return, "*") {
		ref = "_ret"
	}
	if bindThis {
		b.line("if err := frame.This().BindInstance(%s); err != nil {", ref)
		b.in()
		b.line("return hostabi.Null(), err")
		b.out()
		b.line("}")
		b.line("return frame.This(), nil")
		return
	}
	b.line("return env.Instance(%s), nil", ref)
}

// throwNative emits the fallible-path failure handling: record the native
// error as a pending exception and report a null handle as the call's
// result, not as an entry failure.
func throwNative(b *block, fn *descriptor.Function) {
	b.line("env.ThrowNative(%q, err)", fn.Export())
	b.line("return hostabi.Null(), nil")
}

// asyncStmts emits promise-returning dispatch. The task runs on a worker
// goroutine; completion converts the result and settles the deferred on
// the runtime loop. Nothing on this path throws synchronously.
func asyncStmts(b *block, p *Plan, call string) {
	fn := p.Fn
	b.line("return env.ExecuteAsync(func() (any, error) {")
	b.in()
	switch {
	case fn.Fallible && fn.Return != "":
		b.line("return %s", call)
	case fn.Fallible:
		b.line("return nil, %s", call)
	case fn.Return != "":
		b.line("return %s, nil", call)
	default:
		b.line("%s", call)
		b.line("return nil, nil")
	}
	b.out()
	b.line("}, func(d *hostabi.Deferred, v any, err error) {")
	b.in()
	b.line("if err != nil {")
	b.in()
	b.line("d.Reject(err)")
	b.line("return")
	b.out()
	b.line("}")
	b.line("out, err := hostabi.ToValue(env, v)")
	b.line("if err != nil {")
	b.in()
	b.line("d.Reject(err)")
	b.line("return")
	b.out()
	b.line("}")
	b.line("d.Resolve(out)")
	b.out()
	b.line("}), nil")
}
