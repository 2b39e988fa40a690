package gen

import (
	"fmt"

	"github.com/wippyai/hostbind/descriptor"
)

// entryName returns the package-unique identifier for a function's
// generated entry point.
func entryName(fn *descriptor.Function) string {
	if fn.Owner != "" {
		return fmt.Sprintf("__hostbind_%s_%s", fn.Owner, fn.Name)
	}
	return "__hostbind_" + fn.Name
}

// entryDecl emits the entry point: the function the host runtime invokes.
// The marshalling body runs in an inner closure so any error from
// receiver recovery, conversion, or trampoline setup funnels through one
// exit that throws and returns the null handle. Failures never unwind
// past the entry point.
func entryDecl(p *Plan, name string) (entry string, ifaces, holders []string) {

	body := &block{indent: 2}
	if p.Fn.Kind == descriptor.Constructor {
		// Factory-delegated construction: the instance is already being
		// produced elsewhere, so no argument conversion may run.
		body.line("if frame.Construction().FromFactory() {")
		body.in()
		body.line("return hostabi.Null(), nil")
		body.out()
		body.line("}")
	}
	receiverStmts(body, p)
	for _, arg := range p.Args {
		switch param := arg.Param.(type) {
		case descriptor.ValueParam:
			if arg.Source == SourceSlot {
				convertStmts(body, p, arg, param)
			}
		case descriptor.CallbackParam:
			if s := trampolineStmts(body, p, arg, param.Callback, name, len(ifaces)); s != nil {
				ifaces = append(ifaces, s.iface)
				holders = append(holders, s.holder)
			}
		}
	}
	dispatchStmts(body, p)

	b := &block{}
	b.line("func %s(env *hostabi.Env, frame *hostabi.CallFrame) hostabi.Value {", name)
	b.in()
	b.line("out, err := func() (hostabi.Value, error) {")
	b.lines = append(b.lines, body.lines...)
	b.line("}()")
	b.line("if err != nil {")
	b.in()
	b.line("env.Throw(err)")
	b.line("return hostabi.Null()")
	b.out()
	b.line("}")
	b.line("return out")
	b.out()
	b.line("}")
	return b.String(), ifaces, holders
}

// registerDecl emits the load-time registration thunk. Only free functions
// register themselves; owner-scoped functions are registered through their
// owning type's export record.
func registerDecl(p *Plan, name string) string {
	if p.Fn.Owner != "" {
		return ""
	}
	b := &block{}
	b.line("func init() {")
	b.in()
	b.line("hostabi.MustRegister(hostabi.Record{")
	b.in()
	b.line("Export:     %q,", p.Fn.Export())
	b.line("ModulePath: %q,", p.Fn.ModulePath)
	b.line("Entry:      %s,", name)
	b.out()
	b.line("})")
	b.out()
	b.line("}")
	return b.String()
}
