package gen

import (
	"fmt"
	"strings"

	"github.com/wippyai/hostbind/descriptor"
)

// synth collects the declarations synthesized for non-pure callbacks: an
// invocation interface spliced into the entry function's body, and a
// generic holder emitted at the top level of the unit. Go does not allow
// method declarations inside a function body, so the holder that carries
// the Call method lives outside while the interface that names the
// contract stays local to the entry point.
type synth struct {
	iface  string
	holder string
}

// trampolineStmts emits the statements binding one callback slot to a
// native invocable. The trampoline converts native arguments to handles,
// invokes the host function value with the frame's receiver binding, and
// converts the result back. k numbers the callback within its function.
func trampolineStmts(b *block, p *Plan, arg Arg, cb descriptor.Callback, entry string, k int) *synth {
	slot := fmt.Sprintf("frame.Arg(%d)", arg.Slot)

	assertStmts(b, p, slot)

	var s *synth
	if cb.Pure {
		b.line("%s := %s {", arg.Name(), closureHead(cb))
	} else {
		s = synthDecls(cb, entry, k)
		b.line("%s := %s[%s]{", arg.Name(), holderName(entry, k), cb.Signature())
		b.in()
		b.line("Inner: %s {", closureHead(cb))
	}
	b.in()
	closureBody(b, cb, slot)
	b.out()
	if cb.Pure {
		b.line("}")
	} else {
		b.line("},")
		b.out()
		b.line("}")
		b.line("var _ %s = %s", ifaceName(k), arg.Name())
	}
	return s
}

// assertStmts emits the callback-slot kind check. Strict functions assert
// unconditionally; otherwise the check is gated behind the debug flag.
func assertStmts(b *block, p *Plan, slot string) {
	if !p.Fn.Strict {
		b.line("if hostabi.DebugChecks {")
		b.in()
	}
	b.line("if err := hostabi.AssertKind(%s, hostabi.KindFunction); err != nil {", slot)
	b.in()
	b.line("return hostabi.Null(), err")
	b.out()
	b.line("}")
	if !p.Fn.Strict {
		b.out()
		b.line("}")
	}
}

func closureHead(cb descriptor.Callback) string {
	params := make([]string, len(cb.Inputs))
	for i, t := range cb.Inputs {
		params[i] = fmt.Sprintf("cbArg%d %s", i, t)
	}
	return fmt.Sprintf("func(%s) %s", strings.Join(params, ", "), resultSig(cb))
}

func resultSig(cb descriptor.Callback) string {
	if cb.Return == "" {
		return "error"
	}
	return fmt.Sprintf("(%s, error)", cb.Return)
}

func closureBody(b *block, cb descriptor.Callback, slot string) {
	errRet := "err"
	if cb.Return != "" {
		b.line("var ret %s", cb.Return)
		errRet = "ret, err"
	}

	vals := make([]string, len(cb.Inputs))
	for i := range cb.Inputs {
		vals[i] = fmt.Sprintf("cbVal%d", i)
		b.line("cbVal%d, err := hostabi.ToValue(env, cbArg%d)", i, i)
		b.line("if err != nil {")
		b.in()
		b.line("return %s", errRet)
		b.out()
		b.line("}")
	}

	call := fmt.Sprintf("%s.Call(frame.This()%s)", slot, joinArgs(vals))
	if cb.Return == "" {
		b.line("if _, err := %s; err != nil {", call)
		b.in()
		b.line("return err")
		b.out()
		b.line("}")
		b.line("return nil")
		return
	}
	b.line("out, err := %s", call)
	b.line("if err != nil {")
	b.in()
	b.line("return ret, err")
	b.out()
	b.line("}")
	b.line("return hostabi.From[%s](env, out)", cb.Return)
}

func joinArgs(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return ", " + strings.Join(vals, ", ")
}

func ifaceName(k int) string {
	return fmt.Sprintf("funcCall%d", k)
}

func holderName(entry string, k int) string {
	return fmt.Sprintf("%s_FunctionCall%d", entry, k)
}

// synthDecls builds the interface and holder for a non-pure callback. The
// interface goes to the entry body head; the holder and its Call method
// are package-level declarations named after the entry point so distinct
// units never collide.
func synthDecls(cb descriptor.Callback, entry string, k int) *synth {
	params := make([]string, len(cb.Inputs))
	for i, t := range cb.Inputs {
		params[i] = fmt.Sprintf("arg%d %s", i, t)
	}
	sig := fmt.Sprintf("Call(%s) %s", strings.Join(params, ", "), resultSig(cb))

	var iface strings.Builder
	fmt.Fprintf(&iface, "type %s interface {\n", ifaceName(k))
	fmt.Fprintf(&iface, "\t%s\n", sig)
	iface.WriteString("}")

	fwd := make([]string, len(cb.Inputs))
	for i := range cb.Inputs {
		fwd[i] = fmt.Sprintf("arg%d", i)
	}
	binding := cb.BindingName

	var holder strings.Builder
	fmt.Fprintf(&holder, "type %s[%s %s] struct {\n", holderName(entry, k), binding, cb.Signature())
	fmt.Fprintf(&holder, "\tInner %s\n", binding)
	holder.WriteString("}\n\n")
	fmt.Fprintf(&holder, "func (h %s[%s]) %s {\n", holderName(entry, k), binding, sig)
	fmt.Fprintf(&holder, "\treturn h.Inner(%s)\n", strings.Join(fwd, ", "))
	holder.WriteString("}")

	return &synth{iface: iface.String(), holder: holder.String()}
}
