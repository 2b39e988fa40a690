package gen

import (
	"fmt"

	"github.com/wippyai/hostbind/descriptor"
)

// convertStmts emits the statements that bind one slot-consuming value
// parameter to a converted native local. Strict functions probe the slot
// first and return the mismatch sentinel instead of converting; borrowed
// modes recover the native payload without taking ownership.
func convertStmts(b *block, p *Plan, arg Arg, vp descriptor.ValueParam) {
	slot := fmt.Sprintf("frame.Arg(%d)", arg.Slot)

	switch vp.Mode {
	case descriptor.Borrowed:
		b.line("%s, err := hostabi.FromRef[%s](env, %s)", arg.Name(), vp.Type, slot)
		errReturn(b)
	case descriptor.MutBorrowed:
		b.line("%s, err := hostabi.FromMutRef[%s](env, %s)", arg.Name(), vp.Type, slot)
		errReturn(b)
	default:
		if p.Fn.Strict {
			b.line("if s := hostabi.Validate[%s](env, %s); !s.IsNull() {", vp.Type, slot)
			b.in()
			b.line("return s, nil")
			b.out()
			b.line("}")
		}
		b.line("%s, err := hostabi.From[%s](env, %s)", arg.Name(), vp.Type, slot)
		errReturn(b)
	}
}

// callArgs renders the argument expressions for the native call, in
// descriptor order. Slot-free parameters draw from the environment or
// the recovered receiver rather than the call frame.
func callArgs(p *Plan) []string {
	out := make([]string, 0, len(p.Args))
	for _, arg := range p.Args {
		switch arg.Source {
		case SourceEnv:
			out = append(out, "env")
		case SourceOwnerRef:
			out = append(out, "this")
		default:
			out = append(out, arg.Name())
		}
	}
	return out
}
