package gen

import "github.com/wippyai/hostbind/descriptor"

// callableExpr renders the expression for the underlying native callable.
// Methods dispatch through the recovered receiver. Owner-scoped functions
// without a receiver (constructors, factories, associated functions) use
// the OwnerName concatenation convention, since Go has no type-associated
// functions outside method sets.
func callableExpr(fn *descriptor.Function) string {
	switch fn.Receiver {
	case descriptor.ReceiverBorrowed, descriptor.ReceiverMutBorrowed:
		return "this." + fn.Name
	}
	if fn.Owner != "" {
		return fn.Owner + fn.Name
	}
	return fn.Name
}

// receiverStmts emits instance recovery from the call frame's receiver
// binding. The borrow is non-owning: the instance stays owned by its
// handle and the pointer is only valid for the duration of the call.
func receiverStmts(b *block, p *Plan) {
	if !p.NeedsReceiver() {
		return
	}
	conv := "FromRef"
	if p.ReceiverMutable() {
		conv = "FromMutRef"
	}
	b.line("this, err := hostabi.%s[%s](env, frame.This())", conv, p.Fn.Owner)
	errReturn(b)
}
