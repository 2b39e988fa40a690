package gen

import (
	"fmt"

	"github.com/wippyai/hostbind/descriptor"
	"github.com/wippyai/hostbind/errors"
)

// Source says where a call argument comes from.
type Source int

const (
	// SourceSlot reads the next call-frame slot.
	SourceSlot Source = iota
	// SourceEnv injects a handle to the running environment.
	SourceEnv
	// SourceOwnerRef reuses the call's recovered instance.
	SourceOwnerRef
)

func (s Source) String() string {
	switch s {
	case SourceSlot:
		return "slot"
	case SourceEnv:
		return "env"
	case SourceOwnerRef:
		return "owner-ref"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Arg is one planned call argument.
type Arg struct {
	Param  descriptor.Param
	Source Source
	// Slot is the call-frame slot index, counted over slot-consuming
	// parameters only. -1 for slot-free arguments.
	Slot int
	// Index is the parameter's position in the descriptor.
	Index int
}

// Name returns the local binding for a slot-consuming argument.
func (a Arg) Name() string {
	return fmt.Sprintf("arg%d", a.Slot)
}

// Plan is the marshalling plan for one function: the ordered argument
// sources shared by the source emitter and the in-process binder.
type Plan struct {
	Fn        *descriptor.Function
	Args      []Arg
	SlotCount int
	// ZeroArg marks the fast path: a plain free function with no
	// parameters skips marshalling entirely and calls directly.
	ZeroArg bool
}

// NewPlan validates the descriptor and walks its parameters in order,
// assigning call-frame slots. Environment and owner-reference parameters
// consume no slot; everything else takes the next slot in encounter order
// regardless of how many slot-free parameters preceded it.
func NewPlan(fn *descriptor.Function) (*Plan, error) {
	if err := fn.Validate(); err != nil {
		return nil, err
	}

	p := &Plan{Fn: fn}
	slot := 0
	for i, param := range fn.Params {
		arg := Arg{Param: param, Index: i, Slot: -1}
		switch param := param.(type) {
		case descriptor.EnvParam:
			arg.Source = SourceEnv
		case descriptor.ValueParam:
			if fn.IsOwnerRef(param) {
				arg.Source = SourceOwnerRef
			} else {
				arg.Source = SourceSlot
				arg.Slot = slot
				slot++
			}
		case descriptor.CallbackParam:
			arg.Source = SourceSlot
			arg.Slot = slot
			slot++
		default:
			return nil, errors.Unsupported(errors.PhasePlan, fmt.Sprintf("parameter kind %T", param))
		}
		p.Args = append(p.Args, arg)
	}
	p.SlotCount = slot
	p.ZeroArg = len(fn.Params) == 0 &&
		fn.Receiver == descriptor.ReceiverNone &&
		fn.Kind == descriptor.Plain

	return p, nil
}

// NeedsReceiver reports whether the plan recovers an instance from the
// call frame before converting arguments.
func (p *Plan) NeedsReceiver() bool {
	return p.Fn.Receiver != descriptor.ReceiverNone
}

// ReceiverMutable reports whether the recovered instance is an exclusive
// borrow.
func (p *Plan) ReceiverMutable() bool {
	return p.Fn.Receiver == descriptor.ReceiverMutBorrowed
}
