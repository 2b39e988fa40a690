// Package gen turns function descriptors into binding source code.
//
// Each descriptor becomes one Unit: a generated Go file containing the
// entry point the host runtime calls, per-argument conversion statements,
// callback trampolines, and a load-time registration thunk for free
// functions.
//
//	descriptor.Function
//	        |
//	     NewPlan            argument sources and slot numbering
//	        |
//	    entryDecl           receiver recovery, conversions, trampolines,
//	        |               dispatch and return assembly
//	     assemble           parse, splice synthesized interfaces into the
//	        |               entry body, print, format
//	      Unit
//
// The same Plan drives the bind package's in-process binder, so the
// emitted source and the reflective path share one marshalling order.
//
// Generated code depends only on the hostabi package. Non-pure callback
// parameters synthesize two declarations: an invocation interface placed
// at the head of the entry function's body, and a generic holder type at
// the top level of the unit carrying the Call method, since Go permits no
// method declarations inside a function body.
package gen
