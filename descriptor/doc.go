// Package descriptor models one native function to bind to the host runtime.
//
// A Function captures everything the generator and the binder need: the
// native and exported names, the dispatch kind (plain, constructor,
// factory), the receiver shape, the ordered parameters, and the return,
// synchronicity, fallibility, and strictness flags.
//
// Parameters form a closed sum:
//
//	ValueParam    - converted from a call-frame slot (owned or borrowed)
//	CallbackParam - a higher-order parameter bridged by a trampoline
//	EnvParam      - injected from the environment, consumes no slot
//
// A ValueParam typed RefOf(owner) is an owner reference: it reuses the
// call's recovered instance and, like EnvParam, consumes no call-frame
// slot. Slot indices count slot-consuming parameters only.
//
// Descriptors are produced by an external annotation parser; the TOML
// manifest loader in this package is the serialized form of that contract.
// They are immutable after Validate and carry no runtime lifetime.
package descriptor
