package ssa

import (
	"fmt"
	"strings"
)

// SignatureID is a unique identifier for a Signature within a Module.
type SignatureID uint32

// String implements fmt.Stringer.
func (s SignatureID) String() string {
	return fmt.Sprintf("sig%d", s)
}

// FuncRef is a module-unique identifier of a function, used by direct Call
// instructions. It is resolved to a symbol name and ultimately a Relocation
// at emission time (see backend.RelocationInfo).
type FuncRef uint32

// String implements fmt.Stringer.
func (r FuncRef) String() string {
	return fmt.Sprintf("f%d", r)
}

// Signature is the calling contract of a Function: its ordered parameter
// types and ordered return types. A Signature is immutable once constructed;
// functions sharing the same shape may share a *Signature.
type Signature struct {
	// ID identifies this Signature among all Signatures referenced by a
	// Module, e.g. via OpcodeCall / OpcodeCallIndirect.
	ID SignatureID

	// Name is an optional human-readable label used by the text IR printer
	// and by direct-call relocations (it is the symbol name emitted for
	// FunctionCall relocations).
	Name string

	// Params is the ordered list of parameter types.
	Params []Type

	// Results is the ordered list of return types.
	Results []Type

	// used records whether this Signature is referenced by any instruction
	// in the function currently being built; only referenced signatures are
	// returned by Builder.UsedSignatures.
	used bool
}

// String implements fmt.Stringer, used by the IR text format and debug dumps.
func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> ")
	for i, r := range s.Results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.String())
	}
	return b.String()
}

// NeedsReturnArea reports whether the Signature has more results than fit in
// the ABI's return registers (a0-a1), i.e. more than two. Nothing in this
// module calls it: backend.FunctionABI.Init gives results beyond the return
// registers stack slots and prepends no return-area pointer to Params.
func (s *Signature) NeedsReturnArea() bool {
	return len(s.Results) > 2
}
