package ssa

// Type represents the type of a Value. The set of types supported by this
// compiler is intentionally small: there is no floating point and no
// aggregate (struct/array) type. A closed, small lattice keeps type checking
// and the lowering pipeline simple, and matches what the front
// end's shader-style source language actually needs.
type Type byte

const (
	typeInvalid Type = 1 + iota

	// TypeI32 is a 32-bit integer, used for both signed and unsigned values;
	// the opcode (e.g. Sdiv vs Udiv) determines signedness.
	TypeI32

	// TypeI64 is a 64-bit integer, used for wide intermediate results (e.g.
	// the double-width product of a 32x32 multiply). This module contains no
	// RISC-V 32 lowering for it.
	TypeI64

	// TypeBool is the result type of comparisons and is always either 0 or 1
	// when lowered to an integer register.
	TypeBool
)

// String implements fmt.Stringer.
func (t Type) String() (ret string) {
	switch t {
	case typeInvalid:
		return "invalid"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeBool:
		return "bool"
	default:
		panic(int(t))
	}
}

// IsInt returns true if the type is an integer type (including bool, which is
// represented as a single bit integer in registers).
func (t Type) IsInt() bool {
	return t == TypeI32 || t == TypeI64 || t == TypeBool
}

// Bits returns the number of bits required to represent the type.
func (t Type) Bits() byte {
	switch t {
	case TypeI32, TypeBool:
		return 32
	case TypeI64:
		return 64
	default:
		panic(int(t))
	}
}

// Size returns the number of bytes required to represent the type.
func (t Type) Size() byte {
	return t.Bits() / 8
}

func (t Type) invalid() bool {
	return t == typeInvalid
}

// Valid returns true if this is a concrete, non-placeholder type.
func (t Type) Valid() bool {
	return !t.invalid()
}

// ParseType converts a textual type tag (as it appears in the IR text format)
// into a Type. It returns typeInvalid (Valid() == false) for any unrecognized
// tag.
func ParseType(s string) Type {
	switch s {
	case "i32":
		return TypeI32
	case "i64":
		return TypeI64
	case "bool":
		return TypeBool
	default:
		return typeInvalid
	}
}
