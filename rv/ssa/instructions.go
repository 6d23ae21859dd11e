package ssa

import (
	"fmt"
	"strings"
)

// Opcode represents the operation performed by an Instruction. The set is
// closed and intentionally small: no floating point, no vectors, no
// aggregates (see the package doc for the supported Type lattice).
type Opcode uint32

// Instruction represents an instruction whose opcode is specified by Opcode.
// Since Go doesn't have union type, we use this flattened type for all
// instructions, and therefore each field has different meaning depending on
// Opcode.
type Instruction struct {
	opcode     Opcode
	u1, u2     uint64
	v          Value
	v2         Value
	v3         Value
	vs         []Value
	typ        Type
	blk        BasicBlock
	targets    []BasicBlock
	targetVs   [][]Value
	prev, next *Instruction

	// id is this instruction's position in program order, assigned (and
	// periodically renumbered with spare gaps) by Layout; it gives O(1)
	// program-point comparison without walking the instruction list.
	id int

	rValue  Value
	rValues []Value
	gid     InstructionGroupID
	live    bool
}

// Opcode returns the opcode of this instruction.
func (i *Instruction) Opcode() Opcode {
	return i.opcode
}

// GroupID returns the InstructionGroupID of this instruction.
func (i *Instruction) GroupID() InstructionGroupID {
	return i.gid
}

// reset resets this instruction to the initial state.
func (i *Instruction) reset() {
	*i = Instruction{}
	i.v = ValueInvalid
	i.v2 = ValueInvalid
	i.v3 = ValueInvalid
	i.rValue = ValueInvalid
	i.typ = typeInvalid
	i.vs = nil
}

// InstructionGroupID is assigned to each instruction and represents a group
// of instructions where each instruction is interchangeable with others
// except for the last instruction in the group which has side effects. In
// short, InstructionGroupID is determined by the side effects of
// instructions. That means, if there's an instruction with side effect
// between two instructions, then these two instructions will have different
// InstructionGroupID(s).
//
// The notable application of this is used in lowering SSA-level instruction
// to a ISA specific instruction, where we eagerly try to merge multiple
// instructions into single operation etc. Such merging cannot be done if
// these instruction have different InstructionGroupID since it will change
// the semantics of a program.
type InstructionGroupID uint32

// Returns Value(s) produced by this instruction if any. The `first` is the
// first return value, and `rest` is the rest of the values.
func (i *Instruction) Returns() (first Value, rest []Value) {
	return i.rValue, i.rValues
}

// Return returns a Value(s) produced by this instruction if any. If there's
// multiple return values, only the first one is returned.
func (i *Instruction) Return() (first Value) {
	return i.rValue
}

// Args returns the arguments to this instruction.
func (i *Instruction) Args() (v1, v2, v3 Value, vs []Value) {
	return i.v, i.v2, i.v3, i.vs
}

// Arg returns the first argument to this instruction.
func (i *Instruction) Arg() Value {
	return i.v
}

// Arg2 returns the first two arguments to this instruction.
func (i *Instruction) Arg2() (Value, Value) {
	return i.v, i.v2
}

// Arg3 returns the first three arguments to this instruction.
func (i *Instruction) Arg3() (Value, Value, Value) {
	return i.v, i.v2, i.v3
}

// Next returns the next instruction laid out next to itself.
func (i *Instruction) Next() *Instruction {
	return i.next
}

// Prev returns the previous instruction laid out prior to itself.
func (i *Instruction) Prev() *Instruction {
	return i.prev
}

// IsBranching returns true if this instruction is a branching instruction,
// i.e. it can transfer control to more than one successor (Brif only; Jump
// has a single successor and is handled separately by its callers).
func (i *Instruction) IsBranching() bool {
	return i.opcode == OpcodeBrif
}

const (
	OpcodeInvalid Opcode = iota

	// OpcodeUndefined is a placeholder for undefined opcode. This can be used
	// for debugging to intentionally cause a crash at a certain point.
	OpcodeUndefined

	// --- Terminators ---

	// OpcodeJump always transfers control to the BasicBlock specified by the
	// base.targets[0], with args (vs).
	OpcodeJump

	// OpcodeBrif is THE conditional branch of this IR: one instruction, two
	// targets (true first, then false), each with its own argument list.
	// There is no separate "fallthrough" terminator; both edges are explicit.
	OpcodeBrif

	// OpcodeReturn terminates the function, returning the values in vs,
	// which must match the signature's result types in count and type.
	OpcodeReturn

	// OpcodeHalt terminates the whole program (no caller to return to); used
	// by the top-level entry function of a compiled unit.
	OpcodeHalt

	// OpcodeTrap unconditionally emits a trap (EBREAK) and does not return.
	OpcodeTrap

	// OpcodeTrapz traps if v == 0.
	OpcodeTrapz

	// OpcodeTrapnz traps if v != 0.
	OpcodeTrapnz

	// --- Constants ---

	// OpcodeIconst produces a constant of i32 or i64, per the type
	// annotation on the resulting Value.
	OpcodeIconst

	// --- Integer arithmetic ---

	OpcodeIadd
	OpcodeIsub
	OpcodeImul
	OpcodeSdiv
	OpcodeUdiv
	OpcodeSrem
	OpcodeUrem

	// --- Bitwise / shift ---

	OpcodeBand
	OpcodeBor
	OpcodeBxor
	OpcodeIshl
	OpcodeUshr
	OpcodeSshr

	// --- Comparison ---

	// OpcodeIcmp compares x, y per IntegerCmpCond and produces a TypeBool.
	OpcodeIcmp

	// --- Memory ---

	OpcodeLoad
	OpcodeStore

	// --- Calls ---

	OpcodeCall
	OpcodeCallIndirect

	// OpcodeEcall lowers to a RISC-V ECALL: the syscall number (u1) goes in
	// a7, the argument list (vs) fills a0 upward, and the result (if
	// declared by the signature) comes back from a0.
	OpcodeEcall

	// opcodeEnd marks the end of the opcode space and must be the last
	// entry; [opcodeEnd]T lookup tables are sized against it.
	opcodeEnd
)

// returnTypesFn provides the return type(s) of an instruction with a Builder
// available, since some instructions (e.g. Call) require looking up a
// Signature registered on the Builder.
type returnTypesFn func(b *builder, instr *Instruction) (t1 Type, ts []Type)

func returnTypesFnNoReturns(_ *builder, _ *Instruction) (t1 Type, ts []Type) {
	return typeInvalid, nil
}

func returnTypesFnSingle(_ *builder, instr *Instruction) (t1 Type, ts []Type) {
	return instr.typ, nil
}

func returnTypesFnI32(_ *builder, _ *Instruction) (t1 Type, ts []Type) {
	return TypeI32, nil
}

func returnTypesFnBool(_ *builder, _ *Instruction) (t1 Type, ts []Type) {
	return TypeBool, nil
}

func returnTypesFnCall(b *builder, instr *Instruction) (t1 Type, ts []Type) {
	_, sigID, _ := instr.CallData()
	sig, ok := b.signatures[sigID]
	if !ok {
		panic("BUG: Call instruction references an undeclared Signature: " + sigID.String())
	}
	if len(sig.Results) == 0 {
		return typeInvalid, nil
	}
	return sig.Results[0], sig.Results[1:]
}

func returnTypesFnCallIndirect(b *builder, instr *Instruction) (t1 Type, ts []Type) {
	_, sigID, _ := instr.CallIndirectData()
	sig, ok := b.signatures[sigID]
	if !ok {
		panic("BUG: CallIndirect instruction references an undeclared Signature: " + sigID.String())
	}
	if len(sig.Results) == 0 {
		return typeInvalid, nil
	}
	return sig.Results[0], sig.Results[1:]
}

// instructionReturnTypes is indexed by Opcode and provides the return
// type(s) of the result Value(s) allocated by Builder.InsertInstruction.
// A nil entry means the opcode always produces no result.
var instructionReturnTypes = [opcodeEnd]returnTypesFn{
	OpcodeIconst:       returnTypesFnSingle,
	OpcodeIadd:         returnTypesFnSingle,
	OpcodeIsub:         returnTypesFnSingle,
	OpcodeImul:         returnTypesFnSingle,
	OpcodeSdiv:         returnTypesFnSingle,
	OpcodeUdiv:         returnTypesFnSingle,
	OpcodeSrem:         returnTypesFnSingle,
	OpcodeUrem:         returnTypesFnSingle,
	OpcodeBand:         returnTypesFnSingle,
	OpcodeBor:          returnTypesFnSingle,
	OpcodeBxor:         returnTypesFnSingle,
	OpcodeIshl:         returnTypesFnSingle,
	OpcodeUshr:         returnTypesFnSingle,
	OpcodeSshr:         returnTypesFnSingle,
	OpcodeIcmp:         returnTypesFnBool,
	OpcodeLoad:         returnTypesFnSingle,
	OpcodeCall:         returnTypesFnCall,
	OpcodeCallIndirect: returnTypesFnCallIndirect,
	OpcodeEcall:        returnTypesFnSingle,

	OpcodeStore:  returnTypesFnNoReturns,
	OpcodeJump:   returnTypesFnNoReturns,
	OpcodeBrif:   returnTypesFnNoReturns,
	OpcodeReturn: returnTypesFnNoReturns,
	OpcodeHalt:   returnTypesFnNoReturns,
	OpcodeTrap:   returnTypesFnNoReturns,
	OpcodeTrapz:  returnTypesFnNoReturns,
	OpcodeTrapnz: returnTypesFnNoReturns,
}

var _ = returnTypesFnI32 // reserved for future i32-only opcodes (e.g. address computation)

// sideEffect classifies an opcode's effect for instruction-group
// partitioning (see InstructionGroupID) and trivial dead-instruction
// elision.
type sideEffect byte

const (
	sideEffectUnknown sideEffect = iota
	// sideEffectStrict instructions are always retained and act as a
	// barrier between instruction groups: calls, traps, memory ops, and all
	// terminators.
	sideEffectStrict
	// sideEffectNone instructions may be eliminated if their result is
	// unused.
	sideEffectNone
)

var instructionSideEffects = [opcodeEnd]sideEffect{
	OpcodeUndefined: sideEffectStrict,

	OpcodeJump:   sideEffectStrict,
	OpcodeBrif:   sideEffectStrict,
	OpcodeReturn: sideEffectStrict,
	OpcodeHalt:   sideEffectStrict,
	OpcodeTrap:   sideEffectStrict,
	OpcodeTrapz:  sideEffectStrict,
	OpcodeTrapnz: sideEffectStrict,

	OpcodeLoad:         sideEffectStrict,
	OpcodeStore:        sideEffectStrict,
	OpcodeCall:         sideEffectStrict,
	OpcodeCallIndirect: sideEffectStrict,
	OpcodeEcall:        sideEffectStrict,

	// Division and remainder can trap (divide by zero) on real hardware;
	// treat them as effectful so the verifier/lowering never speculates them.
	OpcodeSdiv: sideEffectStrict,
	OpcodeUdiv: sideEffectStrict,
	OpcodeSrem: sideEffectStrict,
	OpcodeUrem: sideEffectStrict,

	OpcodeIconst: sideEffectNone,
	OpcodeIadd:   sideEffectNone,
	OpcodeIsub:   sideEffectNone,
	OpcodeImul:   sideEffectNone,
	OpcodeBand:   sideEffectNone,
	OpcodeBor:    sideEffectNone,
	OpcodeBxor:   sideEffectNone,
	OpcodeIshl:   sideEffectNone,
	OpcodeUshr:   sideEffectNone,
	OpcodeSshr:   sideEffectNone,
	OpcodeIcmp:   sideEffectNone,
}

// sideEffect returns the side effect of this instruction.
func (i *Instruction) sideEffect() sideEffect {
	if e := instructionSideEffects[i.opcode]; e != sideEffectUnknown {
		return e
	}
	panic(fmt.Sprintf("BUG: unknown side effect for opcode %s", i.opcode))
}

// IntegerCmpCond represents the condition for OpcodeIcmp.
type IntegerCmpCond byte

const (
	IntegerCmpCondEqual IntegerCmpCond = iota
	IntegerCmpCondNotEqual
	IntegerCmpCondSignedLessThan
	IntegerCmpCondSignedGreaterThanOrEqual
	IntegerCmpCondSignedGreaterThan
	IntegerCmpCondSignedLessThanOrEqual
	IntegerCmpCondUnsignedLessThan
	IntegerCmpCondUnsignedGreaterThanOrEqual
	IntegerCmpCondUnsignedGreaterThan
	IntegerCmpCondUnsignedLessThanOrEqual
)

// String implements fmt.Stringer.
func (c IntegerCmpCond) String() string {
	switch c {
	case IntegerCmpCondEqual:
		return "eq"
	case IntegerCmpCondNotEqual:
		return "neq"
	case IntegerCmpCondSignedLessThan:
		return "slt"
	case IntegerCmpCondSignedGreaterThanOrEqual:
		return "sge"
	case IntegerCmpCondSignedGreaterThan:
		return "sgt"
	case IntegerCmpCondSignedLessThanOrEqual:
		return "sle"
	case IntegerCmpCondUnsignedLessThan:
		return "ult"
	case IntegerCmpCondUnsignedGreaterThanOrEqual:
		return "uge"
	case IntegerCmpCondUnsignedGreaterThan:
		return "ugt"
	case IntegerCmpCondUnsignedLessThanOrEqual:
		return "ule"
	default:
		panic(fmt.Sprintf("unknown IntegerCmpCond: %d", c))
	}
}

// Signed returns true if this condition requires a signed comparison.
func (c IntegerCmpCond) Signed() bool {
	switch c {
	case IntegerCmpCondSignedLessThan, IntegerCmpCondSignedGreaterThanOrEqual,
		IntegerCmpCondSignedGreaterThan, IntegerCmpCondSignedLessThanOrEqual:
		return true
	default:
		return false
	}
}

// --- Instruction constructors and data accessors ---
//
// Each AsX method mutates a freshly-allocated *Instruction (see
// builder.AllocateInstruction) into the shape of opcode X, and each XData
// method decodes that shape back into its typed fields. This keeps the
// Instruction struct flat while giving every opcode family a small,
// self-documenting API.

// AsIconst32 initializes this instruction as a 32-bit integer constant.
func (i *Instruction) AsIconst32(v uint32) *Instruction {
	i.opcode = OpcodeIconst
	i.typ = TypeI32
	i.u1 = uint64(v)
	return i
}

// AsIconst64 initializes this instruction as a 64-bit integer constant.
func (i *Instruction) AsIconst64(v uint64) *Instruction {
	i.opcode = OpcodeIconst
	i.typ = TypeI64
	i.u1 = v
	return i
}

// IconstData returns the immediate value and type of an Iconst instruction.
func (i *Instruction) IconstData() (v uint64, typ Type) {
	return i.u1, i.typ
}

func (i *Instruction) asBinary(op Opcode, x, y Value) *Instruction {
	i.opcode = op
	i.v = x
	i.v2 = y
	return i
}

// BinaryData returns the two operands of a binary instruction (arithmetic,
// bitwise, shift, or comparison-adjacent opcode).
func (i *Instruction) BinaryData() (x, y Value) {
	return i.v, i.v2
}

func (i *Instruction) AsIadd(x, y Value) *Instruction { return i.asBinary(OpcodeIadd, x, y) }
func (i *Instruction) AsIsub(x, y Value) *Instruction { return i.asBinary(OpcodeIsub, x, y) }
func (i *Instruction) AsImul(x, y Value) *Instruction { return i.asBinary(OpcodeImul, x, y) }
func (i *Instruction) AsSdiv(x, y Value) *Instruction { return i.asBinary(OpcodeSdiv, x, y) }
func (i *Instruction) AsUdiv(x, y Value) *Instruction { return i.asBinary(OpcodeUdiv, x, y) }
func (i *Instruction) AsSrem(x, y Value) *Instruction { return i.asBinary(OpcodeSrem, x, y) }
func (i *Instruction) AsUrem(x, y Value) *Instruction { return i.asBinary(OpcodeUrem, x, y) }
func (i *Instruction) AsBand(x, y Value) *Instruction { return i.asBinary(OpcodeBand, x, y) }
func (i *Instruction) AsBor(x, y Value) *Instruction  { return i.asBinary(OpcodeBor, x, y) }
func (i *Instruction) AsBxor(x, y Value) *Instruction { return i.asBinary(OpcodeBxor, x, y) }
func (i *Instruction) AsIshl(x, amount Value) *Instruction {
	return i.asBinary(OpcodeIshl, x, amount)
}
func (i *Instruction) AsUshr(x, amount Value) *Instruction {
	return i.asBinary(OpcodeUshr, x, amount)
}
func (i *Instruction) AsSshr(x, amount Value) *Instruction {
	return i.asBinary(OpcodeSshr, x, amount)
}

// AsIcmp initializes this instruction as an integer comparison x `cond` y.
func (i *Instruction) AsIcmp(x, y Value, cond IntegerCmpCond) *Instruction {
	i.opcode = OpcodeIcmp
	i.v = x
	i.v2 = y
	i.u1 = uint64(cond)
	return i
}

// IcmpData returns the operands and condition of an Icmp instruction.
func (i *Instruction) IcmpData() (x, y Value, cond IntegerCmpCond) {
	return i.v, i.v2, IntegerCmpCond(i.u1)
}

// AsLoad initializes this instruction as a load of `typ` from `ptr+offset`.
func (i *Instruction) AsLoad(ptr Value, offset uint32, typ Type) *Instruction {
	i.opcode = OpcodeLoad
	i.v = ptr
	i.u1 = uint64(offset)
	i.typ = typ
	return i
}

// LoadData returns the pointer, offset, and result type of a Load instruction.
func (i *Instruction) LoadData() (ptr Value, offset uint32, typ Type) {
	return i.v, uint32(i.u1), i.typ
}

// AsStore initializes this instruction as a store of `value` to `ptr+offset`.
func (i *Instruction) AsStore(value, ptr Value, offset uint32) *Instruction {
	i.opcode = OpcodeStore
	i.v = value
	i.v2 = ptr
	i.u1 = uint64(offset)
	return i
}

// StoreData returns the value, pointer, and offset of a Store instruction.
func (i *Instruction) StoreData() (value, ptr Value, offset uint32) {
	return i.v, i.v2, uint32(i.u1)
}

// AsReturn initializes this instruction as a function return of vs.
func (i *Instruction) AsReturn(vs []Value) *Instruction {
	i.opcode = OpcodeReturn
	i.vs = vs
	return i
}

// ReturnData returns the values returned by a Return instruction.
func (i *Instruction) ReturnData() (vs []Value) {
	return i.vs
}

// AsHalt initializes this instruction as a program halt.
func (i *Instruction) AsHalt() *Instruction {
	i.opcode = OpcodeHalt
	return i
}

// AsTrap initializes this instruction as an unconditional trap.
func (i *Instruction) AsTrap() *Instruction {
	i.opcode = OpcodeTrap
	return i
}

// AsTrapz initializes this instruction as a trap-if-zero.
func (i *Instruction) AsTrapz(cond Value) *Instruction {
	i.opcode = OpcodeTrapz
	i.v = cond
	return i
}

// AsTrapnz initializes this instruction as a trap-if-nonzero.
func (i *Instruction) AsTrapnz(cond Value) *Instruction {
	i.opcode = OpcodeTrapnz
	i.v = cond
	return i
}

// TrapData returns the condition value of a Trapz/Trapnz instruction.
func (i *Instruction) TrapData() (cond Value) {
	return i.v
}

// AsJump initializes this instruction as an unconditional jump to `target`
// with block arguments `vs`.
func (i *Instruction) AsJump(vs []Value, target BasicBlock) *Instruction {
	i.opcode = OpcodeJump
	i.vs = vs
	i.blk = target
	return i
}

// JumpData returns the arguments and target of a Jump instruction.
func (i *Instruction) JumpData() (vs []Value, target BasicBlock) {
	return i.vs, i.blk
}

// AsFallthroughJump marks this instruction as a fallthrough jump; set once
// LayoutBlocks has placed this Jump's target immediately after it, so
// emission can skip materializing an actual JAL.
func (i *Instruction) AsFallthroughJump() {
	if i.opcode != OpcodeJump {
		panic("BUG: AsFallthroughJump only available for OpcodeJump")
	}
	i.u1 = 1
}

// IsFallthroughJump returns true if this Jump was marked as a fallthrough by
// LayoutBlocks.
func (i *Instruction) IsFallthroughJump() bool {
	return i.opcode == OpcodeJump && i.u1 == 1
}

// AsBrif initializes this instruction as the sole conditional-branch
// terminator: `cond` selects `trueTarget` (with trueArgs) when nonzero, or
// `falseTarget` (with falseArgs) when zero.
//
// Internally the (true, false) pair occupies physical slots targets[0:2];
// InvertBrif may swap those physical slots to improve fallthrough placement
// during LayoutBlocks, tracking which slot is semantically "true" via u2 so
// that BrifData always returns true before false regardless of physical
// order.
func (i *Instruction) AsBrif(cond Value, trueTarget BasicBlock, trueArgs []Value, falseTarget BasicBlock, falseArgs []Value) *Instruction {
	i.opcode = OpcodeBrif
	i.v = cond
	i.u2 = 0
	i.targets = []BasicBlock{trueTarget, falseTarget}
	i.targetVs = [][]Value{trueArgs, falseArgs}
	return i
}

// BrifData returns the condition, and the two (target, args) pairs (true
// first, then false) of a Brif instruction, independent of any physical
// slot swap performed by InvertBrif.
func (i *Instruction) BrifData() (cond Value, trueTarget BasicBlock, trueArgs []Value, falseTarget BasicBlock, falseArgs []Value) {
	trueIdx, falseIdx := i.brifSlots()
	return i.v, i.targets[trueIdx], i.targetVs[trueIdx], i.targets[falseIdx], i.targetVs[falseIdx]
}

// brifSlots returns which of the two physical target slots is currently the
// "true" slot and which is the "false" slot.
func (i *Instruction) brifSlots() (trueIdx, falseIdx int) {
	if i.u2 == 0 {
		return 0, 1
	}
	return 1, 0
}

// InvertBrif swaps the physical true/false target slots of this Brif
// instruction; used by LayoutBlocks to place the more-likely-fallthrough
// successor in the slot immediately following the block in program order.
func (i *Instruction) InvertBrif() {
	if i.opcode != OpcodeBrif {
		panic("BUG: InvertBrif only available for OpcodeBrif")
	}
	i.targets[0], i.targets[1] = i.targets[1], i.targets[0]
	i.targetVs[0], i.targetVs[1] = i.targetVs[1], i.targetVs[0]
	i.u2 ^= 1
}

// branchArgs returns the argument list flowing along the edge occupying
// physical target slot `targetIdx` of this branch instruction (slot 0 for a
// Jump, which has just one target).
func (i *Instruction) branchArgs(targetIdx int) []Value {
	switch i.opcode {
	case OpcodeJump:
		return i.vs
	case OpcodeBrif:
		return i.targetVs[targetIdx]
	default:
		panic("BUG: branchArgs on non-branch instruction: " + i.opcode.String())
	}
}

// setBranchArgs replaces the argument list at physical target slot
// `targetIdx`; see branchArgs.
func (i *Instruction) setBranchArgs(targetIdx int, vs []Value) {
	switch i.opcode {
	case OpcodeJump:
		i.vs = vs
	case OpcodeBrif:
		i.targetVs[targetIdx] = vs
	default:
		panic("BUG: setBranchArgs on non-branch instruction: " + i.opcode.String())
	}
}

// retarget replaces the BasicBlock at physical target slot `targetIdx`,
// used when splitting a critical edge to interpose a trampoline block.
func (i *Instruction) retarget(targetIdx int, target BasicBlock) {
	switch i.opcode {
	case OpcodeJump:
		i.blk = target
	case OpcodeBrif:
		i.targets[targetIdx] = target
	default:
		panic("BUG: retarget on non-branch instruction: " + i.opcode.String())
	}
}

// AsCall initializes this instruction as a direct call to `ref` with
// signature `sig` and arguments `args`.
func (i *Instruction) AsCall(ref FuncRef, sig *Signature, args []Value) *Instruction {
	i.opcode = OpcodeCall
	i.u1 = uint64(ref)
	i.u2 = uint64(sig.ID)
	i.vs = args
	sig.used = true
	return i
}

// CallData returns the callee, signature, and arguments of a Call instruction.
func (i *Instruction) CallData() (ref FuncRef, sigID SignatureID, args []Value) {
	return FuncRef(i.u1), SignatureID(i.u2), i.vs
}

// AsCallIndirect initializes this instruction as an indirect call through
// `funcPtr` with signature `sig` and arguments `args`.
func (i *Instruction) AsCallIndirect(funcPtr Value, sig *Signature, args []Value) *Instruction {
	i.opcode = OpcodeCallIndirect
	i.v = funcPtr
	i.u1 = uint64(sig.ID)
	i.vs = args
	sig.used = true
	return i
}

// CallIndirectData returns the callee pointer, signature, and arguments of a
// CallIndirect instruction.
func (i *Instruction) CallIndirectData() (funcPtr Value, sigID SignatureID, args []Value) {
	return i.v, SignatureID(i.u1), i.vs
}

// AsEcall initializes this instruction as a syscall with the given number
// and argument list. If resultType is Valid, a result Value is allocated to
// receive a0 after the ECALL.
func (i *Instruction) AsEcall(number uint32, args []Value, resultType Type) *Instruction {
	i.opcode = OpcodeEcall
	i.u1 = uint64(number)
	i.vs = args
	i.typ = resultType
	return i
}

// EcallData returns the syscall number, arguments, and result type of an
// Ecall instruction. resultType.Valid() is false if the call declares no
// result.
func (i *Instruction) EcallData() (number uint32, args []Value, resultType Type) {
	return uint32(i.u1), i.vs, i.typ
}

// Format creates a debug string for this instruction using the data stored
// in Builder; this is the IR pretty-printer's per-instruction primitive (see
// Builder.Format for the full function printer).
func (i *Instruction) Format(b Builder) string {
	var instSuffix string
	switch i.opcode {
	case OpcodeIconst:
		switch i.typ {
		case TypeI32:
			instSuffix = fmt.Sprintf("_32 %#x", uint32(i.u1))
		case TypeI64:
			instSuffix = fmt.Sprintf("_64 %#x", i.u1)
		}
	case OpcodeIadd, OpcodeIsub, OpcodeImul, OpcodeSdiv, OpcodeUdiv, OpcodeSrem, OpcodeUrem,
		OpcodeBand, OpcodeBor, OpcodeBxor, OpcodeIshl, OpcodeUshr, OpcodeSshr:
		instSuffix = fmt.Sprintf(" %s, %s", i.v.Format(b), i.v2.Format(b))
	case OpcodeIcmp:
		instSuffix = fmt.Sprintf(" %s, %s, %s", IntegerCmpCond(i.u1), i.v.Format(b), i.v2.Format(b))
	case OpcodeLoad:
		instSuffix = fmt.Sprintf(" %s, %#x", i.v.Format(b), int32(i.u1))
	case OpcodeStore:
		instSuffix = fmt.Sprintf(" %s, %s, %#x", i.v.Format(b), i.v2.Format(b), int32(i.u1))
	case OpcodeCall, OpcodeCallIndirect:
		vs := make([]string, len(i.vs))
		for idx := range vs {
			vs[idx] = i.vs[idx].Format(b)
		}
		if i.opcode == OpcodeCallIndirect {
			instSuffix = fmt.Sprintf(" %s:%s, %s", i.v.Format(b), SignatureID(i.u1), strings.Join(vs, ", "))
		} else {
			instSuffix = fmt.Sprintf(" %s:%s, %s", FuncRef(i.u1), SignatureID(i.u2), strings.Join(vs, ", "))
		}
	case OpcodeEcall:
		vs := make([]string, len(i.vs))
		for idx := range vs {
			vs[idx] = i.vs[idx].Format(b)
		}
		instSuffix = fmt.Sprintf(" %d, %s", i.u1, strings.Join(vs, ", "))
	case OpcodeReturn:
		if len(i.vs) == 0 {
			break
		}
		vs := make([]string, len(i.vs))
		for idx := range vs {
			vs[idx] = i.vs[idx].Format(b)
		}
		instSuffix = fmt.Sprintf(" %s", strings.Join(vs, ", "))
	case OpcodeHalt, OpcodeTrap, OpcodeUndefined:
	case OpcodeTrapz, OpcodeTrapnz:
		instSuffix = " " + i.v.Format(b)
	case OpcodeJump:
		vs := make([]string, len(i.vs)+1)
		if i.IsFallthroughJump() {
			vs[0] = " fallthrough"
		} else {
			vs[0] = " " + i.blk.(*basicBlock).Name()
		}
		for idx := range i.vs {
			vs[idx+1] = i.vs[idx].Format(b)
		}
		instSuffix = strings.Join(vs, ", ")
	case OpcodeBrif:
		cond, trueTarget, trueArgsVs, falseTarget, falseArgsVs := i.BrifData()
		trueArgs := make([]string, len(trueArgsVs))
		for idx := range trueArgs {
			trueArgs[idx] = trueArgsVs[idx].Format(b)
		}
		falseArgs := make([]string, len(falseArgsVs))
		for idx := range falseArgs {
			falseArgs[idx] = falseArgsVs[idx].Format(b)
		}
		instSuffix = fmt.Sprintf(" %s, %s(%s), %s(%s)", cond.Format(b),
			trueTarget.(*basicBlock).Name(), strings.Join(trueArgs, ", "),
			falseTarget.(*basicBlock).Name(), strings.Join(falseArgs, ", "))
	default:
		panic(fmt.Sprintf("TODO: format for %s", i.opcode))
	}

	instr := i.opcode.String() + instSuffix

	var rvs []string
	if rv := i.rValue; rv.Valid() {
		rvs = append(rvs, rv.formatWithType(b))
	}
	for _, v := range i.rValues {
		rvs = append(rvs, v.formatWithType(b))
	}

	if len(rvs) > 0 {
		return fmt.Sprintf("%s = %s", strings.Join(rvs, ", "), instr)
	}
	return instr
}

// addArgumentBranchInst adds an argument to the edge occupying physical
// target slot `targetIdx` of this instruction; used when a block parameter
// is retroactively added to a target block and all existing predecessor
// terminators must grow a matching argument (see the call of
// basicBlock.addParamOn in builder.go).
func (i *Instruction) addArgumentBranchInst(targetIdx int, v Value) {
	switch i.opcode {
	case OpcodeJump:
		i.vs = append(i.vs, v)
	case OpcodeBrif:
		i.targetVs[targetIdx] = append(i.targetVs[targetIdx], v)
	default:
		panic("BUG: addArgumentBranchInst on non-branch instruction: " + i.opcode.String())
	}
}

// String implements fmt.Stringer.
func (o Opcode) String() (ret string) {
	switch o {
	case OpcodeInvalid:
		return "invalid"
	case OpcodeUndefined:
		return "Undefined"
	case OpcodeJump:
		return "Jump"
	case OpcodeBrif:
		return "Brif"
	case OpcodeReturn:
		return "Return"
	case OpcodeHalt:
		return "Halt"
	case OpcodeTrap:
		return "Trap"
	case OpcodeTrapz:
		return "Trapz"
	case OpcodeTrapnz:
		return "Trapnz"
	case OpcodeIconst:
		return "Iconst"
	case OpcodeIadd:
		return "Iadd"
	case OpcodeIsub:
		return "Isub"
	case OpcodeImul:
		return "Imul"
	case OpcodeSdiv:
		return "Sdiv"
	case OpcodeUdiv:
		return "Udiv"
	case OpcodeSrem:
		return "Srem"
	case OpcodeUrem:
		return "Urem"
	case OpcodeBand:
		return "Band"
	case OpcodeBor:
		return "Bor"
	case OpcodeBxor:
		return "Bxor"
	case OpcodeIshl:
		return "Ishl"
	case OpcodeUshr:
		return "Ushr"
	case OpcodeSshr:
		return "Sshr"
	case OpcodeIcmp:
		return "Icmp"
	case OpcodeLoad:
		return "Load"
	case OpcodeStore:
		return "Store"
	case OpcodeCall:
		return "Call"
	case OpcodeCallIndirect:
		return "CallIndirect"
	case OpcodeEcall:
		return "Ecall"
	default:
		panic(fmt.Sprintf("unknown opcode %d", o))
	}
}
