package backend

import (
	"github.com/openshade/rvcc/rv/backend/regalloc"
	"github.com/openshade/rvcc/rv/ssa"
)

type (
	// Machine is the backend for RISC-V 32-bit code generation: it lowers
	// SSA instructions into machine instructions (VCode), runs register
	// allocation over them, and emits the final encoded bytes.
	Machine interface {
		// SetCurrentABI initializes the FunctionABI for the signature about to be compiled.
		SetCurrentABI(abi *FunctionABI[MachineABIRegInfo])

		// StartLoweringFunction resets the machine state for the function about to be lowered.
		StartLoweringFunction(entryBlockID ssa.BasicBlockID)

		// LowerInstr lowers a single non-branch SSA instruction into machine instructions
		// appended to the current block.
		LowerInstr(*ssa.Instruction)

		// LowerJump lowers an OpcodeJump terminator, copying block arguments into the
		// successor's parameter registers before branching.
		LowerJump(*ssa.Instruction)

		// LowerBrif lowers an OpcodeBrif terminator into a RISC-V conditional branch,
		// inserting block-argument moves for whichever target isn't the fallthrough.
		LowerBrif(*ssa.Instruction)

		// InsertMove inserts a register-to-register move of the given type.
		InsertMove(dst, src regalloc.VReg, typ ssa.Type)

		// InsertReturn inserts the epilogue-entry return sequence.
		InsertReturn()

		// Format returns the textual VCode listing of the currently compiled function,
		// used for golden-file testing.
		Format() string

		// RegAlloc runs register allocation over the lowered instructions.
		RegAlloc()

		// PostRegAlloc sets up the prologue and epilogue now that the frame size
		// (spill slots, callee-saved regs) is known, and resolves two-phase moves.
		PostRegAlloc()

		// ResolveRelocations patches call/branch-to-function displacements once
		// every function's final code offset is known.
		ResolveRelocations(funcOffsets map[ssa.FuncRef]int, binary []byte, relocations []RelocationInfo)

		// Encode returns the final encoded machine code.
		Encode() []byte

		// ArgsResultsRegs returns the integer registers used for argument and result passing.
		ArgsResultsRegs() (argInts, resultInts []regalloc.RealReg)
	}

	// RelocationInfo records a single call or branch site whose target displacement
	// must be patched in after all functions have been laid out.
	RelocationInfo struct {
		// Offset is the byte offset of the instruction to patch, within the function body.
		Offset int64
		// FuncRef is the callee being referenced.
		FuncRef ssa.FuncRef
	}

	// MachineABIRegInfo is implemented by a Machine to describe its argument/result
	// register conventions to FunctionABI.
	MachineABIRegInfo interface {
		FunctionABIRegInfo
	}
)
