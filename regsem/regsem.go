// Package regsem defines the contract the translation core requires of an
// externally owned register-semantics collaborator: how the architectural
// register file is laid out, aliased, sub-register inserted/extracted, and
// saved/restored at call boundaries. This package never implements a real
// target's register file — see the flatfile subpackage for the one
// reference implementation the tests and demo target use.
package regsem

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/liftgo/dagger/mc"
)

// Semantics is the RSI contract (spec §4.5). A Semantics value is a
// non-owning back-reference: its lifetime outlives any single function
// translation, and the core never synchronizes access to it — concurrent
// callers must serialize or partition it themselves.
type Semantics interface {
	// SwitchToInst is called once per decoded instruction, before any of
	// its semantics are interpreted.
	SwitchToInst(inst *mc.Instruction)
	// SwitchToBB is called once an IR basic block has been opened for
	// insertion, before its first instruction is translated. irBlock is
	// the now-current insertion point RSI should emit register
	// loads/stores into until the next SwitchToBB/FinalizeBB.
	SwitchToBB(bb *mc.BasicBlock, irBlock *ir.Block)
	// FinalizeBB is called once an IR basic block has received its
	// terminator.
	FinalizeBB()
	// FinalizeFunction is called once per translated function, after all
	// basic blocks and call-block post-processing are complete.
	FinalizeFunction(exit *ir.Block)

	// GetReg returns the current IR value of the given register, typed as
	// that register's own IR type (not necessarily an integer — e.g. a
	// vector register may read back as a vector).
	GetReg(regNo uint32) value.Value
	// SetReg writes v, which must already be of GetRegType(regNo), into
	// the given register.
	SetReg(regNo uint32, v value.Value)
	// GetRegAsInt returns the register's current value coerced to its
	// integer type (GetRegIntType), for sub-register read paths.
	GetRegAsInt(regNo uint32) value.Value
	// InsertBitsInValue inserts narrow (which may be narrower than whole)
	// into whole's low bits, returning the combined integer — used to
	// implement a sub-register write that must preserve the untouched
	// high bits of a wider physical register.
	InsertBitsInValue(whole, narrow value.Value) value.Value

	// GetRegIntType returns the integer type a register's contents are
	// coerced to/from at sub-register boundaries.
	GetRegIntType(regNo uint32) types.Type
	// GetRegType returns a register's natural IR type.
	GetRegType(regNo uint32) types.Type
	// GetRegSetType returns the opaque register-set struct type that is
	// the sole parameter of every translated function.
	GetRegSetType() types.Type

	// GetOrCreateRegSetDiffFunction returns (declaring if necessary in m)
	// the debug function that compares register state at function entry
	// vs. exit, used only when the regset-diff policy is enabled.
	GetOrCreateRegSetDiffFunction(m *ir.Module) *ir.Func

	// SaveAllLocalRegs inserts register-save instructions into bb
	// immediately before position beforeIdx (a call block's single call
	// instruction).
	SaveAllLocalRegs(bb *ir.Block, beforeIdx int)
	// RestoreLocalRegs inserts register-restore instructions into bb
	// immediately after position afterIdx (a call block's single call
	// instruction).
	RestoreLocalRegs(bb *ir.Block, afterIdx int)

	// ProgramCounterReg returns the register number of the architectural
	// program counter, as the target's register-info table defines it.
	ProgramCounterReg() uint32
	// InstName returns a human-readable mnemonic for mcOpcode, used only
	// for diagnostics when an instruction or opcode can't be translated.
	InstName(mcOpcode uint32) string
}
