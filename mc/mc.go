// Package mc holds the decoded-instruction and MC-function/basic-block
// types the translation core consumes. Producing these is an external
// collaborator's job (machine-code decoding is out of scope); this package
// only describes the shape the core requires.
package mc

import (
	"fmt"

	"github.com/decomp/exp/bin"
)

// Address is a code address, reused directly from the pack's own
// disassembly tooling rather than redefined — an IR basic block is
// identified by exactly this.
type Address = bin.Address

// OperandKind tags the union stored in Operand.
type OperandKind uint8

const (
	// OperandReg names an architectural register by number.
	OperandReg OperandKind = iota
	// OperandImm carries a signed 64-bit immediate.
	OperandImm
	// OperandFP carries a floating-point immediate.
	OperandFP
)

// Operand is a decoded machine operand: a tagged union of register number,
// integer immediate, or floating-point immediate.
type Operand struct {
	Kind OperandKind
	Reg  uint32
	Imm  int64
	FP   float64
}

// Reg constructs a register operand.
func Reg(regNo uint32) Operand { return Operand{Kind: OperandReg, Reg: regNo} }

// Imm constructs an integer-immediate operand.
func Imm(v int64) Operand { return Operand{Kind: OperandImm, Imm: v} }

// FPImm constructs a floating-point-immediate operand.
func FPImm(v float64) Operand { return Operand{Kind: OperandFP, FP: v} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return fmt.Sprintf("reg(%d)", o.Reg)
	case OperandImm:
		return fmt.Sprintf("imm(%d)", o.Imm)
	case OperandFP:
		return fmt.Sprintf("fp(%g)", o.FP)
	default:
		return fmt.Sprintf("Operand{kind:%d}", o.Kind)
	}
}

// Instruction is one decoded target-ISA instruction: an address, a byte
// size, the target opcode (used to index tape.Tables.OpcodeToSemaIdx), and
// its operand list.
type Instruction struct {
	Addr     Address
	Size     uint8
	Opcode   uint32
	Operands []Operand
}

// BasicBlock is an MC basic block: a known start/end code address and the
// decoded instructions it contains, in program order. Term, if non-nil, is
// a terminator instruction (branch/call/return) distinct from Insts.
type BasicBlock struct {
	Start Address
	End   Address
	Insts []*Instruction
	Term  *Instruction
}

// Function is a decoded code region ready for translation: a start address
// and its basic blocks, not necessarily address-sorted.
type Function struct {
	StartAddr Address
	Blocks    []*BasicBlock
}
