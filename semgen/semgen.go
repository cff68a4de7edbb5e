// Package semgen assembles semantic instruction descriptions into a
// tape.Tables: the three flat arrays the translation core interprets at
// runtime. It mirrors a two-phase assembler shape — collect each
// instruction's token stream as it is declared, then resolve the whole set
// into one flat SemanticsArray plus an OpcodeToSemaIdx table sized to the
// highest mc_opcode used — rather than requiring callers to hand-place
// array offsets.
package semgen

import (
	"fmt"

	"github.com/liftgo/dagger/tape"
)

type instDef struct {
	mcOpcode uint32
	tokens   []uint16
}

// Builder collects instruction definitions and resolves them into a
// tape.Tables on Build. Not safe for concurrent use.
type Builder struct {
	insts    []*instDef
	seen     map[uint32]bool
	cur      *instDef
	consts   []uint64
	constIdx map[uint64]uint16
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{
		seen:     make(map[uint32]bool),
		constIdx: make(map[uint64]uint16),
	}
}

// Inst starts a new instruction definition for mcOpcode. Every builder call
// that follows, up to the next Inst or Build, appends tokens to this
// instruction's stream; it must end in EndOfInstruction.
func (b *Builder) Inst(mcOpcode uint32) *Builder {
	if b.seen[mcOpcode] {
		panic(fmt.Errorf("semgen: mc_opcode %d defined more than once", mcOpcode))
	}
	b.seen[mcOpcode] = true
	b.cur = &instDef{mcOpcode: mcOpcode}
	b.insts = append(b.insts, b.cur)
	return b
}

func (b *Builder) emit(tokens ...uint16) *Builder {
	if b.cur == nil {
		panic(fmt.Errorf("semgen: opcode emitted before Inst"))
	}
	b.cur.tokens = append(b.cur.tokens, tokens...)
	return b
}

// Binary emits one of the two-operand arithmetic/logical/float opcodes.
func (b *Builder) Binary(op tape.Opcode, vt tape.EVT) *Builder {
	return b.emit(uint16(op), uint16(vt))
}

// Cast emits one of the single-operand cast opcodes.
func (b *Builder) Cast(op tape.Opcode, vt tape.EVT) *Builder {
	return b.emit(uint16(op), uint16(vt))
}

// Intrinsic emits FSQRT or BSWAP.
func (b *Builder) Intrinsic(op tape.Opcode, vt tape.EVT) *Builder {
	return b.emit(uint16(op), uint16(vt))
}

// Rotl emits ROTL.
func (b *Builder) Rotl(vt tape.EVT) *Builder {
	return b.emit(uint16(tape.OpRotl), uint16(vt))
}

// VectorElt emits INSERT_VECTOR_ELT or EXTRACT_VECTOR_ELT.
func (b *Builder) VectorElt(op tape.Opcode, vt tape.EVT) *Builder {
	return b.emit(uint16(op), uint16(vt))
}

// WideMul emits SMUL_LOHI or UMUL_LOHI, with the low result's type and the
// high result's type.
func (b *Builder) WideMul(op tape.Opcode, loVT, hiVT tape.EVT) *Builder {
	return b.emit(uint16(op), uint16(loVT), uint16(hiVT))
}

// Load emits LOAD.
func (b *Builder) Load(vt tape.EVT) *Builder {
	return b.emit(uint16(tape.OpLoad), uint16(vt))
}

// Store emits STORE. vt names the stored value's type.
func (b *Builder) Store(vt tape.EVT) *Builder {
	return b.emit(uint16(tape.OpStore), uint16(vt))
}

// Br emits BR (direct branch).
func (b *Builder) Br(vt tape.EVT) *Builder {
	return b.emit(uint16(tape.OpBr), uint16(vt))
}

// BrInd emits BRIND (indirect branch / call-through-register).
func (b *Builder) BrInd(vt tape.EVT) *Builder {
	return b.emit(uint16(tape.OpBrInd), uint16(vt))
}

// Trap emits TRAP.
func (b *Builder) Trap(vt tape.EVT) *Builder {
	return b.emit(uint16(tape.OpTrap), uint16(vt))
}

// AtomicFence emits ATOMIC_FENCE.
func (b *Builder) AtomicFence(vt tape.EVT) *Builder {
	return b.emit(uint16(tape.OpAtomicFence), uint16(vt))
}

// TargetOp emits a target-range opcode, dispatched at translation time to
// TargetHooks.TranslateTargetOpcode.
func (b *Builder) TargetOp(op tape.Opcode, vt tape.EVT) *Builder {
	return b.emit(uint16(op), uint16(vt))
}

// GetRC emits GET_RC: read the register named by the given MC operand
// index.
func (b *Builder) GetRC(vt tape.EVT, operandIdx uint16) *Builder {
	return b.emit(uint16(tape.GetRC), uint16(vt), operandIdx)
}

// PutRC emits PUT_RC: write the register named by the given MC operand
// index.
func (b *Builder) PutRC(vt tape.EVT, operandIdx uint16) *Builder {
	return b.emit(uint16(tape.PutRC), uint16(vt), operandIdx)
}

// GetReg emits GET_REG: read a register named directly by number.
func (b *Builder) GetReg(vt tape.EVT, regNo uint32) *Builder {
	return b.emit(uint16(tape.GetReg), uint16(vt), uint16(regNo))
}

// PutReg emits PUT_REG: write a register named directly by number.
func (b *Builder) PutReg(vt tape.EVT, regNo uint32) *Builder {
	return b.emit(uint16(tape.PutReg), uint16(vt), uint16(regNo))
}

// CustomOp emits CUSTOM_OP, delegated to TargetHooks.TranslateCustomOperand.
func (b *Builder) CustomOp(vt tape.EVT, opType, miOperandNo uint16) *Builder {
	return b.emit(uint16(tape.CustomOp), uint16(vt), opType, miOperandNo)
}

// ComplexPattern emits COMPLEX_PATTERN, delegated to
// TargetHooks.TranslateComplexPattern.
func (b *Builder) ComplexPattern(vt tape.EVT, patternID uint16) *Builder {
	return b.emit(uint16(tape.ComplexPattern), uint16(vt), patternID)
}

// Implicit emits IMPLICIT, delegated to TargetHooks.TranslateImplicit.
func (b *Builder) Implicit(vt tape.EVT, regNo uint32) *Builder {
	return b.emit(uint16(tape.Implicit), uint16(vt), uint16(regNo))
}

// Predicate emits PREDICATE.
func (b *Builder) Predicate(vt tape.EVT, pred tape.Predicate) *Builder {
	return b.emit(uint16(tape.PredicateOp), uint16(vt), uint16(pred))
}

// ConstantOp emits CONSTANT_OP: push the immediate at the given MC operand
// index.
func (b *Builder) ConstantOp(vt tape.EVT, operandIdx uint16) *Builder {
	return b.emit(uint16(tape.ConstantOp), uint16(vt), operandIdx)
}

// MovConstant emits MOV_CONSTANT: push a pool constant. Equal values are
// deduplicated to one pool slot across the whole builder.
func (b *Builder) MovConstant(vt tape.EVT, value uint64) *Builder {
	return b.emit(uint16(tape.MovConstant), uint16(vt), b.constant(value))
}

func (b *Builder) constant(value uint64) uint16 {
	if idx, ok := b.constIdx[value]; ok {
		return idx
	}
	idx := uint16(len(b.consts))
	b.consts = append(b.consts, value)
	b.constIdx[value] = idx
	return idx
}

// EndOfInstruction terminates the current instruction's token stream.
func (b *Builder) EndOfInstruction() *Builder {
	return b.emit(uint16(tape.EndOfInstruction))
}

// Build resolves every defined instruction into one flat tape.Tables: each
// instruction's tokens are concatenated in declaration order, with
// OpcodeToSemaIdx recording where each mc_opcode's stream starts.
func (b *Builder) Build() tape.Tables {
	var maxOp uint32
	for _, d := range b.insts {
		if d.mcOpcode+1 > maxOp {
			maxOp = d.mcOpcode + 1
		}
	}

	table := make([]uint32, maxOp)
	for i := range table {
		table[i] = tape.NoSemantics
	}

	var flat []uint16
	for _, d := range b.insts {
		table[d.mcOpcode] = uint32(len(flat))
		flat = append(flat, d.tokens...)
	}

	return tape.Tables{
		OpcodeToSemaIdx: table,
		SemanticsArray:  flat,
		ConstantArray:   append([]uint64(nil), b.consts...),
	}
}
