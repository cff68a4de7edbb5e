package translate

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"github.com/liftgo/dagger/irb"
	"github.com/liftgo/dagger/mc"
	"github.com/liftgo/dagger/regsem"
	"github.com/liftgo/dagger/stack"
	"github.com/liftgo/dagger/tape"
)

// opcodeResult is translateOpcode's internal signal: continue interpreting
// the rest of the instruction's tape, or the opcode substituted
// trap+unreachable under the undef policy and the instruction's tape must
// not be interpreted any further (nothing may follow unreachable).
type opcodeResult uint8

const (
	resultContinue opcodeResult = iota
	resultUndefAbort
)

// InstructionTranslator is the IT: it drives one decoded instruction's
// worth of semantic-tape interpretation, threading the value stack and
// delegating target-specific and register-file work to RSI/THS.
type InstructionTranslator struct {
	irb    *irb.Builder
	vs     *stack.Stack
	tables *tape.Tables
	rsi    regsem.Semantics
	hooks  TargetHooks
	policy Policy
	ft     *FunctionTranslator

	curInst *mc.Instruction
	curBB   *mc.BasicBlock
	resEVT  tape.EVT
}

// TranslateInst implements spec.md §4.2's seven-step algorithm. It returns
// true on success, including when the undef policy substituted
// trap+unreachable for an unknown instruction/opcode/predicate. Every
// failure — an unknown instruction/opcode/predicate with the undef policy
// off, or any other error — returns false together with a non-nil error.
func (t *InstructionTranslator) TranslateInst(inst *mc.Instruction) (bool, error) {
	t.curInst = inst
	t.rsi.SwitchToInst(inst)

	if t.policy.InstAddrSave {
		t.ft.recordInstAddr(inst.Addr)
	}

	handled, err := t.hooks.TranslateTargetInst(t, inst)
	if err != nil {
		t.curInst = nil
		return false, errors.Wrap(err, "translate_target_inst")
	}
	if handled {
		t.vs.Clear()
		t.curInst = nil
		return true, nil
	}

	idx, ok := t.tables.IdxFor(inst.Opcode)
	if !ok {
		ok, err := t.reportUnknown(ErrUnknownInstruction, "no semantics registered for mc_opcode %d", inst.Opcode)
		t.curInst = nil
		return ok, err
	}

	t.advancePC(inst)

	r := tape.NewReader(t.tables, idx)
	for {
		op := r.NextOpcode()
		if op == tape.EndOfInstruction {
			break
		}
		res, err := t.translateOpcode(r, op)
		if err != nil {
			t.curInst = nil
			return false, err
		}
		if res == resultUndefAbort {
			break
		}
	}

	assertf(t.vs.Empty(), "value stack not empty at END_OF_INSTRUCTION (%d left)", t.vs.Len())
	t.vs.Clear()
	t.curInst = nil
	return true, nil
}

// advancePC emits PC ← PC + size, before any other semantic effect of the
// instruction, so later reads of PC within the same instruction observe the
// post-increment value.
func (t *InstructionTranslator) advancePC(inst *mc.Instruction) {
	pcReg := t.rsi.ProgramCounterReg()
	pc := t.rsi.GetReg(pcReg)
	it, ok := pc.Type().(*types.IntType)
	assertf(ok, "program counter register is not an integer type: %T", pc.Type())
	sum, err := t.irb.Binary(tape.OpAdd, pc, constant.NewInt(it, int64(inst.Size)))
	assertf(err == nil, "pc advance: %v", err)
	t.rsi.SetReg(pcReg, sum)
}

// translateOpcode reads the shared result-type tag and dispatches by tape
// range.
func (t *InstructionTranslator) translateOpcode(r *tape.Reader, op tape.Opcode) (opcodeResult, error) {
	t.resEVT = r.NextVT()
	switch op.Kind() {
	case tape.KindTarget:
		handled, err := t.hooks.TranslateTargetOpcode(t, op)
		if err != nil {
			return 0, errors.Wrapf(err, "translate_target_opcode(%v)", op)
		}
		if !handled {
			return t.unknownOpcode(ErrUnknownOpcode, "target opcode %v", op)
		}
		return resultContinue, nil
	case tape.KindPseudo:
		return t.translatePseudo(r, op)
	default:
		return t.translateBuiltin(r, op)
	}
}

func (t *InstructionTranslator) translateBuiltin(r *tape.Reader, op tape.Opcode) (opcodeResult, error) {
	switch {
	case op.IsBinary():
		return t.binary(op)
	case op.IsCast():
		return t.cast(op)
	case op == tape.OpFSqrt, op == tape.OpBSwap:
		return t.intrinsicUnary(op)
	case op == tape.OpRotl:
		return t.rotl()
	case op == tape.OpInsertVectorElt, op == tape.OpExtractVectorElt:
		return t.vectorElt(op)
	case op == tape.OpSMulLoHi, op == tape.OpUMulLoHi:
		return t.wideMul(r, op)
	case op == tape.OpLoad, op == tape.OpStore:
		return t.memory(op)
	case op == tape.OpBr, op == tape.OpBrInd:
		return t.control(op)
	case op == tape.OpTrap:
		t.irb.TrapCall()
		return resultContinue, nil
	case op == tape.OpAtomicFence:
		return t.atomicFence()
	default:
		return 0, errors.Errorf("translate: unhandled builtin opcode %v", op)
	}
}

func (t *InstructionTranslator) translatePseudo(r *tape.Reader, op tape.Opcode) (opcodeResult, error) {
	switch op {
	case tape.GetRC, tape.PutRC, tape.GetReg, tape.PutReg:
		return t.regfileOp(r, op)
	case tape.CustomOp:
		return t.customOp(r)
	case tape.ComplexPattern:
		return t.complexPattern(r)
	case tape.PredicateOp:
		return t.predicate(r)
	case tape.ConstantOp:
		return t.constantOp(r)
	case tape.MovConstant:
		return t.movConstant(r)
	case tape.Implicit:
		return t.implicit(r)
	default:
		return 0, errors.Errorf("translate: unhandled pseudo opcode %v", op)
	}
}

// reportUnknown handles a whole-instruction failure (kind 1, §7): it can
// occur before PC advance, so the undef-policy fallback emits trap+
// unreachable directly rather than routing through an opcode loop.
func (t *InstructionTranslator) reportUnknown(kind error, format string, args ...interface{}) (bool, error) {
	t.diagnose(kind, format, args...)
	if !t.policy.UnknownToUndef {
		return false, errors.Wrap(kind, fmt.Sprintf(format, args...))
	}
	t.vs.Clear()
	t.irb.Trap()
	return true, nil
}

// unknownOpcode handles an opcode/predicate/pattern/operand failure (kinds
// 2-3, §7) encountered mid-tape.
func (t *InstructionTranslator) unknownOpcode(kind error, format string, args ...interface{}) (opcodeResult, error) {
	t.diagnose(kind, format, args...)
	if !t.policy.UnknownToUndef {
		return 0, errors.Wrap(kind, fmt.Sprintf(format, args...))
	}
	t.vs.Clear()
	t.irb.Trap()
	return resultUndefAbort, nil
}

func (t *InstructionTranslator) diagnose(kind error, format string, args ...interface{}) {
	name := t.rsi.InstName(t.curInst.Opcode)
	detail := fmt.Sprintf(format, args...)
	fmt.Fprintf(t.policy.Diagnostics, "dagger: %v: instruction %q (mc_opcode=%d): %s\n%s\n",
		kind, name, t.curInst.Opcode, detail, pretty.Sprint(t.curInst))
}

// IRB returns the IR builder, for TargetHooks implementations that need to
// emit their own IR.
func (t *InstructionTranslator) IRB() *irb.Builder { return t.irb }

// VS returns the per-instruction value stack, for TargetHooks
// implementations that push/pop operands alongside the core.
func (t *InstructionTranslator) VS() *stack.Stack { return t.vs }

// RSI returns the register-semantics collaborator.
func (t *InstructionTranslator) RSI() regsem.Semantics { return t.rsi }

// CurrentInstruction returns the instruction currently being translated,
// or nil outside of TranslateInst.
func (t *InstructionTranslator) CurrentInstruction() *mc.Instruction { return t.curInst }

// ResultType returns the in-flight opcode's result type (irb.Builder.Type
// applied to the tape's current ResEVT tag).
func (t *InstructionTranslator) ResultType() types.Type { return t.irb.Type(t.resEVT) }

// InsertCall delegates to the owning FunctionTranslator's call-block
// splitting (§4.3) — a TargetHooks implementation calls this from
// TranslateTargetInst to translate an explicit call instruction.
func (t *InstructionTranslator) InsertCall(target value.Value) error {
	return t.ft.InsertCall(target)
}

// CreateExternalTailCallBB delegates to the owning FunctionTranslator.
func (t *InstructionTranslator) CreateExternalTailCallBB(addr mc.Address) *ir.Block {
	return t.ft.CreateExternalTailCallBB(addr)
}

func constIntFrom(it *types.IntType, bits int64) *constant.Int {
	return constant.NewInt(it, bits)
}

func bitWidthOfType(ty types.Type) uint64 {
	switch tt := ty.(type) {
	case *types.IntType:
		return tt.BitSize
	case *types.FloatType:
		if tt.Kind == types.FloatKindDouble {
			return 64
		}
		return 32
	case *types.VectorType:
		return tt.Len * bitWidthOfType(tt.ElemType)
	default:
		return 64
	}
}
