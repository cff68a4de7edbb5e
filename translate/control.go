package translate

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"

	"github.com/liftgo/dagger/mc"
	"github.com/liftgo/dagger/tape"
)

// control handles BR (direct) and BRIND (indirect).
func (t *InstructionTranslator) control(op tape.Opcode) (opcodeResult, error) {
	switch op {
	case tape.OpBr:
		return t.br()
	case tape.OpBrInd:
		return t.brInd()
	}
	return resultContinue, nil
}

// br writes the target to PC and branches to the BBM-resolved block at that
// (compile-time constant) address.
func (t *InstructionTranslator) br() (opcodeResult, error) {
	target := t.vs.Pop()
	t.rsi.SetReg(t.rsi.ProgramCounterReg(), target)

	ci, ok := target.(*constant.Int)
	assertf(ok, "BR: target is not a compile-time constant address")
	addr := mc.Address(ci.X.Uint64())
	blk := t.ft.blocks.GetOrCreate(addr)
	t.irb.Br(blk)
	return resultContinue, nil
}

// brInd writes the target to PC, then treats it as a call through a
// register: resolve the callee via the translate_at runtime intrinsic and
// branch to the function's exit block. Unlike insert_call, this does not
// split the current block or record anything for post-processing — BRIND
// is itself the block's terminator.
func (t *InstructionTranslator) brInd() (opcodeResult, error) {
	target := t.vs.Pop()
	t.rsi.SetReg(t.rsi.ProgramCounterReg(), target)

	callee := t.ft.translateAt(target)
	t.irb.Block.NewCall(callee, t.ft.regsetParam)
	t.irb.Br(t.ft.exit)
	return resultContinue, nil
}

// atomicFence pops ordering and scope constants (scope pushed last) and
// emits a fence, per spec.md §7 kind 5: an invalid ordering/scope constant
// is a fatal, non-policy-recoverable assertion.
func (t *InstructionTranslator) atomicFence() (opcodeResult, error) {
	scopeVal := t.vs.Pop()
	orderingVal := t.vs.Pop()

	orderingConst, ok := orderingVal.(*constant.Int)
	assertf(ok, "ATOMIC_FENCE: ordering operand is not a compile-time constant")
	scopeConst, ok := scopeVal.(*constant.Int)
	assertf(ok, "ATOMIC_FENCE: scope operand is not a compile-time constant")

	ordering, ok := atomicOrderingFromConst(orderingConst.X.Uint64())
	assertf(ok, "ATOMIC_FENCE: invalid atomic ordering constant %d", orderingConst.X.Uint64())
	scope, ok := atomicScopeFromConst(scopeConst.X.Uint64())
	assertf(ok, "ATOMIC_FENCE: invalid synchronization scope constant %d", scopeConst.X.Uint64())

	t.irb.Fence(ordering, scope)
	return resultContinue, nil
}

func atomicOrderingFromConst(v uint64) (enum.AtomicOrdering, bool) {
	switch v {
	case 0:
		return enum.AtomicOrderingMonotonic, true
	case 1:
		return enum.AtomicOrderingAcquire, true
	case 2:
		return enum.AtomicOrderingRelease, true
	case 3:
		return enum.AtomicOrderingAcquireRelease, true
	case 4:
		return enum.AtomicOrderingSequentiallyConsistent, true
	default:
		return 0, false
	}
}

func atomicScopeFromConst(v uint64) (string, bool) {
	switch v {
	case 0:
		return "singlethread", true
	case 1:
		return "", true
	default:
		return "", false
	}
}
