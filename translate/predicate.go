package translate

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/liftgo/dagger/tape"
)

// predicate handles the PREDICATE pseudo-opcode: a predicate ID names a
// memory access pattern (or, for and_su, a composite binop) that reuses the
// LOAD/STORE/ExtLoad/binop codepaths instead of a dedicated opcode.
func (t *InstructionTranslator) predicate(r *tape.Reader) (opcodeResult, error) {
	pred := r.NextPredicate()
	switch {
	case pred.IsLoad():
		return t.predicateLoad(pred)
	case pred.IsStore():
		return t.predicateStore()
	case pred == tape.PredAndSU:
		return t.predicateAndSU()
	default:
		return t.unknownOpcode(ErrUnknownPredicate, "predicate %v", pred)
	}
}

func (t *InstructionTranslator) predicateLoad(pred tape.Predicate) (opcodeResult, error) {
	ptr := t.vs.Pop()
	resTy := t.irb.Type(t.resEVT)

	if kind, narrowBits, ok := pred.Ext(); ok {
		narrowTy := types.NewInt(uint64(narrowBits))
		loaded := t.irb.Load(ptr, narrowTy)
		var ext value.Value
		if kind == tape.ExtSign {
			ext = t.irb.Block.NewSExt(loaded, resTy)
		} else {
			ext = t.irb.Block.NewZExt(loaded, resTy)
		}
		t.vs.Push(ext)
		return resultContinue, nil
	}

	narrowTy := resTy
	switch pred {
	case tape.PredLoadI16:
		narrowTy = types.I16
	case tape.PredLoadI32:
		narrowTy = types.I32
	}
	loaded := t.irb.Load(ptr, narrowTy)
	v := loaded
	if nt, ok := narrowTy.(*types.IntType); ok {
		if rt, ok2 := resTy.(*types.IntType); ok2 && nt.BitSize < rt.BitSize {
			v = t.irb.Block.NewZExt(loaded, resTy)
		}
	}
	t.vs.Push(v)
	return resultContinue, nil
}

func (t *InstructionTranslator) predicateStore() (opcodeResult, error) {
	val := t.vs.Pop()
	ptr := t.vs.Pop()
	t.irb.Store(val, ptr)
	return resultContinue, nil
}

// predicateAndSU is a composite AND over two popped operands. The tape's
// source material names this predicate without further detail on a
// signed/unsigned distinction beyond plain AND, so this is the direct
// reading of "and_su" as a binop predicate rather than a dedicated opcode.
func (t *InstructionTranslator) predicateAndSU() (opcodeResult, error) {
	y := t.vs.Pop()
	x := t.vs.Pop()
	t.vs.Push(t.irb.Block.NewAnd(x, y))
	return resultContinue, nil
}
