package translate

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/liftgo/dagger/tape"
)

// binary handles the two-operand arithmetic/logical/float opcodes: pop two
// operands (x pushed first, y second), emit the binop, push the result.
func (t *InstructionTranslator) binary(op tape.Opcode) (opcodeResult, error) {
	y := t.vs.Pop()
	x := t.vs.Pop()
	v, err := t.irb.Binary(op, x, y)
	if err != nil {
		return 0, err
	}
	t.vs.Push(v)
	return resultContinue, nil
}

// rotl emits (lhs << rhs) | (lhs >> (width-rhs)), rhs zero-extended to
// lhs's width if narrower. Undefined at rhs == 0 or rhs == width, as the
// teacher's own semantics leave it (spec.md §9 open question).
func (t *InstructionTranslator) rotl() (opcodeResult, error) {
	rhs := t.vs.Pop()
	lhs := t.vs.Pop()

	lhsTy, ok := lhs.Type().(*types.IntType)
	assertf(ok, "ROTL: lhs is not an integer type: %T", lhs.Type())
	if rhsTy, ok := rhs.Type().(*types.IntType); ok && rhsTy.BitSize < lhsTy.BitSize {
		rhs = t.irb.Block.NewZExt(rhs, lhsTy)
	}

	width := constant.NewInt(lhsTy, int64(lhsTy.BitSize))
	shl := t.irb.Block.NewShl(lhs, rhs)
	rem := t.irb.Block.NewSub(width, rhs)
	shr := t.irb.Block.NewLShr(lhs, rem)
	t.vs.Push(t.irb.Block.NewOr(shl, shr))
	return resultContinue, nil
}

// intrinsicUnary handles FSQRT/BSWAP: pop one operand, emit a call to the
// type-suffixed intrinsic, push the result.
func (t *InstructionTranslator) intrinsicUnary(op tape.Opcode) (opcodeResult, error) {
	x := t.vs.Pop()
	var base string
	switch op {
	case tape.OpFSqrt:
		base = "llvm.sqrt"
	case tape.OpBSwap:
		base = "llvm.bswap"
	}
	name := base + "." + typeSuffix(x.Type())
	v := t.irb.Intrinsic(name, x.Type(), []types.Type{x.Type()}, x)
	t.vs.Push(v)
	return resultContinue, nil
}

func typeSuffix(ty types.Type) string {
	switch tt := ty.(type) {
	case *types.IntType:
		switch tt.BitSize {
		case 8:
			return "i8"
		case 16:
			return "i16"
		case 32:
			return "i32"
		case 64:
			return "i64"
		case 128:
			return "i128"
		default:
			return "i0"
		}
	case *types.FloatType:
		if tt.Kind == types.FloatKindDouble {
			return "f64"
		}
		return "f32"
	default:
		return "unknown"
	}
}

// vectorElt handles INSERT_VECTOR_ELT / EXTRACT_VECTOR_ELT.
func (t *InstructionTranslator) vectorElt(op tape.Opcode) (opcodeResult, error) {
	switch op {
	case tape.OpExtractVectorElt:
		idx := t.vs.Pop()
		vec := t.vs.Pop()
		t.vs.Push(t.irb.ExtractElement(vec, idx))
	case tape.OpInsertVectorElt:
		idx := t.vs.Pop()
		elem := t.vs.Pop()
		vec := t.vs.Pop()
		t.vs.Push(t.irb.InsertElement(vec, elem, idx))
	}
	return resultContinue, nil
}

// wideMul handles SMUL_LOHI / UMUL_LOHI: a second VT names the hi half's
// width. Both factors are extended to lo_bits+hi_bits, multiplied, and the
// truncated low then high halves are pushed.
func (t *InstructionTranslator) wideMul(r *tape.Reader, op tape.Opcode) (opcodeResult, error) {
	hiEVT := r.NextVT()
	y := t.vs.Pop()
	x := t.vs.Pop()

	loTy, ok := x.Type().(*types.IntType)
	assertf(ok, "wide multiply: lhs is not an integer type: %T", x.Type())
	hiTy, ok := t.irb.Type(hiEVT).(*types.IntType)
	assertf(ok, "wide multiply: hi-half type is not an integer type: %T", t.irb.Type(hiEVT))

	fullTy := types.NewInt(loTy.BitSize + hiTy.BitSize)

	var xFull, yFull value.Value
	if op == tape.OpSMulLoHi {
		xFull = t.irb.Block.NewSExt(x, fullTy)
		yFull = t.irb.Block.NewSExt(y, fullTy)
	} else {
		xFull = t.irb.Block.NewZExt(x, fullTy)
		yFull = t.irb.Block.NewZExt(y, fullTy)
	}

	full := t.irb.Block.NewMul(xFull, yFull)
	lo := t.irb.Block.NewTrunc(full, loTy)
	shiftAmt := constant.NewInt(fullTy, int64(loTy.BitSize))
	hi := t.irb.Block.NewTrunc(t.irb.Block.NewLShr(full, shiftAmt), hiTy)

	t.vs.Push(lo)
	t.vs.Push(hi)
	return resultContinue, nil
}
