package translate

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/liftgo/dagger/mc"
	"github.com/liftgo/dagger/tape"
)

// regfileOp handles GET_RC/PUT_RC (operand-indexed) and GET_REG/PUT_REG
// (direct register number from the tape).
func (t *InstructionTranslator) regfileOp(r *tape.Reader, op tape.Opcode) (opcodeResult, error) {
	switch op {
	case tape.GetRC:
		regNo := t.operandReg(r.Next())
		t.vs.Push(t.readReg(regNo))
	case tape.PutRC:
		regNo := t.operandReg(r.Next())
		t.writeReg(t.vs.Pop(), regNo)
	case tape.GetReg:
		regNo := uint32(r.Next())
		t.vs.Push(t.readReg(regNo))
	case tape.PutReg:
		regNo := uint32(r.Next())
		t.writeReg(t.vs.Pop(), regNo)
	}
	return resultContinue, nil
}

// operandReg resolves an _RC variant's MC-operand-index token to the
// register number it names.
func (t *InstructionTranslator) operandReg(idx uint16) uint32 {
	assertf(int(idx) < len(t.curInst.Operands),
		"operand index %d out of range (instruction has %d operands)", idx, len(t.curInst.Operands))
	operand := t.curInst.Operands[idx]
	assertf(operand.Kind == mc.OperandReg, "operand %d is not a register operand", idx)
	return operand.Reg
}

// readReg implements the GET_RC/GET_REG read path: read the register as an
// integer, narrow to the result type's width if it is narrower, then
// coerce (bitcast) to the result type if it is not itself an integer.
func (t *InstructionTranslator) readReg(regNo uint32) value.Value {
	ival := t.rsi.GetRegAsInt(regNo)
	it, ok := ival.Type().(*types.IntType)
	assertf(ok, "register %d's integer type is not an integer type: %T", regNo, ival.Type())

	resTy := t.irb.Type(t.resEVT)
	resBits := t.resEVT.Bits()
	v := ival
	if resBits > 0 && uint64(resBits) < it.BitSize {
		v = t.irb.Block.NewTrunc(ival, types.NewInt(uint64(resBits)))
	}
	if !types.Equal(v.Type(), resTy) {
		v = t.irb.Block.NewBitCast(v, resTy)
	}
	return v
}

// writeReg implements the PUT_RC/PUT_REG width/type coercion rule: a
// pointer is ptr-to-int'd, a non-integer is bitcast to a same-bit-width
// integer, and a value narrower than the register is inserted into the
// current register contents via RSI rather than overwriting it whole.
func (t *InstructionTranslator) writeReg(val value.Value, regNo uint32) {
	regIntTy := t.rsi.GetRegIntType(regNo)
	regIt, ok := regIntTy.(*types.IntType)
	assertf(ok, "register %d's integer type is not an integer type: %T", regNo, regIntTy)

	v := val
	switch v.Type().(type) {
	case *types.PointerType:
		v = t.irb.Block.NewPtrToInt(v, regIt)
	case *types.IntType:
	default:
		v = t.irb.Block.NewBitCast(v, types.NewInt(bitWidthOfType(v.Type())))
	}

	if it, ok := v.Type().(*types.IntType); ok && it.BitSize < regIt.BitSize {
		whole := t.rsi.GetRegAsInt(regNo)
		v = t.rsi.InsertBitsInValue(whole, v)
	}

	assertf(types.Equal(v.Type(), regIntTy),
		"PUT_RC: coerced type %v does not match register %d's integer type %v", v.Type(), regNo, regIntTy)

	regTy := t.rsi.GetRegType(regNo)
	final := v
	if !types.Equal(final.Type(), regTy) {
		final = t.irb.Block.NewBitCast(final, regTy)
	}
	t.rsi.SetReg(regNo, final)
}

// customOp delegates CUSTOM_OP to THS with its two tape operands.
func (t *InstructionTranslator) customOp(r *tape.Reader) (opcodeResult, error) {
	opType := r.Next()
	miOperandNo := r.Next()
	v, ok, err := t.hooks.TranslateCustomOperand(t, opType, miOperandNo)
	if err != nil {
		return 0, err
	}
	if !ok {
		return t.unknownOpcode(ErrUnknownCustomOperand, "custom operand type=%d mi_operand=%d", opType, miOperandNo)
	}
	t.vs.Push(v)
	return resultContinue, nil
}

// complexPattern delegates COMPLEX_PATTERN to THS with its pattern ID.
func (t *InstructionTranslator) complexPattern(r *tape.Reader) (opcodeResult, error) {
	patternID := r.Next()
	v, ok, err := t.hooks.TranslateComplexPattern(t, patternID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return t.unknownOpcode(ErrUnknownComplexPattern, "complex pattern id=%d", patternID)
	}
	t.vs.Push(v)
	return resultContinue, nil
}

// implicit delegates IMPLICIT to THS with its register number.
func (t *InstructionTranslator) implicit(r *tape.Reader) (opcodeResult, error) {
	regNo := uint32(r.Next())
	handled, err := t.hooks.TranslateImplicit(t, regNo)
	if err != nil {
		return 0, err
	}
	if !handled {
		return t.unknownOpcode(ErrUnknownOpcode, "implicit register %d", regNo)
	}
	return resultContinue, nil
}

// constantOp reads an MC operand index, reads that immediate, and pushes
// it as an integer of the result type.
func (t *InstructionTranslator) constantOp(r *tape.Reader) (opcodeResult, error) {
	idx := r.Next()
	assertf(int(idx) < len(t.curInst.Operands), "CONSTANT_OP: operand index %d out of range", idx)
	operand := t.curInst.Operands[idx]
	assertf(operand.Kind == mc.OperandImm, "CONSTANT_OP: operand %d is not an immediate", idx)

	resTy := t.irb.Type(t.resEVT)
	it, ok := resTy.(*types.IntType)
	assertf(ok, "CONSTANT_OP: result type %v is not an integer", resTy)
	t.vs.Push(constIntFrom(it, operand.Imm))
	return resultContinue, nil
}

// movConstant reads an index into the constant pool and pushes it as an
// integer of the result type (an iPTR result type resolves to the
// builder's configured pointer width, 64 bits by default).
func (t *InstructionTranslator) movConstant(r *tape.Reader) (opcodeResult, error) {
	idx := r.Next()
	bits, err := t.tables.Constant(idx)
	if err != nil {
		return 0, err
	}
	resTy := t.irb.Type(t.resEVT)
	it, ok := resTy.(*types.IntType)
	assertf(ok, "MOV_CONSTANT: result type %v is not an integer", resTy)
	t.vs.Push(constIntFrom(it, int64(bits)))
	return resultContinue, nil
}
