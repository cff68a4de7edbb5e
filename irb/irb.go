// Package irb is the IR Builder Facade: a thin typed builder exposing just
// the LLVM IR operations the instruction translator needs (binary, cast,
// compare, memory, intrinsic, control), built on top of
// github.com/llir/llvm. It resolves tape.EVTiPTR against a configured
// pointer width rather than hard-coding one (spec.md's open question on
// iPTR — see DESIGN.md).
package irb

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/liftgo/dagger/tape"
)

// Builder wraps the current IR insertion point. The function translator
// repoints Block at the start of every basic block it opens.
type Builder struct {
	Module  *ir.Module
	Block   *ir.Block
	PtrBits int
}

// New returns a Builder over m with the given pointer width in bits. A
// ptrBits of 0 defaults to 64.
func New(m *ir.Module, ptrBits int) *Builder {
	if ptrBits == 0 {
		ptrBits = 64
	}
	return &Builder{Module: m, PtrBits: ptrBits}
}

// SetBlock repoints the builder's insertion point.
func (b *Builder) SetBlock(blk *ir.Block) {
	b.Block = blk
}

// Type resolves an EVT to a concrete IR type, substituting the configured
// pointer width for EVTiPTR.
func (b *Builder) Type(evt tape.EVT) types.Type {
	switch evt {
	case tape.EVTi1:
		return types.I1
	case tape.EVTi8:
		return types.I8
	case tape.EVTi16:
		return types.I16
	case tape.EVTi32:
		return types.I32
	case tape.EVTi64:
		return types.I64
	case tape.EVTi128:
		return types.NewInt(128)
	case tape.EVTf32:
		return types.Float
	case tape.EVTf64:
		return types.Double
	case tape.EVTiPTR:
		return types.NewInt(uint64(b.PtrBits))
	case tape.EVTv2i64:
		return types.NewVector(2, types.I64)
	case tape.EVTv4i32:
		return types.NewVector(4, types.I32)
	case tape.EVTv2f64:
		return types.NewVector(2, types.Double)
	default:
		panic(fmt.Errorf("irb: unresolvable EVT %v", evt))
	}
}

func intTypeOf(t types.Type) (*types.IntType, bool) {
	it, ok := t.(*types.IntType)
	return it, ok
}

// zextTo zero-extends v to the width of to if v is a narrower integer;
// otherwise returns v unchanged. Used for the shift-opcode "zero-extend
// RHS to LHS type if narrower" rule.
func (b *Builder) zextTo(v value.Value, to types.Type) value.Value {
	vi, ok1 := intTypeOf(v.Type())
	ti, ok2 := intTypeOf(to)
	if ok1 && ok2 && vi.BitSize < ti.BitSize {
		return b.Block.NewZExt(v, to)
	}
	return v
}

// Binary emits one of the two-operand arithmetic/logical/float opcodes.
// For shift opcodes, y is zero-extended to x's width first if narrower.
func (b *Builder) Binary(op tape.Opcode, x, y value.Value) (value.Value, error) {
	if op.IsShift() {
		y = b.zextTo(y, x.Type())
	}
	switch op {
	case tape.OpAdd:
		return b.Block.NewAdd(x, y), nil
	case tape.OpSub:
		return b.Block.NewSub(x, y), nil
	case tape.OpMul:
		return b.Block.NewMul(x, y), nil
	case tape.OpUDiv:
		return b.Block.NewUDiv(x, y), nil
	case tape.OpSDiv:
		return b.Block.NewSDiv(x, y), nil
	case tape.OpURem:
		return b.Block.NewURem(x, y), nil
	case tape.OpSRem:
		return b.Block.NewSRem(x, y), nil
	case tape.OpAnd:
		return b.Block.NewAnd(x, y), nil
	case tape.OpOr:
		return b.Block.NewOr(x, y), nil
	case tape.OpXor:
		return b.Block.NewXor(x, y), nil
	case tape.OpShl:
		return b.Block.NewShl(x, y), nil
	case tape.OpLShr:
		return b.Block.NewLShr(x, y), nil
	case tape.OpAShr:
		return b.Block.NewAShr(x, y), nil
	case tape.OpFAdd:
		return b.Block.NewFAdd(x, y), nil
	case tape.OpFSub:
		return b.Block.NewFSub(x, y), nil
	case tape.OpFMul:
		return b.Block.NewFMul(x, y), nil
	case tape.OpFDiv:
		return b.Block.NewFDiv(x, y), nil
	case tape.OpFRem:
		return b.Block.NewFRem(x, y), nil
	default:
		return nil, fmt.Errorf("irb: not a binary opcode: %v", op)
	}
}

// Cast emits one of the single-operand cast opcodes.
func (b *Builder) Cast(op tape.Opcode, x value.Value, to types.Type) (value.Value, error) {
	switch op {
	case tape.OpTrunc:
		return b.Block.NewTrunc(x, to), nil
	case tape.OpBitcast:
		return b.Block.NewBitCast(x, to), nil
	case tape.OpZExt:
		return b.Block.NewZExt(x, to), nil
	case tape.OpSExt:
		return b.Block.NewSExt(x, to), nil
	case tape.OpFPToUI:
		return b.Block.NewFPToUI(x, to), nil
	case tape.OpFPToSI:
		return b.Block.NewFPToSI(x, to), nil
	case tape.OpUIToFP:
		return b.Block.NewUIToFP(x, to), nil
	case tape.OpSIToFP:
		return b.Block.NewSIToFP(x, to), nil
	case tape.OpFPRound:
		return b.Block.NewFPTrunc(x, to), nil
	case tape.OpFPExtend:
		return b.Block.NewFPExt(x, to), nil
	default:
		return nil, fmt.Errorf("irb: not a cast opcode: %v", op)
	}
}

// ICmp emits an integer comparison.
func (b *Builder) ICmp(pred enum.IPred, x, y value.Value) value.Value {
	return b.Block.NewICmp(pred, x, y)
}

// FCmp emits a floating-point comparison.
func (b *Builder) FCmp(pred enum.FPred, x, y value.Value) value.Value {
	return b.Block.NewFCmp(pred, x, y)
}

// Select emits a select instruction.
func (b *Builder) Select(cond, t, f value.Value) value.Value {
	return b.Block.NewSelect(cond, t, f)
}

// ToPointer coerces v to a pointer-to-elem, via bitcast if v is already a
// (differently-typed) pointer, or inttoptr if v is an integer.
func (b *Builder) ToPointer(v value.Value, elem types.Type) value.Value {
	pt := types.NewPointer(elem)
	if _, ok := v.Type().(*types.PointerType); ok {
		if types.Equal(v.Type(), pt) {
			return v
		}
		return b.Block.NewBitCast(v, pt)
	}
	return b.Block.NewIntToPtr(v, pt)
}

// Load coerces ptr to a pointer-to-elem and emits an aligned (alignment 1)
// load, per the memory-opcode coercion rule.
func (b *Builder) Load(ptr value.Value, elem types.Type) value.Value {
	p := b.ToPointer(ptr, elem)
	ld := b.Block.NewLoad(elem, p)
	ld.Align = 1
	return ld
}

// Store coerces ptr to a pointer-to-val's-type and emits an aligned
// (alignment 1) store.
func (b *Builder) Store(val, ptr value.Value) {
	p := b.ToPointer(ptr, val.Type())
	st := b.Block.NewStore(val, p)
	st.Align = 1
}

// VolatileStore emits a volatile store directly to dst (no pointer
// coercion) — used only for the debug instruction-address sinks.
func (b *Builder) VolatileStore(val, dst value.Value) {
	st := b.Block.NewStore(val, dst)
	st.Volatile = true
}

// Fence emits an atomic fence with the given ordering and synchronization
// scope.
func (b *Builder) Fence(ordering enum.AtomicOrdering, scope string) *ir.InstFence {
	f := b.Block.NewFence(ordering)
	f.SyncScope = scope
	return f
}

// ExtractElement emits a vector element extract.
func (b *Builder) ExtractElement(vec, idx value.Value) value.Value {
	return b.Block.NewExtractElement(vec, idx)
}

// InsertElement emits a vector element insert.
func (b *Builder) InsertElement(vec, elem, idx value.Value) value.Value {
	return b.Block.NewInsertElement(vec, elem, idx)
}

// intrinsic returns (declaring in Module if necessary) the named intrinsic
// function.
func (b *Builder) intrinsic(name string, retType types.Type, argTypes []types.Type) *ir.Func {
	for _, f := range b.Module.Funcs {
		if f.Name() == name {
			return f
		}
	}
	params := make([]*ir.Param, len(argTypes))
	for i, t := range argTypes {
		params[i] = ir.NewParam("", t)
	}
	return b.Module.NewFunc(name, retType, params...)
}

// Intrinsic emits a call to the named intrinsic, declaring it in Module on
// first use.
func (b *Builder) Intrinsic(name string, retType types.Type, argTypes []types.Type, args ...value.Value) value.Value {
	fn := b.intrinsic(name, retType, argTypes)
	return b.Block.NewCall(fn, args...)
}

// TrapCall emits a bare call to the trap intrinsic, with no terminator —
// the semantic-tape TRAP opcode uses this form, since it is not
// necessarily the last effect of the instruction it appears in.
func (b *Builder) TrapCall() value.Value {
	fn := b.intrinsic("llvm.trap", types.Void, nil)
	return b.Block.NewCall(fn)
}

// Trap emits a call to the trap intrinsic followed by unreachable — the
// body every BBM placeholder block carries, and the body any unsupported
// instruction/opcode falls back to under the undef-on-unknown policy.
func (b *Builder) Trap() {
	b.TrapCall()
	b.Block.NewUnreachable()
}

// Br emits an unconditional branch.
func (b *Builder) Br(target *ir.Block) {
	b.Block.NewBr(target)
}

// CondBr emits a conditional branch.
func (b *Builder) CondBr(cond value.Value, targetTrue, targetFalse *ir.Block) {
	b.Block.NewCondBr(cond, targetTrue, targetFalse)
}
