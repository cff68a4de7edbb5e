package irb

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/liftgo/dagger/tape"
)

func newTestBuilder() *Builder {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.Void)
	blk := fn.NewBlock("entry")
	b := New(m, 64)
	b.SetBlock(blk)
	return b
}

func TestTypeResolvesIPTRToConfiguredWidth(t *testing.T) {
	b := New(ir.NewModule(), 32)
	if got := b.Type(tape.EVTiPTR); !types.Equal(got, types.NewInt(32)) {
		t.Fatalf("Type(EVTiPTR) = %v, want i32 with PtrBits=32", got)
	}
}

func TestTypeDefaultPointerWidth(t *testing.T) {
	b := New(ir.NewModule(), 0)
	if b.PtrBits != 64 {
		t.Fatalf("New with ptrBits=0 did not default to 64, got %d", b.PtrBits)
	}
}

func TestBinaryAdd(t *testing.T) {
	b := newTestBuilder()
	x := constant.NewInt(types.I64, 1)
	y := constant.NewInt(types.I64, 2)
	v, err := b.Binary(tape.OpAdd, x, y)
	if err != nil {
		t.Fatalf("Binary(OpAdd) error = %v", err)
	}
	if !types.Equal(v.Type(), types.I64) {
		t.Fatalf("Binary(OpAdd) result type = %v, want i64", v.Type())
	}
}

func TestBinaryUnknownOpcodeErrors(t *testing.T) {
	b := newTestBuilder()
	x := constant.NewInt(types.I64, 1)
	if _, err := b.Binary(tape.OpLoad, x, x); err == nil {
		t.Fatalf("Binary(OpLoad) did not error for a non-binary opcode")
	}
}

func TestBinaryShiftZeroExtendsNarrowerRHS(t *testing.T) {
	b := newTestBuilder()
	x := constant.NewInt(types.I64, 1)
	y := constant.NewInt(types.I32, 3)
	before := len(b.Block.Insts)
	v, err := b.Binary(tape.OpShl, x, y)
	if err != nil {
		t.Fatalf("Binary(OpShl) error = %v", err)
	}
	if !types.Equal(v.Type(), types.I64) {
		t.Fatalf("Binary(OpShl) result type = %v, want i64", v.Type())
	}
	if len(b.Block.Insts) <= before {
		t.Fatalf("Binary(OpShl) with a narrower RHS emitted no zext")
	}
}

func TestCastTrunc(t *testing.T) {
	b := newTestBuilder()
	x := constant.NewInt(types.I64, 0xFF)
	v, err := b.Cast(tape.OpTrunc, x, types.I8)
	if err != nil {
		t.Fatalf("Cast(OpTrunc) error = %v", err)
	}
	if !types.Equal(v.Type(), types.I8) {
		t.Fatalf("Cast(OpTrunc) result type = %v, want i8", v.Type())
	}
}

func TestCastUnknownOpcodeErrors(t *testing.T) {
	b := newTestBuilder()
	x := constant.NewInt(types.I64, 1)
	if _, err := b.Cast(tape.OpAdd, x, types.I64); err == nil {
		t.Fatalf("Cast(OpAdd) did not error for a non-cast opcode")
	}
}

func TestTrapCallLeavesBlockOpen(t *testing.T) {
	b := newTestBuilder()
	b.TrapCall()
	if b.Block.Term != nil {
		t.Fatalf("TrapCall set a terminator; want the block to remain open")
	}
	if len(b.Block.Insts) == 0 {
		t.Fatalf("TrapCall emitted no instruction")
	}
}

func TestTrapClosesBlock(t *testing.T) {
	b := newTestBuilder()
	b.Trap()
	if b.Block.Term == nil {
		t.Fatalf("Trap did not set a terminator")
	}
}

func TestToPointerFromInt(t *testing.T) {
	b := newTestBuilder()
	x := constant.NewInt(types.I64, 0x1000)
	v := b.ToPointer(x, types.I8)
	if !types.Equal(v.Type(), types.NewPointer(types.I8)) {
		t.Fatalf("ToPointer(int) type = %v, want i8*", v.Type())
	}
}

func TestLoadSetsAlignmentOne(t *testing.T) {
	b := newTestBuilder()
	ptr := b.Block.NewAlloca(types.I32)
	v := b.Load(ptr, types.I32)
	ld, ok := v.(*ir.InstLoad)
	if !ok {
		t.Fatalf("Load did not return *ir.InstLoad, got %T", v)
	}
	if ld.Align != 1 {
		t.Fatalf("Load alignment = %d, want 1", ld.Align)
	}
}
