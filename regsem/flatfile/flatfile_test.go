package flatfile

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/liftgo/dagger/mc"
)

func newTestBlock() (*RegisterFile, *ir.Block) {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.Void)
	blk := fn.NewBlock("entry")

	r := New(map[uint32]RegInfo{
		1: {Name: "r1", Type: types.I64, IntType: types.I64},
		2: {Name: "pc", Type: types.I64, IntType: types.I64},
	}, 2)
	r.SwitchToBB(&mc.BasicBlock{}, blk)
	return r, blk
}

func TestGetRegLoadsFromItsOwnAlloca(t *testing.T) {
	r, _ := newTestBlock()
	v := r.GetReg(1)
	if v == nil {
		t.Fatalf("GetReg(1) returned nil")
	}
	if !types.Equal(v.Type(), types.I64) {
		t.Fatalf("GetReg(1) has type %v, want i64", v.Type())
	}
}

func TestProgramCounterReg(t *testing.T) {
	r, _ := newTestBlock()
	if r.ProgramCounterReg() != 2 {
		t.Fatalf("ProgramCounterReg() = %d, want 2", r.ProgramCounterReg())
	}
}

func TestInstNameFallback(t *testing.T) {
	r, _ := newTestBlock()
	r.SetInstName(42, "ADD")
	if got := r.InstName(42); got != "ADD" {
		t.Fatalf("InstName(42) = %q, want %q", got, "ADD")
	}
	if got := r.InstName(99); got != "mc_opcode(99)" {
		t.Fatalf("InstName(99) = %q, want fallback form", got)
	}
}

func TestInsertBitsInValueSameWidthReturnsNarrow(t *testing.T) {
	r, blk := newTestBlock()
	whole := blk.NewLoad(types.I64, blk.NewAlloca(types.I64))
	narrow := blk.NewLoad(types.I64, blk.NewAlloca(types.I64))

	got := r.InsertBitsInValue(whole, narrow)
	if got != narrow {
		t.Fatalf("InsertBitsInValue with equal widths did not return narrow unchanged")
	}
}

func TestInsertBitsInValueNarrowerInsertsAndMasks(t *testing.T) {
	r, blk := newTestBlock()
	whole := blk.NewLoad(types.I64, blk.NewAlloca(types.I64))
	narrow := blk.NewLoad(types.I32, blk.NewAlloca(types.I32))

	before := len(blk.Insts)
	r.InsertBitsInValue(whole, narrow)
	if len(blk.Insts) <= before {
		t.Fatalf("InsertBitsInValue with narrower operand emitted no instructions")
	}
}

func TestGetRegSetTypeIsOpaqueByte(t *testing.T) {
	r, _ := newTestBlock()
	if !types.Equal(r.GetRegSetType(), types.I8) {
		t.Fatalf("GetRegSetType() = %v, want i8", r.GetRegSetType())
	}
}

func TestGetOrCreateRegSetDiffFunctionIsMemoized(t *testing.T) {
	m := ir.NewModule()
	r := New(map[uint32]RegInfo{1: {Name: "r1", Type: types.I64, IntType: types.I64}}, 1)

	f1 := r.GetOrCreateRegSetDiffFunction(m)
	f2 := r.GetOrCreateRegSetDiffFunction(m)
	if f1 != f2 {
		t.Fatalf("GetOrCreateRegSetDiffFunction returned different functions across calls")
	}
}
