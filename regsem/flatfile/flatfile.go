// Package flatfile is the one reference regsem.Semantics implementation
// this module ships. It generalizes the teacher's flat CPU register bank
// (cpu.CPU's D[8]/A[8]/SR arrays, looked up by small integer index) from
// two fixed register banks to an arbitrary register-number -> alloca map,
// so it can back any target's TargetHooks/semantics table in tests.
//
// It is intentionally simple: every register is a stack-allocated local of
// a caller-declared IR type, and "save/restore across calls" emits
// nothing, since those allocas already persist across the call. A production register-semantics
// collaborator would instead thread an actual RegSet struct pointer
// through GEPs into it; that is explicitly out of scope (spec §1).
package flatfile

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/liftgo/dagger/mc"
)

func constInt(typ *types.IntType, bits uint64) *constant.Int {
	return constant.NewInt(typ, int64(bits))
}

// RegInfo describes one architectural register: its natural IR type and
// the integer type sub-register operations coerce through.
type RegInfo struct {
	Name    string
	Type    types.Type
	IntType types.Type
}

// RegisterFile is a flat, index-addressed register bank.
type RegisterFile struct {
	regs    map[uint32]RegInfo
	allocas map[uint32]*ir.InstAlloca
	pcReg   uint32
	names   map[uint32]string

	cur      *ir.Block
	diffFunc *ir.Func
}

// New returns a RegisterFile describing regs (keyed by register number),
// with pcReg naming the architectural program counter.
func New(regs map[uint32]RegInfo, pcReg uint32) *RegisterFile {
	return &RegisterFile{
		regs:    regs,
		allocas: make(map[uint32]*ir.InstAlloca),
		pcReg:   pcReg,
		names:   make(map[uint32]string),
	}
}

// SetInstName records a diagnostic mnemonic for mcOpcode.
func (r *RegisterFile) SetInstName(mcOpcode uint32, name string) {
	r.names[mcOpcode] = name
}

// alloca returns (creating in the entry-less, lazy sense — allocas are
// created in whatever block first asks for the register) the backing
// storage for regNo.
func (r *RegisterFile) alloca(regNo uint32) *ir.InstAlloca {
	if a, ok := r.allocas[regNo]; ok {
		return a
	}
	info, ok := r.regs[regNo]
	if !ok {
		panic(fmt.Errorf("flatfile: unknown register number %d", regNo))
	}
	a := r.cur.NewAlloca(info.Type)
	a.SetName(info.Name)
	r.allocas[regNo] = a
	return a
}

func (r *RegisterFile) SwitchToInst(inst *mc.Instruction) {}

func (r *RegisterFile) SwitchToBB(bb *mc.BasicBlock, irBlock *ir.Block) {
	r.cur = irBlock
}

func (r *RegisterFile) FinalizeBB() {}

func (r *RegisterFile) FinalizeFunction(exit *ir.Block) {}

func (r *RegisterFile) GetReg(regNo uint32) value.Value {
	info := r.regs[regNo]
	return r.cur.NewLoad(info.Type, r.alloca(regNo))
}

func (r *RegisterFile) SetReg(regNo uint32, v value.Value) {
	r.cur.NewStore(v, r.alloca(regNo))
}

func (r *RegisterFile) GetRegAsInt(regNo uint32) value.Value {
	info := r.regs[regNo]
	v := r.GetReg(regNo)
	if types.Equal(v.Type(), info.IntType) {
		return v
	}
	return r.cur.NewBitCast(v, info.IntType)
}

func (r *RegisterFile) InsertBitsInValue(whole, narrow value.Value) value.Value {
	wholeTy, ok := whole.Type().(*types.IntType)
	if !ok {
		panic(fmt.Errorf("flatfile: InsertBitsInValue: whole is not an integer type: %T", whole.Type()))
	}
	narrowTy, ok := narrow.Type().(*types.IntType)
	if !ok {
		panic(fmt.Errorf("flatfile: InsertBitsInValue: narrow is not an integer type: %T", narrow.Type()))
	}
	if wholeTy.BitSize == narrowTy.BitSize {
		return narrow
	}
	ext := r.cur.NewZExt(narrow, wholeTy)
	mask := ^uint64(0) << narrowTy.BitSize
	maskConst := constInt(wholeTy, mask)
	cleared := r.cur.NewAnd(whole, maskConst)
	return r.cur.NewOr(cleared, ext)
}

func (r *RegisterFile) GetRegIntType(regNo uint32) types.Type {
	return r.regs[regNo].IntType
}

func (r *RegisterFile) GetRegType(regNo uint32) types.Type {
	return r.regs[regNo].Type
}

func (r *RegisterFile) GetRegSetType() types.Type {
	// No real backing struct in this reference implementation — an
	// opaque i8 stands in for "the register-set pointee type".
	return types.I8
}

func (r *RegisterFile) GetOrCreateRegSetDiffFunction(m *ir.Module) *ir.Func {
	if r.diffFunc != nil {
		return r.diffFunc
	}
	sig := types.NewFunc(types.Void, types.I8Ptr, types.I8Ptr, types.I8Ptr)
	f := m.NewFunc("regset_diff", types.Void,
		ir.NewParam("fn_addr", types.I8Ptr),
		ir.NewParam("saved", types.I8Ptr),
		ir.NewParam("live", types.I8Ptr),
	)
	f.Sig = sig
	entry := f.NewBlock("entry")
	entry.NewRet(nil)
	r.diffFunc = f
	return f
}

func (r *RegisterFile) SaveAllLocalRegs(bb *ir.Block, beforeIdx int) {
	// Reference implementation: nothing to spill, since every register
	// already lives in its own alloca for the duration of the function.
}

func (r *RegisterFile) RestoreLocalRegs(bb *ir.Block, afterIdx int) {
	// See SaveAllLocalRegs.
}

func (r *RegisterFile) ProgramCounterReg() uint32 {
	return r.pcReg
}

func (r *RegisterFile) InstName(mcOpcode uint32) string {
	if n, ok := r.names[mcOpcode]; ok {
		return n
	}
	return fmt.Sprintf("mc_opcode(%d)", mcOpcode)
}
