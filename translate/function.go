package translate

import (
	"fmt"
	"sort"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/liftgo/dagger/irb"
	"github.com/liftgo/dagger/mc"
	"github.com/liftgo/dagger/regsem"
	"github.com/liftgo/dagger/stack"
	"github.com/liftgo/dagger/tape"
)

// FunctionTranslator is the FT: it owns one MC function's worth of
// translation — block management, the per-instruction translator, call-
// block bookkeeping, and the entry/exit/diff-exit scaffolding.
type FunctionTranslator struct {
	module *ir.Module
	mcFn   *mc.Function
	tables *tape.Tables
	rsi    regsem.Semantics
	hooks  TargetHooks
	policy Policy
	irb    *irb.Builder
	blocks *BlockManager
	it     *InstructionTranslator

	fn          *ir.Func
	regsetParam *ir.Param
	entry       *ir.Block
	exit        *ir.Block
	diffExit    *ir.Block

	callBlocks []*ir.Block

	currentFn, currentBB, currentInstr *ir.Global
}

// NewFunctionTranslator constructs the FT for mcFn: looks up/creates its IR
// function, wires entry/exit/diff-exit scaffolding, and branches entry into
// the BBM-resolved start block.
func NewFunctionTranslator(b *irb.Builder, mcFn *mc.Function, tables *tape.Tables, rsi regsem.Semantics, hooks TargetHooks, policy Policy) *FunctionTranslator {
	name := fnName(mcFn.StartAddr)
	regsetTy := rsi.GetRegSetType()

	var fn *ir.Func
	for _, f := range b.Module.Funcs {
		if f.Name() == name {
			fn = f
		}
	}
	if fn == nil {
		fn = b.Module.NewFunc(name, types.Void, ir.NewParam("regset", types.NewPointer(regsetTy)))
	}
	assertf(len(fn.Blocks) == 0 && len(fn.Params) == 1,
		"function %q already exists in module with a body", name)
	param := fn.Params[0]
	param.Attrs = append(param.Attrs, enum.ParamAttrNoAlias, enum.ParamAttrNoCapture)

	entry := fn.NewBlock("entry_" + name)
	exit := fn.NewBlock("exit_" + name)

	ft := &FunctionTranslator{
		module:      b.Module,
		mcFn:        mcFn,
		tables:      tables,
		rsi:         rsi,
		hooks:       hooks,
		policy:      policy,
		irb:         b,
		fn:          fn,
		regsetParam: param,
		entry:       entry,
		exit:        exit,
	}
	ft.blocks = NewBlockManager(fn, b)

	if policy.RegsetDiff {
		b.SetBlock(entry)
		saved := entry.NewAlloca(regsetTy)
		saved.SetName("saved")
		live := entry.NewLoad(regsetTy, param)
		entry.NewStore(live, saved)

		diffExit := fn.NewBlock("diff_exit_" + name)
		diffFn := rsi.GetOrCreateRegSetDiffFunction(b.Module)

		b.SetBlock(diffExit)
		fnAddr := diffExit.NewIntToPtr(constant.NewInt(types.I64, int64(mcFn.StartAddr)), types.I8Ptr)
		savedPtr := diffExit.NewBitCast(saved, types.I8Ptr)
		livePtr := diffExit.NewBitCast(param, types.I8Ptr)
		diffExit.NewCall(diffFn, fnAddr, savedPtr, livePtr)
		diffExit.NewRet(nil)

		ft.diffExit = diffExit
		exit.NewBr(diffExit)
	} else {
		exit.NewRet(nil)
	}

	if policy.InstAddrSave {
		ft.currentFn = debugSink(b.Module, "current_fn")
		ft.currentBB = debugSink(b.Module, "current_bb")
		ft.currentInstr = debugSink(b.Module, "current_instr")
	}

	b.SetBlock(entry)
	if policy.InstAddrSave {
		ft.irb.VolatileStore(constant.NewInt(types.I64, int64(mcFn.StartAddr)), ft.currentFn)
	}
	startBlk := ft.blocks.GetOrCreate(mcFn.StartAddr)
	b.Br(startBlk)

	ft.it = &InstructionTranslator{
		irb:    b,
		vs:     stack.New(),
		tables: tables,
		rsi:    rsi,
		hooks:  hooks,
		policy: policy,
		ft:     ft,
	}

	return ft
}

func fnName(addr mc.Address) string {
	return fmt.Sprintf("fn_%s", hex(addr))
}

// debugSink declares one of the three process-wide pointer-sized globals
// the instruction-address-save policy volatile-stores into.
func debugSink(m *ir.Module, name string) *ir.Global {
	for _, g := range m.Globals {
		if g.Name() == name {
			return g
		}
	}
	g := m.NewGlobal(name, types.I64)
	g.Init = constant.NewInt(types.I64, 0)
	return g
}

func (ft *FunctionTranslator) recordInstAddr(addr mc.Address) {
	ft.irb.VolatileStore(constant.NewInt(types.I64, int64(addr)), ft.currentInstr)
}

// Translate walks mcFn's basic blocks (address order) through the
// instruction translator, then runs post-processing (call-block save/
// restore, RSI finalization) on every exit path — including one that
// aborts midway on a translation failure or a fatal assertion panic.
func (ft *FunctionTranslator) Translate() (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case *AssertionError:
				err = v
			case error:
				err = &AssertionError{msg: v.Error()}
			default:
				err = &AssertionError{msg: fmt.Sprint(v)}
			}
		}
		if perr := ft.postProcess(); perr != nil && err == nil {
			err = perr
		}
	}()

	blocks := append([]*mc.BasicBlock(nil), ft.mcFn.Blocks...)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })

	for _, bb := range blocks {
		ft.switchToBB(bb)
		for _, inst := range bb.Insts {
			if _, err = ft.it.TranslateInst(inst); err != nil {
				return err
			}
		}
		if bb.Term != nil {
			if _, err = ft.it.TranslateInst(bb.Term); err != nil {
				return err
			}
		}
		ft.finalizeBB(bb)
	}
	return nil
}

// switchToBB opens bb's IR block for insertion and initializes PC to its
// start address (the per-instruction advance then keeps it current).
func (ft *FunctionTranslator) switchToBB(bb *mc.BasicBlock) {
	blk := ft.blocks.PrepareForInsertion(bb.Start)
	ft.irb.SetBlock(blk)
	ft.it.curBB = bb
	ft.rsi.SwitchToBB(bb, blk)

	if ft.policy.InstAddrSave {
		ft.irb.VolatileStore(constant.NewInt(types.I64, int64(bb.Start)), ft.currentBB)
	}

	pcReg := ft.rsi.ProgramCounterReg()
	pcTy, ok := ft.rsi.GetRegType(pcReg).(*types.IntType)
	assertf(ok, "program counter register type is not an integer type: %T", ft.rsi.GetRegType(pcReg))
	ft.rsi.SetReg(pcReg, constant.NewInt(pcTy, int64(bb.Start)))
}

// finalizeBB emits a fallthrough branch if bb's block has no terminator.
func (ft *FunctionTranslator) finalizeBB(bb *mc.BasicBlock) {
	if ft.irb.Block.Term == nil {
		ft.irb.Br(ft.blocks.GetOrCreate(bb.End))
	}
	ft.rsi.FinalizeBB()
	ft.blocks.Finalize(bb.Start)
}

// InsertCall resolves target (a compile-time constant address or a runtime
// value needing translate_at) to a callee and splits the current block
// around a call to it.
func (ft *FunctionTranslator) InsertCall(target value.Value) error {
	callee := ft.resolveCallTarget(target)
	return ft.insertCallBB(callee)
}

func (ft *FunctionTranslator) resolveCallTarget(target value.Value) value.Value {
	if ci, ok := target.(*constant.Int); ok {
		return ft.funcAt(mc.Address(ci.X.Uint64()))
	}
	return ft.translateAt(target)
}

// funcAt looks up (or forward-declares) the IR function for addr.
func (ft *FunctionTranslator) funcAt(addr mc.Address) *ir.Func {
	name := fnName(addr)
	for _, f := range ft.module.Funcs {
		if f.Name() == name {
			return f
		}
	}
	param := ir.NewParam("regset", types.NewPointer(ft.rsi.GetRegSetType()))
	return ft.module.NewFunc(name, types.Void, param)
}

// translateAt emits a call to the runtime intrinsic translate_at, which
// resolves an indirect target address to a function pointer at runtime,
// bitcast to the translated-function signature.
func (ft *FunctionTranslator) translateAt(target value.Value) value.Value {
	arg := ft.irb.ToPointer(target, types.I8)
	raw := ft.irb.Intrinsic("translate_at", types.I8Ptr, []types.Type{types.I8Ptr}, arg)
	sig := types.NewPointer(types.NewFunc(types.Void, types.NewPointer(ft.rsi.GetRegSetType())))
	return ft.irb.Block.NewBitCast(raw, sig)
}

// insertCallBB splits the current block: the current block branches into a
// new "_call" block containing a single call to callee, which branches into
// a successor block where translation resumes. The call block is recorded
// for post-processing.
func (ft *FunctionTranslator) insertCallBB(callee value.Value) error {
	cur := ft.irb.Block
	parentName := cur.Name()

	callBlk := ft.fn.NewBlock(parentName + "_call")
	succBlk := ft.fn.NewBlock(fmt.Sprintf("%s_c%s", parentName, hex(ft.it.curInst.Addr)))

	ft.irb.Br(callBlk)

	ft.irb.SetBlock(callBlk)
	callBlk.NewCall(callee, ft.regsetParam)
	ft.irb.Br(succBlk)
	ft.callBlocks = append(ft.callBlocks, callBlk)

	ft.irb.SetBlock(succBlk)
	ft.rsi.SwitchToBB(ft.it.curBB, succBlk)
	return nil
}

// CreateExternalTailCallBB opens the block at addr, calls the target
// function, and returns directly — bypassing the exit block and, per
// spec.md §9's open question, the regset-diff call even when diffing is
// enabled.
func (ft *FunctionTranslator) CreateExternalTailCallBB(addr mc.Address) *ir.Block {
	blk := ft.blocks.PrepareForInsertion(addr)
	ft.irb.SetBlock(blk)
	callee := ft.funcAt(addr)
	blk.NewCall(callee, ft.regsetParam)
	blk.NewRet(nil)
	ft.blocks.Finalize(addr)
	return blk
}

// postProcess wraps every recorded call block's call with RSI save/restore
// and finalizes RSI against the exit block. It is always invoked via
// Translate's deferred cleanup, on every exit path.
func (ft *FunctionTranslator) postProcess() error {
	for _, blk := range ft.callBlocks {
		assertf(len(blk.Insts) == 1 && blk.Term != nil,
			"call block %q is not exactly {call, br}: %d instructions, terminator=%v",
			blk.Name(), len(blk.Insts), blk.Term != nil)
		ft.rsi.SaveAllLocalRegs(blk, 0)
		ft.rsi.RestoreLocalRegs(blk, 1)
	}
	ft.rsi.FinalizeFunction(ft.exit)
	return nil
}
