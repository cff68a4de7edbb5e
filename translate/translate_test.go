package translate_test

import (
	"bytes"
	"testing"

	"github.com/llir/llvm/ir"

	"github.com/liftgo/dagger/irb"
	"github.com/liftgo/dagger/mc"
	"github.com/liftgo/dagger/target/x64demo"
	"github.com/liftgo/dagger/translate"
)

// newModule returns a fresh module/builder pair, so each test gets an
// isolated ir.Module.
func newModule() (*ir.Module, *irb.Builder) {
	m := ir.NewModule()
	return m, irb.New(m, 64)
}

func translateFunc(t *testing.T, fn *mc.Function, opts ...translate.Option) (*ir.Module, error) {
	t.Helper()
	m, b := newModule()
	rsi := x64demo.NewRegisterFile()
	tables := x64demo.BuildTables()
	policy := translate.NewPolicy(opts...)
	ft := translate.NewFunctionTranslator(b, fn, &tables, rsi, x64demo.Hooks{}, policy)
	err := ft.Translate()
	return m, err
}

func oneBlockFunc(addr mc.Address, insts []*mc.Instruction, term *mc.Instruction, end mc.Address) *mc.Function {
	return &mc.Function{
		StartAddr: addr,
		Blocks: []*mc.BasicBlock{
			{Start: addr, End: end, Insts: insts, Term: term},
		},
	}
}

// Scenario: ADD r1, r2 -> r3, running entirely through the generic
// semantics tape (GetRC, GetRC, ADD, PutRC).
func TestAddThroughTape(t *testing.T) {
	addInst := &mc.Instruction{
		Addr:   0x1000,
		Size:   3,
		Opcode: x64demo.OpAddRRR,
		Operands: []mc.Operand{
			mc.Reg(x64demo.RegRAX),
			mc.Reg(x64demo.RegRCX),
			mc.Reg(x64demo.RegRDX),
		},
	}
	brInst := &mc.Instruction{Addr: 0x1003, Size: 5, Opcode: x64demo.OpBrDirect}
	fn := oneBlockFunc(0x1000, []*mc.Instruction{addInst}, brInst, 0x1008)

	m, err := translateFunc(t, fn)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if len(m.Funcs) == 0 {
		t.Fatalf("no functions emitted")
	}
	var found *ir.Func
	for _, f := range m.Funcs {
		if f.Name() == "fn_1000" {
			found = f
		}
	}
	if found == nil {
		t.Fatalf("function fn_1000 not found among %d emitted functions", len(m.Funcs))
	}
	if len(found.Blocks) == 0 {
		t.Fatalf("fn_1000 has no basic blocks")
	}
}

// Scenario: a direct branch back to the function's own entry, exercising
// BlockManager's placeholder-to-open transition on a self-reference.
func TestDirectBranchSelfLoop(t *testing.T) {
	brInst := &mc.Instruction{Addr: 0x2000, Size: 5, Opcode: x64demo.OpBrDirect}
	fn := oneBlockFunc(0x1000, nil, brInst, 0x1005)
	// BuildTables hard-codes the branch target at 0x1000, matching this
	// function's start address, so the block branches to itself.

	_, err := translateFunc(t, fn)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
}

// Scenario: a deliberately unmodeled opcode, with the undef policy off —
// translation must fail rather than silently drop the instruction.
func TestUnknownOpcodeFailsByDefault(t *testing.T) {
	badInst := &mc.Instruction{Addr: 0x3000, Size: 1, Opcode: x64demo.OpUnknown}
	fn := oneBlockFunc(0x3000, nil, badInst, 0x3001)

	_, err := translateFunc(t, fn)
	if err == nil {
		t.Fatalf("Translate() succeeded on an unmodeled opcode with undef policy off")
	}
}

// Same scenario with WithUnknownToUndef: translation succeeds, substituting
// trap+unreachable for the unmodeled instruction.
func TestUnknownOpcodeSubstitutesUndef(t *testing.T) {
	badInst := &mc.Instruction{Addr: 0x3000, Size: 1, Opcode: x64demo.OpUnknown}
	fn := oneBlockFunc(0x3000, nil, badInst, 0x3001)

	var diag bytes.Buffer
	_, err := translateFunc(t, fn,
		translate.WithUnknownToUndef(),
		translate.WithDiagnostics(&diag))
	if err != nil {
		t.Fatalf("Translate() error = %v under undef-on-unknown policy", err)
	}
	if diag.Len() == 0 {
		t.Fatalf("no diagnostic written for the substituted unknown instruction")
	}
}

// Scenario: pcmpeqq register form, entirely bypassing the tape via
// TranslateTargetInst.
func TestPcmpeqqRegisterForm(t *testing.T) {
	inst := &mc.Instruction{
		Addr:   0x1000,
		Size:   5,
		Opcode: x64demo.OpPcmpeqqReg,
		Operands: []mc.Operand{
			mc.Reg(x64demo.RegX8),
			mc.Reg(x64demo.RegX10),
		},
	}
	brInst := &mc.Instruction{Addr: 0x1005, Size: 5, Opcode: x64demo.OpBrDirect}
	fn := oneBlockFunc(0x1000, []*mc.Instruction{inst}, brInst, 0x100a)

	_, err := translateFunc(t, fn)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
}

// Scenario: pcmpeqq memory form, exercising the address computation inside
// the whole-instruction override.
func TestPcmpeqqMemoryForm(t *testing.T) {
	inst := &mc.Instruction{
		Addr:   0x1000,
		Size:   6,
		Opcode: x64demo.OpPcmpeqqMem,
		Operands: []mc.Operand{
			mc.Reg(x64demo.RegX8),
			mc.Reg(x64demo.RegR14),
			mc.Reg(x64demo.RegR15),
		},
	}
	brInst := &mc.Instruction{Addr: 0x1006, Size: 5, Opcode: x64demo.OpBrDirect}
	fn := oneBlockFunc(0x1000, []*mc.Instruction{inst}, brInst, 0x100b)

	_, err := translateFunc(t, fn)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
}

// Scenario: a call to a known address, exercising InsertCall's block
// splitting and the postProcess save/restore pass around the call block.
func TestCallToKnownAddress(t *testing.T) {
	callInst := &mc.Instruction{
		Addr:     0x1000,
		Size:     5,
		Opcode:   x64demo.OpCallKnown,
		Operands: []mc.Operand{mc.Imm(0x5000)},
	}
	brInst := &mc.Instruction{Addr: 0x1005, Size: 5, Opcode: x64demo.OpBrDirect}
	fn := oneBlockFunc(0x1000, []*mc.Instruction{callInst}, brInst, 0x100a)

	m, err := translateFunc(t, fn)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	var callee *ir.Func
	for _, f := range m.Funcs {
		if f.Name() == "fn_5000" {
			callee = f
		}
	}
	if callee == nil {
		t.Fatalf("call target fn_5000 was not declared")
	}
}

// Scenario: the regset-diff policy wires a diff-exit block that calls the
// RSI's diff function before returning.
func TestRegsetDiffPolicyAddsDiffExit(t *testing.T) {
	brInst := &mc.Instruction{Addr: 0x2000, Size: 5, Opcode: x64demo.OpBrDirect}
	fn := oneBlockFunc(0x1000, nil, brInst, 0x1005)

	m, err := translateFunc(t, fn, translate.WithRegsetDiff())
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	var found *ir.Func
	for _, f := range m.Funcs {
		if f.Name() == "fn_1000" {
			found = f
		}
	}
	if found == nil {
		t.Fatalf("fn_1000 not found")
	}
	var hasDiffExit bool
	for _, blk := range found.Blocks {
		if blk.Name() == "diff_exit_fn_1000" {
			hasDiffExit = true
		}
	}
	if !hasDiffExit {
		t.Fatalf("regset-diff policy did not produce a diff_exit block")
	}
}
