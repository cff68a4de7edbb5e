package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/llir/llvm/ir"
	"github.com/pkg/errors"

	"github.com/liftgo/dagger/irb"
	"github.com/liftgo/dagger/logx"
	"github.com/liftgo/dagger/mc"
	"github.com/liftgo/dagger/target/x64demo"
	"github.com/liftgo/dagger/translate"
)

var (
	regsetDiff     = flag.Bool("regset-diff", false, "Wrap every function return in a register-set diff call.")
	instAddrSave   = flag.Bool("inst-addr-save", false, "Record the current function/block/instruction address before each step.")
	unknownToUndef = flag.Bool("undef-unknown", false, "Translate unmodeled instructions/opcodes to trap+unreachable instead of failing.")
	logFile        = flag.String("log", "", "Diagnostics log file (defaults to stderr only).")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	var diagSink *os.File = os.Stderr
	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			log.Fatalf("dagger-translate: %v", err)
		}
		defer f.Close()
		diagSink = f
	}
	slog.SetDefault(logx.Default(diagSink))

	opts := []translate.Option{}
	if *regsetDiff {
		opts = append(opts, translate.WithRegsetDiff())
	}
	if *instAddrSave {
		opts = append(opts, translate.WithInstAddrSave())
	}
	if *unknownToUndef {
		opts = append(opts, translate.WithUnknownToUndef())
	}
	opts = append(opts, translate.WithDiagnostics(diagSink))
	policy := translate.NewPolicy(opts...)

	fn := demoFunction()

	module, err := translateOne(fn, policy)
	if err != nil {
		slog.Error("translation failed", "err", err)
		os.Exit(1)
	}

	fmt.Println(module.String())
}

// translateOne wires one mc.Function through a FunctionTranslator, using
// the x64demo target as the default (and, for now, only) supported target.
func translateOne(fn *mc.Function, policy translate.Policy) (*ir.Module, error) {
	module := ir.NewModule()
	rsi := x64demo.NewRegisterFile()
	tables := x64demo.BuildTables()

	b := irb.New(module, 64)
	ft := translate.NewFunctionTranslator(b, fn, &tables, rsi, x64demo.Hooks{}, policy)
	if err := ft.Translate(); err != nil {
		return nil, errors.Wrap(err, "translate")
	}
	return module, nil
}

// demoFunction builds a small illustrative function: ADD r1,r2->r3
// followed by a direct branch back to its own entry, giving the CLI
// something non-trivial to print without requiring a real decoder front
// end.
func demoFunction() *mc.Function {
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
	brInst := &mc.Instruction{
		Addr:   0x1003,
		Size:   5,
		Opcode: x64demo.OpBrDirect,
	}

	bb := &mc.BasicBlock{
		Start: 0x1000,
		End:   0x1008,
		Insts: []*mc.Instruction{addInst},
		Term:  brInst,
	}

	return &mc.Function{
		StartAddr: 0x1000,
		Blocks:    []*mc.BasicBlock{bb},
	}
}
