package translate

import (
	"github.com/llir/llvm/ir/value"

	"github.com/liftgo/dagger/mc"
	"github.com/liftgo/dagger/tape"
)

// TargetHooks is the capability interface a concrete target implements:
// the four abstract methods THS names, plus the whole-instruction
// override. None of these are required to succeed — "not handled here"
// is a legitimate, non-error outcome the core falls through on.
type TargetHooks interface {
	// TranslateTargetInst is given first crack at every instruction,
	// before tape interpretation begins. handled=true means it translated
	// the instruction end-to-end and the tape should not be consulted.
	TranslateTargetInst(t *InstructionTranslator, inst *mc.Instruction) (handled bool, err error)
	// TranslateTargetOpcode handles one target-range opcode token
	// (tape.Kind() == tape.KindTarget).
	TranslateTargetOpcode(t *InstructionTranslator, op tape.Opcode) (handled bool, err error)
	// TranslateComplexPattern computes the value for a named
	// addressing/operand pattern.
	TranslateComplexPattern(t *InstructionTranslator, patternID uint16) (v value.Value, ok bool, err error)
	// TranslateCustomOperand computes the value for a custom operand.
	TranslateCustomOperand(t *InstructionTranslator, opType uint16, miOperandNo uint16) (v value.Value, ok bool, err error)
	// TranslateImplicit emits side effects for an implicit operand (a
	// register the instruction touches without it appearing in its
	// operand list).
	TranslateImplicit(t *InstructionTranslator, regNo uint32) (handled bool, err error)
}
