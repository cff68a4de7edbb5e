// Package translate is the per-function / per-instruction semantic
// translation engine: it walks a decoded MC function, materializes IR
// basic blocks at correct addresses, drives the table-driven semantics
// interpreter (InstructionTranslator) that emits IR from the compact
// opcode streams in tape.Tables, and coordinates with a regsem.Semantics
// collaborator to read/write the architectural register file.
package translate

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Policy collects the enumerated options spec.md §6 names.
type Policy struct {
	// RegsetDiff wraps every function return in a call to the
	// register-semantics-provided diff function. Default off.
	RegsetDiff bool
	// InstAddrSave volatile-stores the current instruction address (and
	// function/block address) before each instruction, into module-level
	// debug-sink globals. Default off.
	InstAddrSave bool
	// UnknownToUndef makes unknown instructions/opcodes/predicates emit
	// trap+unreachable and continue, instead of failing translation.
	// Default off.
	UnknownToUndef bool
	// Diagnostics receives the instruction-name / operand-dump / opcode
	// diagnostics emitted whenever a kind 1-3 error (§7) is skipped under
	// UnknownToUndef. Defaults to os.Stderr.
	Diagnostics io.Writer
}

// Option configures a Policy, following the teacher's flag-struct-then-
// apply shape (cmd/run68/main.go).
type Option func(*Policy)

// WithRegsetDiff enables the regset-diff policy.
func WithRegsetDiff() Option { return func(p *Policy) { p.RegsetDiff = true } }

// WithInstAddrSave enables the instruction-address-save policy.
func WithInstAddrSave() Option { return func(p *Policy) { p.InstAddrSave = true } }

// WithUnknownToUndef enables the undef-on-unknown policy.
func WithUnknownToUndef() Option { return func(p *Policy) { p.UnknownToUndef = true } }

// WithDiagnostics overrides the diagnostics sink.
func WithDiagnostics(w io.Writer) Option { return func(p *Policy) { p.Diagnostics = w } }

// NewPolicy builds a Policy from the given options.
func NewPolicy(opts ...Option) Policy {
	p := Policy{Diagnostics: os.Stderr}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Error kinds 1-3 (spec.md §7): unknown target instruction, unknown
// semantic opcode, unknown predicate/complex pattern/custom operand. These
// are policy-recoverable — reportUnknown/unknownOpcode check
// Policy.UnknownToUndef before deciding whether to surface or swallow
// them.
var (
	ErrUnknownInstruction    = errors.New("unknown target instruction")
	ErrUnknownOpcode         = errors.New("unknown semantic opcode")
	ErrUnknownPredicate      = errors.New("unknown predicate")
	ErrUnknownComplexPattern = errors.New("unknown complex pattern")
	ErrUnknownCustomOperand  = errors.New("unknown custom operand")
)

// AssertionError marks an error-kind-4/5 (spec.md §7) invariant violation:
// a programmer/generator bug, always fatal regardless of policy.
type AssertionError struct {
	msg string
}

func (e *AssertionError) Error() string { return "translate: assertion failed: " + e.msg }

func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(&AssertionError{msg: errors.Errorf(format, args...).Error()})
	}
}
