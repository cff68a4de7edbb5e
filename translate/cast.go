package translate

import "github.com/liftgo/dagger/tape"

// cast handles the single-operand cast opcodes: pop one, emit a cast to
// the current result type, push.
func (t *InstructionTranslator) cast(op tape.Opcode) (opcodeResult, error) {
	x := t.vs.Pop()
	to := t.irb.Type(t.resEVT)
	v, err := t.irb.Cast(op, x, to)
	if err != nil {
		return 0, err
	}
	t.vs.Push(v)
	return resultContinue, nil
}
