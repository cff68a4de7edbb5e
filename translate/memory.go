package translate

import "github.com/liftgo/dagger/tape"

// memory handles the explicit LOAD/STORE opcodes: pop a pointer (and, for
// STORE, a value pushed after it), coerce the pointer via int-to-ptr or
// bitcast as needed, emit an aligned (alignment 1) load/store.
func (t *InstructionTranslator) memory(op tape.Opcode) (opcodeResult, error) {
	switch op {
	case tape.OpLoad:
		ptr := t.vs.Pop()
		ty := t.irb.Type(t.resEVT)
		t.vs.Push(t.irb.Load(ptr, ty))
	case tape.OpStore:
		val := t.vs.Pop()
		ptr := t.vs.Pop()
		t.irb.Store(val, ptr)
	}
	return resultContinue, nil
}
