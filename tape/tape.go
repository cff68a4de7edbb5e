// Package tape reads the semantic tape: three parallel, read-only arrays
// produced offline (see semgen) that together encode the effect of every
// supported target opcode on the architectural register file.
package tape

import "fmt"

// NoSemantics is the OpcodeToSemaIdx sentinel meaning "no semantics for this
// target opcode" — the target hook gets first and only crack at it.
const NoSemantics = ^uint32(0)

// Tables is the semantic tape: a flat stream of tokens interleaving
// semantic opcodes with their inline operands, indexed per target opcode.
type Tables struct {
	// OpcodeToSemaIdx maps a target (mc) opcode to its start offset in
	// SemanticsArray, or NoSemantics.
	OpcodeToSemaIdx []uint32
	// SemanticsArray is the flat token stream. Each instruction's
	// subsequence is terminated by EndOfInstruction.
	SemanticsArray []uint16
	// ConstantArray is the 64-bit constant pool referenced by MovConstant.
	ConstantArray []uint64
}

// IdxFor returns the SemanticsArray start offset for mcOpcode and whether
// semantics exist for it at all.
func (t *Tables) IdxFor(mcOpcode uint32) (uint32, bool) {
	if int(mcOpcode) >= len(t.OpcodeToSemaIdx) {
		return 0, false
	}
	idx := t.OpcodeToSemaIdx[mcOpcode]
	if idx == NoSemantics {
		return 0, false
	}
	return idx, true
}

// Reader is a stateful cursor into a Tables' SemanticsArray/ConstantArray.
type Reader struct {
	t   *Tables
	idx uint32
}

// NewReader returns a cursor positioned at idx into t.SemanticsArray.
func NewReader(t *Tables, idx uint32) *Reader {
	return &Reader{t: t, idx: idx}
}

// Idx returns the reader's current offset into SemanticsArray.
func (r *Reader) Idx() uint32 {
	return r.idx
}

// Next returns the raw token at the cursor and advances it.
//
// Reads past the end of the array are undefined — the generator guarantees
// well-formed streams terminated by EndOfInstruction.
func (r *Reader) Next() uint16 {
	v := r.t.SemanticsArray[r.idx]
	r.idx++
	return v
}

// NextOpcode decodes the next token as a semantic opcode.
func (r *Reader) NextOpcode() Opcode {
	return Opcode(r.Next())
}

// NextVT decodes the next token as a value-type tag.
func (r *Reader) NextVT() EVT {
	return EVT(r.Next())
}

// NextPredicate decodes the next token as a predicate ID.
func (r *Reader) NextPredicate() Predicate {
	return Predicate(r.Next())
}

// Constant returns the pool constant at idx, referenced by MovConstant.
func (t *Tables) Constant(idx uint16) (uint64, error) {
	if int(idx) >= len(t.ConstantArray) {
		return 0, fmt.Errorf("constant pool index %d out of range (pool has %d entries)", idx, len(t.ConstantArray))
	}
	return t.ConstantArray[idx], nil
}
