package tape

import "testing"

func TestIdxFor(t *testing.T) {
	tbl := &Tables{
		OpcodeToSemaIdx: []uint32{NoSemantics, 3, NoSemantics},
		SemanticsArray:  []uint16{0, 0, 0, uint16(OpAdd), uint16(EVTi64), uint16(EndOfInstruction)},
	}

	if _, ok := tbl.IdxFor(0); ok {
		t.Fatalf("IdxFor(0) reported semantics for NoSemantics slot")
	}
	idx, ok := tbl.IdxFor(1)
	if !ok || idx != 3 {
		t.Fatalf("IdxFor(1) = (%d, %v), want (3, true)", idx, ok)
	}
	if _, ok := tbl.IdxFor(99); ok {
		t.Fatalf("IdxFor(99) reported semantics past table end")
	}
}

func TestReaderSequence(t *testing.T) {
	tbl := &Tables{
		SemanticsArray: []uint16{
			uint16(OpAdd), uint16(EVTi64),
			uint16(PredicateOp), uint16(EVTi32), uint16(PredLoad),
			uint16(EndOfInstruction),
		},
	}
	r := NewReader(tbl, 0)

	if op := r.NextOpcode(); op != OpAdd {
		t.Fatalf("first opcode = %v, want OpAdd", op)
	}
	if vt := r.NextVT(); vt != EVTi64 {
		t.Fatalf("vt = %v, want EVTi64", vt)
	}
	if op := r.NextOpcode(); op != PredicateOp {
		t.Fatalf("second opcode = %v, want PredicateOp", op)
	}
	if vt := r.NextVT(); vt != EVTi32 {
		t.Fatalf("vt = %v, want EVTi32", vt)
	}
	if pred := r.NextPredicate(); pred != PredLoad {
		t.Fatalf("predicate = %v, want PredLoad", pred)
	}
	if op := r.NextOpcode(); op != EndOfInstruction {
		t.Fatalf("final opcode = %v, want EndOfInstruction", op)
	}
}

func TestConstant(t *testing.T) {
	tbl := &Tables{ConstantArray: []uint64{0xdead, 0xbeef}}

	v, err := tbl.Constant(1)
	if err != nil || v != 0xbeef {
		t.Fatalf("Constant(1) = (%d, %v), want (0xbeef, nil)", v, err)
	}
	if _, err := tbl.Constant(5); err == nil {
		t.Fatalf("Constant(5) did not error on out-of-range index")
	}
}

func TestEVTBits(t *testing.T) {
	cases := map[EVT]int{
		EVTi1: 1, EVTi8: 8, EVTi16: 16, EVTi32: 32,
		EVTi64: 64, EVTiPTR: 64, EVTi128: 128,
		EVTf32: 32, EVTf64: 64,
		EVTv2i64: 128, EVTv4i32: 128, EVTv2f64: 128,
	}
	for vt, want := range cases {
		if got := vt.Bits(); got != want {
			t.Errorf("%v.Bits() = %d, want %d", vt, got, want)
		}
	}
}

func TestPredicateExt(t *testing.T) {
	kind, bits, ok := PredSExtLoadI16.Ext()
	if !ok || kind != ExtSign || bits != 16 {
		t.Fatalf("PredSExtLoadI16.Ext() = (%v, %d, %v), want (ExtSign, 16, true)", kind, bits, ok)
	}
	if _, _, ok := PredAlignedStore.Ext(); ok {
		t.Fatalf("PredAlignedStore.Ext() reported extension info for a non-extending predicate")
	}
}

func TestPredicateIsLoadIsStore(t *testing.T) {
	if !PredZExtLoadI8.IsLoad() {
		t.Fatalf("PredZExtLoadI8.IsLoad() = false")
	}
	if !PredAlignedStore.IsStore() {
		t.Fatalf("PredAlignedStore.IsStore() = false")
	}
	if PredAlignedStore.IsLoad() {
		t.Fatalf("PredAlignedStore.IsLoad() = true")
	}
}
