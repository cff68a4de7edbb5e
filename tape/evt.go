package tape

import "fmt"

// EVT is a value-type tag as it appears inline in the semantic tape. iPTR
// is special: it names "a pointer-sized integer" and must be resolved by
// the instruction translator against the configured pointer width rather
// than a fixed size.
type EVT uint8

const (
	EVTi1 EVT = iota
	EVTi8
	EVTi16
	EVTi32
	EVTi64
	EVTi128
	EVTf32
	EVTf64
	EVTiPTR

	// Vector shapes needed by the worked examples (128-bit SIMD compares).
	EVTv2i64
	EVTv4i32
	EVTv2f64
)

func (t EVT) String() string {
	names := [...]string{
		"i1", "i8", "i16", "i32", "i64", "i128", "f32", "f64", "iPTR",
		"v2i64", "v4i32", "v2f64",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("EVT(%d)", uint8(t))
}

// IsFloat reports whether t names a scalar floating-point type.
func (t EVT) IsFloat() bool {
	return t == EVTf32 || t == EVTf64
}

// IsVector reports whether t names a vector type.
func (t EVT) IsVector() bool {
	return t == EVTv2i64 || t == EVTv4i32 || t == EVTv2f64
}

// Bits returns t's bit width, used by the register-file read/write path to
// decide whether a sub-register truncation or insertion is needed. iPTR is
// reported as 64, matching irb.Builder's default pointer width.
func (t EVT) Bits() int {
	switch t {
	case EVTi1:
		return 1
	case EVTi8:
		return 8
	case EVTi16:
		return 16
	case EVTi32:
		return 32
	case EVTi64, EVTiPTR:
		return 64
	case EVTi128:
		return 128
	case EVTf32:
		return 32
	case EVTf64:
		return 64
	case EVTv2i64, EVTv4i32, EVTv2f64:
		return 128
	default:
		return 0
	}
}

// Predicate names a memory access pattern or composite operation that
// reuses LOAD/STORE/ExtLoad/binop codepaths instead of introducing a new
// opcode per variant.
type Predicate uint8

const (
	PredMemOp Predicate = iota
	PredLoadI16
	PredLoadI32
	PredAlignedLoad
	PredAlignedLoad256
	PredAlignedLoad512
	PredLoad
	PredAlignedStore
	PredNontemporalStore
	PredStore256
	PredStore512
	PredZExtLoadI8
	PredZExtLoadI16
	PredSExtLoadI8
	PredSExtLoadI16
	PredSExtLoadI32
	PredAndSU
)

func (p Predicate) String() string {
	names := [...]string{
		"memop", "loadi16", "loadi32", "alignedload", "alignedload256",
		"alignedload512", "load", "alignedstore", "nontemporalstore",
		"store256", "store512", "zextloadi8", "zextloadi16", "sextloadi8",
		"sextloadi16", "sextloadi32", "and_su",
	}
	if int(p) < len(names) {
		return names[p]
	}
	return fmt.Sprintf("Predicate(%d)", uint8(p))
}

// IsLoad reports whether p reads memory.
func (p Predicate) IsLoad() bool {
	switch p {
	case PredMemOp, PredLoadI16, PredLoadI32, PredAlignedLoad, PredAlignedLoad256,
		PredAlignedLoad512, PredLoad, PredZExtLoadI8, PredZExtLoadI16,
		PredSExtLoadI8, PredSExtLoadI16, PredSExtLoadI32:
		return true
	default:
		return false
	}
}

// IsStore reports whether p writes memory.
func (p Predicate) IsStore() bool {
	switch p {
	case PredAlignedStore, PredNontemporalStore, PredStore256, PredStore512:
		return true
	default:
		return false
	}
}

// ExtKind describes the sign/zero extension a load predicate performs, if
// any.
type ExtKind uint8

const (
	ExtNone ExtKind = iota
	ExtZero
	ExtSign
)

// Ext reports the extension kind and narrow-memory-type width (in bits)
// implied by a zextload/sextload predicate. ok is false for predicates that
// are not extending loads.
func (p Predicate) Ext() (kind ExtKind, narrowBits int, ok bool) {
	switch p {
	case PredZExtLoadI8:
		return ExtZero, 8, true
	case PredZExtLoadI16:
		return ExtZero, 16, true
	case PredSExtLoadI8:
		return ExtSign, 8, true
	case PredSExtLoadI16:
		return ExtSign, 16, true
	case PredSExtLoadI32:
		return ExtSign, 32, true
	default:
		return ExtNone, 0, false
	}
}
