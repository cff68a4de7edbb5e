package stack

import (
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

func constInt(n int64) *constant.Int {
	return constant.NewInt(types.I64, n)
}

func TestPushPop(t *testing.T) {
	s := New()
	s.Push(constInt(1))
	s.Push(constInt(2))

	if got := s.Pop().(*constant.Int).X.Int64(); got != 2 {
		t.Fatalf("Pop() = %d, want 2", got)
	}
	if got := s.Pop().(*constant.Int).X.Int64(); got != 1 {
		t.Fatalf("Pop() = %d, want 1", got)
	}
	if !s.Empty() {
		t.Fatalf("Empty() = false after draining stack")
	}
}

func TestPopUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Pop on empty stack did not panic")
		}
	}()
	New().Pop()
}

func TestPopNBottomToTopOrder(t *testing.T) {
	s := New()
	s.Push(constInt(10))
	s.Push(constInt(20))
	s.Push(constInt(30))

	got := s.PopN(2)
	if len(got) != 2 {
		t.Fatalf("PopN(2) returned %d values, want 2", len(got))
	}
	if got[0].(*constant.Int).X.Int64() != 20 || got[1].(*constant.Int).X.Int64() != 30 {
		t.Fatalf("PopN(2) = %v, want [20 30]", got)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d after PopN(2), want 1", s.Len())
	}
}

func TestPopNUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("PopN beyond stack depth did not panic")
		}
	}()
	s := New()
	s.Push(constInt(1))
	s.PopN(2)
}

func TestClear(t *testing.T) {
	s := New()
	s.Push(constInt(1))
	s.Push(constInt(2))
	s.Clear()
	if !s.Empty() || s.Len() != 0 {
		t.Fatalf("Clear() left stack non-empty: len=%d", s.Len())
	}
}
