package box

import (
	"testing"

	"github.com/dr8co/kongur/value"
)

func TestNewCommittedCurrent(t *testing.T) {
	s := value.NewState()
	s, b := New(s, value.NewInt(1))
	if Committed(s, b).(value.Int).N.Int64() != 1 {
		t.Fatalf("committed should be 1")
	}
	if Current(s, b).(value.Int).N.Int64() != 1 {
		t.Fatalf("current should be 1")
	}
}

func TestTransactionCommit(t *testing.T) {
	s := value.NewState()
	s, b := New(s, value.NewInt(1))
	s = Begin(s, b)
	s = Set(s, b, value.NewInt(2))
	if Committed(s, b).(value.Int).N.Int64() != 1 {
		t.Fatalf("committed should still be 1 mid-transaction")
	}
	if Current(s, b).(value.Int).N.Int64() != 2 {
		t.Fatalf("current should be 2 mid-transaction")
	}
	s = Commit(s, b)
	if Committed(s, b).(value.Int).N.Int64() != 2 {
		t.Fatalf("committed should be 2 after commit")
	}
}

func TestCommitWithNoOpenTransactionFails(t *testing.T) {
	s := value.NewState()
	s, b := New(s, value.NewInt(1))
	defer func() {
		if recover() == nil {
			t.Fatalf("committing a box with no open transaction should fail")
		}
	}()
	Commit(s, b)
}

func TestCommitDropsOnlyTheShadowedLayer(t *testing.T) {
	s := value.NewState()
	s, b := New(s, value.NewInt(1))
	s = Begin(s, b)
	s = Set(s, b, value.NewInt(2))
	s = Begin(s, b)
	s = Set(s, b, value.NewInt(3))

	s = Commit(s, b)
	if Current(s, b).(value.Int).N.Int64() != 3 {
		t.Fatalf("current should still be 3 after committing the inner transaction")
	}
	if Committed(s, b).(value.Int).N.Int64() != 1 {
		t.Fatalf("committing the inner transaction must not touch the outer one, still 1, got %v", Committed(s, b))
	}

	s, discarded := Rollback(s, b)
	if discarded.(value.Int).N.Int64() != 3 {
		t.Fatalf("rolling back the remaining outer transaction should discard 3, got %v", discarded)
	}
	if Committed(s, b).(value.Int).N.Int64() != 1 {
		t.Fatalf("committed should be 1 after rolling back the outer transaction")
	}
}

func TestTransactionRollback(t *testing.T) {
	s := value.NewState()
	s, b := New(s, value.NewInt(1))
	s = Begin(s, b)
	s = Set(s, b, value.NewInt(99))
	s, discarded := Rollback(s, b)
	if discarded.(value.Int).N.Int64() != 99 {
		t.Fatalf("rollback should return the discarded value, got %v", discarded)
	}
	if Current(s, b).(value.Int).N.Int64() != 1 {
		t.Fatalf("current should revert to 1 after rollback, got %v", Current(s, b))
	}
}

func TestChangeIsAtomic(t *testing.T) {
	s := value.NewState()
	s, b := New(s, value.NewInt(1))
	s = Change(s, b, value.NewInt(7))
	if Committed(s, b).(value.Int).N.Int64() != 7 {
		t.Fatalf("committed should be 7 after atomic change")
	}
	if Current(s, b).(value.Int).N.Int64() != 7 {
		t.Fatalf("current should be 7 after atomic change")
	}
}

func TestDeallocateThenAccessFails(t *testing.T) {
	s := value.NewState()
	s, b := New(s, value.NewInt(1))
	s = Deallocate(s, b)
	defer func() {
		if recover() == nil {
			t.Fatalf("accessing a deallocated box should fail")
		}
	}()
	Committed(s, b)
}

func TestBoxesAreIndependentAcrossStates(t *testing.T) {
	s0 := value.NewState()
	s1, b := New(s0, value.NewInt(1))
	s2 := Set(Begin(s1, b), b, value.NewInt(2))

	if Current(s1, b).(value.Int).N.Int64() != 1 {
		t.Fatalf("s1's box must be unaffected by mutation performed against s2's derivation")
	}
	if Current(s2, b).(value.Int).N.Int64() != 2 {
		t.Fatalf("s2's box should reflect the mutation")
	}
}
