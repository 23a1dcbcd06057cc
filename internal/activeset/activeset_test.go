package activeset

import "testing"

func TestIncludeExcludeBasics(t *testing.T) {
	s := New(10, 2, 1000)
	if !s.Include(5) {
		t.Fatal("expected first include to succeed")
	}
	if s.Include(5) {
		t.Fatal("expected second include of same id to report already-present")
	}
	if !s.Contains(5) {
		t.Fatal("expected contains true after include")
	}
	s.Exclude(5)
	if s.Contains(5) {
		t.Fatal("expected contains false after exclude")
	}
	s.Exclude(5) // double-remove is a no-op
}

func TestRejectsIdsAboveMaxCapacity(t *testing.T) {
	s := New(10, 2, 100)
	if s.Include(101) {
		t.Fatal("expected id above max_capacity to be rejected")
	}
}

func TestSweepLeavesNoTombstonesInPrefix(t *testing.T) {
	s := New(50, 5, 1000)
	for i := Id(0); i < 10; i++ {
		s.Include(i)
	}
	s.Exclude(3)
	s.Exclude(7)
	s.Sweep(nil)
	for _, id := range s.hot {
		if id == tombstone {
			t.Fatal("expected no tombstones after sweep")
		}
	}
	if s.Len() != 8 {
		t.Fatalf("expected 8 remaining, got %d", s.Len())
	}
}

// TestHysteresisTransitions is scenario S6: hot_capacity=100,
// hysteresis_buffer=10. Including 1..101 switches to bitset mode;
// excluding down to 91 remains in bitset mode; excluding to 89 migrates
// back to hot mode.
func TestHysteresisTransitions(t *testing.T) {
	s := New(100, 10, 1000)
	for i := Id(1); i <= 101; i++ {
		s.Include(i)
	}
	if s.InHotMode() {
		t.Fatal("expected bitset mode after including 101 entities with hot_capacity=100")
	}

	for i := Id(101); i > 91; i-- {
		s.Exclude(i)
	}
	if s.Len() != 91 {
		t.Fatalf("expected 91 remaining, got %d", s.Len())
	}
	if s.InHotMode() {
		t.Fatal("expected still in bitset mode at 91 remaining")
	}

	for i := Id(91); i > 89; i-- {
		s.Exclude(i)
	}
	if s.Len() != 89 {
		t.Fatalf("expected 89 remaining, got %d", s.Len())
	}
	if !s.InHotMode() {
		t.Fatal("expected migration back to hot mode at 89 remaining")
	}
}

func TestIterateVisitsEveryMember(t *testing.T) {
	s := New(5, 1, 1000)
	want := map[Id]bool{1: true, 2: true, 3: true}
	for id := range want {
		s.Include(id)
	}
	got := map[Id]bool{}
	s.Iterate(func(id Id) { got[id] = true })
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for id := range want {
		if !got[id] {
			t.Fatalf("missing id %d from iteration", id)
		}
	}
}

func TestSwapRemoveInvokesOnMove(t *testing.T) {
	s := New(50, 5, 1000)
	s.Include(1)
	s.Include(2)
	s.Include(3)

	var movedID Id
	var movedIdx int
	s.ExcludeSwapRemove(1, func(moved Id, newIndex int) {
		movedID = moved
		movedIdx = newIndex
	})

	if s.Contains(1) {
		t.Fatal("expected 1 removed")
	}
	if movedID != 3 {
		t.Fatalf("expected last element 3 to be moved into freed slot, got %d", movedID)
	}
	if movedIdx != 0 {
		t.Fatalf("expected moved element at index 0, got %d", movedIdx)
	}
}
