package command

import "testing"

func TestPushDrainFIFO(t *testing.T) {
	b := NewBuffer(4, nil)
	b.Push(Command{PlayerID: 1, Sequence: 1, Type: TypeStop})
	b.Push(Command{PlayerID: 1, Sequence: 2, Type: TypeMove})

	drained := b.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(drained))
	}
	if b.Len() != 0 {
		t.Fatal("expected buffer empty after drain")
	}
}

func TestPushRejectsWhenFull(t *testing.T) {
	b := NewBuffer(1, nil)
	if reason := b.Push(Command{}); reason != RejectNone {
		t.Fatalf("expected first push to succeed, got %v", reason)
	}
	if reason := b.Push(Command{}); reason != RejectBufferFull {
		t.Fatalf("expected second push rejected, got %v", reason)
	}
}

func TestDrainOrdersByPlayerThenSequence(t *testing.T) {
	b := NewBuffer(8, nil)
	b.Push(Command{PlayerID: 2, Sequence: 1})
	b.Push(Command{PlayerID: 1, Sequence: 5})
	b.Push(Command{PlayerID: 1, Sequence: 2})

	drained := b.Drain()
	want := [][2]uint64{{1, 2}, {1, 5}, {2, 1}}
	for i, w := range want {
		if uint64(drained[i].PlayerID) != w[0] || drained[i].Sequence != w[1] {
			t.Fatalf("index %d: got (player=%d,seq=%d), want (%d,%d)", i, drained[i].PlayerID, drained[i].Sequence, w[0], w[1])
		}
	}
}
