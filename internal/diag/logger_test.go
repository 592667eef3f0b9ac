package diag

import "testing"

func TestQueuePushDrain(t *testing.T) {
	q := NewQueue(4)
	q.Push(LevelInfo, "a")
	q.Push(LevelWarn, "b")

	items := q.Drain()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Msg != "a" || items[1].Msg != "b" {
		t.Fatalf("unexpected order: %+v", items)
	}
	if len(q.Drain()) != 0 {
		t.Fatal("expected empty queue after drain")
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(1)
	q.Push(LevelInfo, "a")
	q.Push(LevelInfo, "b")

	if q.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", q.Dropped())
	}
	items := q.Drain()
	if len(items) != 1 || items[0].Msg != "a" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestLogAllDrainsQueue(t *testing.T) {
	q := NewQueue(4)
	q.Push(LevelInfo, "hello")
	LogAll(q)
	if len(q.Drain()) != 0 {
		t.Fatal("expected queue drained by LogAll")
	}
}
