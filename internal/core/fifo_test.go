package core

import (
	"testing"
	"time"
)

func TestFIFOOrder(t *testing.T) {
	f := newFIFO()
	f.Push("a")
	f.Push("b")
	f.Push("c")

	for _, want := range []string{"a", "b", "c"} {
		id, ok := f.Pop()
		if !ok {
			t.Fatal("Pop reported closed queue")
		}
		if id != want {
			t.Fatalf("Pop = %q, want %q", id, want)
		}
	}

	if got := f.Len(); got != 0 {
		t.Fatalf("Len = %d, want 0", got)
	}
}

func TestFIFOPopBlocksUntilPush(t *testing.T) {
	f := newFIFO()

	got := make(chan string, 1)
	go func() {
		id, _ := f.Pop()
		got <- id
	}()

	select {
	case id := <-got:
		t.Fatalf("Pop returned %q before anything was pushed", id)
	case <-time.After(20 * time.Millisecond):
	}

	f.Push("a")

	select {
	case id := <-got:
		if id != "a" {
			t.Fatalf("Pop = %q, want a", id)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake after Push")
	}
}

func TestFIFOCloseUnblocksPop(t *testing.T) {
	f := newFIFO()

	done := make(chan bool, 1)
	go func() {
		_, ok := f.Pop()
		done <- ok
	}()

	f.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("Pop reported an item from a closed empty queue")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake after Close")
	}
}

func TestFIFODrainsAfterClose(t *testing.T) {
	f := newFIFO()
	f.Push("a")
	f.Close()

	if id, ok := f.Pop(); !ok || id != "a" {
		t.Fatalf("Pop = %q, %v; want a, true", id, ok)
	}
	if _, ok := f.Pop(); ok {
		t.Fatal("Pop reported an item from a drained closed queue")
	}
}

func TestFIFOPushAfterCloseIsIgnored(t *testing.T) {
	f := newFIFO()
	f.Close()
	f.Push("a")

	if _, ok := f.Pop(); ok {
		t.Fatal("Push after Close should not enqueue")
	}
}
