package list_test

import (
	"testing"

	"coredb/pkg/list"
)

func TestPushAndPeek(t *testing.T) {
	l := list.NewList[int]()
	l.PushTail(1)
	l.PushTail(2)
	l.PushHead(0)

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if got := l.PeekHead().GetValue(); got != 0 {
		t.Fatalf("head = %d, want 0", got)
	}
	if got := l.PeekTail().GetValue(); got != 2 {
		t.Fatalf("tail = %d, want 2", got)
	}
}

func TestPopSelfMiddle(t *testing.T) {
	l := list.NewList[string]()
	l.PushTail("a")
	mid := l.PushTail("b")
	l.PushTail("c")

	mid.PopSelf()

	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	if got := l.PeekHead().GetNext().GetValue(); got != "c" {
		t.Fatalf("head.next = %q, want %q", got, "c")
	}
}

func TestPopSelfSoleElement(t *testing.T) {
	l := list.NewList[int]()
	only := l.PushTail(7)
	only.PopSelf()

	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", l.Len())
	}
	if l.PeekHead() != nil || l.PeekTail() != nil {
		t.Fatalf("expected empty list after popping sole element")
	}
}

func TestPopSelfHeadAndTail(t *testing.T) {
	l := list.NewList[int]()
	first := l.PushTail(1)
	l.PushTail(2)
	last := l.PeekTail()

	first.PopSelf()
	if got := l.PeekHead().GetValue(); got != 2 {
		t.Fatalf("head after popping old head = %d, want 2", got)
	}

	last.PopSelf()
	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", l.Len())
	}
}
