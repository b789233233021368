package gring

import (
	"testing"
)

func TestNewestFirstIteration(t *testing.T) {
	r := NewRing[int](3)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Push(4) // overwrites 1
	want := []int{4, 3, 2}
	got := make([]int, 0, 3)
	for v := range r.All() {
		got = append(got, v)
	}
	if len(got) != len(want) {
		t.Fatalf("Wrong length: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Wrong order: got %v, want %v", got, want)
		}
	}
}

func TestNewest(t *testing.T) {
	r := NewRing[string](2)
	if r.Newest() != "" {
		t.Fatal("Empty ring should yield the zero value")
	}
	r.Push("a")
	r.Push("b")
	r.Push("c")
	if r.Newest() != "c" {
		t.Fatalf("Wrong newest: %s", r.Newest())
	}
}

func TestClear(t *testing.T) {
	r := NewRing[int](4)
	r.Push(1)
	r.Push(2)
	r.Clear()
	if r.Size() != 0 {
		t.Fatalf("Size should be 0 after clear, got %d", r.Size())
	}
	for range r.All() {
		t.Fatal("Cleared ring should not yield elements")
	}
}
