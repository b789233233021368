package gset

import (
	"testing"
)

func TestOrdering(t *testing.T) {
	s := &Set[int]{}
	s.Add(9, 3, 7, 3, 1, 9)
	want := []int{1, 3, 7, 9}
	got := make([]int, 0, 4)
	for v := range s.All() {
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
	if s.Len() != 4 {
		t.Fatalf("Wrong Len: %d", s.Len())
	}
}

func TestMinMax(t *testing.T) {
	s := &Set[int]{}
	if _, ok := s.Min(); ok {
		t.Fatal("Min on empty set should report false")
	}
	if _, ok := s.Max(); ok {
		t.Fatal("Max on empty set should report false")
	}
	s.Add(5, 2, 8)
	if min, _ := s.Min(); min != 2 {
		t.Fatalf("Wrong min: %d", min)
	}
	if max, _ := s.Max(); max != 8 {
		t.Fatalf("Wrong max: %d", max)
	}
}

func TestDelAndClear(t *testing.T) {
	s := &Set[int]{}
	s.Add(1, 2, 3)
	s.Del(2)
	if s.Contains(2) {
		t.Fatal("2 should be deleted")
	}
	if s.Len() != 2 {
		t.Fatalf("Wrong Len after Del: %d", s.Len())
	}
	s.Del(42) // not present, no-op
	if s.Len() != 2 {
		t.Fatalf("Del of absent value changed Len: %d", s.Len())
	}
	s.Clear()
	if s.Len() != 0 || s.head != nil {
		t.Fatal("Clear left elements behind")
	}
}
