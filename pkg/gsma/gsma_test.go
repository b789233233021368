package gsma

import (
	"math"
	"testing"
)

func TestBadCapacity(t *testing.T) {
	_, err := NewSMA[int](2)
	if err == nil {
		t.Fatal("Capacity below 3 should be rejected")
	}
}

func TestAverage(t *testing.T) {
	s, err := NewSMA[int](3)
	if err != nil {
		t.Fatalf("Can't create SMA: %s", err)
	}
	s.Recalc(90)
	s.Recalc(90)
	s.Recalc(90)
	if s.Show() != 90 {
		t.Fatalf("Wrong average: %f", s.Show())
	}
	// window rolls, oldest 90 replaced by 120
	got := s.Recalc(120)
	if math.Abs(float64(got)-100) > 0.001 {
		t.Fatalf("Wrong rolling average: %f", got)
	}
}

func TestReset(t *testing.T) {
	s, _ := NewSMA[int](4)
	s.Recalc(45)
	s.Recalc(135)
	s.Reset()
	if s.Show() != 0 {
		t.Fatalf("Average should be zero after reset: %f", s.Show())
	}
	if got := s.Recalc(70); got != 70 {
		t.Fatalf("First value after reset should dominate: %f", got)
	}
}
