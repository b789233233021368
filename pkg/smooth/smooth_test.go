package smooth

import (
	"image"
	"testing"
	"time"
)

func TestFirstObservationPassesThrough(t *testing.T) {
	s := NewSmoother(0.1)
	got, err := s.Observe(time.Now(), image.Pt(320, 240))
	if err != nil {
		t.Fatalf("Observe failed: %s", err)
	}
	if got != image.Pt(320, 240) {
		t.Fatalf("First observation should pass through, got %v", got)
	}
}

func TestDampsJitter(t *testing.T) {
	s := NewSmoother(0.5)
	t0 := time.Now()
	// target standing still at x=320 with noisy detections
	noisy := []int{320, 326, 314, 322, 318, 324, 316}
	var last image.Point
	for i, x := range noisy {
		var err error
		last, err = s.Observe(t0.Add(time.Duration(i)*33*time.Millisecond), image.Pt(x, 240))
		if err != nil {
			t.Fatalf("Observe failed: %s", err)
		}
	}
	if last.X < 310 || last.X > 330 {
		t.Fatalf("Filtered center drifted: %v", last)
	}
}

func TestPredictWithoutObservations(t *testing.T) {
	s := NewSmoother(0.1)
	if _, err := s.Predict(time.Now()); err == nil {
		t.Fatal("Predict before any observation must fail")
	}
}

func TestReset(t *testing.T) {
	s := NewSmoother(0.1)
	t0 := time.Now()
	s.Observe(t0, image.Pt(100, 100))
	s.Observe(t0.Add(33*time.Millisecond), image.Pt(110, 100))
	s.Reset()
	got, err := s.Observe(t0.Add(66*time.Millisecond), image.Pt(500, 400))
	if err != nil {
		t.Fatalf("Observe after reset failed: %s", err)
	}
	if got != image.Pt(500, 400) {
		t.Fatalf("Reset should make the next observation pass through, got %v", got)
	}
}
