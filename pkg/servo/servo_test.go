package servo

import "testing"

func TestPiecewiseBounds(t *testing.T) {
	const w = 640
	if got := PiecewiseAngle(0, w); got != 45 {
		t.Fatalf("Left edge should map to 45, got %d", got)
	}
	if got := PiecewiseAngle(w/2, w); got != 90 {
		t.Fatalf("Center should map to 90, got %d", got)
	}
	if got := PiecewiseAngle(w, w); got != 135 {
		t.Fatalf("Right edge should map to 135, got %d", got)
	}
	for x := 0; x <= w; x += 7 {
		angle := PiecewiseAngle(x, w)
		if angle < 45 || angle > 135 {
			t.Fatalf("Angle %d out of nominal range for x=%d", angle, x)
		}
	}
}

func TestPiecewiseKnownValues(t *testing.T) {
	// 640 wide: x=160 is a quarter in from the left,
	// 90 - round(22.5) = 67
	if got := PiecewiseAngle(160, 640); got != 67 {
		t.Fatalf("piecewise(160, 640) should be 67, got %d", got)
	}
	if got := PiecewiseAngle(480, 640); got != 113 {
		t.Fatalf("piecewise(480, 640) should be 113, got %d", got)
	}
}

func TestPiecewiseClampsOutOfFrame(t *testing.T) {
	// detector can report centers outside the frame
	if got := PiecewiseAngle(-640, 640); got != 0 {
		t.Fatalf("Far left overshoot should clamp to 0, got %d", got)
	}
	if got := PiecewiseAngle(1280*2, 640); got != 180 {
		t.Fatalf("Far right overshoot should clamp to 180, got %d", got)
	}
}

func TestFullSweep(t *testing.T) {
	if got := FullSweepAngle(0, 640); got != 0 {
		t.Fatalf("fullsweep(0) should be 0, got %d", got)
	}
	if got := FullSweepAngle(320, 640); got != 90 {
		t.Fatalf("fullsweep(320) should be 90, got %d", got)
	}
	if got := FullSweepAngle(640, 640); got != 180 {
		t.Fatalf("fullsweep(640) should be 180, got %d", got)
	}
}

func TestTilt(t *testing.T) {
	if got := TiltAngle(0, 480, 90); got != 0 {
		t.Fatalf("Top of frame should be 0, got %d", got)
	}
	if got := TiltAngle(480, 480, 90); got != 90 {
		t.Fatalf("Bottom of frame should be tilt_max, got %d", got)
	}
	if got := TiltAngle(240, 480, 90); got != 45 {
		t.Fatalf("Mid frame should be 45, got %d", got)
	}
}

func TestZeroWidthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Zero frame width must panic")
		}
	}()
	PiecewiseAngle(10, 0)
}
