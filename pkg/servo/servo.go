package servo

import "math"

// Servo command range and the straight-ahead position
const (
	AngleMin    = 0
	AngleMax    = 180
	AngleCenter = 90
	// Piecewise mapping swings at most this far off center
	Swing = 45
)

// PiecewiseAngle maps a horizontal pixel center to a pan angle,
// proportional to how far off-center the target is: frame edge is
// 45 degrees away from the 90 degree midpoint. This is the mapping
// wired into the live annotation path.
//
// frame_width must be positive, a zero width is a caller bug
func PiecewiseAngle(x_center, frame_width int) int {
	mustPositive(frame_width)
	half := frame_width / 2
	var angle int
	if x_center < half {
		angle = AngleCenter - round(float64(half-x_center)/float64(half)*Swing)
	} else {
		angle = AngleCenter + round(float64(x_center-half)/float64(half)*Swing)
	}
	return Clamp(angle)
}

// FullSweepAngle is the alternate mapping: the full frame width
// sweeps the whole 0-180 range. Kept selectable for rigs where the
// servo is geared down
func FullSweepAngle(x_center, frame_width int) int {
	mustPositive(frame_width)
	return Clamp(round(float64(x_center) / float64(frame_width) * AngleMax))
}

// TiltAngle maps a vertical pixel center to a tilt angle in
// [0, tilt_max], top of frame is 0
func TiltAngle(y_center, frame_height, tilt_max int) int {
	mustPositive(frame_height)
	if tilt_max > AngleMax {
		tilt_max = AngleMax
	}
	angle := round(float64(y_center) / float64(frame_height) * float64(tilt_max))
	if angle < AngleMin {
		return AngleMin
	}
	if angle > tilt_max {
		return tilt_max
	}
	return angle
}

// Clamp bounds an angle to the physical command range. Detectors
// sometimes report boxes outside the frame, the source of this
// pipeline sent those through unclamped
func Clamp(angle int) int {
	if angle < AngleMin {
		return AngleMin
	}
	if angle > AngleMax {
		return AngleMax
	}
	return angle
}

func round(v float64) int {
	return int(math.Round(v))
}

func mustPositive(width int) {
	if width <= 0 {
		panic("servo: non-positive frame dimension")
	}
}
