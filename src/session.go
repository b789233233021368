package main

import (
	// stdlib
	"image"
	"log/slog"
	"time"

	// internal
	"github.com/Robogera/follow/pkg/annotate"
	"github.com/Robogera/follow/pkg/config"
	"github.com/Robogera/follow/pkg/detect"
	"github.com/Robogera/follow/pkg/follow"
	"github.com/Robogera/follow/pkg/gsma"
	"github.com/Robogera/follow/pkg/serlink"
	"github.com/Robogera/follow/pkg/servo"
	"github.com/Robogera/follow/pkg/smooth"

	// external
	"gocv.io/x/gocv"
)

// Event reports a change of the followed target, consumed by the
// mqtt publisher
type Event struct {
	Kind  string `json:"kind"` // acquired | switched
	Id    int    `json:"id"`
	From  int    `json:"from,omitempty"`
	Frame uint64 `json:"frame"`
}

// Session owns everything one tracked stream needs: the continuity
// state machine, the serial link, the annotator and the optional
// center smoothing. One frame is fully processed per Step call so a
// host can interleave its own work between frames.
//
// Not safe for concurrent Steps, one goroutine drives a session
type Session struct {
	logger    *slog.Logger
	state     *follow.State
	annotator *annotate.Annotator
	link      *serlink.Link
	smoother  *smooth.Smoother
	angle_sma *gsma.SMA[int]

	frame_width  int
	frame_height int
	mapping      config.MappingType
	tilt_max     int

	events chan<- Event
}

func NewSession(
	cfg *config.ConfigFile,
	logger *slog.Logger,
	link *serlink.Link,
	frame_width, frame_height int,
	events chan<- Event,
) *Session {

	pick := follow.PickMin
	if config.PickPolicy(cfg.Tracking.PickPolicy) == config.PickPolicyMax {
		pick = follow.PickMax
	}

	s := &Session{
		logger:       logger,
		state:        follow.NewState(cfg.Tracking.GracePeriodFrames, pick),
		annotator:    annotate.NewAnnotator(),
		link:         link,
		frame_width:  frame_width,
		frame_height: frame_height,
		mapping:      config.MappingType(cfg.Servo.Mapping),
		tilt_max:     cfg.Servo.TiltMax,
		events:       events,
	}

	switch config.SmoothingType(cfg.Tracking.Smoothing) {
	case config.SmoothingKalman:
		s.smoother = smooth.NewSmoother(0.1)
	case config.SmoothingSMA:
		window := cfg.Tracking.SMAWindow
		if window < 3 {
			window = 3
		}
		sma, err := gsma.NewSMA[int](window)
		if err == nil {
			s.angle_sma = sma
		}
	}

	return s
}

// Step runs one frame through track -> annotate -> servo. The frame
// is drawn over in place. Detections come from the caller so a
// detector hiccup can be decided there (raw passthrough)
func (s *Session) Step(frame_id uint64, stamp time.Time, img *gocv.Mat, detections []detect.Detection) {
	prev_target, was_tracking := s.state.Target()

	target, tracking, reset_coords := s.state.Update(detect.Ids(detections))

	if tracking && !was_tracking {
		s.logger.Info("First person acquired", "id", target)
		s.emit(Event{Kind: "acquired", Id: target, Frame: frame_id})
	} else if reset_coords {
		s.logger.Info("Target absent past grace period, switching",
			"from", prev_target, "to", target)
		s.emit(Event{Kind: "switched", Id: target, From: prev_target, Frame: frame_id})
		s.annotator.ResetTrail()
		if s.smoother != nil {
			s.smoother.Reset()
		}
		if s.angle_sma != nil {
			s.angle_sma.Reset()
		}
	}

	target_box, found := s.annotator.Annotate(img, detections, target, tracking, s.state.SeenCount())
	if !found {
		return
	}

	if s.state.ObserveBox(target_box) {
		s.logger.Debug("Target moved", "id", target,
			"x1", target_box.Min.X, "y1", target_box.Min.Y,
			"x2", target_box.Max.X, "y2", target_box.Max.Y)
	}

	// the servo is driven every frame the target is visible, a
	// continuous control loop, not edge-triggered. The link itself
	// debounces when send_on_change_only is set
	center := image.Pt(
		(target_box.Min.X+target_box.Max.X)/2,
		(target_box.Min.Y+target_box.Max.Y)/2)
	if s.smoother != nil {
		if smoothed, err := s.smoother.Observe(stamp, center); err == nil {
			center = smoothed
		}
	}

	var pan int
	switch s.mapping {
	case config.MappingFullSweep:
		pan = servo.FullSweepAngle(center.X, s.frame_width)
	default:
		pan = servo.PiecewiseAngle(center.X, s.frame_width)
	}
	if s.angle_sma != nil {
		pan = servo.Clamp(int(s.angle_sma.Recalc(pan)))
	}
	tilt := servo.TiltAngle(center.Y, s.frame_height, s.tilt_max)

	s.link.Send(pan, tilt)
}

// SetGracePeriod and Reset pass through to the continuity state so a
// host front end can reconfigure a running session between frames
func (s *Session) SetGracePeriod(frames int) { s.state.SetGracePeriod(frames) }

func (s *Session) Reset() {
	s.state.Reset()
	s.annotator.ResetTrail()
	if s.smoother != nil {
		s.smoother.Reset()
	}
	if s.angle_sma != nil {
		s.angle_sma.Reset()
	}
}

// Close releases the serial link, the video resources belong to the
// processor loop
func (s *Session) Close() {
	s.link.Disconnect()
}

func (s *Session) emit(event Event) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- event:
	default:
		s.logger.Warn("Event channel full, dropping event", "kind", event.Kind)
	}
}
