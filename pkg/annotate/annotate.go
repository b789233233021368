package annotate

import (
	// stdlib
	"fmt"
	"image"
	"image/color"

	// internal
	"github.com/Robogera/follow/pkg/detect"
	"github.com/Robogera/follow/pkg/gring"

	// external
	"github.com/muesli/gamut"
	"gocv.io/x/gocv"
)

var (
	label_color   = color.RGBA{0, 255, 0, 255}
	counter_color = color.RGBA{255, 255, 255, 255}
	coords_color  = color.RGBA{200, 255, 100, 255}
)

// Annotator draws the per-frame overlay: a box per detection in a
// stable per-id color, the target label, the running people counter
// and the target's coordinates caption. Drawing only, the session
// owns the servo side effect
type Annotator struct {
	colors     map[int]color.RGBA
	next_color color.Color
	trail      *gring.Ring[image.Point]
}

const trail_points = 32

func NewAnnotator() *Annotator {
	return &Annotator{
		colors:     make(map[int]color.RGBA),
		next_color: color.RGBA{255, 0, 0, 255},
		trail:      gring.NewRing[image.Point](trail_points),
	}
}

// ResetTrail drops the drawn trajectory, call it when the followed
// target switches so the trail doesn't connect two people
func (a *Annotator) ResetTrail() {
	a.trail.Clear()
}

// Annotate draws over m in place. It reports the target's box and
// whether the target was visible this frame, the coordinates caption
// is drawn only in that case, never from stale state
func (a *Annotator) Annotate(
	m *gocv.Mat,
	detections []detect.Detection,
	target int,
	tracking bool,
	seen_count int,
) (target_box image.Rectangle, found bool) {

	for _, det := range detections {
		gocv.Rectangle(m, det.Box, a.colorFor(det.ID), 2)
		if tracking && det.ID == target {
			target_box = det.Box
			found = true
			gocv.PutText(m,
				fmt.Sprintf("Tracking ID: %d", det.ID),
				image.Pt(det.Box.Min.X, det.Box.Min.Y-10),
				gocv.FontHersheySimplex, 0.8, label_color, 2)
		}
	}

	if found {
		a.trail.Push(image.Pt(
			(target_box.Min.X+target_box.Max.X)/2,
			(target_box.Min.Y+target_box.Max.Y)/2))
		a.drawTrail(m)
	}

	gocv.PutText(m,
		fmt.Sprintf("People detected: %d", seen_count),
		image.Pt(10, 30),
		gocv.FontHersheySimplex, 0.9, counter_color, 2)

	if found {
		gocv.PutText(m,
			fmt.Sprintf("ID %d coordinates: (%d, %d), (%d, %d)",
				target, target_box.Min.X, target_box.Min.Y,
				target_box.Max.X, target_box.Max.Y),
			image.Pt(10, m.Rows()-10),
			gocv.FontHersheySimplex, 0.8, coords_color, 2)
	}

	return target_box, found
}

func (a *Annotator) drawTrail(m *gocv.Mat) {
	prev_point := a.trail.Newest()
	for point := range a.trail.All() {
		if point != prev_point {
			gocv.Line(m, prev_point, point, label_color, 1)
		}
		prev_point = point
	}
}

func (a *Annotator) colorFor(id int) color.RGBA {
	if c, ok := a.colors[id]; ok {
		return c
	}
	a.next_color = gamut.HueOffset(a.next_color, 153)
	r, g, b, _ := a.next_color.RGBA()
	c := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255}
	a.colors[id] = c
	return c
}
