package detect

import (
	"image"
	"math"
	"sort"

	hungarian "github.com/arthurkushman/go-hungarian"
)

type track struct {
	center  image.Point
	missing int
}

// Assigner hands out persistent ids for detection nets that have no
// tracking head of their own: detections are matched to last frame's
// tracks by centroid distance (optimal assignment), unmatched
// detections start fresh ids, tracks missing longer than the ttl are
// forgotten
type Assigner struct {
	tracks       map[int]*track
	next_id      int
	max_dist_sq  float64
	ttl_frames   int
}

func NewAssigner(max_dist_px float64, ttl_frames int) *Assigner {
	if max_dist_px <= 0 {
		max_dist_px = 120
	}
	if ttl_frames < 1 {
		ttl_frames = 1
	}
	return &Assigner{
		tracks:      make(map[int]*track),
		next_id:     1,
		max_dist_sq: max_dist_px * max_dist_px,
		ttl_frames:  ttl_frames,
	}
}

func (a *Assigner) Reset() {
	a.tracks = make(map[int]*track)
	a.next_id = 1
}

// Assign returns one id per box, index-aligned with the input
func (a *Assigner) Assign(boxes []image.Rectangle) []int {
	ids := make([]int, len(boxes))

	track_ids := make([]int, 0, len(a.tracks))
	for id := range a.tracks {
		track_ids = append(track_ids, id)
	}
	// map iteration order is random, the assignment must not be
	sort.Ints(track_ids)

	matched_boxes := make([]bool, len(boxes))
	matched_tracks := make(map[int]bool, len(track_ids))

	if len(track_ids) > 0 && len(boxes) > 0 {
		// squared centroid distances, padded square for the solver
		n := max(len(track_ids), len(boxes))
		cost := make([][]float64, n)
		for r := range cost {
			cost[r] = make([]float64, n)
			for c := range cost[r] {
				cost[r][c] = math.MaxFloat32
				if r < len(track_ids) && c < len(boxes) {
					cost[r][c] = sqDist(a.tracks[track_ids[r]].center, center(boxes[c]))
				}
			}
		}
		for r, row := range hungarian.SolveMin(cost) {
			for c, d := range row {
				if r >= len(track_ids) || c >= len(boxes) {
					continue // padding
				}
				if d > a.max_dist_sq {
					continue // too far, not the same person
				}
				id := track_ids[r]
				ids[c] = id
				matched_boxes[c] = true
				matched_tracks[id] = true
				a.tracks[id].center = center(boxes[c])
				a.tracks[id].missing = 0
			}
		}
	}

	for i, box := range boxes {
		if matched_boxes[i] {
			continue
		}
		id := a.next_id
		a.next_id++
		a.tracks[id] = &track{center: center(box)}
		matched_tracks[id] = true
		ids[i] = id
	}

	for id, tr := range a.tracks {
		if matched_tracks[id] {
			continue
		}
		tr.missing++
		if tr.missing > a.ttl_frames {
			delete(a.tracks, id)
		}
	}

	return ids
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

func sqDist(a, b image.Point) float64 {
	dx, dy := float64(a.X-b.X), float64(a.Y-b.Y)
	return dx*dx + dy*dy
}
