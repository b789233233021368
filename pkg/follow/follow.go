package follow

import (
	"image"

	"github.com/Robogera/follow/pkg/gset"
)

// Pick decides which detection becomes the new target when
// none is held or the grace period ran out
type Pick int

const (
	PickMin Pick = iota
	PickMax
)

// State is the target-continuity state machine. The detector hands
// out persistent ids while it keeps sight of a person, but those ids
// churn on occlusion. State converts the per-frame id sets into one
// stable "who am i following" answer with a grace period against
// transient loss.
//
// Not safe for concurrent use, one State per stream.
type State struct {
	anchor_id      int
	has_anchor     bool
	target_id      int
	has_target     bool
	frames_missing int
	grace_period   int
	pick           Pick
	seen           gset.Set[int]
	last_box       image.Rectangle
	has_last_box   bool
}

func NewState(grace_period int, pick Pick) *State {
	s := &State{pick: pick}
	s.SetGracePeriod(grace_period)
	return s
}

// Update consumes the ids present in the current frame and decides
// whether to keep, or replace the followed target. reset_coords is
// true only on the frame the target switched, telling callers to
// drop anything they derived from the old target.
//
// Empty input is valid. Losing sight of everyone does not clear the
// target: it stays held, stale, until a replacement shows up.
func (s *State) Update(ids []int) (target int, tracking bool, reset_coords bool) {
	s.seen.Add(ids...)

	switch {
	case !s.has_anchor && len(ids) > 0:
		// first acquisition
		id, _ := s.pickId(ids)
		s.anchor_id, s.has_anchor = id, true
		s.target_id, s.has_target = id, true
		s.frames_missing = 0
	case s.has_target:
		if contains(ids, s.target_id) {
			s.frames_missing = 0
		} else {
			s.frames_missing++
			if s.frames_missing >= s.grace_period {
				if id, ok := s.pickId(ids); ok {
					s.target_id = id
					s.frames_missing = 0
					s.has_last_box = false
					reset_coords = true
				}
				// nobody to switch to: keep waiting on the stale id
			}
		}
	}

	return s.target_id, s.has_target, reset_coords
}

// ObserveBox records the most recent box seen for the target.
// Returns true when the box differs from the previous one
func (s *State) ObserveBox(box image.Rectangle) bool {
	if s.has_last_box && box == s.last_box {
		return false
	}
	s.last_box = box
	s.has_last_box = true
	return true
}

func (s *State) LastBox() (image.Rectangle, bool) {
	return s.last_box, s.has_last_box
}

func (s *State) Target() (int, bool) { return s.target_id, s.has_target }
func (s *State) Anchor() (int, bool) { return s.anchor_id, s.has_anchor }
func (s *State) FramesMissing() int  { return s.frames_missing }
func (s *State) GracePeriod() int    { return s.grace_period }
func (s *State) SeenCount() int      { return s.seen.Len() }

func (s *State) Seen(id int) bool { return s.seen.Contains(id) }

// SetGracePeriod clamps to a minimum of 1 silently
func (s *State) SetGracePeriod(frames int) {
	if frames < 1 {
		frames = 1
	}
	s.grace_period = frames
}

// Reset returns every field to its initial value. Grace period and
// pick policy are configuration, they survive the reset
func (s *State) Reset() {
	s.has_anchor = false
	s.has_target = false
	s.anchor_id = 0
	s.target_id = 0
	s.frames_missing = 0
	s.has_last_box = false
	s.seen.Clear()
}

func (s *State) pickId(ids []int) (int, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	best := ids[0]
	for _, id := range ids[1:] {
		if (s.pick == PickMin && id < best) || (s.pick == PickMax && id > best) {
			best = id
		}
	}
	return best, true
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
