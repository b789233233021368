package detect

import (
	"image"
	"testing"
)

func TestAssignFreshIds(t *testing.T) {
	a := NewAssigner(120, 5)
	ids := a.Assign([]image.Rectangle{
		image.Rect(0, 0, 50, 100),
		image.Rect(300, 0, 350, 100),
	})
	if len(ids) != 2 || ids[0] == ids[1] {
		t.Fatalf("Expected two distinct ids, got %v", ids)
	}
}

func TestAssignPersistence(t *testing.T) {
	a := NewAssigner(120, 5)
	first := a.Assign([]image.Rectangle{
		image.Rect(0, 0, 50, 100),
		image.Rect(300, 0, 350, 100),
	})
	// both people moved a little, order of detections flipped
	second := a.Assign([]image.Rectangle{
		image.Rect(310, 0, 360, 100),
		image.Rect(10, 0, 60, 100),
	})
	if second[0] != first[1] {
		t.Fatalf("Right person lost its id: %v then %v", first, second)
	}
	if second[1] != first[0] {
		t.Fatalf("Left person lost its id: %v then %v", first, second)
	}
}

func TestAssignGateRejectsFarJump(t *testing.T) {
	a := NewAssigner(50, 5)
	first := a.Assign([]image.Rectangle{image.Rect(0, 0, 50, 100)})
	// way across the frame: same count, different person
	second := a.Assign([]image.Rectangle{image.Rect(500, 0, 550, 100)})
	if second[0] == first[0] {
		t.Fatalf("Far jump should get a fresh id, got %v twice", first[0])
	}
}

func TestAssignTTL(t *testing.T) {
	a := NewAssigner(120, 2)
	first := a.Assign([]image.Rectangle{image.Rect(0, 0, 50, 100)})
	// gone past the ttl
	a.Assign(nil)
	a.Assign(nil)
	a.Assign(nil)
	back := a.Assign([]image.Rectangle{image.Rect(0, 0, 50, 100)})
	if back[0] == first[0] {
		t.Fatal("Track should be forgotten after the ttl")
	}
}

func TestAssignWithinTTLKeepsId(t *testing.T) {
	a := NewAssigner(120, 3)
	first := a.Assign([]image.Rectangle{image.Rect(0, 0, 50, 100)})
	a.Assign(nil)
	back := a.Assign([]image.Rectangle{image.Rect(5, 0, 55, 100)})
	if back[0] != first[0] {
		t.Fatalf("Short occlusion should keep the id: %v then %v", first, back)
	}
}

func TestIdsHelper(t *testing.T) {
	dets := []Detection{{ID: 3}, {ID: 1}}
	ids := Ids(dets)
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 1 {
		t.Fatalf("Wrong ids: %v", ids)
	}
}
