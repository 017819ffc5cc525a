package world

import (
	"image"
	"testing"

	"github.com/san-kum/voxelworld/internal/material"
)

func TestRegenerateCollidersAfterSolidChange(t *testing.T) {
	m, rec := newTestMatrix(t, 16, floorGenerator("stone"))
	m.VirtualGetAt(image.Pt(20, 20), false)
	c := m.ChunkAt(ChunkCoord{1, 1})
	if c == nil || c.Body() == 0 {
		t.Fatal("generated chunk has no static body")
	}
	old := c.Body()

	if n := m.RegenerateColliders(); n != 0 {
		t.Fatalf("rebuilt %d chunks without changes", n)
	}

	hole := image.Pt(24, 31)
	if !m.PlaceVoxelAt(m.NewVoxel(material.Vacuum, hole), true, false) {
		t.Fatal("clearing failed")
	}
	if !c.CollidersStale() {
		t.Fatal("removing a solid did not mark colliders stale")
	}
	if n := m.RegenerateColliders(); n != 1 {
		t.Fatalf("rebuilt %d chunks, want 1", n)
	}
	if b, _ := rec.Body(old); b.Alive {
		t.Error("old body survived the rebuild")
	}
	b, ok := rec.Body(c.Body())
	if !ok || !b.Def.Static || len(b.Shapes) < 4 {
		t.Errorf("rebuilt body %+v", b)
	}
}

func TestFallingSolidsAreNotColliders(t *testing.T) {
	m, _ := newTestMatrix(t, 16, nil)
	v := m.mustPlace(t, "sand", image.Pt(20, 20))
	c := m.ChunkAt(ChunkCoord{1, 1})
	v.Falling = true
	if !m.ColliderMask(c).Empty() {
		t.Error("falling sand entered the collider mask")
	}
	v.Falling = false
	if !m.ColliderMask(c).At(4, 4) {
		t.Error("resting sand missing from the collider mask")
	}
}
