package mesh

import (
	"errors"
	"testing"

	vmath "github.com/spaghettifunk/voxel/engine/math"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
)

func newSink(vertices, indices int) (*Sink, *gpu.HostBuffer[gpu.Vertex], *gpu.HostBuffer[uint32]) {
	vb := gpu.NewHostBuffer[gpu.Vertex](vertices)
	ib := gpu.NewHostBuffer[uint32](indices)
	return NewSink(vb, ib), vb, ib
}

func TestSinkAddTriangle(t *testing.T) {
	s, _, ib := newSink(3, 3)
	for i := 0; i < 3; i++ {
		idx, err := s.AddVertex(gpu.Vertex{Position: vmath.NewVec3(float32(i), 0, 0)})
		if err != nil {
			t.Fatalf("AddVertex %d: %v", i, err)
		}
		if idx != uint32(i) {
			t.Errorf("expected index %d, got %d", i, idx)
		}
	}
	if _, err := s.AddVertex(gpu.Vertex{}); !errors.Is(err, ErrSinkFull) {
		t.Errorf("expected ErrSinkFull, got %v", err)
	}
	if err := s.AddTriangle(0, 1, 3); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if err := s.AddTriangle(0, 1, 2); err != nil {
		t.Fatalf("AddTriangle: %v", err)
	}
	if ib.Read(2) != 2 || s.Indices() != 3 {
		t.Errorf("unexpected index state: count=%d last=%d", s.Indices(), ib.Read(2))
	}
	if err := s.AddTriangle(0, 1, 2); !errors.Is(err, ErrSinkFull) {
		t.Errorf("expected ErrSinkFull on index overflow, got %v", err)
	}
}

func TestSinkAddQuadIsAllOrNothing(t *testing.T) {
	s, vb, ib := newSink(6, 12)
	corners := cubeCorners[FacePosY]
	if err := s.AddQuad(FacePosY, corners, vmath.Vec4{X: 2, Y: 0.5, Z: 0, W: 1}); err != nil {
		t.Fatalf("AddQuad: %v", err)
	}
	if s.Vertices() != 4 || s.Indices() != 6 {
		t.Fatalf("expected 4/6, got %d/%d", s.Vertices(), s.Indices())
	}
	v := vb.Read(2)
	if v.Normal != vmath.NewVec3(0, 1, 0) {
		t.Errorf("unexpected normal %v", v.Normal)
	}
	if v.Colour.X != 1 {
		t.Errorf("colour not clamped: %v", v.Colour)
	}
	if ib.Read(5) != 3 {
		t.Errorf("expected last index 3, got %d", ib.Read(5))
	}

	if err := s.AddQuad(FaceNegY, cubeCorners[FaceNegY], vmath.Vec4{}); !errors.Is(err, ErrSinkFull) {
		t.Fatalf("expected ErrSinkFull, got %v", err)
	}
	if s.Vertices() != 4 || s.Indices() != 6 {
		t.Errorf("failed append changed the sink: %d/%d", s.Vertices(), s.Indices())
	}

	s.Reset()
	if s.Vertices() != 0 || s.Indices() != 0 {
		t.Error("Reset did not rewind the sink")
	}
}

func TestCubeWindingMatchesNormal(t *testing.T) {
	for _, f := range Faces {
		c := cubeCorners[f]
		e1 := vmath.NewVec3(c[1].X-c[0].X, c[1].Y-c[0].Y, c[1].Z-c[0].Z)
		e2 := vmath.NewVec3(c[2].X-c[0].X, c[2].Y-c[0].Y, c[2].Z-c[0].Z)
		cross := vmath.NewVec3(e1.Y*e2.Z-e1.Z*e2.Y, e1.Z*e2.X-e1.X*e2.Z, e1.X*e2.Y-e1.Y*e2.X)
		if cross != f.Normal() {
			t.Errorf("face %s: winding gives %v, normal is %v", f, cross, f.Normal())
		}
	}
}

func TestNeighborhoodExposed(t *testing.T) {
	var n Neighborhood
	n.Set(0, 0, 0, 1)
	n.Set(1, 0, 0, 2)
	n.Set(0, -1, 0, 2)
	if n.Centre() != 1 {
		t.Fatalf("expected centre 1, got %d", n.Centre())
	}
	if n.Exposed(FacePosX) || n.Exposed(FaceNegY) {
		t.Error("covered faces reported as exposed")
	}
	for _, f := range []Face{FaceNegX, FacePosY, FaceNegZ, FacePosZ} {
		if !n.Exposed(f) {
			t.Errorf("face %s should be exposed", f)
		}
	}
}

func TestRenderCube(t *testing.T) {
	var n Neighborhood
	n.Set(0, 0, 0, 1)
	n.Set(0, 0, 1, 1)
	s, vb, _ := newSink(24, 36)
	props := &RenderProperties{Colour: vmath.Vec4{X: 1, Y: 1, Z: 1, W: 1}, Opaque: true}

	if err := RenderCube(&n, s, BlockPos{X: 2, Y: 0, Z: -1}, props); err != nil {
		t.Fatalf("RenderCube: %v", err)
	}
	if s.Vertices() != 20 || s.Indices() != 30 {
		t.Fatalf("expected five faces, got %d vertices %d indices", s.Vertices(), s.Indices())
	}
	if got := vb.Read(0).Position; got != vmath.NewVec3(2, 0, -1) {
		t.Errorf("first vertex not translated: %v", got)
	}

	s.Reset()
	small, _, _ := newSink(8, 12)
	if err := RenderCube(&n, small, BlockPos{}, props); !errors.Is(err, ErrSinkFull) {
		t.Errorf("expected ErrSinkFull, got %v", err)
	}
}
