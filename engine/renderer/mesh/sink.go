package mesh

import (
	"errors"
	"fmt"

	vmath "github.com/spaghettifunk/voxel/engine/math"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
)

var (
	ErrSinkFull     = errors.New("mesh: sink is full")
	ErrInvalidIndex = errors.New("mesh: index refers to an unwritten vertex")
)

var quadUVs = [4]vmath.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// Sink appends vertices and indices to a pair of staging buffers. It never
// writes past their length: an append that does not fit returns ErrSinkFull
// and leaves the sink unchanged.
type Sink struct {
	vertices gpu.StagingBuffer[gpu.Vertex]
	indices  gpu.StagingBuffer[uint32]
	vcount   int
	icount   int
}

func NewSink(vertices gpu.StagingBuffer[gpu.Vertex], indices gpu.StagingBuffer[uint32]) *Sink {
	return &Sink{vertices: vertices, indices: indices}
}

// AddVertex appends v and returns its index.
func (s *Sink) AddVertex(v gpu.Vertex) (uint32, error) {
	if s.vcount >= s.vertices.Len() {
		return 0, ErrSinkFull
	}
	s.vertices.Write(s.vcount, v)
	s.vcount++
	return uint32(s.vcount - 1), nil
}

// AddTriangle appends three indices of vertices already in the sink.
func (s *Sink) AddTriangle(a, b, c uint32) error {
	for _, i := range [...]uint32{a, b, c} {
		if int(i) >= s.vcount {
			return fmt.Errorf("%w: %d", ErrInvalidIndex, i)
		}
	}
	if s.icount+3 > s.indices.Len() {
		return ErrSinkFull
	}
	s.indices.Write(s.icount, a)
	s.indices.Write(s.icount+1, b)
	s.indices.Write(s.icount+2, c)
	s.icount += 3
	return nil
}

// AddQuad appends four vertices facing f and the two triangles covering
// them. Corners are expected counter-clockwise when seen from outside.
func (s *Sink) AddQuad(f Face, corners [4]vmath.Vec3, colour vmath.Vec4) error {
	if s.vcount+4 > s.vertices.Len() || s.icount+6 > s.indices.Len() {
		return ErrSinkFull
	}
	normal := f.Normal()
	colour = vmath.ClampColour(colour)
	base := uint32(s.vcount)
	for i, c := range corners {
		s.vertices.Write(s.vcount, gpu.Vertex{
			Position: c,
			Normal:   normal,
			UV:       quadUVs[i],
			Colour:   colour,
		})
		s.vcount++
	}
	for _, i := range [...]uint32{0, 1, 2, 0, 2, 3} {
		s.indices.Write(s.icount, base+i)
		s.icount++
	}
	return nil
}

// Vertices is the number of vertices written.
func (s *Sink) Vertices() int {
	return s.vcount
}

// Indices is the number of indices written.
func (s *Sink) Indices() int {
	return s.icount
}

// Reset rewinds the sink. Buffer contents are left in place and overwritten
// by later appends.
func (s *Sink) Reset() {
	s.vcount = 0
	s.icount = 0
}
