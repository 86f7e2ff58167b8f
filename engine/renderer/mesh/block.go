// Package mesh holds the types a block registry uses to turn blocks into
// vertices, and the sink those vertices are written to.
package mesh

import (
	vmath "github.com/spaghettifunk/voxel/engine/math"
)

// BlockID identifies a registered block type. Air is never rendered.
type BlockID uint16

const Air BlockID = 0

// BlockPos is the lattice position of a block in the world.
type BlockPos = vmath.IVec3

// Face is one side of a unit cube.
type Face uint8

const (
	FaceNegX Face = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

// Faces lists every face in a fixed order.
var Faces = [...]Face{FaceNegX, FacePosX, FaceNegY, FacePosY, FaceNegZ, FacePosZ}

var faceOffsets = [...]vmath.IVec3{
	FaceNegX: {X: -1},
	FacePosX: {X: 1},
	FaceNegY: {Y: -1},
	FacePosY: {Y: 1},
	FaceNegZ: {Z: -1},
	FacePosZ: {Z: 1},
}

// Offset is the lattice step from a block to its neighbour across f.
func (f Face) Offset() vmath.IVec3 {
	return faceOffsets[f]
}

// Normal is the outward unit normal of f.
func (f Face) Normal() vmath.Vec3 {
	return faceOffsets[f].ToVec3()
}

func (f Face) String() string {
	switch f {
	case FaceNegX:
		return "-x"
	case FacePosX:
		return "+x"
	case FaceNegY:
		return "-y"
	case FacePosY:
		return "+y"
	case FaceNegZ:
		return "-z"
	case FacePosZ:
		return "+z"
	default:
		return "invalid"
	}
}

// Neighborhood is the 3x3x3 cube of blocks centred on the one being
// rendered. Offsets run from -1 to 1 on each axis.
type Neighborhood [27]BlockID

func neighborIndex(dx, dy, dz int) int {
	return (dx + 1) + (dy+1)*3 + (dz+1)*9
}

// At returns the block at the given offset from the centre.
func (n *Neighborhood) At(dx, dy, dz int) BlockID {
	return n[neighborIndex(dx, dy, dz)]
}

func (n *Neighborhood) Set(dx, dy, dz int, id BlockID) {
	n[neighborIndex(dx, dy, dz)] = id
}

// Centre returns the block being rendered.
func (n *Neighborhood) Centre() BlockID {
	return n.At(0, 0, 0)
}

// Exposed reports whether the face of the centre block touches air.
func (n *Neighborhood) Exposed(f Face) bool {
	o := f.Offset()
	return n.At(int(o.X), int(o.Y), int(o.Z)) == Air
}

// RenderProperties are the per-type inputs a RenderFunc reads.
type RenderProperties struct {
	Colour vmath.Vec4
	// Opaque blocks hide the faces of their neighbours.
	Opaque bool
}

// RenderFunc writes the geometry of the block at pos into out.
type RenderFunc func(n *Neighborhood, out *Sink, pos BlockPos, props *RenderProperties) error

// Descriptor is what a block type registers with.
type Descriptor struct {
	Name       string
	Render     RenderFunc
	Properties RenderProperties
}

// Registry assigns ids to block types.
type Registry interface {
	Register(d Descriptor) BlockID
}

// cubeCorners holds the corners of each face of the unit cube, wound
// counter-clockwise when seen from outside.
var cubeCorners = [...][4]vmath.Vec3{
	FaceNegX: {{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 0}},
	FacePosX: {{X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 0, Z: 1}},
	FaceNegY: {{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}},
	FacePosY: {{X: 0, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 0}},
	FaceNegZ: {{X: 0, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 1, Y: 0, Z: 0}},
	FacePosZ: {{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1}},
}

// RenderCube emits one quad for every exposed face of a unit cube.
func RenderCube(n *Neighborhood, out *Sink, pos BlockPos, props *RenderProperties) error {
	origin := pos.ToVec3()
	for _, f := range Faces {
		if !n.Exposed(f) {
			continue
		}
		var corners [4]vmath.Vec3
		for i, c := range cubeCorners[f] {
			corners[i] = origin.Add(c)
		}
		if err := out.AddQuad(f, corners, props.Colour); err != nil {
			return err
		}
	}
	return nil
}

var _ RenderFunc = RenderCube
