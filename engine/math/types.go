package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector, also used for RGBA colours.
type Vec4 struct {
	X, Y, Z, W float32
}

// IVec3 is an integer lattice coordinate, e.g. a block position.
type IVec3 struct {
	X, Y, Z int32
}

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// ToVec3 converts the lattice coordinate to floating point.
func (v IVec3) ToVec3() Vec3 {
	return Vec3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

func (v IVec3) Add(o IVec3) IVec3 {
	return IVec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// ClampColour clamps every channel into [0, 1].
func ClampColour(c Vec4) Vec4 {
	return Vec4{
		X: Clamp(c.X, 0, 1),
		Y: Clamp(c.Y, 0, 1),
		Z: Clamp(c.Z, 0, 1),
		W: Clamp(c.W, 0, 1),
	}
}
