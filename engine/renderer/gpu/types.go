package gpu

import (
	"math"
	"time"

	vmath "github.com/spaghettifunk/voxel/engine/math"
)

// FenceState is the CPU-observable state of a fence.
type FenceState uint8

const (
	FenceUnsignaled FenceState = iota
	FenceSignaled
)

func (s FenceState) String() string {
	switch s {
	case FenceUnsignaled:
		return "unsignaled"
	case FenceSignaled:
		return "signaled"
	default:
		return "unknown"
	}
}

// WaitResult is the outcome of a bounded wait. A timeout is a normal result,
// not an error.
type WaitResult uint8

const (
	WaitSuccess WaitResult = iota
	WaitTimeout
)

func (r WaitResult) String() string {
	switch r {
	case WaitSuccess:
		return "success"
	case WaitTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Infinite makes a wait block until its condition holds.
const Infinite time.Duration = math.MaxInt64

// NormalizeTimeout clamps negative timeouts to zero.
func NormalizeTimeout(timeout time.Duration) time.Duration {
	if timeout < 0 {
		return 0
	}
	return timeout
}

// BufferKind tells vertex and index buffers apart.
type BufferKind uint8

const (
	BufferKindVertex BufferKind = iota
	BufferKindIndex
)

func (k BufferKind) String() string {
	switch k {
	case BufferKindVertex:
		return "vertex"
	case BufferKindIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Vertex is the layout of a voxel mesh vertex.
type Vertex struct {
	Position vmath.Vec3
	Normal   vmath.Vec3
	UV       vmath.Vec2
	Colour   vmath.Vec4
}

// Element is the set of types a buffer may hold.
type Element interface {
	Vertex | uint32
}

// KindOf returns the buffer kind that stores T.
func KindOf[T Element]() BufferKind {
	var zero T
	if _, ok := any(zero).(Vertex); ok {
		return BufferKindVertex
	}
	return BufferKindIndex
}
