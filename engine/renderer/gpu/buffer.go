package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Buffer is the type-erased view backends use for transfers.
type Buffer interface {
	Kind() BufferKind
	Len() int
	// Native returns the backend object behind the buffer, or nil once the
	// buffer was destroyed or released.
	Native() any
	// Released reports whether the buffer was destroyed, or this handle
	// released. Released buffers cannot take part in transfers.
	Released() bool
}

// StagingBuffer is CPU-writable memory holding a fixed number of elements.
// Indexes outside [0, Len()) panic.
type StagingBuffer[T Element] interface {
	Buffer
	Write(index int, value T)
	Read(index int) T
	// Destroy releases the memory. Only the first call has an effect.
	Destroy()
}

// DeviceBuffer is an opaque GPU-resident buffer with shared ownership.
type DeviceBuffer[T Element] interface {
	Buffer
	// Clone returns another handle to the same allocation.
	Clone() DeviceBuffer[T]
	// Release drops this handle. The allocation is freed with the last handle.
	Release()
}

// Upload is the typed form of Device.Transfer.
func Upload[T Element](d Device, dst DeviceBuffer[T], src StagingBuffer[T], fence Fence) error {
	return d.Transfer(dst, src, fence)
}

// ElementSize returns the size in bytes of one T.
func ElementSize[T Element]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// ByteSize returns the size in bytes of b.
func ByteSize(b Buffer) int {
	switch b.Kind() {
	case BufferKindVertex:
		return b.Len() * ElementSize[Vertex]()
	default:
		return b.Len() * ElementSize[uint32]()
	}
}

// CheckTransfer validates that src can be copied into dst.
func CheckTransfer(dst, src Buffer) error {
	if dst == nil || src == nil {
		return fmt.Errorf("%w: nil buffer", ErrBufferMismatch)
	}
	if dst.Released() {
		return fmt.Errorf("%w: destination %s buffer", ErrObjectDestroyed, dst.Kind())
	}
	if src.Released() {
		return fmt.Errorf("%w: source %s buffer", ErrObjectDestroyed, src.Kind())
	}
	if dst.Kind() != src.Kind() {
		return fmt.Errorf("%w: %s into %s", ErrBufferMismatch, src.Kind(), dst.Kind())
	}
	if dst.Len() != src.Len() {
		return fmt.Errorf("%w: %d elements into %d", ErrBufferMismatch, src.Len(), dst.Len())
	}
	return nil
}

// HostBuffer is a staging buffer over a slice. The slice may live in Go
// memory or in mapped device memory.
type HostBuffer[T Element] struct {
	data     []T
	native   any
	release  func()
	once     sync.Once
	released atomic.Bool
}

// NewHostBuffer allocates a zeroed staging buffer in Go memory.
func NewHostBuffer[T Element](length int) *HostBuffer[T] {
	return &HostBuffer[T]{data: make([]T, length)}
}

// WrapHostBuffer builds a staging buffer over data. release runs once on
// Destroy; native is returned by Native.
func WrapHostBuffer[T Element](data []T, native any, release func()) *HostBuffer[T] {
	return &HostBuffer[T]{
		data:    data,
		native:  native,
		release: release,
	}
}

func (b *HostBuffer[T]) Kind() BufferKind {
	return KindOf[T]()
}

func (b *HostBuffer[T]) Len() int {
	return len(b.data)
}

func (b *HostBuffer[T]) Native() any {
	return b.native
}

func (b *HostBuffer[T]) Released() bool {
	return b.released.Load()
}

func (b *HostBuffer[T]) Write(index int, value T) {
	b.check(index)
	b.data[index] = value
}

func (b *HostBuffer[T]) Read(index int) T {
	b.check(index)
	return b.data[index]
}

// Bytes returns the raw contents, sharing memory with the buffer.
func (b *HostBuffer[T]) Bytes() []byte {
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.data[0])), len(b.data)*ElementSize[T]())
}

func (b *HostBuffer[T]) Destroy() {
	b.once.Do(func() {
		if b.release != nil {
			b.release()
		}
		b.released.Store(true)
		b.data = nil
		b.native = nil
	})
}

func (b *HostBuffer[T]) check(index int) {
	if index < 0 || index >= len(b.data) {
		panic(fmt.Sprintf("gpu: %s staging buffer index %d out of range [0,%d)", b.Kind(), index, len(b.data)))
	}
}

// allocation is the state shared by every clone of a SharedBuffer.
type allocation struct {
	refs   atomic.Int64
	length int
	native any
	free   func()
}

// SharedBuffer is a reference-counted DeviceBuffer handle.
type SharedBuffer[T Element] struct {
	alloc    *allocation
	released atomic.Bool
}

// NewSharedBuffer wraps a native allocation of length elements. free runs
// once, when the last handle is released.
func NewSharedBuffer[T Element](length int, native any, free func()) *SharedBuffer[T] {
	a := &allocation{
		length: length,
		native: native,
		free:   free,
	}
	a.refs.Store(1)
	return &SharedBuffer[T]{alloc: a}
}

func (b *SharedBuffer[T]) Kind() BufferKind {
	return KindOf[T]()
}

func (b *SharedBuffer[T]) Len() int {
	return b.alloc.length
}

func (b *SharedBuffer[T]) Native() any {
	if b.released.Load() {
		return nil
	}
	return b.alloc.native
}

func (b *SharedBuffer[T]) Released() bool {
	return b.released.Load()
}

// Refs returns the number of live handles to the allocation.
func (b *SharedBuffer[T]) Refs() int {
	return int(b.alloc.refs.Load())
}

func (b *SharedBuffer[T]) Clone() DeviceBuffer[T] {
	if b.released.Load() {
		panic("gpu: clone of a released device buffer")
	}
	b.alloc.refs.Add(1)
	return &SharedBuffer[T]{alloc: b.alloc}
}

func (b *SharedBuffer[T]) Release() {
	if !b.released.CompareAndSwap(false, true) {
		return
	}
	if b.alloc.refs.Add(-1) == 0 && b.alloc.free != nil {
		b.alloc.free()
	}
}
