// Package gpu defines the backend-agnostic device contract: device
// acquisition, queue access, and the fence/semaphore wait protocol.
//
// Every backend (Vulkan with explicit synchronization, GLES2 with implicit
// synchronization) implements Device. Objects created by a device keep a
// reference on it, so a device refuses to be destroyed while any of its
// fences, semaphores or buffers is still alive. Destroying a fence, semaphore
// or buffer the GPU may still touch is a caller error that is not detected.
package gpu

import (
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/voxel/engine/platform"
)

// Fence is a GPU-to-CPU completion flag.
type Fence interface {
	// Destroy releases the native fence. Only the first call has an effect.
	Destroy()
}

// Semaphore orders queue submissions on the GPU. It has no CPU-visible state.
type Semaphore interface {
	// Destroy releases the native semaphore. Only the first call has an effect.
	Destroy()
}

// Queue identifies the device's single submission queue.
type Queue interface {
	ID() uuid.UUID
	Family() uint32
}

// SubmitInfo describes a submission without commands: it waits on and
// signals semaphores and signals Fence once everything before it completed.
type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	SignalSemaphores []Semaphore
	// Fence may be nil.
	Fence Fence
}

// Device is a GPU bound to one rendering surface.
type Device interface {
	ID() uuid.UUID
	// Backend names the graphics API, e.g. "vulkan" or "gles2".
	Backend() string
	// Window returns the bound window; valid until Destroy.
	Window() *platform.Window
	// Queue returns the device queue; it is owned by the device.
	Queue() Queue

	CreateFence(initial FenceState) (Fence, error)
	CreateSemaphore() (Semaphore, error)
	FenceStatus(fence Fence) (FenceState, error)
	ResetFences(fences ...Fence) error

	// WaitForFencesWithTimeout blocks until every fence (waitAll) or at least
	// one fence is signaled, or until timeout elapses. It is the only wait
	// primitive; see WaitForFences and friends for the derived forms.
	WaitForFencesWithTimeout(fences []Fence, waitAll bool, timeout time.Duration) (WaitResult, error)

	Submit(info SubmitInfo) error

	CreateStagingVertexBuffer(length int) (StagingBuffer[Vertex], error)
	CreateStagingIndexBuffer(length int) (StagingBuffer[uint32], error)
	CreateDeviceVertexBuffer(length int) (DeviceBuffer[Vertex], error)
	CreateDeviceIndexBuffer(length int) (DeviceBuffer[uint32], error)
	// Transfer copies all of src into dst and signals fence (may be nil) on
	// completion. src must stay alive until then.
	Transfer(dst, src Buffer, fence Fence) error

	// WaitIdle blocks until the device has no outstanding work.
	WaitIdle() error
	// Destroy waits for the device to go idle and releases it. It fails with
	// ErrDeviceInUse while children are alive.
	Destroy() error
}

// WaitForFences blocks without a timeout.
func WaitForFences(d Device, fences []Fence, waitAll bool) (WaitResult, error) {
	return d.WaitForFencesWithTimeout(fences, waitAll, Infinite)
}

// WaitForFence blocks until fence is signaled.
func WaitForFence(d Device, fence Fence) (WaitResult, error) {
	return WaitForFences(d, []Fence{fence}, false)
}

// WaitForFenceWithTimeout waits for a single fence for at most timeout.
func WaitForFenceWithTimeout(d Device, fence Fence, timeout time.Duration) (WaitResult, error) {
	return d.WaitForFencesWithTimeout([]Fence{fence}, false, timeout)
}

// EmptyWait is the result every backend gives for an empty fence list: all
// of nothing is trivially signaled, any of nothing never is.
func EmptyWait(waitAll bool) (WaitResult, error) {
	if waitAll {
		return WaitSuccess, nil
	}
	return WaitTimeout, ErrNoFences
}

// Evaluate reports whether a wait over states is satisfied.
func Evaluate(states []FenceState, waitAll bool) bool {
	signaled := 0
	for _, s := range states {
		if s == FenceSignaled {
			signaled++
		}
	}
	if waitAll {
		return signaled == len(states)
	}
	return signaled > 0
}
