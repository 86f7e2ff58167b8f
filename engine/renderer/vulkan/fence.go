package vulkan

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
)

// Fence wraps a VkFence owned by a Device.
type Fence struct {
	device    *Device
	Handle    vk.Fence
	destroyed atomic.Bool
	once      sync.Once
}

func (f *Fence) Destroy() {
	f.once.Do(func() {
		f.destroyed.Store(true)
		f.device.cmds.destroyFence(f.Handle)
		f.device.lifetime.Release()
	})
}

// Semaphore wraps a VkSemaphore owned by a Device.
type Semaphore struct {
	device    *Device
	Handle    vk.Semaphore
	destroyed atomic.Bool
	once      sync.Once
}

func (s *Semaphore) Destroy() {
	s.once.Do(func() {
		s.destroyed.Store(true)
		s.device.cmds.destroySemaphore(s.Handle)
		s.device.lifetime.Release()
	})
}

func (d *Device) CreateFence(initial gpu.FenceState) (gpu.Fence, error) {
	if err := d.lifetime.Acquire(); err != nil {
		return nil, err
	}
	handle, res := d.cmds.createFence(initial == gpu.FenceSignaled)
	if res != vk.Success {
		d.lifetime.Release()
		return nil, newError("vkCreateFence", res)
	}
	return &Fence{device: d, Handle: handle}, nil
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	if err := d.lifetime.Acquire(); err != nil {
		return nil, err
	}
	handle, res := d.cmds.createSemaphore()
	if res != vk.Success {
		d.lifetime.Release()
		return nil, newError("vkCreateSemaphore", res)
	}
	return &Semaphore{device: d, Handle: handle}, nil
}

func (d *Device) FenceStatus(fence gpu.Fence) (gpu.FenceState, error) {
	f, err := d.fence(fence)
	if err != nil {
		return gpu.FenceUnsignaled, err
	}
	switch res := d.cmds.getFenceStatus(f.Handle); res {
	case vk.Success:
		return gpu.FenceSignaled, nil
	case vk.NotReady:
		return gpu.FenceUnsignaled, nil
	default:
		return gpu.FenceUnsignaled, newError("vkGetFenceStatus", res)
	}
}

func (d *Device) ResetFences(fences ...gpu.Fence) error {
	if len(fences) == 0 {
		return nil
	}
	handles, err := d.fenceHandles(fences)
	if err != nil {
		return err
	}
	if res := d.cmds.resetFences(handles); res != vk.Success {
		return newError("vkResetFences", res)
	}
	return nil
}

func (d *Device) WaitForFencesWithTimeout(fences []gpu.Fence, waitAll bool, timeout time.Duration) (gpu.WaitResult, error) {
	if len(fences) == 0 {
		return gpu.EmptyWait(waitAll)
	}
	handles, err := d.fenceHandles(fences)
	if err != nil {
		return gpu.WaitTimeout, err
	}
	switch res := d.cmds.waitForFences(handles, waitAll, timeoutNanos(timeout)); res {
	case vk.Success:
		return gpu.WaitSuccess, nil
	case vk.Timeout:
		return gpu.WaitTimeout, nil
	default:
		return gpu.WaitTimeout, newError("vkWaitForFences", res)
	}
}

// timeoutNanos converts a wait bound to the Vulkan representation, where
// UINT64_MAX never expires.
func timeoutNanos(timeout time.Duration) uint64 {
	if timeout == gpu.Infinite {
		return math.MaxUint64
	}
	return uint64(gpu.NormalizeTimeout(timeout).Nanoseconds())
}

// fence resolves a caller fence to one created by this device.
func (d *Device) fence(fence gpu.Fence) (*Fence, error) {
	f, ok := fence.(*Fence)
	if !ok || f == nil || f.device != d {
		return nil, gpu.ErrForeignObject
	}
	if f.destroyed.Load() {
		return nil, gpu.ErrObjectDestroyed
	}
	return f, nil
}

func (d *Device) fenceHandles(fences []gpu.Fence) ([]vk.Fence, error) {
	handles := make([]vk.Fence, len(fences))
	for i, fence := range fences {
		f, err := d.fence(fence)
		if err != nil {
			return nil, err
		}
		handles[i] = f.Handle
	}
	return handles, nil
}

func (d *Device) semaphoreHandles(semaphores []gpu.Semaphore) ([]vk.Semaphore, error) {
	handles := make([]vk.Semaphore, len(semaphores))
	for i, semaphore := range semaphores {
		s, ok := semaphore.(*Semaphore)
		if !ok || s == nil || s.device != d {
			return nil, gpu.ErrForeignObject
		}
		if s.destroyed.Load() {
			return nil, gpu.ErrObjectDestroyed
		}
		handles[i] = s.Handle
	}
	return handles, nil
}
