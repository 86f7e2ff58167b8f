package gles

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
)

// Interval between checks while a wait has nothing submitted to finish.
const pollInterval = time.Millisecond

// Fence is a synthesized fence. It is signaled once it was created signaled
// or the serial of the submission that signals it has completed. Fields are
// guarded by the device mutex.
type Fence struct {
	device *Device
	// serial of the pending signal, zero when none.
	serial    uint64
	signaled  bool
	destroyed atomic.Bool
	once      sync.Once
}

func (f *Fence) Destroy() {
	f.once.Do(func() {
		f.destroyed.Store(true)
		f.device.lifetime.Release()
	})
}

// isSignaledLocked must be called with the device mutex held.
func (f *Fence) isSignaledLocked() bool {
	return f.signaled || (f.serial != 0 && f.serial <= f.device.completed)
}

// pendingLocked reports whether a submission will signal the fence.
func (f *Fence) pendingLocked() bool {
	return f.serial > f.device.completed
}

// Semaphore is a token: the GL stream is already ordered.
type Semaphore struct {
	device    *Device
	destroyed atomic.Bool
	once      sync.Once
}

func (s *Semaphore) Destroy() {
	s.once.Do(func() {
		s.destroyed.Store(true)
		s.device.lifetime.Release()
	})
}

func (d *Device) CreateFence(initial gpu.FenceState) (gpu.Fence, error) {
	if err := d.lifetime.Acquire(); err != nil {
		return nil, err
	}
	return &Fence{device: d, signaled: initial == gpu.FenceSignaled}, nil
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	if err := d.lifetime.Acquire(); err != nil {
		return nil, err
	}
	return &Semaphore{device: d}, nil
}

// FenceStatus finishes the stream when the fence waits on a submitted
// serial, so polling a submitted fence always observes its completion.
func (d *Device) FenceStatus(fence gpu.Fence) (gpu.FenceState, error) {
	f, err := d.fence(fence)
	if err != nil {
		return gpu.FenceUnsignaled, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if f.isSignaledLocked() {
		return gpu.FenceSignaled, nil
	}
	if f.pendingLocked() {
		d.finishLocked()
		if err := d.checkError("glFinish"); err != nil {
			return gpu.FenceUnsignaled, err
		}
		return gpu.FenceSignaled, nil
	}
	return gpu.FenceUnsignaled, nil
}

func (d *Device) ResetFences(fences ...gpu.Fence) error {
	resolved, err := d.fences(fences)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range resolved {
		f.signaled = false
		f.serial = 0
	}
	return nil
}

// WaitForFencesWithTimeout succeeds at once when the fences are already
// signaled, and finishes the stream when submitted serials can satisfy the
// wait, whatever the timeout. Otherwise nothing on the stream will signal the
// fences, and it returns Timeout, sleeping until the deadline first when the
// timeout is not zero.
func (d *Device) WaitForFencesWithTimeout(fences []gpu.Fence, waitAll bool, timeout time.Duration) (gpu.WaitResult, error) {
	if len(fences) == 0 {
		return gpu.EmptyWait(waitAll)
	}
	resolved, err := d.fences(fences)
	if err != nil {
		return gpu.WaitTimeout, err
	}
	timeout = gpu.NormalizeTimeout(timeout)

	d.mu.Lock()
	defer d.mu.Unlock()

	var deadline time.Time
	if timeout != gpu.Infinite {
		deadline = time.Now().Add(timeout)
	}
	for {
		if satisfiedLocked(resolved, waitAll) {
			return gpu.WaitSuccess, nil
		}
		if satisfiableLocked(resolved, waitAll) {
			d.finishLocked()
			if err := d.checkError("glFinish"); err != nil {
				return gpu.WaitTimeout, err
			}
			return gpu.WaitSuccess, nil
		}

		sleep := pollInterval
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return gpu.WaitTimeout, nil
			}
			sleep = min(sleep, remaining)
		}
		// Resets and fence creation from other goroutines need no GL and may
		// proceed while this one sleeps.
		d.mu.Unlock()
		time.Sleep(sleep)
		d.mu.Lock()
	}
}

func satisfiedLocked(fences []*Fence, waitAll bool) bool {
	states := make([]gpu.FenceState, len(fences))
	for i, f := range fences {
		if f.isSignaledLocked() {
			states[i] = gpu.FenceSignaled
		}
	}
	return gpu.Evaluate(states, waitAll)
}

// satisfiableLocked reports whether finishing the stream satisfies the wait.
func satisfiableLocked(fences []*Fence, waitAll bool) bool {
	states := make([]gpu.FenceState, len(fences))
	for i, f := range fences {
		if f.isSignaledLocked() || f.pendingLocked() {
			states[i] = gpu.FenceSignaled
		}
	}
	return gpu.Evaluate(states, waitAll)
}

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

func (d *Device) fences(fences []gpu.Fence) ([]*Fence, error) {
	resolved := make([]*Fence, len(fences))
	for i, fence := range fences {
		f, err := d.fence(fence)
		if err != nil {
			return nil, err
		}
		resolved[i] = f
	}
	return resolved, nil
}

func (d *Device) checkSemaphores(semaphores []gpu.Semaphore) error {
	for _, semaphore := range semaphores {
		s, ok := semaphore.(*Semaphore)
		if !ok || s == nil || s.device != d {
			return gpu.ErrForeignObject
		}
		if s.destroyed.Load() {
			return gpu.ErrObjectDestroyed
		}
	}
	return nil
}
