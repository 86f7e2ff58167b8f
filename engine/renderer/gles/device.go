// Package gles implements the device contract on OpenGL ES 2.0.
//
// GLES2 has a single implicit, in-order command stream and no fence
// objects. Fences are synthesized from submission serials: every submission
// flushes the stream and takes the next serial, and glFinish completes every
// serial handed out so far. Semaphores only carry ownership bookkeeping.
//
// GL calls must come from the thread the device was created on, with its
// context current. That covers every Device method except CreateFence,
// CreateSemaphore and ResetFences, and it covers releasing device buffers.
// Submissions from other goroutines must be handed to that thread.
package gles

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/voxel/engine/core"
	"github.com/spaghettifunk/voxel/engine/platform"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
	"github.com/spaghettifunk/voxel/engine/renderer/loader"
)

const BackendName = "gles2"

// Queue is the implicit GL command stream.
type Queue struct {
	id uuid.UUID
}

func (q *Queue) ID() uuid.UUID {
	return q.id
}

// Family is always zero; GL exposes a single stream.
func (q *Queue) Family() uint32 {
	return 0
}

type Device struct {
	id     uuid.UUID
	window *platform.Window
	procs  *loader.Table
	cmds   *commands
	queue  *Queue

	lifetime gpu.Lifetime

	// mu serializes GL calls and guards the serials.
	mu sync.Mutex
	// submitted is the serial of the latest submission.
	submitted uint64
	// completed is the latest serial known to be finished.
	completed uint64

	destroyMu sync.Mutex
}

var _ gpu.Device = (*Device)(nil)

// Create opens a window with a GLES 2.0 context and binds a device to it. If
// the device cannot be created the window is destroyed again.
func Create(title string, position *platform.Position, size platform.Size, flags platform.Flags, opts ...gpu.Option) (*Device, error) {
	options := gpu.ApplyOptions(opts...)

	window, err := platform.New(title, position, size, flags|platform.FlagClientGLES)
	if err != nil {
		return nil, errors.Wrap(err, "gles: create window")
	}
	d, err := bind(window, options)
	if err != nil {
		window.Destroy()
		return nil, errors.Wrap(err, "gles: create device")
	}
	return d, nil
}

func bind(window *platform.Window, options gpu.Options) (*Device, error) {
	window.MakeContextCurrent()

	// Missing entry points are fatal inside Load.
	ld := loader.New(glProcAddr, nil)
	procs := ld.Load(requiredCommandNames...)

	cmds, err := bindCommands(procs, ld)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize gles2")
	}
	if options.Validation {
		core.LogWarn("GLES2 has no validation layer; continuing without it.")
	}

	d := newDevice(window, procs, cmds)
	core.LogInfo("GLES device %s created (%s).", d.id, version())
	return d, nil
}

func newDevice(window *platform.Window, procs *loader.Table, cmds *commands) *Device {
	return &Device{
		id:     uuid.New(),
		window: window,
		procs:  procs,
		cmds:   cmds,
		queue:  &Queue{id: uuid.New()},
	}
}

func (d *Device) ID() uuid.UUID {
	return d.id
}

func (d *Device) Backend() string {
	return BackendName
}

func (d *Device) Window() *platform.Window {
	return d.window
}

func (d *Device) Queue() gpu.Queue {
	return d.queue
}

// Procs returns the entry points resolved when the device was created.
func (d *Device) Procs() *loader.Table {
	return d.procs
}

// Submit flushes the stream and signals info.Fence with a new serial. The
// stream is in order, so semaphore waits are already satisfied.
func (d *Device) Submit(info gpu.SubmitInfo) error {
	if d.lifetime.Closed() {
		return gpu.ErrDeviceDestroyed
	}
	if err := d.checkSemaphores(info.WaitSemaphores); err != nil {
		return err
	}
	if err := d.checkSemaphores(info.SignalSemaphores); err != nil {
		return err
	}
	var fence *Fence
	if info.Fence != nil {
		f, err := d.fence(info.Fence)
		if err != nil {
			return err
		}
		fence = f
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitLocked(fence)
	return nil
}

// submitLocked closes the current batch. Must be called with mu held.
func (d *Device) submitLocked(fence *Fence) {
	d.cmds.flush()
	d.submitted++
	if fence != nil {
		fence.signaled = false
		fence.serial = d.submitted
	}
}

// finishLocked blocks until the GPU drained the stream. Must be called with
// mu held.
func (d *Device) finishLocked() {
	d.cmds.finish()
	d.completed = d.submitted
}

func (d *Device) WaitIdle() error {
	if d.lifetime.Closed() {
		return gpu.ErrDeviceDestroyed
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finishLocked()
	return d.checkError("glFinish")
}

// Destroy waits for the GPU, then releases the device together with its
// window and context. It fails while objects created by the device are alive.
func (d *Device) Destroy() error {
	d.destroyMu.Lock()
	defer d.destroyMu.Unlock()

	if err := d.WaitIdle(); err != nil {
		return err
	}
	if err := d.lifetime.Close(); err != nil {
		return err
	}
	if d.window != nil {
		d.window.Destroy()
	}
	core.LogDebug("GLES device %s destroyed.", d.id)
	return nil
}
