package vulkan

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/voxel/engine/containers"
	"github.com/spaghettifunk/voxel/engine/core"
	"github.com/spaghettifunk/voxel/engine/platform"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
	"github.com/spaghettifunk/voxel/engine/renderer/loader"
)

const BackendName = "vulkan"

// Transfers allowed in flight before Transfer blocks on the oldest one.
const maxPendingTransfers = 64

// Queue is the single graphics queue of a Device.
type Queue struct {
	id     uuid.UUID
	family uint32
}

func (q *Queue) ID() uuid.UUID {
	return q.id
}

func (q *Queue) Family() uint32 {
	return q.family
}

// Device is the explicit-synchronization backend.
type Device struct {
	id      uuid.UUID
	window  *platform.Window
	context *vulkanContext
	procs   *loader.Table
	cmds    *commands
	queue   *Queue

	lifetime gpu.Lifetime

	// vkQueueSubmit and the transfer command pool need external
	// synchronization.
	submitMu sync.Mutex
	pending  *containers.RingQueue[*transfer]

	destroyMu sync.Mutex
}

var _ gpu.Device = (*Device)(nil)

// Create opens a window and binds a Vulkan device to it. If the device cannot
// be created the window is destroyed again.
func Create(title string, position *platform.Position, size platform.Size, flags platform.Flags, opts ...gpu.Option) (*Device, error) {
	options := gpu.ApplyOptions(opts...)

	window, err := platform.New(title, position, size, flags&^platform.FlagClientGLES)
	if err != nil {
		return nil, errors.Wrap(err, "vulkan: create window")
	}
	d, err := bind(window, options)
	if err != nil {
		window.Destroy()
		return nil, errors.Wrap(err, "vulkan: create device")
	}
	return d, nil
}

func bind(window *platform.Window, options gpu.Options) (*Device, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, errors.New("vkGetInstanceProcAddr is not available")
	}

	// Missing entry points are fatal inside Load.
	ld := loader.New(procAddrFunc(procAddr), nil)
	procs := ld.Load(globalCommandNames...)

	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize vk")
	}

	vc := &vulkanContext{}
	if err := vc.createInstance(window.Title(), window.RequiredInstanceExtensions(), options.Validation); err != nil {
		return nil, err
	}

	names := append(append([]string{}, instanceCommandNames...), deviceCommandNames...)
	if options.Validation {
		names = append(names, debugCommandNames...)
	}
	procs = procs.Merge(ld.WithHandle(vc.instanceHandle()).Load(names...))

	steps := []func() error{
		func() error {
			if !options.Validation {
				return nil
			}
			return vc.createDebugCallback()
		},
		func() error { return vc.createSurface(window) },
		vc.selectPhysicalDevice,
		vc.createLogicalDevice,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			vc.destroy()
			return nil, err
		}
	}

	d := newDevice(window, vc, procs, bindCommands(vc), vc.QueueFamily)
	core.LogInfo("Vulkan device %s created with %d entry points.", d.id, procs.Len())
	return d, nil
}

func newDevice(window *platform.Window, vc *vulkanContext, procs *loader.Table, cmds *commands, family uint32) *Device {
	return &Device{
		id:      uuid.New(),
		window:  window,
		context: vc,
		procs:   procs,
		cmds:    cmds,
		queue: &Queue{
			id:     uuid.New(),
			family: family,
		},
		pending: containers.NewRingQueue[*transfer](maxPendingTransfers),
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

// Procs returns the entry points resolved when the device was created. They
// were required to exist before goki/vulkan was bound.
func (d *Device) Procs() *loader.Table {
	return d.procs
}

func (d *Device) Submit(info gpu.SubmitInfo) error {
	if d.lifetime.Closed() {
		return gpu.ErrDeviceDestroyed
	}
	waits, err := d.semaphoreHandles(info.WaitSemaphores)
	if err != nil {
		return err
	}
	signals, err := d.semaphoreHandles(info.SignalSemaphores)
	if err != nil {
		return err
	}
	var fence vk.Fence
	if info.Fence != nil {
		f, err := d.fence(info.Fence)
		if err != nil {
			return err
		}
		fence = f.Handle
	}

	submit := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waits)),
		PWaitSemaphores:      waits,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    signals,
	}
	if len(waits) > 0 {
		stages := make([]vk.PipelineStageFlags, len(waits))
		for i := range stages {
			stages[i] = vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
		}
		submit.PWaitDstStageMask = stages
	}

	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	if res := d.cmds.queueSubmit([]vk.SubmitInfo{submit}, fence); res != vk.Success {
		return newError("vkQueueSubmit", res)
	}
	return nil
}

func (d *Device) WaitIdle() error {
	if d.lifetime.Closed() {
		return gpu.ErrDeviceDestroyed
	}
	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	if res := d.cmds.deviceWaitIdle(); res != vk.Success {
		return newError("vkDeviceWaitIdle", res)
	}
	d.reclaimTransfers()
	return nil
}

// Destroy waits for the GPU, then releases the device and its window. It
// fails while fences, semaphores or buffers created by the device are alive.
func (d *Device) Destroy() error {
	d.destroyMu.Lock()
	defer d.destroyMu.Unlock()

	if err := d.WaitIdle(); err != nil {
		return err
	}
	if err := d.lifetime.Close(); err != nil {
		return err
	}

	d.submitMu.Lock()
	for !d.pending.IsEmpty() {
		t, _ := d.pending.Dequeue()
		d.releaseTransfer(t)
	}
	d.submitMu.Unlock()

	if d.context != nil {
		d.context.destroy()
	}
	if d.window != nil {
		d.window.Destroy()
	}
	core.LogDebug("Vulkan device %s destroyed.", d.id)
	return nil
}
