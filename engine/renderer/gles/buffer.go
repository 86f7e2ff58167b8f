package gles

import (
	"fmt"

	"github.com/go-gl/gl/v3.1/gles2"
	"github.com/spaghettifunk/voxel/engine/core"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
)

// nativeBuffer identifies the owner of a buffer. Name is zero for staging
// buffers, which live in host memory.
type nativeBuffer struct {
	device *Device
	Target uint32
	Name   uint32
}

func targetFor(kind gpu.BufferKind) uint32 {
	if kind == gpu.BufferKindVertex {
		return gles2.ARRAY_BUFFER
	}
	return gles2.ELEMENT_ARRAY_BUFFER
}

func createStaging[T gpu.Element](d *Device, length int) (gpu.StagingBuffer[T], error) {
	if length <= 0 {
		return nil, gpu.ErrInvalidLength
	}
	if err := d.lifetime.Acquire(); err != nil {
		return nil, err
	}
	native := &nativeBuffer{device: d, Target: targetFor(gpu.KindOf[T]())}
	return gpu.WrapHostBuffer(make([]T, length), native, d.lifetime.Release), nil
}

func createDeviceLocal[T gpu.Element](d *Device, length int) (gpu.DeviceBuffer[T], error) {
	if length <= 0 {
		return nil, gpu.ErrInvalidLength
	}
	if err := d.lifetime.Acquire(); err != nil {
		return nil, err
	}

	target := targetFor(gpu.KindOf[T]())
	d.mu.Lock()
	name := d.cmds.genBuffer()
	d.cmds.allocate(target, name, length*gpu.ElementSize[T]())
	err := d.checkError("glBufferData")
	if err != nil {
		d.cmds.deleteBuffer(name)
	}
	d.mu.Unlock()
	if err != nil {
		d.lifetime.Release()
		return nil, err
	}

	native := &nativeBuffer{device: d, Target: target, Name: name}
	return gpu.NewSharedBuffer[T](length, native, func() {
		d.mu.Lock()
		d.cmds.deleteBuffer(name)
		err := d.checkError("glDeleteBuffers")
		d.mu.Unlock()
		d.lifetime.Release()
		core.Assert(err == nil, "releasing buffer %d: %v", name, err)
	}), nil
}

func (d *Device) CreateStagingVertexBuffer(length int) (gpu.StagingBuffer[gpu.Vertex], error) {
	return createStaging[gpu.Vertex](d, length)
}

func (d *Device) CreateStagingIndexBuffer(length int) (gpu.StagingBuffer[uint32], error) {
	return createStaging[uint32](d, length)
}

func (d *Device) CreateDeviceVertexBuffer(length int) (gpu.DeviceBuffer[gpu.Vertex], error) {
	return createDeviceLocal[gpu.Vertex](d, length)
}

func (d *Device) CreateDeviceIndexBuffer(length int) (gpu.DeviceBuffer[uint32], error) {
	return createDeviceLocal[uint32](d, length)
}

// Transfer uploads the staging contents with glBufferSubData, then submits
// to signal fence. GL copies the data during the call, so src is free to
// reuse on return.
func (d *Device) Transfer(dst, src gpu.Buffer, fence gpu.Fence) error {
	if d.lifetime.Closed() {
		return gpu.ErrDeviceDestroyed
	}
	if err := gpu.CheckTransfer(dst, src); err != nil {
		return err
	}
	to, ok := dst.Native().(*nativeBuffer)
	if !ok || to.device != d || to.Name == 0 {
		return fmt.Errorf("%w: destination %s buffer", gpu.ErrForeignObject, dst.Kind())
	}
	from, ok := src.Native().(*nativeBuffer)
	if !ok || from.device != d {
		return fmt.Errorf("%w: source %s buffer", gpu.ErrForeignObject, src.Kind())
	}
	host, ok := src.(interface{ Bytes() []byte })
	if !ok {
		return fmt.Errorf("%w: source is not host memory", gpu.ErrBufferMismatch)
	}
	var signal *Fence
	if fence != nil {
		f, err := d.fence(fence)
		if err != nil {
			return err
		}
		signal = f
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmds.upload(to.Target, to.Name, host.Bytes())
	if err := d.checkError("glBufferSubData"); err != nil {
		return err
	}
	d.submitLocked(signal)
	return nil
}
