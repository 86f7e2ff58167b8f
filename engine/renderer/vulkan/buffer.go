package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
)

// nativeBuffer is the Vulkan object behind a staging or device buffer.
type nativeBuffer struct {
	device *Device
	Buffer vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

func usageFor(kind gpu.BufferKind) vk.BufferUsageFlagBits {
	if kind == gpu.BufferKindVertex {
		return vk.BufferUsageVertexBufferBit
	}
	return vk.BufferUsageIndexBufferBit
}

// createStaging allocates persistently mapped, host-coherent memory.
func createStaging[T gpu.Element](d *Device, length int) (gpu.StagingBuffer[T], error) {
	if length <= 0 {
		return nil, gpu.ErrInvalidLength
	}
	if err := d.lifetime.Acquire(); err != nil {
		return nil, err
	}

	size := vk.DeviceSize(length * gpu.ElementSize[T]())
	buffer, memory, res := d.cmds.createBuffer(
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
	)
	if res != vk.Success {
		d.lifetime.Release()
		return nil, newError("vkCreateBuffer", res)
	}
	data, res := d.cmds.mapMemory(memory, size)
	if res != vk.Success {
		d.cmds.destroyBuffer(buffer, memory)
		d.lifetime.Release()
		return nil, newError("vkMapMemory", res)
	}

	native := &nativeBuffer{device: d, Buffer: buffer, Memory: memory, Size: size}
	elements := unsafe.Slice((*T)(data), length)
	return gpu.WrapHostBuffer(elements, native, func() {
		d.cmds.unmapMemory(memory)
		d.cmds.destroyBuffer(buffer, memory)
		d.lifetime.Release()
	}), nil
}

// createDeviceLocal allocates device-local memory that can only be filled by
// a transfer.
func createDeviceLocal[T gpu.Element](d *Device, length int) (gpu.DeviceBuffer[T], error) {
	if length <= 0 {
		return nil, gpu.ErrInvalidLength
	}
	if err := d.lifetime.Acquire(); err != nil {
		return nil, err
	}

	size := vk.DeviceSize(length * gpu.ElementSize[T]())
	buffer, memory, res := d.cmds.createBuffer(
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit|usageFor(gpu.KindOf[T]())),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	)
	if res != vk.Success {
		d.lifetime.Release()
		return nil, newError("vkCreateBuffer", res)
	}

	native := &nativeBuffer{device: d, Buffer: buffer, Memory: memory, Size: size}
	return gpu.NewSharedBuffer[T](length, native, func() {
		d.cmds.destroyBuffer(buffer, memory)
		d.lifetime.Release()
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

func (d *Device) nativeBuffer(b gpu.Buffer) (*nativeBuffer, error) {
	if b.Released() {
		return nil, fmt.Errorf("%w: %s buffer", gpu.ErrObjectDestroyed, b.Kind())
	}
	native, ok := b.Native().(*nativeBuffer)
	if !ok || native.device != d {
		return nil, fmt.Errorf("%w: %s buffer", gpu.ErrForeignObject, b.Kind())
	}
	return native, nil
}
