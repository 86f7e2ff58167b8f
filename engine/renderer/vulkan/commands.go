package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// commands is the fixed function table a Device calls through. It is bound
// once to the logical device. The calls go through goki/vulkan, which
// dispatches with the same vkGetInstanceProcAddr bootstrap; the loader has
// already checked that every entry point used here exists.
type commands struct {
	deviceWaitIdle func() vk.Result
	queueSubmit    func(submits []vk.SubmitInfo, fence vk.Fence) vk.Result

	createFence    func(signaled bool) (vk.Fence, vk.Result)
	destroyFence   func(fence vk.Fence)
	getFenceStatus func(fence vk.Fence) vk.Result
	resetFences    func(fences []vk.Fence) vk.Result
	waitForFences  func(fences []vk.Fence, waitAll bool, timeout uint64) vk.Result

	createSemaphore  func() (vk.Semaphore, vk.Result)
	destroySemaphore func(semaphore vk.Semaphore)

	// createBuffer creates a buffer and binds freshly allocated memory to it.
	createBuffer  func(size vk.DeviceSize, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, vk.Result)
	destroyBuffer func(buffer vk.Buffer, memory vk.DeviceMemory)
	mapMemory     func(memory vk.DeviceMemory, size vk.DeviceSize) (unsafe.Pointer, vk.Result)
	unmapMemory   func(memory vk.DeviceMemory)

	// recordCopy returns an ended one-shot command buffer copying size bytes
	// from src to dst.
	recordCopy        func(src, dst vk.Buffer, size vk.DeviceSize) (vk.CommandBuffer, vk.Result)
	freeCommandBuffer func(cb vk.CommandBuffer)
}

func boolToVk(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func bindCommands(vc *vulkanContext) *commands {
	device := vc.LogicalDevice
	allocator := vc.Allocator

	return &commands{
		deviceWaitIdle: func() vk.Result {
			return vk.DeviceWaitIdle(device)
		},
		queueSubmit: func(submits []vk.SubmitInfo, fence vk.Fence) vk.Result {
			return vk.QueueSubmit(vc.Queue, uint32(len(submits)), submits, fence)
		},

		createFence: func(signaled bool) (vk.Fence, vk.Result) {
			info := vk.FenceCreateInfo{
				SType: vk.StructureTypeFenceCreateInfo,
			}
			if signaled {
				info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
			}
			var fence vk.Fence
			res := vk.CreateFence(device, &info, allocator, &fence)
			return fence, res
		},
		destroyFence: func(fence vk.Fence) {
			vk.DestroyFence(device, fence, allocator)
		},
		getFenceStatus: func(fence vk.Fence) vk.Result {
			return vk.GetFenceStatus(device, fence)
		},
		resetFences: func(fences []vk.Fence) vk.Result {
			return vk.ResetFences(device, uint32(len(fences)), fences)
		},
		waitForFences: func(fences []vk.Fence, waitAll bool, timeout uint64) vk.Result {
			return vk.WaitForFences(device, uint32(len(fences)), fences, boolToVk(waitAll), timeout)
		},

		createSemaphore: func() (vk.Semaphore, vk.Result) {
			info := vk.SemaphoreCreateInfo{
				SType: vk.StructureTypeSemaphoreCreateInfo,
			}
			var semaphore vk.Semaphore
			res := vk.CreateSemaphore(device, &info, allocator, &semaphore)
			return semaphore, res
		},
		destroySemaphore: func(semaphore vk.Semaphore) {
			vk.DestroySemaphore(device, semaphore, allocator)
		},

		createBuffer: func(size vk.DeviceSize, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, vk.Result) {
			bufferInfo := vk.BufferCreateInfo{
				SType:       vk.StructureTypeBufferCreateInfo,
				Size:        size,
				Usage:       usage,
				SharingMode: vk.SharingModeExclusive,
			}
			var buffer vk.Buffer
			if res := vk.CreateBuffer(device, &bufferInfo, allocator, &buffer); res != vk.Success {
				return nil, nil, res
			}

			var requirements vk.MemoryRequirements
			vk.GetBufferMemoryRequirements(device, buffer, &requirements)
			requirements.Deref()

			index := vc.FindMemoryIndex(requirements.MemoryTypeBits, properties)
			if index == -1 {
				vk.DestroyBuffer(device, buffer, allocator)
				return nil, nil, vk.ErrorOutOfDeviceMemory
			}

			allocInfo := vk.MemoryAllocateInfo{
				SType:           vk.StructureTypeMemoryAllocateInfo,
				AllocationSize:  requirements.Size,
				MemoryTypeIndex: uint32(index),
			}
			var memory vk.DeviceMemory
			if res := vk.AllocateMemory(device, &allocInfo, allocator, &memory); res != vk.Success {
				vk.DestroyBuffer(device, buffer, allocator)
				return nil, nil, res
			}
			if res := vk.BindBufferMemory(device, buffer, memory, 0); res != vk.Success {
				vk.FreeMemory(device, memory, allocator)
				vk.DestroyBuffer(device, buffer, allocator)
				return nil, nil, res
			}
			return buffer, memory, vk.Success
		},
		destroyBuffer: func(buffer vk.Buffer, memory vk.DeviceMemory) {
			vk.DestroyBuffer(device, buffer, allocator)
			vk.FreeMemory(device, memory, allocator)
		},
		mapMemory: func(memory vk.DeviceMemory, size vk.DeviceSize) (unsafe.Pointer, vk.Result) {
			var data unsafe.Pointer
			res := vk.MapMemory(device, memory, 0, size, 0, &data)
			return data, res
		},
		unmapMemory: func(memory vk.DeviceMemory) {
			vk.UnmapMemory(device, memory)
		},

		recordCopy: func(src, dst vk.Buffer, size vk.DeviceSize) (vk.CommandBuffer, vk.Result) {
			allocInfo := vk.CommandBufferAllocateInfo{
				SType:              vk.StructureTypeCommandBufferAllocateInfo,
				CommandPool:        vc.TransferCommandPool,
				Level:              vk.CommandBufferLevelPrimary,
				CommandBufferCount: 1,
			}
			buffers := make([]vk.CommandBuffer, 1)
			if res := vk.AllocateCommandBuffers(device, &allocInfo, buffers); res != vk.Success {
				return nil, res
			}
			cb := buffers[0]

			beginInfo := vk.CommandBufferBeginInfo{
				SType: vk.StructureTypeCommandBufferBeginInfo,
				Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
			}
			if res := vk.BeginCommandBuffer(cb, &beginInfo); res != vk.Success {
				vk.FreeCommandBuffers(device, vc.TransferCommandPool, 1, buffers)
				return nil, res
			}
			vk.CmdCopyBuffer(cb, src, dst, 1, []vk.BufferCopy{{Size: size}})
			if res := vk.EndCommandBuffer(cb); res != vk.Success {
				vk.FreeCommandBuffers(device, vc.TransferCommandPool, 1, buffers)
				return nil, res
			}
			return cb, vk.Success
		},
		freeCommandBuffer: func(cb vk.CommandBuffer) {
			vk.FreeCommandBuffers(device, vc.TransferCommandPool, 1, []vk.CommandBuffer{cb})
		},
	}
}
