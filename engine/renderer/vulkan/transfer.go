package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/voxel/engine/core"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
)

// transfer is a submitted copy whose command buffer is freed once done.
type transfer struct {
	commandBuffer vk.CommandBuffer
	// Internal fence, independent of the caller's.
	fence vk.Fence
}

// Transfer records a one-shot copy of src into dst and submits it. The
// caller's fence is signaled by an empty submission right behind the copy.
func (d *Device) Transfer(dst, src gpu.Buffer, fence gpu.Fence) error {
	if d.lifetime.Closed() {
		return gpu.ErrDeviceDestroyed
	}
	if err := gpu.CheckTransfer(dst, src); err != nil {
		return err
	}
	from, err := d.nativeBuffer(src)
	if err != nil {
		return err
	}
	to, err := d.nativeBuffer(dst)
	if err != nil {
		return err
	}
	var signal vk.Fence
	if fence != nil {
		f, err := d.fence(fence)
		if err != nil {
			return err
		}
		signal = f.Handle
	}

	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	d.reclaimTransfers()
	if d.pending.IsFull() {
		d.waitOldestTransfer()
	}

	done, res := d.cmds.createFence(false)
	if res != vk.Success {
		return newError("vkCreateFence", res)
	}
	cb, res := d.cmds.recordCopy(from.Buffer, to.Buffer, vk.DeviceSize(gpu.ByteSize(src)))
	if res != vk.Success {
		d.cmds.destroyFence(done)
		return newError("vkAllocateCommandBuffers", res)
	}

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb},
	}
	if res := d.cmds.queueSubmit([]vk.SubmitInfo{submit}, done); res != vk.Success {
		d.cmds.freeCommandBuffer(cb)
		d.cmds.destroyFence(done)
		return newError("vkQueueSubmit", res)
	}
	if err := d.pending.Enqueue(&transfer{commandBuffer: cb, fence: done}); err != nil {
		core.LogError("pending transfer queue overflow: %s", err)
	}

	if signal != nil {
		if res := d.cmds.queueSubmit(nil, signal); res != vk.Success {
			return newError("vkQueueSubmit", res)
		}
	}
	return nil
}

// reclaimTransfers frees finished transfers in submission order. Must be
// called with submitMu held.
func (d *Device) reclaimTransfers() {
	for !d.pending.IsEmpty() {
		t, _ := d.pending.Peek()
		if d.cmds.getFenceStatus(t.fence) != vk.Success {
			return
		}
		_, _ = d.pending.Dequeue()
		d.releaseTransfer(t)
	}
}

func (d *Device) waitOldestTransfer() {
	t, err := d.pending.Dequeue()
	if err != nil {
		return
	}
	res := d.cmds.waitForFences([]vk.Fence{t.fence}, true, math.MaxUint64)
	core.Assert(res == vk.Success, "waiting for transfer failed: %s", VulkanResultString(res, true))
	d.releaseTransfer(t)
}

func (d *Device) releaseTransfer(t *transfer) {
	d.cmds.freeCommandBuffer(t.commandBuffer)
	d.cmds.destroyFence(t.fence)
}

// PendingTransfers returns the number of transfers not yet reclaimed.
func (d *Device) PendingTransfers() int {
	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	return d.pending.Len()
}
