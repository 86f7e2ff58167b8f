package vulkan

import (
	"math"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// fakeObject stands in for every native object. Handles are pointers to it.
type fakeObject struct {
	signaled bool
	// memory backs DeviceMemory objects.
	memory []uint64
	// backing is the memory bound to a buffer.
	backing *fakeObject
	// copy recorded into a command buffer.
	src, dst *fakeObject
	size     vk.DeviceSize
}

func (o *fakeObject) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&o.memory[0])), len(o.memory)*8)
}

func fenceObject(f vk.Fence) *fakeObject {
	return (*fakeObject)(unsafe.Pointer(f))
}

func bufferObject(b vk.Buffer) *fakeObject {
	return (*fakeObject)(unsafe.Pointer(b))
}

func memoryObject(m vk.DeviceMemory) *fakeObject {
	return (*fakeObject)(unsafe.Pointer(m))
}

func commandBufferObject(cb vk.CommandBuffer) *fakeObject {
	return (*fakeObject)(unsafe.Pointer(cb))
}

type fakeSubmission struct {
	commandBuffers []*fakeObject
	fence          *fakeObject
}

// fakeGPU executes submissions immediately, or queues them until an
// unbounded wait or an idle wait when deferred is set.
type fakeGPU struct {
	mu       sync.Mutex
	deferred bool
	queued   []fakeSubmission

	// Each fail* field makes the matching command return that code when set.
	failWait            vk.Result
	failCreateFence     vk.Result
	failCreateSemaphore vk.Result
	failCreateBuffer    vk.Result
	failRecordCopy      vk.Result

	fencesCreated       int
	fencesDestroyed     int
	semaphoresDestroyed int
	buffersDestroyed    int
	unmaps              int
	commandBuffersFreed int
	copiesRecorded      int
	lastSubmit          vk.SubmitInfo
	lastUsage           vk.BufferUsageFlags
	lastProperties      vk.MemoryPropertyFlags
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{}
}

func (g *fakeGPU) execute(s fakeSubmission) {
	for _, cb := range s.commandBuffers {
		copy(cb.dst.backing.bytes()[:cb.size], cb.src.backing.bytes()[:cb.size])
	}
	if s.fence != nil {
		s.fence.signaled = true
	}
}

func (g *fakeGPU) completeAll() {
	for _, s := range g.queued {
		g.execute(s)
	}
	g.queued = nil
}

func (g *fakeGPU) commands() *commands {
	return &commands{
		deviceWaitIdle: func() vk.Result {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.completeAll()
			return vk.Success
		},
		queueSubmit: func(submits []vk.SubmitInfo, fence vk.Fence) vk.Result {
			g.mu.Lock()
			defer g.mu.Unlock()
			s := fakeSubmission{}
			if fence != nil {
				s.fence = fenceObject(fence)
			}
			for _, submit := range submits {
				g.lastSubmit = submit
				for _, cb := range submit.PCommandBuffers {
					s.commandBuffers = append(s.commandBuffers, commandBufferObject(cb))
				}
			}
			if g.deferred {
				g.queued = append(g.queued, s)
			} else {
				g.execute(s)
			}
			return vk.Success
		},

		createFence: func(signaled bool) (vk.Fence, vk.Result) {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.failCreateFence != vk.Success {
				return nil, g.failCreateFence
			}
			g.fencesCreated++
			return vk.Fence(unsafe.Pointer(&fakeObject{signaled: signaled})), vk.Success
		},
		destroyFence: func(vk.Fence) {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.fencesDestroyed++
		},
		getFenceStatus: func(fence vk.Fence) vk.Result {
			g.mu.Lock()
			defer g.mu.Unlock()
			if fenceObject(fence).signaled {
				return vk.Success
			}
			return vk.NotReady
		},
		resetFences: func(fences []vk.Fence) vk.Result {
			g.mu.Lock()
			defer g.mu.Unlock()
			for _, f := range fences {
				fenceObject(f).signaled = false
			}
			return vk.Success
		},
		waitForFences: func(fences []vk.Fence, waitAll bool, timeout uint64) vk.Result {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.failWait != vk.Success {
				return g.failWait
			}
			if g.satisfied(fences, waitAll) {
				return vk.Success
			}
			if timeout == math.MaxUint64 {
				g.completeAll()
				if g.satisfied(fences, waitAll) {
					return vk.Success
				}
			}
			return vk.Timeout
		},

		createSemaphore: func() (vk.Semaphore, vk.Result) {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.failCreateSemaphore != vk.Success {
				return nil, g.failCreateSemaphore
			}
			return vk.Semaphore(unsafe.Pointer(&fakeObject{})), vk.Success
		},
		destroySemaphore: func(vk.Semaphore) {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.semaphoresDestroyed++
		},

		createBuffer: func(size vk.DeviceSize, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, vk.Result) {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.failCreateBuffer != vk.Success {
				return nil, nil, g.failCreateBuffer
			}
			g.lastUsage = usage
			g.lastProperties = properties
			memory := &fakeObject{memory: make([]uint64, (size+7)/8)}
			buffer := &fakeObject{backing: memory}
			return vk.Buffer(unsafe.Pointer(buffer)), vk.DeviceMemory(unsafe.Pointer(memory)), vk.Success
		},
		destroyBuffer: func(vk.Buffer, vk.DeviceMemory) {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.buffersDestroyed++
		},
		mapMemory: func(memory vk.DeviceMemory, size vk.DeviceSize) (unsafe.Pointer, vk.Result) {
			return unsafe.Pointer(&memoryObject(memory).memory[0]), vk.Success
		},
		unmapMemory: func(vk.DeviceMemory) {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.unmaps++
		},

		recordCopy: func(src, dst vk.Buffer, size vk.DeviceSize) (vk.CommandBuffer, vk.Result) {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.failRecordCopy != vk.Success {
				return nil, g.failRecordCopy
			}
			g.copiesRecorded++
			cb := &fakeObject{src: bufferObject(src), dst: bufferObject(dst), size: size}
			return vk.CommandBuffer(unsafe.Pointer(cb)), vk.Success
		},
		freeCommandBuffer: func(vk.CommandBuffer) {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.commandBuffersFreed++
		},
	}
}

func (g *fakeGPU) satisfied(fences []vk.Fence, waitAll bool) bool {
	signaled := 0
	for _, f := range fences {
		if fenceObject(f).signaled {
			signaled++
		}
	}
	if waitAll {
		return signaled == len(fences)
	}
	return signaled > 0
}

func newTestDevice(g *fakeGPU) *Device {
	return newDevice(nil, nil, nil, g.commands(), 0)
}
