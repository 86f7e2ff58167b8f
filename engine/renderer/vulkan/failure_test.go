package vulkan

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/voxel/engine/core"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
)

// expectAssertion runs fn and checks that a failed assertion panicked under
// the debug tag or was logged otherwise.
func expectAssertion(t *testing.T, want string, fn func()) {
	t.Helper()
	var logged bytes.Buffer
	core.SetLogOutput(&logged)
	defer core.SetLogOutput(os.Stderr)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()
	if core.DebugBuild {
		if recovered == nil {
			t.Fatal("expected the assertion to panic in a debug build")
		}
		return
	}
	if recovered != nil {
		t.Fatalf("unexpected panic in a release build: %v", recovered)
	}
	if !strings.Contains(logged.String(), want) {
		t.Errorf("expected %q in the log, got %q", want, logged.String())
	}
}

func TestCreateFailuresReturnResult(t *testing.T) {
	tests := []struct {
		name   string
		fail   func(g *fakeGPU)
		create func(d *Device) (any, error)
		op     string
	}{
		{
			name: "fence",
			fail: func(g *fakeGPU) { g.failCreateFence = vk.ErrorOutOfHostMemory },
			create: func(d *Device) (any, error) {
				f, err := d.CreateFence(gpu.FenceUnsignaled)
				return f, err
			},
			op: "vkCreateFence",
		},
		{
			name: "semaphore",
			fail: func(g *fakeGPU) { g.failCreateSemaphore = vk.ErrorOutOfHostMemory },
			create: func(d *Device) (any, error) {
				s, err := d.CreateSemaphore()
				return s, err
			},
			op: "vkCreateSemaphore",
		},
		{
			name: "staging buffer",
			fail: func(g *fakeGPU) { g.failCreateBuffer = vk.ErrorOutOfDeviceMemory },
			create: func(d *Device) (any, error) {
				b, err := d.CreateStagingVertexBuffer(4)
				return b, err
			},
			op: "vkCreateBuffer",
		},
		{
			name: "device buffer",
			fail: func(g *fakeGPU) { g.failCreateBuffer = vk.ErrorOutOfDeviceMemory },
			create: func(d *Device) (any, error) {
				b, err := d.CreateDeviceIndexBuffer(4)
				return b, err
			},
			op: "vkCreateBuffer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGPU()
			tt.fail(g)
			d := newTestDevice(g)

			obj, err := tt.create(d)
			var vkErr *Error
			if !errors.As(err, &vkErr) {
				t.Fatalf("expected a *Error, got %v", err)
			}
			if vkErr.Op != tt.op || VulkanResultIsSuccess(vkErr.Result) {
				t.Errorf("unexpected error %s: %s", vkErr.Op, VulkanResultString(vkErr.Result, false))
			}
			if obj != nil {
				t.Errorf("a failed create returned %T", obj)
			}
			if d.lifetime.Live() != 0 {
				t.Errorf("failed create kept %d device references", d.lifetime.Live())
			}
			if err := d.Destroy(); err != nil {
				t.Errorf("Destroy after a failed create: %v", err)
			}
		})
	}
}

func TestTransferRecordFailureCleansUp(t *testing.T) {
	g := newFakeGPU()
	d := newTestDevice(g)
	staging, _ := d.CreateStagingIndexBuffer(4)
	dst, _ := d.CreateDeviceIndexBuffer(4)

	g.failRecordCopy = vk.ErrorOutOfDeviceMemory
	err := d.Transfer(dst, staging, nil)
	var vkErr *Error
	if !errors.As(err, &vkErr) || vkErr.Result != vk.ErrorOutOfDeviceMemory {
		t.Fatalf("expected VK_ERROR_OUT_OF_DEVICE_MEMORY, got %v", err)
	}
	if g.fencesCreated != 1 || g.fencesDestroyed != 1 {
		t.Errorf("internal fence leaked: %d created, %d destroyed", g.fencesCreated, g.fencesDestroyed)
	}
	if d.PendingTransfers() != 0 {
		t.Errorf("failed transfer left %d pending", d.PendingTransfers())
	}

	staging.Destroy()
	dst.Release()
	if err := d.Destroy(); err != nil {
		t.Fatal(err)
	}
}

func TestTransferRejectsReleasedBuffers(t *testing.T) {
	g := newFakeGPU()
	d := newTestDevice(g)
	staging, _ := d.CreateStagingIndexBuffer(4)
	dst, _ := d.CreateDeviceIndexBuffer(4)

	dst.Release()
	if err := d.Transfer(dst, staging, nil); !errors.Is(err, gpu.ErrObjectDestroyed) {
		t.Errorf("released destination: expected ErrObjectDestroyed, got %v", err)
	}

	live, _ := d.CreateDeviceIndexBuffer(4)
	staging.Destroy()
	if err := d.Transfer(live, staging, nil); !errors.Is(err, gpu.ErrObjectDestroyed) {
		t.Errorf("destroyed source: expected ErrObjectDestroyed, got %v", err)
	}
	if g.copiesRecorded != 0 {
		t.Errorf("recorded %d copies against freed buffers", g.copiesRecorded)
	}

	live.Release()
	if err := d.Destroy(); err != nil {
		t.Fatal(err)
	}
}

func TestFailedTransferWaitAsserts(t *testing.T) {
	g := newFakeGPU()
	g.deferred = true
	d := newTestDevice(g)
	staging, _ := d.CreateStagingIndexBuffer(1)
	dst, _ := d.CreateDeviceIndexBuffer(1)

	for i := 0; i < maxPendingTransfers; i++ {
		if err := d.Transfer(dst, staging, nil); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}
	g.failWait = vk.ErrorDeviceLost
	expectAssertion(t, "waiting for transfer failed", func() {
		_ = d.Transfer(dst, staging, nil)
	})

	g.failWait = vk.Success
	staging.Destroy()
	dst.Release()
	if err := d.Destroy(); err != nil {
		t.Fatal(err)
	}
}
