/*
Voxel demo: opens a device on the configured backend, checks the fence
protocol end to end, uploads one cube and keeps the window open until it is
closed or the process is interrupted.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/voxel/engine/config"
	"github.com/spaghettifunk/voxel/engine/core"
	vmath "github.com/spaghettifunk/voxel/engine/math"
	"github.com/spaghettifunk/voxel/engine/platform"
	"github.com/spaghettifunk/voxel/engine/renderer"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
	"github.com/spaghettifunk/voxel/engine/renderer/mesh"
)

// Longest the event loop sleeps without input.
const frameInterval = 16 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	backendName := flag.String("backend", "", "override the configured backend (vulkan, gles2)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			core.LogFatal("%s", err)
		}
	}
	if *backendName != "" {
		cfg.Renderer.Backend = *backendName
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		core.LogFatal("%s", err)
	}

	if *configPath != "" {
		w, err := config.Watch(*configPath, func(c *config.Config) {
			if err := core.SetLogLevel(c.Log.Level); err != nil {
				core.LogWarn("Keeping log level: %s", err)
				return
			}
			core.LogInfo("Log level set to %s.", c.Log.Level)
		})
		if err != nil {
			core.LogWarn("Config changes will not be picked up: %s", err)
		} else {
			defer w.Close()
		}
	}

	if err := run(cfg); err != nil {
		core.LogFatal("%s", err)
	}
}

func run(cfg *config.Config) error {
	backend, err := renderer.ParseBackend(cfg.Renderer.Backend)
	if err != nil {
		return err
	}
	device, err := renderer.CreateDevice(backend, cfg.Window.Title, cfg.Window.Position(), cfg.Window.Size(), cfg.Window.Flags(),
		gpu.WithValidation(cfg.Renderer.Debug))
	if err != nil {
		return err
	}
	core.LogInfo("Device %s ready on %s (queue family %d).", device.ID(), device.Backend(), device.Queue().Family())

	if err := checkFences(device, cfg); err != nil {
		device.Destroy()
		return err
	}
	vertices, indices, err := uploadCube(device)
	if err != nil {
		device.Destroy()
		return err
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	window := device.Window()
	var interrupted atomic.Bool
	go func() {
		<-sigCh
		interrupted.Store(true)
		window.Wake()
	}()

	for !window.ShouldClose() && !interrupted.Load() {
		window.WaitEvents(frameInterval)
		if window.Flags().Has(platform.FlagClientGLES) {
			window.SwapBuffers()
		}
	}

	vertices.Release()
	indices.Release()
	return device.Destroy()
}

// checkFences runs a bounded wait that must time out, then signals the fence
// through an empty submission and waits for it without a bound.
func checkFences(d gpu.Device, cfg *config.Config) error {
	fence, err := d.CreateFence(gpu.FenceUnsignaled)
	if err != nil {
		return errors.Wrap(err, "create fence")
	}
	defer fence.Destroy()

	res, err := gpu.WaitForFenceWithTimeout(d, fence, cfg.Renderer.FenceTimeout.Duration)
	if err != nil {
		return errors.Wrap(err, "bounded wait")
	}
	if res != gpu.WaitTimeout {
		return errors.Wrapf(gpu.ErrUnexpectedWait, "unsignaled fence returned %s", res)
	}
	core.LogInfo("Unsignaled fence after %s: %s.", cfg.Renderer.FenceTimeout, res)

	if err := d.Submit(gpu.SubmitInfo{Fence: fence}); err != nil {
		return errors.Wrap(err, "submit")
	}
	res, err = gpu.WaitForFence(d, fence)
	if err != nil {
		return errors.Wrap(err, "unbounded wait")
	}
	if res != gpu.WaitSuccess {
		return errors.Wrapf(gpu.ErrUnexpectedWait, "wait returned %s", res)
	}
	core.LogInfo("Submitted fence: %s.", res)
	return nil
}

// uploadCube meshes a lone block and copies it into device memory.
func uploadCube(d gpu.Device) (gpu.DeviceBuffer[gpu.Vertex], gpu.DeviceBuffer[uint32], error) {
	const faces = len(mesh.Faces)

	stagingVertices, err := d.CreateStagingVertexBuffer(faces * 4)
	if err != nil {
		return nil, nil, errors.Wrap(err, "staging vertices")
	}
	defer stagingVertices.Destroy()
	stagingIndices, err := d.CreateStagingIndexBuffer(faces * 6)
	if err != nil {
		return nil, nil, errors.Wrap(err, "staging indices")
	}
	defer stagingIndices.Destroy()

	var n mesh.Neighborhood
	n.Set(0, 0, 0, 1)
	sink := mesh.NewSink(stagingVertices, stagingIndices)
	props := &mesh.RenderProperties{Colour: vmath.Vec4{X: 0.4, Y: 0.8, Z: 0.3, W: 1}, Opaque: true}
	if err := mesh.RenderCube(&n, sink, mesh.BlockPos{}, props); err != nil {
		return nil, nil, errors.Wrap(err, "mesh cube")
	}

	vertices, err := d.CreateDeviceVertexBuffer(stagingVertices.Len())
	if err != nil {
		return nil, nil, errors.Wrap(err, "device vertices")
	}
	indices, err := d.CreateDeviceIndexBuffer(stagingIndices.Len())
	if err != nil {
		vertices.Release()
		return nil, nil, errors.Wrap(err, "device indices")
	}

	done, err := d.CreateFence(gpu.FenceUnsignaled)
	if err != nil {
		vertices.Release()
		indices.Release()
		return nil, nil, errors.Wrap(err, "create fence")
	}
	defer done.Destroy()

	err = gpu.Upload(d, vertices, stagingVertices, nil)
	if err == nil {
		err = gpu.Upload(d, indices, stagingIndices, done)
	}
	if err == nil {
		_, err = gpu.WaitForFence(d, done)
	}
	if err != nil {
		vertices.Release()
		indices.Release()
		return nil, nil, errors.Wrap(err, "upload cube")
	}
	core.LogInfo("Uploaded cube: %d vertices, %d indices.", sink.Vertices(), sink.Indices())
	return vertices, indices, nil
}
