// Package renderer creates devices for a chosen backend.
package renderer

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/voxel/engine/core"
	"github.com/spaghettifunk/voxel/engine/platform"
	"github.com/spaghettifunk/voxel/engine/renderer/gles"
	"github.com/spaghettifunk/voxel/engine/renderer/gpu"
	"github.com/spaghettifunk/voxel/engine/renderer/vulkan"
)

type createFunc func(title string, position *platform.Position, size platform.Size, flags platform.Flags, opts ...gpu.Option) (gpu.Device, error)

var backends = map[Backend]createFunc{
	Vulkan: func(title string, position *platform.Position, size platform.Size, flags platform.Flags, opts ...gpu.Option) (gpu.Device, error) {
		d, err := vulkan.Create(title, position, size, flags, opts...)
		if err != nil {
			return nil, err
		}
		return d, nil
	},
	GLES2: func(title string, position *platform.Position, size platform.Size, flags platform.Flags, opts ...gpu.Option) (gpu.Device, error) {
		d, err := gles.Create(title, position, size, flags, opts...)
		if err != nil {
			return nil, err
		}
		return d, nil
	},
}

// CreateDevice opens a window and binds one device of the given backend to
// it. A nil position leaves the placement to the window system. On failure
// nothing is left behind: the window is destroyed when the device could not
// be created.
func CreateDevice(backend Backend, title string, position *platform.Position, size platform.Size, flags platform.Flags, opts ...gpu.Option) (gpu.Device, error) {
	create, ok := backends[backend]
	if !ok {
		return nil, errors.Errorf("renderer: backend %s is not available", backend)
	}
	core.LogInfo("Creating %s device for '%s' (%dx%d).", backend, title, size.Width, size.Height)
	d, err := create(title, position, size, flags, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "renderer: create %s device", backend)
	}
	return d, nil
}
