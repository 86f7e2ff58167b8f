package gles

import (
	"unsafe"

	"github.com/go-gl/gl/v3.1/gles2"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/voxel/engine/renderer/loader"
)

// Entry points the device calls directly. go-gl resolves the rest of the
// API itself through the same bootstrap.
var requiredCommandNames = []string{
	"glGetString",
	"glGetError",
	"glFlush",
	"glFinish",
	"glGenBuffers",
	"glDeleteBuffers",
	"glBindBuffer",
	"glBufferData",
	"glBufferSubData",
}

// glProcAddr resolves through the context current on the calling thread.
// GL entry points are not scoped by a handle.
func glProcAddr(_ unsafe.Pointer, name string) unsafe.Pointer {
	return glfw.GetProcAddress(name)
}

// commands is the fixed GL function table a Device calls through. Every
// call must happen with the device's context current.
type commands struct {
	flush    func()
	finish   func()
	getError func() uint32

	genBuffer    func() uint32
	deleteBuffer func(name uint32)
	// allocate gives the buffer size bytes of undefined storage.
	allocate func(target, name uint32, size int)
	// upload overwrites the start of the buffer with data.
	upload func(target, name uint32, data []byte)
}

// procSource hands go-gl the entry points resolved into procs and queries
// the loader only for the optional rest of the API.
func procSource(procs *loader.Table, ld *loader.Loader) func(name string) unsafe.Pointer {
	return func(name string) unsafe.Pointer {
		if p := procs.Proc(name); p != nil {
			return p
		}
		return ld.Lookup(name)
	}
}

// bindCommands initializes go-gl from the resolved table and binds the
// command table to it, so the device calls exactly the resolved pointers.
func bindCommands(procs *loader.Table, ld *loader.Loader) (*commands, error) {
	if err := gles2.InitWithProcAddrFunc(procSource(procs, ld)); err != nil {
		return nil, err
	}

	return &commands{
		flush:    gles2.Flush,
		finish:   gles2.Finish,
		getError: gles2.GetError,

		genBuffer: func() uint32 {
			var name uint32
			gles2.GenBuffers(1, &name)
			return name
		},
		deleteBuffer: func(name uint32) {
			gles2.DeleteBuffers(1, &name)
		},
		allocate: func(target, name uint32, size int) {
			gles2.BindBuffer(target, name)
			gles2.BufferData(target, size, nil, gles2.STATIC_DRAW)
			gles2.BindBuffer(target, 0)
		},
		upload: func(target, name uint32, data []byte) {
			gles2.BindBuffer(target, name)
			gles2.BufferSubData(target, 0, len(data), gles2.Ptr(data))
			gles2.BindBuffer(target, 0)
		},
	}, nil
}

// version reports the GL version string of the current context.
func version() string {
	return gles2.GoStr(gles2.GetString(gles2.VERSION))
}
