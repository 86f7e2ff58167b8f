package platform

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/voxel/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Flags control how the native window is created.
type Flags uint32

const (
	FlagHidden Flags = 1 << iota
	FlagResizable
	FlagBorderless
	FlagFloating
	FlagMaximized
	// FlagClientGLES requests an OpenGL ES 2.0 context. Without it the window
	// is created with no client API, as Vulkan requires.
	FlagClientGLES
)

// Has reports whether every bit of f2 is set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Position is the top-left corner of a window in screen coordinates.
type Position struct {
	X, Y int32
}

// Size is the client area of a window in screen coordinates.
type Size struct {
	Width, Height uint32
}

// Window is the native window a device renders into.
type Window struct {
	handle *glfw.Window
	title  string
	flags  Flags
	once   sync.Once
}

var (
	glfwMu   sync.Mutex
	glfwRefs int
)

// acquireGLFW initializes GLFW for the first live window.
func acquireGLFW() error {
	glfwMu.Lock()
	defer glfwMu.Unlock()
	if glfwRefs == 0 {
		if err := glfw.Init(); err != nil {
			return fmt.Errorf("failed to initialize glfw: %w", err)
		}
	}
	glfwRefs++
	return nil
}

// releaseGLFW terminates GLFW once the last window is gone.
func releaseGLFW() {
	glfwMu.Lock()
	defer glfwMu.Unlock()
	glfwRefs--
	if glfwRefs == 0 {
		glfw.Terminate()
	}
}

// New creates a native window. A nil position lets the window system choose
// the placement.
func New(title string, position *Position, size Size, flags Flags) (*Window, error) {
	if size.Width == 0 || size.Height == 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", size.Width, size.Height)
	}
	if err := acquireGLFW(); err != nil {
		return nil, err
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Visible, boolHint(!flags.Has(FlagHidden)))
	glfw.WindowHint(glfw.Resizable, boolHint(flags.Has(FlagResizable)))
	glfw.WindowHint(glfw.Decorated, boolHint(!flags.Has(FlagBorderless)))
	glfw.WindowHint(glfw.Floating, boolHint(flags.Has(FlagFloating)))
	glfw.WindowHint(glfw.Maximized, boolHint(flags.Has(FlagMaximized)))
	if flags.Has(FlagClientGLES) {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, 2)
		glfw.WindowHint(glfw.ContextVersionMinor, 0)
	} else {
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	}

	handle, err := glfw.CreateWindow(int(size.Width), int(size.Height), title, nil, nil)
	if err != nil {
		releaseGLFW()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	if position != nil {
		handle.SetPos(int(position.X), int(position.Y))
	}

	core.LogDebug("Window '%s' created (%dx%d, flags=%#x).", title, size.Width, size.Height, uint32(flags))

	return &Window{
		handle: handle,
		title:  title,
		flags:  flags,
	}, nil
}

// Get returns the native window handle.
func (w *Window) Get() *glfw.Window {
	return w.handle
}

func (w *Window) Title() string {
	return w.title
}

func (w *Window) Flags() Flags {
	return w.flags
}

// FramebufferSize returns the drawable size in pixels.
func (w *Window) FramebufferSize() (uint32, uint32) {
	width, height := w.handle.GetFramebufferSize()
	return uint32(width), uint32(height)
}

// RequiredInstanceExtensions lists the Vulkan instance extensions needed to
// present to this window.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

// MakeContextCurrent binds the window's client API context to the calling
// thread. Only valid for FlagClientGLES windows.
func (w *Window) MakeContextCurrent() {
	w.handle.MakeContextCurrent()
}

func (w *Window) SwapBuffers() {
	w.handle.SwapBuffers()
}

func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents sleeps until an event arrives or timeout elapses, then
// processes the queued events.
func (w *Window) WaitEvents(timeout time.Duration) {
	glfw.WaitEventsTimeout(waitSeconds(timeout))
}

// Wake interrupts a WaitEvents running on the main thread. It may be called
// from any goroutine.
func (w *Window) Wake() {
	glfw.PostEmptyEvent()
}

func waitSeconds(timeout time.Duration) float64 {
	if timeout < 0 {
		return 0
	}
	return timeout.Seconds()
}

// Destroy closes the window. Safe to call more than once.
func (w *Window) Destroy() {
	w.once.Do(func() {
		w.handle.Destroy()
		w.handle = nil
		releaseGLFW()
		core.LogDebug("Window '%s' destroyed.", w.title)
	})
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}
