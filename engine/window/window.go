// Package window opens the GLFW window that hosts a backend: an OpenGL context for the GL
// backend, or a bare window whose surface descriptor feeds the WebGPU backend.
package window

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/ccaven/lunch/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ClientAPI selects what graphics API the window's context is created for.
type ClientAPI int

const (
	// ClientAPIOpenGL creates an OpenGL core-profile context, made current on the calling thread.
	ClientAPIOpenGL ClientAPI = iota

	// ClientAPINone creates no context; the window is presented through a WebGPU surface.
	ClientAPINone
)

func (c ClientAPI) String() string {
	switch c {
	case ClientAPIOpenGL:
		return "opengl"
	case ClientAPINone:
		return "none"
	}
	return fmt.Sprintf("ClientAPI(%d)", int(c))
}

// Window hosts a rendering context and delivers the input the shader tools react to.
// Every method must be called from the thread that created the window.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events. Escape always closes the
	// window and is not forwarded.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// ClientAPI reports the API the window was created for.
	//
	// Returns:
	//   - ClientAPI: the window's client API
	ClientAPI() ClientAPI

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for a ClientAPINone window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform descriptor, or nil for an OpenGL window
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// SwapBuffers presents the back buffer of an OpenGL window. It is a no-op otherwise.
	SwapBuffers()

	// IsRunning returns true if the window is still open.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: if the window was already closed
	Close() error

	// ProcessMessages runs the message loop until the window is closed, calling the update
	// callback and then SwapBuffers each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title     string
	width     int
	height    int
	clientAPI ClientAPI

	// hidden keeps the window invisible; used for offscreen context creation.
	hidden bool

	// glMajor and glMinor are the requested OpenGL core-profile version.
	glMajor int
	glMinor int

	logger *slog.Logger

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and opens a window.
// The calling goroutine is locked to its OS thread, as GLFW and OpenGL require.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: if GLFW could not be initialized or the window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "lunch",
		width:     1280,
		height:    720,
		clientAPI: ClientAPIOpenGL,
		glMajor:   4,
		glMinor:   1,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	w.log().Info("window created",
		"client_api", w.clientAPI.String(),
		"hidden", w.hidden,
		"width", w.width,
		"height", w.height,
	)
	return w, nil
}

func (w *engineWindow) log() *slog.Logger {
	return common.LoggerOr(w.logger)
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) ClientAPI() ClientAPI {
	return w.clientAPI
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.clientAPI != ClientAPINone {
		return nil
	}
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) SwapBuffers() {
	if w.clientAPI == ClientAPIOpenGL {
		platformSwapBuffers(w)
	}
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}
		w.SwapBuffers()

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
