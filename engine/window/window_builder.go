package window

import "log/slog"

// WindowBuilderOption is a functional option for configuring an engineWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size.
//
// Parameters:
//   - width: initial width in screen coordinates
//   - height: initial height in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
		w.height = height
	}
}

// WithClientAPI selects the context the window is created with. Defaults to ClientAPIOpenGL.
//
// Parameters:
//   - api: the client API
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithClientAPI(api ClientAPI) WindowBuilderOption {
	return func(w *engineWindow) {
		w.clientAPI = api
	}
}

// WithGLVersion sets the requested OpenGL core-profile version. Defaults to 4.1, the highest
// version macOS provides.
//
// Parameters:
//   - major: the major version
//   - minor: the minor version
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithGLVersion(major, minor int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.glMajor = major
		w.glMinor = minor
	}
}

// WithHidden creates the window invisible, for tools that only need a context.
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHidden() WindowBuilderOption {
	return func(w *engineWindow) {
		w.hidden = true
	}
}

// WithLogger sets the logger used by the window.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) WindowBuilderOption {
	return func(w *engineWindow) {
		w.logger = logger
	}
}
