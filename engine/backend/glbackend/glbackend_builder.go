package glbackend

import "log/slog"

type GLBackendBuilderOption func(*glBackend)

// WithLogger sets the logger the backend reports its context information to.
//
// Parameters:
//   - l: the logger to use
//
// Returns:
//   - GLBackendBuilderOption: a function that sets the backend's logger
func WithLogger(l *slog.Logger) GLBackendBuilderOption {
	return func(b *glBackend) {
		b.logger = l
	}
}
