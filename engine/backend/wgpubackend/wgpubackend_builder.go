package wgpubackend

import "log/slog"

type WGPUBackendBuilderOption func(*wgpuBackend)

// WithLabel sets the prefix of the labels given to shader modules and buffers.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - WGPUBackendBuilderOption: a function that sets the backend's label
func WithLabel(label string) WGPUBackendBuilderOption {
	return func(b *wgpuBackend) {
		b.label = label
	}
}

// WithLogger sets the logger the backend reports layout details to.
//
// Parameters:
//   - l: the logger to use
//
// Returns:
//   - WGPUBackendBuilderOption: a function that sets the backend's logger
func WithLogger(l *slog.Logger) WGPUBackendBuilderOption {
	return func(b *wgpuBackend) {
		b.logger = l
	}
}
