package recorder

import "github.com/ccaven/lunch/engine/backend"

// RecorderBuilderOption is a functional option applied to a Recorder during construction via New.
type RecorderBuilderOption func(*Recorder)

// WithCapabilities restricts the capability set the recorder advertises, to emulate
// backends such as WebGL1 that lack vertex array objects.
//
// Parameters:
//   - caps: the capabilities to advertise
//
// Returns:
//   - RecorderBuilderOption: a function that applies the capability option to a recorder
func WithCapabilities(caps backend.Capability) RecorderBuilderOption {
	return func(r *Recorder) {
		r.caps = caps
	}
}

// WithInactive marks names as optimised out: location queries for them report no location,
// the way a driver drops variables that do not contribute to the output.
//
// Parameters:
//   - names: the attribute or uniform names to treat as inactive
//
// Returns:
//   - RecorderBuilderOption: a function that applies the inactive option to a recorder
func WithInactive(names ...string) RecorderBuilderOption {
	return func(r *Recorder) {
		for _, n := range names {
			r.inactive[n] = true
		}
	}
}
