package backend

import "strings"

// Capability is a bit set of optional backend features.
type Capability uint32

const (
	// CapVertexArrays marks a VertexArrayBackend.
	CapVertexArrays Capability = 1 << iota

	// CapAttribArrays marks an AttribArrayBackend.
	CapAttribArrays

	// CapTextureUnits marks a TextureUnitBackend.
	CapTextureUnits

	// CapVertexBuffers marks a VertexBufferBackend.
	CapVertexBuffers
)

// capabilityNames lists the capability bits in declaration order for String.
var capabilityNames = []struct {
	c    Capability
	name string
}{
	{CapVertexArrays, "vertex-arrays"},
	{CapAttribArrays, "attrib-arrays"},
	{CapTextureUnits, "texture-units"},
	{CapVertexBuffers, "vertex-buffers"},
}

// Has reports whether every bit of other is set in c.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// String lists the set capabilities separated by "|", or "none".
func (c Capability) String() string {
	names := make([]string, 0, len(capabilityNames))
	for _, n := range capabilityNames {
		if c.Has(n.c) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// capabilityReporter lets a backend narrow the capability set it advertises at runtime,
// e.g. a WebGL backend that only has vertex arrays on a WebGL2 context.
type capabilityReporter interface {
	Capabilities() Capability
}

// Capabilities returns the capability set of b. Backends that implement
// `Capabilities() Capability` report their own set, which is intersected with the
// interfaces they actually implement.
//
// Parameters:
//   - b: the backend to inspect
//
// Returns:
//   - Capability: the optional features b supports
func Capabilities(b Backend) Capability {
	var c Capability
	if _, ok := b.(VertexArrayBackend); ok {
		c |= CapVertexArrays
	}
	if _, ok := b.(AttribArrayBackend); ok {
		c |= CapAttribArrays
	}
	if _, ok := b.(TextureUnitBackend); ok {
		c |= CapTextureUnits
	}
	if _, ok := b.(VertexBufferBackend); ok {
		c |= CapVertexBuffers
	}
	if r, ok := b.(capabilityReporter); ok {
		c &= r.Capabilities()
	}
	return c
}
