package shader

// VariableKind selects which declarations a scan collects.
type VariableKind int

const (
	// KindAttribute matches per-vertex inputs declared with `in` (GLSL ES 3.00 / GLSL 1.30+)
	// or `attribute` (GLSL ES 1.00).
	KindAttribute VariableKind = iota

	// KindUniform matches `uniform` declarations.
	KindUniform
)

// String returns the lower-case name of the kind.
func (k VariableKind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindUniform:
		return "uniform"
	default:
		return "unknown"
	}
}

// kindKeywords maps each kind to the leading keywords that declare it.
var kindKeywords = map[VariableKind][]string{
	KindAttribute: {"in", "attribute"},
	KindUniform:   {"uniform"},
}

// DeclaredVariable is a single declaration recovered from one line of shader source.
type DeclaredVariable struct {
	// Name is the declared identifier, e.g. "uColor".
	Name string

	// GLSLType is the declared type exactly as written, e.g. "vec3" or "sampler2D".
	GLSLType string

	// Kind records whether the declaration is a vertex input or a uniform.
	Kind VariableKind

	// Line is the 1-based source line the declaration was read from.
	Line int
}
