package shader

import "strings"

// glslTypeLayout holds the byte size and base alignment of a GLSL type under std140 rules.
type glslTypeLayout struct {
	size  uint64
	align uint64
}

// std140LayoutMap maps GLSL scalar, vector and matrix type names to their std140 size and
// base alignment. Matrices are stored as arrays of column vectors whose stride is rounded up
// to a vec4, so every column occupies 16 bytes.
//
// Reference: OpenGL 4.6 core specification, section 7.6.2.2 "Standard Uniform Block Layout".
var std140LayoutMap = map[string]glslTypeLayout{
	// Scalars
	"float": {4, 4},
	"int":   {4, 4},
	"uint":  {4, 4},
	"bool":  {4, 4},

	// Vectors
	"vec2":  {8, 8},
	"vec3":  {12, 16},
	"vec4":  {16, 16},
	"ivec2": {8, 8},
	"ivec3": {12, 16},
	"ivec4": {16, 16},
	"uvec2": {8, 8},
	"uvec3": {12, 16},
	"uvec4": {16, 16},
	"bvec2": {8, 8},
	"bvec3": {12, 16},
	"bvec4": {16, 16},

	// Matrices
	"mat2": {32, 16},
	"mat3": {48, 16},
	"mat4": {64, 16},
}

// MatrixColumnStride is the std140 byte stride between matrix columns.
const MatrixColumnStride = 16

// BlockField is one member of a computed std140 block.
type BlockField struct {
	Name     string
	GLSLType string
	Offset   uint64
	Size     uint64
}

// BlockLayout is the std140 layout of a set of loose uniforms gathered into one block.
type BlockLayout struct {
	// Fields holds the laid-out members in declaration order.
	Fields []BlockField

	// Size is the total block size, rounded up to a multiple of 16.
	Size uint64

	// Skipped lists the names of non-opaque uniforms whose type has no std140 layout entry.
	Skipped []string
}

// Field returns the laid-out member with the given name.
//
// Parameters:
//   - name: the uniform name
//
// Returns:
//   - BlockField: the member
//   - bool: false when no member has that name
func (l BlockLayout) Field(name string) (BlockField, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return BlockField{}, false
}

// IsOpaqueType reports whether a GLSL type is an opaque handle (samplers and images) that
// cannot live inside a uniform block.
//
// Parameters:
//   - glslType: the type name as written in source
//
// Returns:
//   - bool: true for sampler and image types
func IsOpaqueType(glslType string) bool {
	for _, prefix := range []string{"", "i", "u"} {
		if strings.HasPrefix(glslType, prefix+"sampler") || strings.HasPrefix(glslType, prefix+"image") {
			return true
		}
	}
	return false
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
//
// Parameters:
//   - alignment: the required alignment (must be a power of two)
//   - value: the value to align
//
// Returns:
//   - uint64: value rounded up to the next multiple of alignment
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// Layout140 lays out the non-opaque declarations of vars as consecutive members of a std140
// uniform block: each member is placed at the next offset aligned to its base alignment and
// the block size is rounded up to the alignment of a vec4. Opaque types are ignored; types
// without a layout entry are reported in Skipped and take no space.
//
// Parameters:
//   - vars: uniform declarations in the order they should appear in the block
//
// Returns:
//   - BlockLayout: the computed layout
func Layout140(vars []DeclaredVariable) BlockLayout {
	var out BlockLayout
	offset := uint64(0)

	for _, v := range vars {
		if IsOpaqueType(v.GLSLType) {
			continue
		}
		layout, ok := std140LayoutMap[v.GLSLType]
		if !ok {
			out.Skipped = append(out.Skipped, v.Name)
			continue
		}

		offset = roundUpAlign(layout.align, offset)
		out.Fields = append(out.Fields, BlockField{
			Name:     v.Name,
			GLSLType: v.GLSLType,
			Offset:   offset,
			Size:     layout.size,
		})
		offset += layout.size
	}

	out.Size = roundUpAlign(16, offset)
	return out
}
