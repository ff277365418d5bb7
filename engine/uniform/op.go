// Package uniform maps GLSL uniform types to backend upload operations and dispatches
// Go values to them.
package uniform

import (
	"fmt"
	"maps"
	"slices"
)

// Op is one backend upload operation. The set is closed: every registered GLSL type maps to
// exactly one Op.
type Op uint8

const (
	OpFloat1 Op = iota + 1
	OpFloat2
	OpFloat3
	OpFloat4
	OpInt1
	OpInt2
	OpInt3
	OpInt4
	OpMatrix2
	OpMatrix3
	OpMatrix4
	// OpSampler uploads the texture unit index of an opaque sampler as a single int.
	OpSampler
)

// Components returns the number of scalar components one element of the op carries:
// 1 to 4 for vectors, dim*dim for matrices and 1 for samplers.
func (o Op) Components() int {
	switch o {
	case OpFloat1, OpInt1, OpSampler:
		return 1
	case OpFloat2, OpInt2:
		return 2
	case OpFloat3, OpInt3:
		return 3
	case OpFloat4, OpInt4, OpMatrix2:
		return 4
	case OpMatrix3:
		return 9
	case OpMatrix4:
		return 16
	}
	return 0
}

// IsInt reports whether the op uploads int components.
func (o Op) IsInt() bool {
	return (o >= OpInt1 && o <= OpInt4) || o == OpSampler
}

// IsMatrix reports whether the op uploads square float matrices.
func (o Op) IsMatrix() bool {
	return o >= OpMatrix2 && o <= OpMatrix4
}

// MatrixDim returns the matrix dimension for matrix ops and 0 otherwise.
func (o Op) MatrixDim() int {
	if !o.IsMatrix() {
		return 0
	}
	return int(o-OpMatrix2) + 2
}

// String returns the GL entry point family the op corresponds to.
func (o Op) String() string {
	switch {
	case o >= OpFloat1 && o <= OpFloat4:
		return fmt.Sprintf("uniform%df", o.Components())
	case o >= OpInt1 && o <= OpInt4:
		return fmt.Sprintf("uniform%di", o.Components())
	case o.IsMatrix():
		return fmt.Sprintf("uniformMatrix%dfv", o.MatrixDim())
	case o == OpSampler:
		return "uniform1i(sampler)"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// registry maps GLSL type names to upload ops. It is static and read-only.
var registry = map[string]Op{
	"float": OpFloat1,
	"vec2":  OpFloat2,
	"vec3":  OpFloat3,
	"vec4":  OpFloat4,

	"int":   OpInt1,
	"ivec2": OpInt2,
	"ivec3": OpInt3,
	"ivec4": OpInt4,

	// GL accepts int uploads for bool uniforms.
	"bool":  OpInt1,
	"bvec2": OpInt2,
	"bvec3": OpInt3,
	"bvec4": OpInt4,

	"mat2": OpMatrix2,
	"mat3": OpMatrix3,
	"mat4": OpMatrix4,

	"sampler2D":       OpSampler,
	"samplerCube":     OpSampler,
	"sampler3D":       OpSampler,
	"sampler2DArray":  OpSampler,
	"sampler2DShadow": OpSampler,
	"isampler2D":      OpSampler,
	"usampler2D":      OpSampler,
}

// Lookup returns the upload op registered for a GLSL type.
//
// Parameters:
//   - glslType: the type name as written in the declaration, e.g. "vec3"
//
// Returns:
//   - Op: the registered op
//   - bool: false if the type has no registered op
func Lookup(glslType string) (Op, bool) {
	op, ok := registry[glslType]
	return op, ok
}

// Types returns every registered GLSL type name in sorted order.
func Types() []string {
	return slices.Sorted(maps.Keys(registry))
}
