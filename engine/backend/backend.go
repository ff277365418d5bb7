// Package backend defines the GPU backend a Program compiles, links and uploads uniforms
// through. The core surface is Backend; optional behaviour is exposed through capability
// interfaces that a Program discovers by type assertion instead of through versioned
// subclasses.
package backend

import "github.com/ccaven/lunch/engine/shader"

// ShaderHandle is an opaque handle to a compiled shader stage.
type ShaderHandle any

// ProgramHandle is an opaque handle to a linked program.
type ProgramHandle any

// Location is an opaque handle to an attribute or uniform inside a linked program.
type Location any

// VertexArray is an opaque handle to a vertex array object.
type VertexArray any

// Texture is an opaque handle to a texture object owned by the caller.
type Texture any

// Buffer is an opaque handle to a vertex buffer object owned by the caller.
type Buffer any

// Backend is the minimal GPU surface the reflection and dispatch layer needs.
// Implementations are not required to be goroutine-safe; all calls are issued from the
// thread that drives rendering.
type Backend interface {
	// CompileShader compiles one stage of GLSL source.
	//
	// Parameters:
	//   - stage: the stage the source is written for
	//   - source: the complete GLSL source text
	//
	// Returns:
	//   - ShaderHandle: the compiled stage
	//   - error: a *CompileError carrying the backend's info log on failure
	CompileShader(stage shader.Stage, source string) (ShaderHandle, error)

	// DeleteShader releases a compiled stage that will not be passed to LinkProgram, e.g.
	// the vertex stage of a pair whose fragment stage failed to compile.
	//
	// Parameters:
	//   - s: the stage to release
	DeleteShader(s ShaderHandle)

	// LinkProgram links a vertex and a fragment stage into a program. The backend owns both
	// stage handles afterwards and releases them whether or not linking succeeds.
	//
	// Parameters:
	//   - vertex: the compiled vertex stage
	//   - fragment: the compiled fragment stage
	//
	// Returns:
	//   - ProgramHandle: the linked program
	//   - error: a *LinkError carrying the backend's info log on failure
	LinkProgram(vertex, fragment ShaderHandle) (ProgramHandle, error)

	// DeleteProgram releases a linked program.
	//
	// Parameters:
	//   - p: the program to release
	DeleteProgram(p ProgramHandle)

	// AttribLocation queries the location of a vertex input.
	//
	// Parameters:
	//   - p: the linked program
	//   - name: the attribute name
	//
	// Returns:
	//   - Location: the location handle
	//   - bool: false when the program has no active attribute with that name
	AttribLocation(p ProgramHandle, name string) (Location, bool)

	// UniformLocation queries the location of a uniform.
	//
	// Parameters:
	//   - p: the linked program
	//   - name: the uniform name
	//
	// Returns:
	//   - Location: the location handle
	//   - bool: false when the program has no active uniform with that name
	UniformLocation(p ProgramHandle, name string) (Location, bool)

	// UseProgram binds p as the current program; uniform writes target the current program.
	//
	// Parameters:
	//   - p: the program to bind
	UseProgram(p ProgramHandle)

	// UniformFloat uploads 1 to 4 float components (glUniform{1,2,3,4}f).
	UniformFloat(loc Location, v ...float32)

	// UniformInt uploads 1 to 4 int components (glUniform{1,2,3,4}i).
	UniformInt(loc Location, v ...int32)

	// UniformFloatv uploads an array of float vectors with the given component count
	// (glUniform{1,2,3,4}fv). len(v) is a multiple of components.
	UniformFloatv(loc Location, components int, v []float32)

	// UniformIntv uploads an array of int vectors with the given component count
	// (glUniform{1,2,3,4}iv). len(v) is a multiple of components.
	UniformIntv(loc Location, components int, v []int32)

	// UniformMatrixv uploads an array of dim x dim float matrices (glUniformMatrix{2,3,4}fv).
	// len(v) is a multiple of dim*dim.
	UniformMatrixv(loc Location, dim int, transpose bool, v []float32)
}

// VertexArrayBackend is implemented by backends with vertex array objects (WebGL2, GL 3+).
type VertexArrayBackend interface {
	CreateVertexArray() VertexArray
	BindVertexArray(va VertexArray)
	DeleteVertexArray(va VertexArray)
}

// AttribArrayBackend is implemented by backends that toggle vertex attribute arrays.
type AttribArrayBackend interface {
	EnableVertexAttribArray(loc Location)
	DisableVertexAttribArray(loc Location)
}

// TextureUnitBackend is implemented by backends that bind textures to numbered units.
type TextureUnitBackend interface {
	// ActiveTexture selects the texture unit subsequent binds apply to.
	ActiveTexture(unit int)

	// BindTexture2D binds a 2D texture to the active unit.
	BindTexture2D(tex Texture)
}

// VertexBufferBackend is implemented by backends that source attributes from vertex buffers.
type VertexBufferBackend interface {
	// BindArrayBuffer binds buf as the source of subsequent attribute pointers.
	BindArrayBuffer(buf Buffer)

	// VertexAttribPointer sources the float attribute at loc from the bound buffer, size
	// components per vertex, with stride and offset in bytes.
	VertexAttribPointer(loc Location, size, stride, offset int)
}
