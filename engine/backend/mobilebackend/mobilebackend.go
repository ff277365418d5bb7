// Package mobilebackend implements backend.Backend on OpenGL ES through golang.org/x/mobile/gl.
// Vertex arrays are available when the context is an ES 3 gl.Context3.
package mobilebackend

import (
	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/shader"
	"golang.org/x/mobile/gl"
)

// mobileBackend wraps a gl.Context. Calls are issued on the context's own worker.
type mobileBackend struct {
	ctx  gl.Context
	ctx3 gl.Context3
}

var (
	_ backend.Backend             = &mobileBackend{}
	_ backend.VertexArrayBackend  = &mobileBackend{}
	_ backend.AttribArrayBackend  = &mobileBackend{}
	_ backend.TextureUnitBackend  = &mobileBackend{}
	_ backend.VertexBufferBackend = &mobileBackend{}
)

// New creates a backend issuing calls on ctx.
//
// Parameters:
//   - ctx: the GLES context, e.g. from a mobile app's lifecycle event or gl.NewContext
//
// Returns:
//   - backend.Backend: the GLES backend
func New(ctx gl.Context) backend.Backend {
	b := &mobileBackend{ctx: ctx}
	if ctx3, ok := ctx.(gl.Context3); ok {
		b.ctx3 = ctx3
	}
	return b
}

// Capabilities reports vertex arrays only for ES 3 contexts.
func (b *mobileBackend) Capabilities() backend.Capability {
	caps := backend.CapAttribArrays | backend.CapTextureUnits | backend.CapVertexBuffers
	if b.ctx3 != nil {
		caps |= backend.CapVertexArrays
	}
	return caps
}

func (b *mobileBackend) CompileShader(stage shader.Stage, source string) (backend.ShaderHandle, error) {
	var typ gl.Enum
	switch stage {
	case shader.StageVertex:
		typ = gl.VERTEX_SHADER
	case shader.StageFragment:
		typ = gl.FRAGMENT_SHADER
	default:
		return nil, &backend.CompileError{Stage: stage, Log: "unsupported stage"}
	}

	s := b.ctx.CreateShader(typ)
	if s.Value == 0 {
		return nil, &backend.CompileError{Stage: stage, Log: "could not create shader"}
	}
	b.ctx.ShaderSource(s, source)
	b.ctx.CompileShader(s)
	if b.ctx.GetShaderi(s, gl.COMPILE_STATUS) == 0 {
		defer b.ctx.DeleteShader(s)
		return nil, &backend.CompileError{Stage: stage, Log: b.ctx.GetShaderInfoLog(s)}
	}
	return s, nil
}

func (b *mobileBackend) LinkProgram(vertex, fragment backend.ShaderHandle) (backend.ProgramHandle, error) {
	vs, fs := vertex.(gl.Shader), fragment.(gl.Shader)
	p := b.ctx.CreateProgram()
	if p.Value == 0 {
		return nil, &backend.LinkError{Log: "no programs available"}
	}
	b.ctx.AttachShader(p, vs)
	b.ctx.AttachShader(p, fs)
	b.ctx.LinkProgram(p)

	// flag the stages for deletion when the program is deleted
	b.ctx.DeleteShader(vs)
	b.ctx.DeleteShader(fs)

	if b.ctx.GetProgrami(p, gl.LINK_STATUS) == 0 {
		defer b.ctx.DeleteProgram(p)
		return nil, &backend.LinkError{Log: b.ctx.GetProgramInfoLog(p)}
	}
	return p, nil
}

func (b *mobileBackend) DeleteShader(s backend.ShaderHandle) {
	b.ctx.DeleteShader(s.(gl.Shader))
}

func (b *mobileBackend) DeleteProgram(p backend.ProgramHandle) {
	b.ctx.DeleteProgram(p.(gl.Program))
}

func (b *mobileBackend) AttribLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	a := b.ctx.GetAttribLocation(p.(gl.Program), name)
	// -1 comes back through an unsigned value
	if int32(a.Value) < 0 {
		return nil, false
	}
	return a, true
}

func (b *mobileBackend) UniformLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	u := b.ctx.GetUniformLocation(p.(gl.Program), name)
	if u.Value < 0 {
		return nil, false
	}
	return u, true
}

func (b *mobileBackend) UseProgram(p backend.ProgramHandle) {
	b.ctx.UseProgram(p.(gl.Program))
}

func (b *mobileBackend) UniformFloat(loc backend.Location, v ...float32) {
	u := loc.(gl.Uniform)
	switch len(v) {
	case 1:
		b.ctx.Uniform1f(u, v[0])
	case 2:
		b.ctx.Uniform2f(u, v[0], v[1])
	case 3:
		b.ctx.Uniform3f(u, v[0], v[1], v[2])
	case 4:
		b.ctx.Uniform4f(u, v[0], v[1], v[2], v[3])
	}
}

func (b *mobileBackend) UniformInt(loc backend.Location, v ...int32) {
	u := loc.(gl.Uniform)
	switch len(v) {
	case 1:
		b.ctx.Uniform1i(u, int(v[0]))
	case 2:
		b.ctx.Uniform2i(u, int(v[0]), int(v[1]))
	case 3:
		b.ctx.Uniform3i(u, v[0], v[1], v[2])
	case 4:
		b.ctx.Uniform4i(u, v[0], v[1], v[2], v[3])
	}
}

func (b *mobileBackend) UniformFloatv(loc backend.Location, components int, v []float32) {
	u := loc.(gl.Uniform)
	switch components {
	case 1:
		b.ctx.Uniform1fv(u, v)
	case 2:
		b.ctx.Uniform2fv(u, v)
	case 3:
		b.ctx.Uniform3fv(u, v)
	case 4:
		b.ctx.Uniform4fv(u, v)
	}
}

func (b *mobileBackend) UniformIntv(loc backend.Location, components int, v []int32) {
	u := loc.(gl.Uniform)
	switch components {
	case 1:
		b.ctx.Uniform1iv(u, v)
	case 2:
		b.ctx.Uniform2iv(u, v)
	case 3:
		b.ctx.Uniform3iv(u, v)
	case 4:
		b.ctx.Uniform4iv(u, v)
	}
}

// UniformMatrixv ignores transpose: GLES 2 only accepts untransposed matrices.
func (b *mobileBackend) UniformMatrixv(loc backend.Location, dim int, transpose bool, v []float32) {
	u := loc.(gl.Uniform)
	switch dim {
	case 2:
		b.ctx.UniformMatrix2fv(u, v)
	case 3:
		b.ctx.UniformMatrix3fv(u, v)
	case 4:
		b.ctx.UniformMatrix4fv(u, v)
	}
}

func (b *mobileBackend) CreateVertexArray() backend.VertexArray {
	if b.ctx3 == nil {
		return nil
	}
	return b.ctx3.CreateVertexArray()
}

func (b *mobileBackend) BindVertexArray(va backend.VertexArray) {
	if b.ctx3 != nil {
		b.ctx3.BindVertexArray(va.(gl.VertexArray))
	}
}

func (b *mobileBackend) DeleteVertexArray(va backend.VertexArray) {
	if b.ctx3 != nil {
		b.ctx3.DeleteVertexArray(va.(gl.VertexArray))
	}
}

func (b *mobileBackend) EnableVertexAttribArray(loc backend.Location) {
	b.ctx.EnableVertexAttribArray(loc.(gl.Attrib))
}

func (b *mobileBackend) DisableVertexAttribArray(loc backend.Location) {
	b.ctx.DisableVertexAttribArray(loc.(gl.Attrib))
}

func (b *mobileBackend) ActiveTexture(unit int) {
	b.ctx.ActiveTexture(gl.TEXTURE0 + gl.Enum(unit))
}

func (b *mobileBackend) BindTexture2D(tex backend.Texture) {
	b.ctx.BindTexture(gl.TEXTURE_2D, tex.(gl.Texture))
}

func (b *mobileBackend) BindArrayBuffer(buf backend.Buffer) {
	b.ctx.BindBuffer(gl.ARRAY_BUFFER, buf.(gl.Buffer))
}

func (b *mobileBackend) VertexAttribPointer(loc backend.Location, size, stride, offset int) {
	b.ctx.VertexAttribPointer(loc.(gl.Attrib), size, gl.FLOAT, false, stride, offset)
}
