// Package glbackend implements backend.Backend on desktop OpenGL 4.1 core through go-gl.
// A GL context must be current on the calling thread before New is called, and every call
// must be made from that thread.
package glbackend

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ccaven/lunch/common"
	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/shader"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// glBackend is the OpenGL implementation of backend.Backend and all capability interfaces.
type glBackend struct {
	version string
	logger  *slog.Logger
}

var (
	_ backend.Backend             = &glBackend{}
	_ backend.VertexArrayBackend  = &glBackend{}
	_ backend.AttribArrayBackend  = &glBackend{}
	_ backend.TextureUnitBackend  = &glBackend{}
	_ backend.VertexBufferBackend = &glBackend{}
)

// New loads the GL function pointers for the current context and returns a backend using them.
//
// Parameters:
//   - options: functional options applied before initialisation
//
// Returns:
//   - backend.Backend: the GL backend
//   - error: if the GL functions could not be loaded
func New(options ...GLBackendBuilderOption) (backend.Backend, error) {
	b := &glBackend{}
	for _, option := range options {
		option(b)
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("glbackend: init: %w", err)
	}
	b.version = gl.GoStr(gl.GetString(gl.VERSION))
	common.LoggerOr(b.logger).Info("gl backend ready",
		"version", b.version,
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
	)
	return b, nil
}

// Version returns the GL_VERSION string of the context the backend was created on.
func (b *glBackend) Version() string {
	return b.version
}

var stageTypes = map[shader.Stage]uint32{
	shader.StageVertex:   gl.VERTEX_SHADER,
	shader.StageFragment: gl.FRAGMENT_SHADER,
}

func (b *glBackend) CompileShader(stage shader.Stage, source string) (backend.ShaderHandle, error) {
	typ, ok := stageTypes[stage]
	if !ok {
		return nil, &backend.CompileError{Stage: stage, Log: "unsupported stage"}
	}
	handle := gl.CreateShader(typ)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteShader(handle)
		return nil, &backend.CompileError{Stage: stage, Log: strings.TrimRight(msg, "\x00")}
	}
	return handle, nil
}

func (b *glBackend) LinkProgram(vertex, fragment backend.ShaderHandle) (backend.ProgramHandle, error) {
	vs, fs := vertex.(uint32), fragment.(uint32)
	handle := gl.CreateProgram()
	gl.AttachShader(handle, vs)
	gl.AttachShader(handle, fs)
	gl.LinkProgram(handle)

	// the stages are not needed once linking has finished, successful or not
	gl.DetachShader(handle, vs)
	gl.DetachShader(handle, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(handle)
		return nil, &backend.LinkError{Log: strings.TrimRight(msg, "\x00")}
	}
	return handle, nil
}

func (b *glBackend) DeleteShader(s backend.ShaderHandle) {
	gl.DeleteShader(s.(uint32))
}

func (b *glBackend) DeleteProgram(p backend.ProgramHandle) {
	gl.DeleteProgram(p.(uint32))
}

func (b *glBackend) AttribLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	loc := gl.GetAttribLocation(p.(uint32), gl.Str(name+"\x00"))
	if loc < 0 {
		return nil, false
	}
	return loc, true
}

func (b *glBackend) UniformLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	loc := gl.GetUniformLocation(p.(uint32), gl.Str(name+"\x00"))
	if loc < 0 {
		return nil, false
	}
	return loc, true
}

func (b *glBackend) UseProgram(p backend.ProgramHandle) {
	gl.UseProgram(p.(uint32))
}

func (b *glBackend) UniformFloat(loc backend.Location, v ...float32) {
	l := loc.(int32)
	switch len(v) {
	case 1:
		gl.Uniform1f(l, v[0])
	case 2:
		gl.Uniform2f(l, v[0], v[1])
	case 3:
		gl.Uniform3f(l, v[0], v[1], v[2])
	case 4:
		gl.Uniform4f(l, v[0], v[1], v[2], v[3])
	}
}

func (b *glBackend) UniformInt(loc backend.Location, v ...int32) {
	l := loc.(int32)
	switch len(v) {
	case 1:
		gl.Uniform1i(l, v[0])
	case 2:
		gl.Uniform2i(l, v[0], v[1])
	case 3:
		gl.Uniform3i(l, v[0], v[1], v[2])
	case 4:
		gl.Uniform4i(l, v[0], v[1], v[2], v[3])
	}
}

func (b *glBackend) UniformFloatv(loc backend.Location, components int, v []float32) {
	if len(v) == 0 {
		return
	}
	l, count := loc.(int32), int32(len(v)/components)
	switch components {
	case 1:
		gl.Uniform1fv(l, count, &v[0])
	case 2:
		gl.Uniform2fv(l, count, &v[0])
	case 3:
		gl.Uniform3fv(l, count, &v[0])
	case 4:
		gl.Uniform4fv(l, count, &v[0])
	}
}

func (b *glBackend) UniformIntv(loc backend.Location, components int, v []int32) {
	if len(v) == 0 {
		return
	}
	l, count := loc.(int32), int32(len(v)/components)
	switch components {
	case 1:
		gl.Uniform1iv(l, count, &v[0])
	case 2:
		gl.Uniform2iv(l, count, &v[0])
	case 3:
		gl.Uniform3iv(l, count, &v[0])
	case 4:
		gl.Uniform4iv(l, count, &v[0])
	}
}

func (b *glBackend) UniformMatrixv(loc backend.Location, dim int, transpose bool, v []float32) {
	if len(v) == 0 {
		return
	}
	l, count := loc.(int32), int32(len(v)/(dim*dim))
	switch dim {
	case 2:
		gl.UniformMatrix2fv(l, count, transpose, &v[0])
	case 3:
		gl.UniformMatrix3fv(l, count, transpose, &v[0])
	case 4:
		gl.UniformMatrix4fv(l, count, transpose, &v[0])
	}
}

func (b *glBackend) CreateVertexArray() backend.VertexArray {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (b *glBackend) BindVertexArray(va backend.VertexArray) {
	gl.BindVertexArray(va.(uint32))
}

func (b *glBackend) DeleteVertexArray(va backend.VertexArray) {
	vao := va.(uint32)
	gl.DeleteVertexArrays(1, &vao)
}

func (b *glBackend) EnableVertexAttribArray(loc backend.Location) {
	gl.EnableVertexAttribArray(uint32(loc.(int32)))
}

func (b *glBackend) DisableVertexAttribArray(loc backend.Location) {
	gl.DisableVertexAttribArray(uint32(loc.(int32)))
}

func (b *glBackend) ActiveTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
}

func (b *glBackend) BindTexture2D(tex backend.Texture) {
	gl.BindTexture(gl.TEXTURE_2D, tex.(uint32))
}

func (b *glBackend) BindArrayBuffer(buf backend.Buffer) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.(uint32))
}

func (b *glBackend) VertexAttribPointer(loc backend.Location, size, stride, offset int) {
	gl.VertexAttribPointerWithOffset(uint32(loc.(int32)), int32(size), gl.FLOAT, false, int32(stride), uintptr(offset))
}
