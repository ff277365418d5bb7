//go:build js && wasm

// Package webglbackend implements backend.Backend on a browser WebGL or WebGL2 context through
// syscall/js. Vertex arrays are advertised only on WebGL2 contexts.
package webglbackend

import (
	"fmt"
	"syscall/js"

	"cogentcore.org/core/base/errors"
	"github.com/ccaven/lunch/common"
	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/shader"
)

// ErrNoContext is returned by New when the canvas provides neither a WebGL2 nor a WebGL context.
var ErrNoContext = errors.New("webglbackend: WebGL is not supported")

var (
	uint8Array   = js.Global().Get("Uint8Array")
	float32Array = js.Global().Get("Float32Array")
	int32Array   = js.Global().Get("Int32Array")
)

// webGLBackend issues calls on a WebGLRenderingContext or WebGL2RenderingContext.
type webGLBackend struct {
	gl     js.Value
	webgl2 bool

	vertexShader   int
	fragmentShader int
	compileStatus  int
	linkStatus     int
	texture0       int
	texture2D      int
	arrayBuffer    int
	floatType      int
}

var (
	_ backend.Backend             = &webGLBackend{}
	_ backend.VertexArrayBackend  = &webGLBackend{}
	_ backend.AttribArrayBackend  = &webGLBackend{}
	_ backend.TextureUnitBackend  = &webGLBackend{}
	_ backend.VertexBufferBackend = &webGLBackend{}
)

// New requests a WebGL2 context from canvas, falling back to WebGL.
//
// Parameters:
//   - canvas: the HTML canvas element
//
// Returns:
//   - backend.Backend: the WebGL backend
//   - error: ErrNoContext when WebGL is not available
func New(canvas js.Value) (backend.Backend, error) {
	webgl2 := true
	gl := canvas.Call("getContext", "webgl2")
	if gl.IsNull() {
		webgl2 = false
		gl = canvas.Call("getContext", "webgl")
	}
	if gl.IsNull() {
		return nil, ErrNoContext
	}

	b := &webGLBackend{
		gl:             gl,
		webgl2:         webgl2,
		vertexShader:   gl.Get("VERTEX_SHADER").Int(),
		fragmentShader: gl.Get("FRAGMENT_SHADER").Int(),
		compileStatus:  gl.Get("COMPILE_STATUS").Int(),
		linkStatus:     gl.Get("LINK_STATUS").Int(),
		texture0:       gl.Get("TEXTURE0").Int(),
		texture2D:      gl.Get("TEXTURE_2D").Int(),
		arrayBuffer:    gl.Get("ARRAY_BUFFER").Int(),
		floatType:      gl.Get("FLOAT").Int(),
	}
	common.Logger().Info("webgl backend ready", "webgl2", webgl2)
	return b, nil
}

// Capabilities reports vertex arrays only on WebGL2 contexts.
func (b *webGLBackend) Capabilities() backend.Capability {
	caps := backend.CapAttribArrays | backend.CapTextureUnits | backend.CapVertexBuffers
	if b.webgl2 {
		caps |= backend.CapVertexArrays
	}
	return caps
}

func (b *webGLBackend) CompileShader(stage shader.Stage, source string) (backend.ShaderHandle, error) {
	var typ int
	switch stage {
	case shader.StageVertex:
		typ = b.vertexShader
	case shader.StageFragment:
		typ = b.fragmentShader
	default:
		return nil, &backend.CompileError{Stage: stage, Log: "unsupported stage"}
	}

	s := b.gl.Call("createShader", typ)
	b.gl.Call("shaderSource", s, source)
	b.gl.Call("compileShader", s)
	if !b.gl.Call("getShaderParameter", s, b.compileStatus).Bool() {
		log := b.gl.Call("getShaderInfoLog", s).String()
		b.gl.Call("deleteShader", s)
		return nil, &backend.CompileError{Stage: stage, Log: log}
	}
	return s, nil
}

func (b *webGLBackend) LinkProgram(vertex, fragment backend.ShaderHandle) (backend.ProgramHandle, error) {
	vs, fs := vertex.(js.Value), fragment.(js.Value)
	p := b.gl.Call("createProgram")
	b.gl.Call("attachShader", p, vs)
	b.gl.Call("attachShader", p, fs)
	b.gl.Call("linkProgram", p)
	b.gl.Call("deleteShader", vs)
	b.gl.Call("deleteShader", fs)

	if !b.gl.Call("getProgramParameter", p, b.linkStatus).Bool() {
		log := b.gl.Call("getProgramInfoLog", p).String()
		b.gl.Call("deleteProgram", p)
		return nil, &backend.LinkError{Log: log}
	}
	return p, nil
}

func (b *webGLBackend) DeleteShader(s backend.ShaderHandle) {
	b.gl.Call("deleteShader", s.(js.Value))
}

func (b *webGLBackend) DeleteProgram(p backend.ProgramHandle) {
	b.gl.Call("deleteProgram", p.(js.Value))
}

func (b *webGLBackend) AttribLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	loc := b.gl.Call("getAttribLocation", p.(js.Value), name).Int()
	if loc < 0 {
		return nil, false
	}
	return loc, true
}

// UniformLocation reports a missing location when WebGL returns null.
func (b *webGLBackend) UniformLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	loc := b.gl.Call("getUniformLocation", p.(js.Value), name)
	if loc.IsNull() {
		return nil, false
	}
	return loc, true
}

func (b *webGLBackend) UseProgram(p backend.ProgramHandle) {
	b.gl.Call("useProgram", p.(js.Value))
}

func (b *webGLBackend) UniformFloat(loc backend.Location, v ...float32) {
	args := make([]any, 0, len(v)+1)
	args = append(args, loc.(js.Value))
	for _, f := range v {
		args = append(args, f)
	}
	b.gl.Call(fmt.Sprintf("uniform%df", len(v)), args...)
}

func (b *webGLBackend) UniformInt(loc backend.Location, v ...int32) {
	args := make([]any, 0, len(v)+1)
	args = append(args, loc.(js.Value))
	for _, n := range v {
		args = append(args, n)
	}
	b.gl.Call(fmt.Sprintf("uniform%di", len(v)), args...)
}

func (b *webGLBackend) UniformFloatv(loc backend.Location, components int, v []float32) {
	b.gl.Call(fmt.Sprintf("uniform%dfv", components), loc.(js.Value), typedArray(float32Array, v))
}

func (b *webGLBackend) UniformIntv(loc backend.Location, components int, v []int32) {
	b.gl.Call(fmt.Sprintf("uniform%div", components), loc.(js.Value), typedArray(int32Array, v))
}

func (b *webGLBackend) UniformMatrixv(loc backend.Location, dim int, transpose bool, v []float32) {
	b.gl.Call(fmt.Sprintf("uniformMatrix%dfv", dim), loc.(js.Value), transpose, typedArray(float32Array, v))
}

func (b *webGLBackend) CreateVertexArray() backend.VertexArray {
	if !b.webgl2 {
		return nil
	}
	return b.gl.Call("createVertexArray")
}

func (b *webGLBackend) BindVertexArray(va backend.VertexArray) {
	if b.webgl2 {
		b.gl.Call("bindVertexArray", va.(js.Value))
	}
}

func (b *webGLBackend) DeleteVertexArray(va backend.VertexArray) {
	if b.webgl2 {
		b.gl.Call("deleteVertexArray", va.(js.Value))
	}
}

func (b *webGLBackend) EnableVertexAttribArray(loc backend.Location) {
	b.gl.Call("enableVertexAttribArray", loc.(int))
}

func (b *webGLBackend) DisableVertexAttribArray(loc backend.Location) {
	b.gl.Call("disableVertexAttribArray", loc.(int))
}

func (b *webGLBackend) ActiveTexture(unit int) {
	b.gl.Call("activeTexture", b.texture0+unit)
}

func (b *webGLBackend) BindTexture2D(tex backend.Texture) {
	b.gl.Call("bindTexture", b.texture2D, tex.(js.Value))
}

func (b *webGLBackend) BindArrayBuffer(buf backend.Buffer) {
	b.gl.Call("bindBuffer", b.arrayBuffer, buf.(js.Value))
}

func (b *webGLBackend) VertexAttribPointer(loc backend.Location, size, stride, offset int) {
	b.gl.Call("vertexAttribPointer", loc.(int), size, b.floatType, false, stride, offset)
}

// typedArray copies data into a new JS typed array of the given constructor.
func typedArray[T float32 | int32](ctor js.Value, data []T) js.Value {
	raw := common.SliceToBytes(data)
	bytes := uint8Array.New(len(raw))
	js.CopyBytesToJS(bytes, raw)
	return ctor.New(bytes.Get("buffer"), 0, len(data))
}
