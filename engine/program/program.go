// Package program links a vertex and a fragment Shader through a backend and reflects the
// linked program into attribute and uniform location tables. Uniform values are uploaded by
// name through the type dispatch of the uniform package.
package program

import (
	"fmt"
	"log/slog"

	"cogentcore.org/core/base/errors"
	"github.com/ccaven/lunch/common"
	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/profiler"
	"github.com/ccaven/lunch/engine/shader"
	"github.com/ccaven/lunch/engine/uniform"
)

var (
	// ErrReleased is returned by operations on a program after Release.
	ErrReleased = errors.New("program: released")

	// ErrStage is returned when the shaders passed to NewProgram or Reload are not a vertex
	// and a fragment stage.
	ErrStage = errors.New("program: vertex and fragment stage required")

	// ErrUnknownAttribute is returned when an attribute name is not in the program's attribute table.
	ErrUnknownAttribute = errors.New("program: unknown attribute")

	// ErrAttributeType is returned by AttribPointer for attributes that are not float, vec2, vec3 or vec4.
	ErrAttributeType = errors.New("program: attribute type cannot be sourced from a float buffer")
)

// attributeSizes maps the attribute types AttribPointer accepts to their component count.
var attributeSizes = map[string]int{
	"float": 1,
	"vec2":  2,
	"vec3":  3,
	"vec4":  4,
}

// program is the implementation of the Program interface.
type program struct {
	key     string
	backend backend.Backend
	caps    backend.Capability
	handle  backend.ProgramHandle

	vertex   shader.Shader
	fragment shader.Shader

	attributes LocationTable
	uniforms   LocationTable

	vertexArray   backend.VertexArray
	noVertexArray bool

	logger   *slog.Logger
	profiler *profiler.Profiler
}

// Program is a linked vertex/fragment pair together with its reflected location tables.
// A Program is bound to the backend it was created with and is not safe for concurrent use;
// all calls are expected from the render thread.
type Program interface {
	// Key retrieves the identifier of the program, used in logs and errors.
	//
	// Returns:
	//   - string: the program's key
	Key() string

	// Handle retrieves the backend handle of the currently linked program.
	//
	// Returns:
	//   - backend.ProgramHandle: the linked program, nil after Release
	Handle() backend.ProgramHandle

	// Shaders retrieves the sources the current program was linked from.
	//
	// Returns:
	//   - shader.Shader: the vertex stage
	//   - shader.Shader: the fragment stage
	Shaders() (shader.Shader, shader.Shader)

	// Attributes retrieves the attribute location table, scanned from the vertex source.
	//
	// Returns:
	//   - LocationTable: the attribute table
	Attributes() LocationTable

	// Uniforms retrieves the uniform location table, scanned from the vertex and then the
	// fragment source. A name declared in both stages takes the fragment declaration.
	//
	// Returns:
	//   - LocationTable: the uniform table
	Uniforms() LocationTable

	// SetUniform uploads values to the named uniform. The program is bound before every
	// upload. Several scalars are uploaded component-wise, a single scalar as one component
	// and a single slice or mgl32 value as a vector array (matrices untransposed). Int and
	// sampler uniforms only take whole numbers within the int32 range.
	// Uniforms without a location in the linked program bind the program and upload nothing.
	//
	// Parameters:
	//   - name: the uniform name
	//   - values: the values to upload
	//
	// Returns:
	//   - error: uniform.ErrUnknownUniform, uniform.ErrUnsupportedType or uniform.ErrValueShape;
	//     no backend call is made when an error is returned
	SetUniform(name string, values ...any) error

	// Bind makes the program current and binds its vertex array when it owns one.
	//
	// Returns:
	//   - error: ErrReleased after Release
	Bind() error

	// EnableAttributes enables the vertex attribute array of every active attribute.
	//
	// Returns:
	//   - error: backend.ErrUnsupportedCapability when the backend cannot toggle attribute arrays
	EnableAttributes() error

	// DisableAttributes disables the vertex attribute array of every active attribute.
	//
	// Returns:
	//   - error: backend.ErrUnsupportedCapability when the backend cannot toggle attribute arrays
	DisableAttributes() error

	// AttribPointer sources the named attribute from buf, which holds tightly typed float
	// components. The component count comes from the attribute's declared type. The owned
	// vertex array is bound first so it records the pointer. An inactive attribute is skipped.
	//
	// Parameters:
	//   - name: the attribute name
	//   - buf: the caller-owned vertex buffer
	//   - stride: the byte distance between consecutive vertices
	//   - offset: the byte offset of the attribute in the first vertex
	//
	// Returns:
	//   - error: backend.ErrUnsupportedCapability when the backend has no vertex buffers,
	//     ErrUnknownAttribute or ErrAttributeType
	AttribPointer(name string, buf backend.Buffer, stride, offset int) error

	// BindTexture activates a texture unit, binds tex to it and uploads the unit index to the
	// named sampler uniform.
	//
	// Parameters:
	//   - name: the sampler uniform
	//   - unit: the texture unit index
	//   - tex: the caller-owned texture
	//
	// Returns:
	//   - error: backend.ErrUnsupportedCapability when the backend has no texture units,
	//     uniform.ErrUnknownUniform or uniform.ErrValueShape when name is not a sampler
	BindTexture(name string, unit int, tex backend.Texture) error

	// Reload compiles and links new sources. On success both location tables are rebuilt and
	// the previous backend program is deleted. On failure the previous program stays linked
	// and usable.
	//
	// Parameters:
	//   - vertex: the new vertex stage
	//   - fragment: the new fragment stage
	//
	// Returns:
	//   - error: the backend's *backend.CompileError or *backend.LinkError, unchanged
	Reload(vertex, fragment shader.Shader) error

	// Release deletes the backend program and the owned vertex array. Calling it twice is a no-op.
	Release()
}

var _ Program = &program{}

// NewProgram compiles and links vertex and fragment through b and builds the location tables.
// When b implements backend.VertexArrayBackend the program creates and owns one vertex array,
// unless WithoutVertexArray is given.
//
// Parameters:
//   - b: the backend to compile, link and upload through
//   - vertex: the vertex stage
//   - fragment: the fragment stage
//   - options: functional options applied before linking
//
// Returns:
//   - Program: the linked program
//   - error: ErrStage, or the backend's compile or link error unchanged
func NewProgram(b backend.Backend, vertex, fragment shader.Shader, options ...ProgramBuilderOption) (Program, error) {
	p := &program{
		backend: b,
		caps:    backend.Capabilities(b),
	}
	if vertex != nil && fragment != nil {
		p.key = vertex.Key() + "+" + fragment.Key()
	}
	for _, option := range options {
		option(p)
	}

	handle, err := link(b, vertex, fragment)
	if err != nil {
		return nil, err
	}
	p.adopt(handle, vertex, fragment)

	if va, ok := b.(backend.VertexArrayBackend); ok && p.caps.Has(backend.CapVertexArrays) && !p.noVertexArray {
		p.vertexArray = va.CreateVertexArray()
	}

	p.log().Info("program linked",
		"program", p.key,
		"attributes", p.attributes.Len(),
		"uniforms", p.uniforms.Len(),
		"capabilities", p.caps.String(),
	)
	return p, nil
}

// link compiles both stages and links them. Backend errors are returned unchanged.
func link(b backend.Backend, vertex, fragment shader.Shader) (backend.ProgramHandle, error) {
	if vertex == nil || fragment == nil || vertex.Stage() != shader.StageVertex || fragment.Stage() != shader.StageFragment {
		return nil, ErrStage
	}
	vs, err := b.CompileShader(shader.StageVertex, vertex.Source())
	if err != nil {
		return nil, err
	}
	fs, err := b.CompileShader(shader.StageFragment, fragment.Source())
	if err != nil {
		b.DeleteShader(vs)
		return nil, err
	}
	return b.LinkProgram(vs, fs)
}

// adopt installs a freshly linked handle and rebuilds both tables from the sources.
func (p *program) adopt(handle backend.ProgramHandle, vertex, fragment shader.Shader) {
	p.handle = handle
	p.vertex = vertex
	p.fragment = fragment

	p.attributes = buildTable(vertex.Attributes(), func(name string) (backend.Location, bool) {
		return p.backend.AttribLocation(handle, name)
	})
	uniforms := append(vertex.Uniforms(), fragment.Uniforms()...)
	p.uniforms = buildTable(uniforms, func(name string) (backend.Location, bool) {
		return p.backend.UniformLocation(handle, name)
	})

	for _, name := range p.attributes.Inactive() {
		p.log().Debug("attribute inactive", "program", p.key, "attribute", name)
	}
	for _, name := range p.uniforms.Inactive() {
		p.log().Debug("uniform inactive", "program", p.key, "uniform", name)
	}
}

func (p *program) log() *slog.Logger {
	return common.LoggerOr(p.logger)
}

func (p *program) Key() string {
	return p.key
}

func (p *program) Handle() backend.ProgramHandle {
	return p.handle
}

func (p *program) Shaders() (shader.Shader, shader.Shader) {
	return p.vertex, p.fragment
}

func (p *program) Attributes() LocationTable {
	return p.attributes
}

func (p *program) Uniforms() LocationTable {
	return p.uniforms
}

func (p *program) SetUniform(name string, values ...any) error {
	if p.handle == nil {
		return ErrReleased
	}

	var target *uniform.Target
	if e, ok := p.uniforms.Get(name); ok {
		target = &uniform.Target{
			Name:     e.Name,
			GLSLType: e.GLSLType,
			Location: e.Location,
			Active:   e.Active,
		}
	}

	op, err := uniform.Dispatch(p.backend, p.handle, target, values...)
	if err != nil {
		if p.profiler != nil {
			p.profiler.RecordError()
		}
		if target == nil {
			return fmt.Errorf("program %q: uniform %q: %w", p.key, name, err)
		}
		return fmt.Errorf("program %q: %w", p.key, err)
	}

	if !target.Active {
		p.log().Debug("skipped upload to inactive uniform", "program", p.key, "uniform", name)
		return nil
	}
	if p.profiler != nil {
		p.profiler.RecordUpload()
	}
	p.log().Debug("uniform uploaded", "program", p.key, "uniform", name, "op", op.String())
	return nil
}

func (p *program) Bind() error {
	if p.handle == nil {
		return ErrReleased
	}
	p.backend.UseProgram(p.handle)
	if p.vertexArray != nil {
		p.backend.(backend.VertexArrayBackend).BindVertexArray(p.vertexArray)
	}
	return nil
}

func (p *program) EnableAttributes() error {
	return p.toggleAttributes(true)
}

func (p *program) DisableAttributes() error {
	return p.toggleAttributes(false)
}

// toggleAttributes enables or disables the attribute arrays of the active attributes. The
// owned vertex array is bound first since it records the enable state.
func (p *program) toggleAttributes(enable bool) error {
	if p.handle == nil {
		return ErrReleased
	}
	ab, ok := p.backend.(backend.AttribArrayBackend)
	if !ok || !p.caps.Has(backend.CapAttribArrays) {
		return fmt.Errorf("program %q: attribute arrays: %w", p.key, backend.ErrUnsupportedCapability)
	}
	if p.vertexArray != nil {
		p.backend.(backend.VertexArrayBackend).BindVertexArray(p.vertexArray)
	}
	for _, e := range p.attributes.Entries() {
		if !e.Active {
			continue
		}
		if enable {
			ab.EnableVertexAttribArray(e.Location)
		} else {
			ab.DisableVertexAttribArray(e.Location)
		}
	}
	return nil
}

func (p *program) AttribPointer(name string, buf backend.Buffer, stride, offset int) error {
	if p.handle == nil {
		return ErrReleased
	}
	vb, ok := p.backend.(backend.VertexBufferBackend)
	if !ok || !p.caps.Has(backend.CapVertexBuffers) {
		return fmt.Errorf("program %q: vertex buffers: %w", p.key, backend.ErrUnsupportedCapability)
	}
	e, ok := p.attributes.Get(name)
	if !ok {
		return fmt.Errorf("program %q: attribute %q: %w", p.key, name, ErrUnknownAttribute)
	}
	size, ok := attributeSizes[e.GLSLType]
	if !ok {
		return fmt.Errorf("program %q: attribute %q of type %q: %w", p.key, name, e.GLSLType, ErrAttributeType)
	}
	if !e.Active {
		p.log().Debug("skipped pointer for inactive attribute", "program", p.key, "attribute", name)
		return nil
	}

	if p.vertexArray != nil {
		p.backend.(backend.VertexArrayBackend).BindVertexArray(p.vertexArray)
	}
	vb.BindArrayBuffer(buf)
	vb.VertexAttribPointer(e.Location, size, stride, offset)
	return nil
}

func (p *program) BindTexture(name string, unit int, tex backend.Texture) error {
	if p.handle == nil {
		return ErrReleased
	}
	tb, ok := p.backend.(backend.TextureUnitBackend)
	if !ok || !p.caps.Has(backend.CapTextureUnits) {
		return fmt.Errorf("program %q: texture units: %w", p.key, backend.ErrUnsupportedCapability)
	}
	e, ok := p.uniforms.Get(name)
	if !ok {
		return fmt.Errorf("program %q: uniform %q: %w", p.key, name, uniform.ErrUnknownUniform)
	}
	if op, _ := uniform.Lookup(e.GLSLType); op != uniform.OpSampler {
		return fmt.Errorf("program %q: uniform %q of type %q is not a sampler: %w", p.key, name, e.GLSLType, uniform.ErrValueShape)
	}

	tb.ActiveTexture(unit)
	tb.BindTexture2D(tex)
	return p.SetUniform(name, int32(unit))
}

func (p *program) Reload(vertex, fragment shader.Shader) error {
	if p.handle == nil {
		return ErrReleased
	}
	handle, err := link(p.backend, vertex, fragment)
	if err != nil {
		p.log().Warn("program reload failed, keeping previous program", "program", p.key, "error", err)
		return err
	}

	old := p.handle
	p.adopt(handle, vertex, fragment)
	p.backend.DeleteProgram(old)

	p.log().Info("program reloaded",
		"program", p.key,
		"attributes", p.attributes.Len(),
		"uniforms", p.uniforms.Len(),
	)
	return nil
}

func (p *program) Release() {
	if p.handle == nil {
		return
	}
	p.backend.DeleteProgram(p.handle)
	p.handle = nil
	if p.vertexArray != nil {
		p.backend.(backend.VertexArrayBackend).DeleteVertexArray(p.vertexArray)
		p.vertexArray = nil
	}
}
