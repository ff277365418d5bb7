// Package wgpubackend implements backend.Backend on WebGPU. GLSL sources are compiled through
// the GLSL front end of wgpu after Rewrite moved their loose uniforms into one std140 block.
// Uniform locations are byte offsets inside that block and uniform writes go straight to the
// device queue. Pipelines and bind groups remain the host's job; a linked *Program exposes its
// shader modules, layout and uniform buffer for that.
package wgpubackend

import (
	"fmt"
	"log/slog"
	"slices"

	"cogentcore.org/core/base/errors"
	"github.com/ccaven/lunch/common"
	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// stageSource is the handle CompileShader returns. Modules are created at link time, once the
// layout shared by both stages is known.
type stageSource struct {
	stage  shader.Stage
	source string
}

// Program is the handle LinkProgram returns.
type Program struct {
	vertex     *wgpu.ShaderModule
	fragment   *wgpu.ShaderModule
	layout     Layout
	attributes []string
	buffer     *wgpu.Buffer
}

// VertexModule returns the compiled vertex stage.
func (p *Program) VertexModule() *wgpu.ShaderModule {
	return p.vertex
}

// FragmentModule returns the compiled fragment stage.
func (p *Program) FragmentModule() *wgpu.ShaderModule {
	return p.fragment
}

// Layout returns the resource layout both stages were rewritten with.
func (p *Program) Layout() Layout {
	return p.layout
}

// UniformBuffer returns the buffer backing the Globals block, or nil when the program has no
// loose uniforms. Bind it at GlobalsGroup/GlobalsBinding.
func (p *Program) UniformBuffer() *wgpu.Buffer {
	return p.buffer
}

// uniformLocation addresses one member of a program's Globals block.
type uniformLocation struct {
	program *Program
	field   shader.BlockField
}

// wgpuBackend is the WebGPU implementation of backend.Backend.
type wgpuBackend struct {
	label   string
	device  *wgpu.Device
	queue   *wgpu.Queue
	current *Program
	logger  *slog.Logger

	// set when the backend created the device itself
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
}

var _ backend.Backend = &wgpuBackend{}

// New creates a backend on an existing device.
//
// Parameters:
//   - device: the WebGPU device programs are created on
//   - options: functional options applied after defaults
//
// Returns:
//   - backend.Backend: the WebGPU backend
func New(device *wgpu.Device, options ...WGPUBackendBuilderOption) backend.Backend {
	b := &wgpuBackend{
		label:  "glsl",
		device: device,
		queue:  device.GetQueue(),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// NewHeadless requests an adapter and a device without a surface and creates a backend on
// them, for offline validation of shader programs. Release frees the device.
//
// Parameters:
//   - forceFallbackAdapter: request the software fallback adapter
//   - options: functional options applied after defaults
//
// Returns:
//   - backend.Backend: the WebGPU backend
//   - error: if no adapter or device could be obtained
func NewHeadless(forceFallbackAdapter bool, options ...WGPUBackendBuilderOption) (backend.Backend, error) {
	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("wgpubackend: request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "GLSL Reflection Device",
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("wgpubackend: request device: %w", err)
	}

	b := New(device, options...).(*wgpuBackend)
	b.instance = instance
	b.adapter = adapter
	return b, nil
}

// Release frees the device, adapter and instance when the backend created them.
func (b *wgpuBackend) Release() {
	if b.instance == nil {
		return
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.instance.Release()
	b.instance = nil
}

var shaderStages = map[shader.Stage]wgpu.ShaderStage{
	shader.StageVertex:   wgpu.ShaderStageVertex,
	shader.StageFragment: wgpu.ShaderStageFragment,
}

// CompileShader only checks the stage; module creation and its errors happen in LinkProgram.
func (b *wgpuBackend) CompileShader(stage shader.Stage, source string) (backend.ShaderHandle, error) {
	if _, ok := shaderStages[stage]; !ok {
		return nil, &backend.CompileError{Stage: stage, Log: "unsupported stage"}
	}
	return stageSource{stage: stage, source: source}, nil
}

// DeleteShader is a no-op; a stage holds only its source until LinkProgram creates the module.
func (b *wgpuBackend) DeleteShader(s backend.ShaderHandle) {}

func (b *wgpuBackend) LinkProgram(vertex, fragment backend.ShaderHandle) (backend.ProgramHandle, error) {
	vs, vok := vertex.(stageSource)
	fs, fok := fragment.(stageSource)
	if !vok || !fok || vs.stage != shader.StageVertex || fs.stage != shader.StageFragment {
		return nil, &backend.LinkError{Log: "invalid shader stages"}
	}

	p := &Program{
		layout: NewLayout(vs.source, fs.source),
	}
	for _, v := range shader.Scan(vs.source, shader.KindAttribute) {
		if !slices.Contains(p.attributes, v.Name) {
			p.attributes = append(p.attributes, v.Name)
		}
	}
	if len(p.layout.Block.Skipped) > 0 {
		common.LoggerOr(b.logger).Debug("uniforms left outside the Globals block", "uniforms", p.layout.Block.Skipped)
	}

	var err error
	if p.vertex, err = b.createModule(vs, p.layout); err != nil {
		return nil, err
	}
	if p.fragment, err = b.createModule(fs, p.layout); err != nil {
		p.vertex.Release()
		return nil, err
	}

	if p.layout.Block.Size > 0 {
		p.buffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            b.label + " " + GlobalsBlockName,
			Size:             p.layout.Block.Size,
			Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			p.vertex.Release()
			p.fragment.Release()
			return nil, &backend.LinkError{Log: err.Error()}
		}
	}
	return p, nil
}

func (b *wgpuBackend) createModule(s stageSource, layout Layout) (*wgpu.ShaderModule, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: b.label + " " + s.stage.String(),
		GLSLDescriptor: &wgpu.ShaderModuleGLSLDescriptor{
			Code:        Rewrite(s.stage, s.source, layout),
			ShaderStage: shaderStages[s.stage],
		},
	})
	if err != nil {
		return nil, &backend.CompileError{Stage: s.stage, Log: err.Error()}
	}
	return module, nil
}

func (b *wgpuBackend) DeleteProgram(p backend.ProgramHandle) {
	prog := p.(*Program)
	prog.vertex.Release()
	prog.fragment.Release()
	if prog.buffer != nil {
		prog.buffer.Release()
	}
	if b.current == prog {
		b.current = nil
	}
}

// AttribLocation returns the location Rewrite assigned, i.e. the declaration index.
func (b *wgpuBackend) AttribLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	idx := slices.Index(p.(*Program).attributes, name)
	if idx < 0 {
		return nil, false
	}
	return uint32(idx), true
}

// UniformLocation reports locations for members of the Globals block only.
func (b *wgpuBackend) UniformLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	prog := p.(*Program)
	field, ok := prog.layout.Block.Field(name)
	if !ok {
		return nil, false
	}
	return uniformLocation{program: prog, field: field}, true
}

func (b *wgpuBackend) UseProgram(p backend.ProgramHandle) {
	b.current = p.(*Program)
}

func (b *wgpuBackend) UniformFloat(loc backend.Location, v ...float32) {
	b.write(loc.(uniformLocation), common.SliceToBytes(v))
}

func (b *wgpuBackend) UniformInt(loc backend.Location, v ...int32) {
	b.write(loc.(uniformLocation), common.SliceToBytes(v))
}

// UniformFloatv writes the first element; the block holds no arrays.
func (b *wgpuBackend) UniformFloatv(loc backend.Location, components int, v []float32) {
	b.write(loc.(uniformLocation), common.SliceToBytes(v[:min(components, len(v))]))
}

// UniformIntv writes the first element; the block holds no arrays.
func (b *wgpuBackend) UniformIntv(loc backend.Location, components int, v []int32) {
	b.write(loc.(uniformLocation), common.SliceToBytes(v[:min(components, len(v))]))
}

// UniformMatrixv writes the first matrix with its columns padded to the std140 column stride.
func (b *wgpuBackend) UniformMatrixv(loc backend.Location, dim int, transpose bool, v []float32) {
	if len(v) < dim*dim {
		return
	}
	b.write(loc.(uniformLocation), common.SliceToBytes(std140Matrix(dim, transpose, v)))
}

// std140Matrix lays out one column-major dim x dim matrix with every column padded to a vec4.
func std140Matrix(dim int, transpose bool, v []float32) []float32 {
	stride := shader.MatrixColumnStride / 4
	out := make([]float32, dim*stride)
	for col := 0; col < dim; col++ {
		for row := 0; row < dim; row++ {
			src := col*dim + row
			if transpose {
				src = row*dim + col
			}
			out[col*stride+row] = v[src]
		}
	}
	return out
}

// write copies data into the member's slot, clamped to the member size.
func (b *wgpuBackend) write(loc uniformLocation, data []byte) {
	if loc.program.buffer == nil || len(data) == 0 {
		return
	}
	if uint64(len(data)) > loc.field.Size {
		data = data[:loc.field.Size]
	}
	errors.Log(b.queue.WriteBuffer(loc.program.buffer, loc.field.Offset, data))
}
