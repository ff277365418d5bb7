// Package recorder provides an in-memory backend that records every call it receives.
// It resolves locations by scanning the sources it was asked to compile, so programs built
// against it behave like programs on a real driver that keeps every declared variable active.
// It is used by tests and by dry runs of the command line tool.
package recorder

import (
	"slices"

	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/shader"
)

// Method names recorded in Call.Method.
const (
	MethodCompileShader            = "CompileShader"
	MethodDeleteShader             = "DeleteShader"
	MethodLinkProgram              = "LinkProgram"
	MethodDeleteProgram            = "DeleteProgram"
	MethodUseProgram               = "UseProgram"
	MethodUniformFloat             = "UniformFloat"
	MethodUniformInt               = "UniformInt"
	MethodUniformFloatv            = "UniformFloatv"
	MethodUniformIntv              = "UniformIntv"
	MethodUniformMatrixv           = "UniformMatrixv"
	MethodCreateVertexArray        = "CreateVertexArray"
	MethodBindVertexArray          = "BindVertexArray"
	MethodDeleteVertexArray        = "DeleteVertexArray"
	MethodEnableVertexAttribArray  = "EnableVertexAttribArray"
	MethodDisableVertexAttribArray = "DisableVertexAttribArray"
	MethodActiveTexture            = "ActiveTexture"
	MethodBindTexture2D            = "BindTexture2D"
	MethodBindArrayBuffer          = "BindArrayBuffer"
	MethodVertexAttribPointer      = "VertexAttribPointer"
)

// ShaderID is the handle returned by CompileShader.
type ShaderID int

// ProgramID is the handle returned by LinkProgram.
type ProgramID int

// VertexArrayID is the handle returned by CreateVertexArray.
type VertexArrayID int

// Location is the handle returned by AttribLocation and UniformLocation.
type Location struct {
	Program ProgramID
	Name    string
}

// Call is one recorded backend call. Only the fields relevant to Method are set.
type Call struct {
	Method     string
	Program    ProgramID
	Location   Location
	Floats     []float32
	Ints       []int32
	Components int
	Transpose  bool
	Unit       int
	Handle     any
	Stride     int
	Offset     int
}

type recordedShader struct {
	stage  shader.Stage
	source string
}

type recordedProgram struct {
	attributes []string
	uniforms   []string
}

// Recorder is an in-memory backend.Backend implementing every capability interface.
// The zero value is not usable; create one with New.
type Recorder struct {
	// Calls holds every recorded call in order.
	Calls []Call

	caps        backend.Capability
	failCompile map[shader.Stage]string
	failLink    string
	inactive    map[string]bool

	nextID   int
	shaders  map[ShaderID]recordedShader
	programs map[ProgramID]recordedProgram
	current  ProgramID
}

var (
	_ backend.Backend             = &Recorder{}
	_ backend.VertexArrayBackend  = &Recorder{}
	_ backend.AttribArrayBackend  = &Recorder{}
	_ backend.TextureUnitBackend  = &Recorder{}
	_ backend.VertexBufferBackend = &Recorder{}
)

// New creates a Recorder advertising every capability.
//
// Parameters:
//   - options: functional options applied after defaults
//
// Returns:
//   - *Recorder: the new backend
func New(options ...RecorderBuilderOption) *Recorder {
	r := &Recorder{
		caps:        backend.CapVertexArrays | backend.CapAttribArrays | backend.CapTextureUnits | backend.CapVertexBuffers,
		failCompile: make(map[shader.Stage]string),
		inactive:    make(map[string]bool),
		shaders:     make(map[ShaderID]recordedShader),
		programs:    make(map[ProgramID]recordedProgram),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Capabilities reports the capability set configured with WithCapabilities.
func (r *Recorder) Capabilities() backend.Capability {
	return r.caps
}

// FailCompile makes the next compilations of stage fail with log, until cleared with "".
func (r *Recorder) FailCompile(stage shader.Stage, log string) {
	if log == "" {
		delete(r.failCompile, stage)
		return
	}
	r.failCompile[stage] = log
}

// FailLink makes the next links fail with log, until cleared with "".
func (r *Recorder) FailLink(log string) {
	r.failLink = log
}

// Reset discards the recorded calls.
func (r *Recorder) Reset() {
	r.Calls = nil
}

// CallsTo returns the recorded calls of one method, in order.
func (r *Recorder) CallsTo(method string) []Call {
	out := make([]Call, 0)
	for _, c := range r.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Current returns the program bound by the last UseProgram call.
func (r *Recorder) Current() ProgramID {
	return r.current
}

// Live reports whether p has been linked and not deleted.
func (r *Recorder) Live(p ProgramID) bool {
	_, ok := r.programs[p]
	return ok
}

// LiveShaders counts the compiled stages that have been neither linked nor deleted.
func (r *Recorder) LiveShaders() int {
	return len(r.shaders)
}

func (r *Recorder) CompileShader(stage shader.Stage, source string) (backend.ShaderHandle, error) {
	r.Calls = append(r.Calls, Call{Method: MethodCompileShader})
	if log, ok := r.failCompile[stage]; ok {
		return nil, &backend.CompileError{Stage: stage, Log: log}
	}
	r.nextID++
	id := ShaderID(r.nextID)
	r.shaders[id] = recordedShader{stage: stage, source: source}
	return id, nil
}

func (r *Recorder) LinkProgram(vertex, fragment backend.ShaderHandle) (backend.ProgramHandle, error) {
	r.Calls = append(r.Calls, Call{Method: MethodLinkProgram})
	vs, vok := r.shaders[vertex.(ShaderID)]
	fs, fok := r.shaders[fragment.(ShaderID)]
	// like GL, the stages are released whether or not linking succeeds
	delete(r.shaders, vertex.(ShaderID))
	delete(r.shaders, fragment.(ShaderID))
	if !vok || !fok || vs.stage != shader.StageVertex || fs.stage != shader.StageFragment {
		return nil, &backend.LinkError{Log: "invalid shader stages"}
	}
	if r.failLink != "" {
		return nil, &backend.LinkError{Log: r.failLink}
	}

	var prog recordedProgram
	for _, v := range shader.Scan(vs.source, shader.KindAttribute) {
		prog.attributes = append(prog.attributes, v.Name)
	}
	for _, src := range []string{vs.source, fs.source} {
		for _, v := range shader.Scan(src, shader.KindUniform) {
			prog.uniforms = append(prog.uniforms, v.Name)
		}
	}

	r.nextID++
	id := ProgramID(r.nextID)
	r.programs[id] = prog
	return id, nil
}

func (r *Recorder) DeleteShader(s backend.ShaderHandle) {
	id := s.(ShaderID)
	r.Calls = append(r.Calls, Call{Method: MethodDeleteShader, Handle: id})
	delete(r.shaders, id)
}

func (r *Recorder) DeleteProgram(p backend.ProgramHandle) {
	id := p.(ProgramID)
	r.Calls = append(r.Calls, Call{Method: MethodDeleteProgram, Program: id})
	delete(r.programs, id)
}

func (r *Recorder) AttribLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	id := p.(ProgramID)
	prog, ok := r.programs[id]
	if !ok || r.inactive[name] || !slices.Contains(prog.attributes, name) {
		return nil, false
	}
	return Location{Program: id, Name: name}, true
}

func (r *Recorder) UniformLocation(p backend.ProgramHandle, name string) (backend.Location, bool) {
	id := p.(ProgramID)
	prog, ok := r.programs[id]
	if !ok || r.inactive[name] || !slices.Contains(prog.uniforms, name) {
		return nil, false
	}
	return Location{Program: id, Name: name}, true
}

func (r *Recorder) UseProgram(p backend.ProgramHandle) {
	id := p.(ProgramID)
	r.current = id
	r.Calls = append(r.Calls, Call{Method: MethodUseProgram, Program: id})
}

func (r *Recorder) UniformFloat(loc backend.Location, v ...float32) {
	r.record(Call{Method: MethodUniformFloat, Location: loc.(Location), Floats: slices.Clone(v), Components: len(v)})
}

func (r *Recorder) UniformInt(loc backend.Location, v ...int32) {
	r.record(Call{Method: MethodUniformInt, Location: loc.(Location), Ints: slices.Clone(v), Components: len(v)})
}

func (r *Recorder) UniformFloatv(loc backend.Location, components int, v []float32) {
	r.record(Call{Method: MethodUniformFloatv, Location: loc.(Location), Floats: slices.Clone(v), Components: components})
}

func (r *Recorder) UniformIntv(loc backend.Location, components int, v []int32) {
	r.record(Call{Method: MethodUniformIntv, Location: loc.(Location), Ints: slices.Clone(v), Components: components})
}

func (r *Recorder) UniformMatrixv(loc backend.Location, dim int, transpose bool, v []float32) {
	r.record(Call{Method: MethodUniformMatrixv, Location: loc.(Location), Floats: slices.Clone(v), Components: dim, Transpose: transpose})
}

func (r *Recorder) CreateVertexArray() backend.VertexArray {
	r.nextID++
	id := VertexArrayID(r.nextID)
	r.Calls = append(r.Calls, Call{Method: MethodCreateVertexArray, Handle: id})
	return id
}

func (r *Recorder) BindVertexArray(va backend.VertexArray) {
	r.Calls = append(r.Calls, Call{Method: MethodBindVertexArray, Handle: va})
}

func (r *Recorder) DeleteVertexArray(va backend.VertexArray) {
	r.Calls = append(r.Calls, Call{Method: MethodDeleteVertexArray, Handle: va})
}

func (r *Recorder) EnableVertexAttribArray(loc backend.Location) {
	r.Calls = append(r.Calls, Call{Method: MethodEnableVertexAttribArray, Location: loc.(Location)})
}

func (r *Recorder) DisableVertexAttribArray(loc backend.Location) {
	r.Calls = append(r.Calls, Call{Method: MethodDisableVertexAttribArray, Location: loc.(Location)})
}

func (r *Recorder) ActiveTexture(unit int) {
	r.Calls = append(r.Calls, Call{Method: MethodActiveTexture, Unit: unit})
}

func (r *Recorder) BindTexture2D(tex backend.Texture) {
	r.Calls = append(r.Calls, Call{Method: MethodBindTexture2D, Handle: tex})
}

func (r *Recorder) BindArrayBuffer(buf backend.Buffer) {
	r.Calls = append(r.Calls, Call{Method: MethodBindArrayBuffer, Handle: buf})
}

func (r *Recorder) VertexAttribPointer(loc backend.Location, size, stride, offset int) {
	r.Calls = append(r.Calls, Call{Method: MethodVertexAttribPointer, Location: loc.(Location), Components: size, Stride: stride, Offset: offset})
}

// record stores an upload call, stamping it with the program that is current at the time.
func (r *Recorder) record(c Call) {
	c.Program = r.current
	r.Calls = append(r.Calls, c)
}
