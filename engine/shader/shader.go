package shader

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"cogentcore.org/core/base/keylist"
)

// Stage identifies the pipeline stage a GLSL source is compiled for.
type Stage int

const (
	// StageVertex is the vertex stage. Only vertex sources are scanned for attributes.
	StageVertex Stage = iota

	// StageFragment is the fragment stage.
	StageFragment
)

// String returns the lower-case stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageForPath guesses the stage of a source file from its extension.
//
// Parameters:
//   - name: a file path ending in .vert, .vs, .vsh, .frag, .fs or .fsh
//
// Returns:
//   - Stage: the stage for the extension
//   - bool: false for any other extension
func StageForPath(name string) (Stage, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".vert", ".vs", ".vsh":
		return StageVertex, true
	case ".frag", ".fs", ".fsh":
		return StageFragment, true
	}
	return 0, false
}

// shader is the implementation of the Shader interface.
// It holds the pre-processed source of one stage and the declarations scanned from it.
type shader struct {
	key      string
	stage    Stage
	path     string
	source   string
	includes []string

	attributes *keylist.List[string, DeclaredVariable]
	uniforms   *keylist.List[string, DeclaredVariable]

	fsys    fs.FS
	dir     string
	defines map[string]string
}

// Shader is an immutable GLSL source for one stage together with the attribute and uniform
// declarations scanned from it. It is the unit a Program compiles and reflects.
type Shader interface {
	// Key retrieves the identifier for this shader, used in logs and backend labels.
	//
	// Returns:
	//   - string: the shader's key
	Key() string

	// Stage retrieves the stage this source is compiled for.
	//
	// Returns:
	//   - Stage: StageVertex or StageFragment
	Stage() Stage

	// Source retrieves the pre-processed GLSL source handed to the backend.
	//
	// Returns:
	//   - string: the expanded source text
	Source() string

	// Path retrieves the file the source was loaded from.
	//
	// Returns:
	//   - string: the path inside the loading file system, or "" for in-memory sources
	Path() string

	// Includes lists the include files expanded into Source.
	//
	// Returns:
	//   - []string: resolved include paths in first-seen order
	Includes() []string

	// Attributes returns the vertex inputs declared in the source, in first-seen order with
	// duplicates folded last-write-wins. Fragment shaders always return an empty slice since
	// their `in` declarations are interpolated varyings, not vertex attributes.
	//
	// Returns:
	//   - []DeclaredVariable: the attribute declarations
	Attributes() []DeclaredVariable

	// Uniforms returns the uniforms declared in the source, in first-seen order with
	// duplicates folded last-write-wins.
	//
	// Returns:
	//   - []DeclaredVariable: the uniform declarations
	Uniforms() []DeclaredVariable

	// Attribute looks up a single attribute declaration by name.
	//
	// Parameters:
	//   - name: the attribute name
	//
	// Returns:
	//   - DeclaredVariable: the declaration
	//   - bool: false when the source does not declare it
	Attribute(name string) (DeclaredVariable, bool)

	// Uniform looks up a single uniform declaration by name.
	//
	// Parameters:
	//   - name: the uniform name
	//
	// Returns:
	//   - DeclaredVariable: the declaration
	//   - bool: false when the source does not declare it
	Uniform(name string) (DeclaredVariable, bool)
}

var _ Shader = &shader{}

// NewShader creates a Shader from in-memory source text. The source is pre-processed
// (includes resolved through WithIncludeFS, defines injected through WithDefines) and then
// scanned for declarations.
//
// Parameters:
//   - key: an identifier for the shader, used in logs and backend labels
//   - stage: the stage the source is compiled for
//   - source: the raw GLSL source
//   - options: functional options applied before pre-processing
//
// Returns:
//   - Shader: the scanned shader
//   - error: an ErrInclude when include expansion fails
func NewShader(key string, stage Stage, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:   key,
		stage: stage,
		dir:   ".",
	}
	for _, option := range options {
		option(s)
	}
	if err := s.parseSource(source); err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

// LoadShader reads a Shader from a file. Includes are resolved from the same file system,
// relative to the file's directory first.
//
// Parameters:
//   - fsys: the file system to read from
//   - key: an identifier for the shader
//   - stage: the stage the source is compiled for
//   - name: the slash-separated path of the source inside fsys
//   - options: functional options applied before pre-processing
//
// Returns:
//   - Shader: the scanned shader
//   - error: the read error, or an ErrInclude when include expansion fails
func LoadShader(fsys fs.FS, key string, stage Stage, name string, options ...ShaderBuilderOption) (Shader, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", key, name, err)
	}
	s := &shader{
		key:   key,
		stage: stage,
		path:  name,
		fsys:  fsys,
		dir:   path.Dir(name),
	}
	for _, option := range options {
		option(s)
	}
	if err := s.parseSource(string(data)); err != nil {
		return nil, fmt.Errorf("shader %s: %s: %w", key, name, err)
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Stage() Stage {
	return s.stage
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Includes() []string {
	return slices.Clone(s.includes)
}

func (s *shader) Attributes() []DeclaredVariable {
	return append(make([]DeclaredVariable, 0, len(s.attributes.Values)), s.attributes.Values...)
}

func (s *shader) Uniforms() []DeclaredVariable {
	return append(make([]DeclaredVariable, 0, len(s.uniforms.Values)), s.uniforms.Values...)
}

func (s *shader) Attribute(name string) (DeclaredVariable, bool) {
	return s.attributes.AtTry(name)
}

func (s *shader) Uniform(name string) (DeclaredVariable, bool) {
	return s.uniforms.AtTry(name)
}

// parseSource pre-processes the raw text and scans the result. Vertex sources get their
// attributes scanned; every stage gets its uniforms scanned.
func (s *shader) parseSource(raw string) error {
	pp := NewPreProcessor(s.fsys, s.dir, s.defines)
	source, err := pp.Process(raw)
	if err != nil {
		return err
	}
	s.source = source
	s.includes = slices.Clone(pp.Includes())

	s.attributes = keylist.New[string, DeclaredVariable]()
	if s.stage == StageVertex {
		s.attributes = ScanTable(source, KindAttribute)
	}
	s.uniforms = ScanTable(source, KindUniform)
	return nil
}
