package shader

import "io/fs"

// ShaderBuilderOption is a functional option applied to a shader during construction via
// NewShader or LoadShader.
type ShaderBuilderOption func(*shader)

// WithIncludeFS sets the file system #include directives are resolved from. LoadShader sets
// it to the loading file system already; this option is mostly useful with NewShader.
//
// Parameters:
//   - fsys: the file system includes are read from
//   - dir: the directory relative includes are resolved against
//
// Returns:
//   - ShaderBuilderOption: a function that applies the include option to a shader
func WithIncludeFS(fsys fs.FS, dir string) ShaderBuilderOption {
	return func(s *shader) {
		s.fsys = fsys
		s.dir = dir
	}
}

// WithDefines injects `#define KEY VALUE` lines after the #version directive.
//
// Parameters:
//   - defines: macro names mapped to their replacement text
//
// Returns:
//   - ShaderBuilderOption: a function that applies the defines option to a shader
func WithDefines(defines map[string]string) ShaderBuilderOption {
	return func(s *shader) {
		s.defines = defines
	}
}
