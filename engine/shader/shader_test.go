package shader

import (
	"testing"
	"testing/fstest"

	"cogentcore.org/core/base/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShaderVertex(t *testing.T) {
	s, err := NewShader("basic", StageVertex, "in vec2 aPosition;\nuniform mat4 uMVP;")
	require.NoError(t, err)

	assert.Equal(t, "basic", s.Key())
	assert.Equal(t, StageVertex, s.Stage())
	assert.Equal(t, "", s.Path())

	attrs := s.Attributes()
	require.Len(t, attrs, 1)
	assert.Equal(t, "aPosition", attrs[0].Name)
	assert.Equal(t, "vec2", attrs[0].GLSLType)

	u, ok := s.Uniform("uMVP")
	require.True(t, ok)
	assert.Equal(t, "mat4", u.GLSLType)

	_, ok = s.Uniform("uMissing")
	assert.False(t, ok)
}

func TestNewShaderFragmentHasNoAttributes(t *testing.T) {
	s, err := NewShader("frag", StageFragment, "in vec2 vUV;\nuniform sampler2D uTex;\nout vec4 color;")
	require.NoError(t, err)

	assert.NotNil(t, s.Attributes())
	assert.Empty(t, s.Attributes())
	_, ok := s.Attribute("vUV")
	assert.False(t, ok)

	u, ok := s.Uniform("uTex")
	require.True(t, ok)
	assert.Equal(t, "sampler2D", u.GLSLType)
}

func TestShaderWithoutUniformsReturnsEmptySlice(t *testing.T) {
	s, err := NewShader("bare", StageVertex, "void main() {}")
	require.NoError(t, err)
	assert.Equal(t, []DeclaredVariable{}, s.Attributes())
	assert.Equal(t, []DeclaredVariable{}, s.Uniforms())
}

func TestShaderAccessorsReturnCopies(t *testing.T) {
	s, err := NewShader("copy", StageVertex, "in vec2 aPosition;\nuniform float uTime;")
	require.NoError(t, err)

	u := s.Uniforms()
	u[0].GLSLType = "vec4"
	assert.Equal(t, "float", s.Uniforms()[0].GLSLType)
}

func TestLoadShaderWithIncludes(t *testing.T) {
	fsys := fstest.MapFS{
		"shaders/sprite.vert":        {Data: []byte("#version 330 core\n#include \"common/camera.glsl\"\nin vec2 aPosition;\nuniform vec4 uTint;\n")},
		"shaders/common/camera.glsl": {Data: []byte("uniform mat4 uView;\nuniform mat4 uProjection;")},
	}

	s, err := LoadShader(fsys, "sprite", StageVertex, "shaders/sprite.vert")
	require.NoError(t, err)

	assert.Equal(t, "shaders/sprite.vert", s.Path())
	assert.Equal(t, []string{"shaders/common/camera.glsl"}, s.Includes())

	names := make([]string, 0)
	for _, u := range s.Uniforms() {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"uView", "uProjection", "uTint"}, names)
	assert.Contains(t, s.Source(), `// #include "common/camera.glsl"`)
}

func TestLoadShaderMissingFile(t *testing.T) {
	_, err := LoadShader(fstest.MapFS{}, "nope", StageVertex, "nope.vert")
	assert.Error(t, err)
}

func TestNewShaderWithDefines(t *testing.T) {
	s, err := NewShader("defs", StageFragment, "#version 300 es\nuniform float uTime;",
		WithDefines(map[string]string{"MAX_LIGHTS": "4", "USE_FOG": ""}))
	require.NoError(t, err)

	assert.Equal(t, "#version 300 es\n#define MAX_LIGHTS 4\n#define USE_FOG\nuniform float uTime;", s.Source())
}

func TestNewShaderIncludeError(t *testing.T) {
	_, err := NewShader("bad", StageVertex, "#include \"missing.glsl\"", WithIncludeFS(fstest.MapFS{}, "."))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInclude))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "vertex", StageVertex.String())
	assert.Equal(t, "fragment", StageFragment.String())
	assert.Equal(t, "stage(9)", Stage(9).String())
}

func TestStageForPath(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		ok    bool
	}{
		{"basic.vert", StageVertex, true},
		{"sprite/sprite.VS", StageVertex, true},
		{"post.frag", StageFragment, true},
		{"post.fsh", StageFragment, true},
		{"common.glsl", 0, false},
		{"noext", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, ok := StageForPath(tt.name)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.stage, stage)
			}
		})
	}
}
