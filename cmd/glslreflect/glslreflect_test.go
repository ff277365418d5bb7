package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/backend/recorder"
	"github.com/ccaven/lunch/engine/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	return dir
}

func TestConfigDefines(t *testing.T) {
	c := &Config{Defines: []string{"QUALITY=2", "USE_FOG", " MAX = 4"}}
	defines, err := c.defines()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"QUALITY": "2", "USE_FOG": "1", "MAX": " 4"}, defines)

	c.Defines = []string{"=1"}
	_, err = c.defines()
	assert.Error(t, err)
}

func TestWriteShader(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"basic.vert":  "#include \"common.glsl\"\nin vec2 aPosition;\nuniform mat4 uMVP;\n",
		"common.glsl": "uniform float uTime;\nuniform mat2x3 uSkew;\n",
	})
	s, err := loadFile(filepath.Join(dir, "basic.vert"), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeShader(&buf, "basic.vert", s))
	out := buf.String()
	assert.Contains(t, out, "basic.vert (vertex)")
	assert.Regexp(t, `attribute\s+aPosition\s+vec2`, out)
	assert.Regexp(t, `uniform\s+uTime\s+float\s+uniform1f`, out)
	assert.Regexp(t, `uniform\s+uMVP\s+mat4\s+uniformMatrix4fv`, out)
	assert.Regexp(t, `uniform\s+uSkew\s+mat2x3\s+unsupported`, out)
}

func TestLoadFileUnknownExtension(t *testing.T) {
	dir := writeFiles(t, map[string]string{"common.glsl": "uniform float uTime;\n"})
	_, err := loadFile(filepath.Join(dir, "common.glsl"), nil)
	assert.ErrorContains(t, err, "cannot infer the shader stage")
}

func TestLoadPair(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.vert": "in vec2 aPosition;\n",
		"b.vert": "in vec2 aPosition;\n",
		"a.frag": "uniform vec3 uColor;\n",
	})
	vert, frag := filepath.Join(dir, "a.vert"), filepath.Join(dir, "a.frag")

	vs, fs, err := loadPair([]string{frag, vert}, nil)
	require.NoError(t, err)
	assert.Equal(t, shader.StageVertex, vs.Stage())
	assert.Equal(t, shader.StageFragment, fs.Stage())

	_, _, err = loadPair([]string{vert}, nil)
	assert.ErrorContains(t, err, "need one vertex and one fragment")

	_, _, err = loadPair([]string{vert, filepath.Join(dir, "b.vert"), frag}, nil)
	assert.ErrorContains(t, err, "more than one vertex")
}

func TestCheck(t *testing.T) {
	vs, err := shader.NewShader("basic.vert", shader.StageVertex, "in vec2 aPosition;\nin vec2 aUnused;\nuniform mat4 uMVP;\n")
	require.NoError(t, err)
	fs, err := shader.NewShader("basic.frag", shader.StageFragment, "uniform vec3 uColor;\nuniform sampler2D uTex;\n")
	require.NoError(t, err)

	t.Run("inactive names", func(t *testing.T) {
		r := recorder.New(recorder.WithInactive("aUnused", "uTex"))
		var buf bytes.Buffer
		require.NoError(t, check(&buf, r, vs, fs))
		out := buf.String()
		assert.Contains(t, out, "program basic.vert+basic.frag")
		assert.Regexp(t, `uniform\s+uColor\s+vec3\s+uniform3f\s+active`, out)
		assert.Contains(t, out, "2 declared names are inactive and will be skipped on upload: [aUnused uTex]")
	})

	t.Run("all active", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, check(&buf, recorder.New(), vs, fs))
		assert.Contains(t, buf.String(), "every declared name is active")
	})

	t.Run("compile log", func(t *testing.T) {
		r := recorder.New()
		r.FailCompile(shader.StageFragment, "0:1: syntax error")
		var buf bytes.Buffer
		err := check(&buf, r, vs, fs)
		require.ErrorIs(t, err, backend.ErrCompile)
		assert.Contains(t, buf.String(), "fragment shader failed to compile:\n0:1: syntax error")
	})

	t.Run("link log", func(t *testing.T) {
		r := recorder.New()
		r.FailLink("varying mismatch")
		var buf bytes.Buffer
		err := check(&buf, r, vs, fs)
		require.ErrorIs(t, err, backend.ErrLink)
		assert.Contains(t, buf.String(), "program failed to link:\nvarying mismatch")
	})
}
