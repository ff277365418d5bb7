package wgpubackend

import (
	"strings"
	"testing"

	"github.com/ccaven/lunch/engine/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSource = `#version 450
in vec3 aPosition;
in vec2 aUV;
uniform mat4 uMVP;
uniform float uTime;
out vec2 vUV;
void main() {
    vUV = aUV;
    gl_Position = uMVP * vec4(aPosition, 1.0);
}`

const fragmentSource = `#version 450
in vec2 vUV;
uniform vec3 uColor;
uniform float uTime;
uniform sampler2D uAlbedo;
out vec4 fragColor;
void main() {
    fragColor = texture(uAlbedo, vUV) * vec4(uColor, uTime);
}`

func TestNewLayout(t *testing.T) {
	layout := NewLayout(vertexSource, fragmentSource)

	require.Len(t, layout.Block.Fields, 3)
	assert.Equal(t, shader.BlockField{Name: "uMVP", GLSLType: "mat4", Offset: 0, Size: 64}, layout.Block.Fields[0])
	assert.Equal(t, shader.BlockField{Name: "uTime", GLSLType: "float", Offset: 64, Size: 4}, layout.Block.Fields[1])
	assert.Equal(t, shader.BlockField{Name: "uColor", GLSLType: "vec3", Offset: 80, Size: 12}, layout.Block.Fields[2])
	assert.Equal(t, uint64(96), layout.Block.Size)
	assert.Equal(t, []string{"uAlbedo"}, layout.Samplers)
}

func TestRewriteVertex(t *testing.T) {
	layout := NewLayout(vertexSource, fragmentSource)
	got := Rewrite(shader.StageVertex, vertexSource, layout)
	lines := strings.Split(got, "\n")

	assert.Equal(t, "#version 450", lines[0])
	assert.Equal(t, "layout(std140, set = 0, binding = 0) uniform Globals {", lines[1])
	assert.Equal(t, "    mat4 uMVP;", lines[2])
	assert.Equal(t, "    float uTime;", lines[3])
	assert.Equal(t, "    vec3 uColor;", lines[4])
	assert.Equal(t, "};", lines[5])

	assert.Contains(t, got, "layout(location = 0) in vec3 aPosition;")
	assert.Contains(t, got, "layout(location = 1) in vec2 aUV;")
	assert.Contains(t, got, "layout(location = 0) out vec2 vUV;")
	assert.Contains(t, got, "// uniform mat4 uMVP;")
	assert.NotContains(t, got, "\nuniform float uTime;")
	assert.Contains(t, got, "gl_Position = uMVP * vec4(aPosition, 1.0);")
}

func TestRewriteFragment(t *testing.T) {
	layout := NewLayout(vertexSource, fragmentSource)
	got := Rewrite(shader.StageFragment, fragmentSource, layout)

	assert.Contains(t, got, "layout(location = 0) in vec2 vUV;")
	assert.Contains(t, got, "layout(location = 0) out vec4 fragColor;")
	assert.Contains(t, got, "layout(set = 1, binding = 0) uniform sampler2D uAlbedo;")
	assert.Contains(t, got, "// uniform vec3 uColor;")
	assert.Equal(t, 1, strings.Count(got, "uniform Globals {"))
}

func TestRewriteLegacyKeywordsWithoutVersion(t *testing.T) {
	src := "attribute vec2 aPosition;\nvarying vec2 vPos;\nuniform vec2 uOffset;\nuniform float uWeights[4];"
	layout := NewLayout(src, "varying vec2 vPos;")

	got := strings.Split(Rewrite(shader.StageVertex, src, layout), "\n")
	assert.Equal(t, []string{
		"#version 450",
		"layout(std140, set = 0, binding = 0) uniform Globals {",
		"    vec2 uOffset;",
		"};",
		"layout(location = 0) in vec2 aPosition;",
		"layout(location = 0) out vec2 vPos;",
		"// uniform vec2 uOffset;",
		"uniform float uWeights[4];",
	}, got)

	frag := Rewrite(shader.StageFragment, "varying vec2 vPos;", layout)
	assert.Contains(t, frag, "layout(location = 0) in vec2 vPos;")
}

func TestRewriteWithoutUniforms(t *testing.T) {
	src := "#version 450\nin vec3 aPosition;"
	got := Rewrite(shader.StageVertex, src, NewLayout(src, ""))
	assert.Equal(t, "#version 450\nlayout(location = 0) in vec3 aPosition;", got)
}

func TestStd140Matrix(t *testing.T) {
	m3 := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, []float32{1, 2, 3, 0, 4, 5, 6, 0, 7, 8, 9, 0}, std140Matrix(3, false, m3))
	assert.Equal(t, []float32{1, 4, 7, 0, 2, 5, 8, 0, 3, 6, 9, 0}, std140Matrix(3, true, m3))

	m2 := []float32{1, 2, 3, 4}
	assert.Equal(t, []float32{1, 2, 0, 0, 3, 4, 0, 0}, std140Matrix(2, false, m2))
}
