package shader

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanUniformsInOrder(t *testing.T) {
	types := []string{"float", "vec2", "vec3", "vec4", "int", "ivec3", "mat3", "mat4", "sampler2D"}
	var b strings.Builder
	for i, typ := range types {
		fmt.Fprintf(&b, "uniform %s u%d;\n", typ, i)
	}

	got := Scan(b.String(), KindUniform)
	require.Len(t, got, len(types))
	for i, v := range got {
		assert.Equal(t, fmt.Sprintf("u%d", i), v.Name)
		assert.Equal(t, types[i], v.GLSLType)
		assert.Equal(t, KindUniform, v.Kind)
		assert.Equal(t, i+1, v.Line)
	}

	table := ScanTable(b.String(), KindUniform)
	assert.Equal(t, len(types), table.Len())
}

func TestScanTableLastDeclarationWins(t *testing.T) {
	src := "uniform float uA;\nuniform vec2 uB;\nuniform vec4 uA;\n"

	assert.Len(t, Scan(src, KindUniform), 3)

	table := ScanTable(src, KindUniform)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"uA", "uB"}, table.Keys)

	a, ok := table.AtTry("uA")
	require.True(t, ok)
	assert.Equal(t, "vec4", a.GLSLType)
	assert.Equal(t, 3, a.Line)
}

func TestScanSkipsMalformedLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing name", "uniform vec3;"},
		{"keyword only", "uniform;"},
		{"precision qualifier", "uniform highp float uTime;"},
		{"array", "uniform vec3 uLights[4];"},
		{"multiple variables", "uniform vec3 uA, uB;"},
		{"line comment", "// uniform vec3 uColor;"},
		{"double space", "uniform  vec3 uColor;"},
		{"tab separated", "uniform\tvec3 uColor;"},
		{"layout qualifier", "layout(std140) uniform Block;"},
		{"block opening", "uniform Globals {"},
		{"empty", ""},
		{"whitespace", "   \t  "},
		{"preprocessor", "#define uniform vec3 x"},
		{"other keyword", "varying vec2 vUV;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Empty(t, Scan(tt.line, KindUniform))
				assert.Empty(t, Scan(tt.line, KindAttribute))
			})
		})
	}
}

func TestScanAttributes(t *testing.T) {
	src := strings.Join([]string{
		"#version 300 es",
		"in vec2 aPosition;",
		"attribute vec3 aNormal;",
		"layout(location = 2) in vec2 aUV;",
		"uniform mat4 uMVP;",
		"out vec2 vUV;",
		"void main() { gl_Position = uMVP * vec4(aPosition, 0.0, 1.0); }",
	}, "\n")

	attrs := ScanTable(src, KindAttribute)
	assert.Equal(t, []string{"aPosition", "aNormal"}, attrs.Keys)
	assert.Equal(t, "vec2", attrs.At("aPosition").GLSLType)
	assert.Equal(t, "vec3", attrs.At("aNormal").GLSLType)

	uniforms := ScanTable(src, KindUniform)
	assert.Equal(t, []string{"uMVP"}, uniforms.Keys)
	assert.Equal(t, "mat4", uniforms.At("uMVP").GLSLType)
}

func TestScanTolerantWhitespace(t *testing.T) {
	src := "\t  uniform vec3 uColor;   \r\nuniform float uTime ;\r\nuniform vec4 uTint; // tint\n"

	table := ScanTable(src, KindUniform)
	assert.Equal(t, []string{"uColor", "uTime", "uTint"}, table.Keys)
}

func TestScanRoundTripExample(t *testing.T) {
	table := ScanTable("uniform vec3 uColor;\nuniform float uTime;", KindUniform)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, "vec3", table.At("uColor").GLSLType)
	assert.Equal(t, "float", table.At("uTime").GLSLType)
}

func TestVariableKindString(t *testing.T) {
	assert.Equal(t, "attribute", KindAttribute.String())
	assert.Equal(t, "uniform", KindUniform.String())
	assert.Equal(t, "unknown", VariableKind(7).String())
}

func TestParseDeclaration(t *testing.T) {
	tests := []struct {
		line string
		want Declaration
		ok   bool
	}{
		{"out vec2 vUV;", Declaration{Keyword: "out", GLSLType: "vec2", Name: "vUV"}, true},
		{"  uniform mat4 uMVP ;  ", Declaration{Keyword: "uniform", GLSLType: "mat4", Name: "uMVP"}, true},
		{"uniform float uWeights[4];", Declaration{}, false},
		{"layout(location = 0) in vec3 aPos;", Declaration{}, false},
		{"", Declaration{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseDeclaration(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
