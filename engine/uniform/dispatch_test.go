package uniform

import (
	"math"
	"testing"

	"github.com/ccaven/lunch/engine/backend/recorder"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProgram = recorder.ProgramID(7)

func target(name, glslType string) *Target {
	return &Target{
		Name:     name,
		GLSLType: glslType,
		Location: recorder.Location{Program: testProgram, Name: name},
		Active:   true,
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		glslType string
		want     Op
		ok       bool
	}{
		{"float", OpFloat1, true},
		{"vec3", OpFloat3, true},
		{"ivec4", OpInt4, true},
		{"bvec2", OpInt2, true},
		{"mat3", OpMatrix3, true},
		{"sampler2D", OpSampler, true},
		{"samplerCube", OpSampler, true},
		{"uint", 0, false},
		{"dvec2", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.glslType, func(t *testing.T) {
			op, ok := Lookup(tt.glslType)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, op)
		})
	}
}

func TestOp(t *testing.T) {
	assert.Equal(t, 16, OpMatrix4.Components())
	assert.Equal(t, 4, OpMatrix4.MatrixDim())
	assert.Equal(t, 2, OpMatrix2.MatrixDim())
	assert.Equal(t, 0, OpFloat4.MatrixDim())
	assert.True(t, OpSampler.IsInt())
	assert.False(t, OpFloat2.IsInt())

	assert.Equal(t, "uniform3f", OpFloat3.String())
	assert.Equal(t, "uniform2i", OpInt2.String())
	assert.Equal(t, "uniformMatrix4fv", OpMatrix4.String())
	assert.Equal(t, "op(99)", Op(99).String())

	assert.Contains(t, Types(), "sampler2D")
	assert.IsNonDecreasing(t, Types())
}

func TestDispatchScalarComponents(t *testing.T) {
	r := recorder.New()

	op, err := Dispatch(r, testProgram, target("uColor", "vec3"), 1.0, 0.5, 0.0)
	require.NoError(t, err)
	assert.Equal(t, OpFloat3, op)

	require.Len(t, r.Calls, 2)
	assert.Equal(t, recorder.MethodUseProgram, r.Calls[0].Method)
	assert.Equal(t, testProgram, r.Calls[0].Program)

	upload := r.Calls[1]
	assert.Equal(t, recorder.MethodUniformFloat, upload.Method)
	assert.Equal(t, []float32{1, 0.5, 0}, upload.Floats)
	assert.Equal(t, 3, upload.Components)
	assert.Equal(t, "uColor", upload.Location.Name)
}

func TestDispatchSingleScalar(t *testing.T) {
	r := recorder.New()

	_, err := Dispatch(r, testProgram, target("uTime", "float"), float32(2.5))
	require.NoError(t, err)
	_, err = Dispatch(r, testProgram, target("uEnabled", "bool"), true)
	require.NoError(t, err)
	_, err = Dispatch(r, testProgram, target("uTex", "sampler2D"), 3)
	require.NoError(t, err)

	floats := r.CallsTo(recorder.MethodUniformFloat)
	require.Len(t, floats, 1)
	assert.Equal(t, []float32{2.5}, floats[0].Floats)

	ints := r.CallsTo(recorder.MethodUniformInt)
	require.Len(t, ints, 2)
	assert.Equal(t, []int32{1}, ints[0].Ints)
	assert.Equal(t, []int32{3}, ints[1].Ints)
}

func TestDispatchVectorArray(t *testing.T) {
	r := recorder.New()

	_, err := Dispatch(r, testProgram, target("uColor", "vec3"), []float32{1, 0.5, 0})
	require.NoError(t, err)
	_, err = Dispatch(r, testProgram, target("uCell", "ivec2"), []int{4, 5, 6, 7})
	require.NoError(t, err)
	_, err = Dispatch(r, testProgram, target("uOffset", "vec2"), mgl32.Vec2{0.25, 0.75})
	require.NoError(t, err)

	floatv := r.CallsTo(recorder.MethodUniformFloatv)
	require.Len(t, floatv, 2)
	assert.Equal(t, []float32{1, 0.5, 0}, floatv[0].Floats)
	assert.Equal(t, 3, floatv[0].Components)
	assert.Equal(t, []float32{0.25, 0.75}, floatv[1].Floats)

	intv := r.CallsTo(recorder.MethodUniformIntv)
	require.Len(t, intv, 1)
	assert.Equal(t, []int32{4, 5, 6, 7}, intv[0].Ints)
	assert.Equal(t, 2, intv[0].Components)
}

func TestDispatchMatrix(t *testing.T) {
	r := recorder.New()
	m := mgl32.Translate3D(1, 2, 3)

	op, err := Dispatch(r, testProgram, target("uMVP", "mat4"), m)
	require.NoError(t, err)
	assert.Equal(t, OpMatrix4, op)

	calls := r.CallsTo(recorder.MethodUniformMatrixv)
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Transpose)
	assert.Equal(t, 4, calls[0].Components)
	assert.Equal(t, m[:], calls[0].Floats)
	// column-major: translation lives in elements 12..14
	assert.Equal(t, []float32{1, 2, 3}, calls[0].Floats[12:15])
}

func TestDispatchBindsEveryTime(t *testing.T) {
	r := recorder.New()
	tgt := target("uTime", "float")

	for i := 0; i < 3; i++ {
		_, err := Dispatch(r, testProgram, tgt, i)
		require.NoError(t, err)
	}
	assert.Len(t, r.CallsTo(recorder.MethodUseProgram), 3)
}

func TestDispatchInactive(t *testing.T) {
	r := recorder.New()
	tgt := target("uUnused", "vec4")
	tgt.Active = false

	_, err := Dispatch(r, testProgram, tgt, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, r.Calls, 1)
	assert.Equal(t, recorder.MethodUseProgram, r.Calls[0].Method)
}

func TestDispatchErrors(t *testing.T) {
	tests := []struct {
		name   string
		target *Target
		values []any
		want   error
	}{
		{"unknown name", nil, []any{1.0}, ErrUnknownUniform},
		{"unsupported type", target("uCount", "uint"), []any{1}, ErrUnsupportedType},
		{"no values", target("uTime", "float"), nil, ErrValueShape},
		{"too few scalars", target("uColor", "vec3"), []any{1.0, 0.5}, ErrValueShape},
		{"single scalar for vector", target("uColor", "vec3"), []any{1.0}, ErrValueShape},
		{"scalars for matrix", target("uMVP", "mat2"), []any{1.0, 0.0, 0.0, 1.0}, ErrValueShape},
		{"ragged array", target("uColor", "vec3"), []any{[]float32{1, 2, 3, 4}}, ErrValueShape},
		{"empty array", target("uColor", "vec3"), []any{[]float32{}}, ErrValueShape},
		{"float array for int", target("uCell", "ivec2"), []any{[]float32{1, 2}}, ErrValueShape},
		{"matrix for int", target("uTex", "sampler2D"), []any{mgl32.Ident2()}, ErrValueShape},
		{"string", target("uTime", "float"), []any{"1.0"}, ErrValueShape},
		{"string among scalars", target("uOffset", "vec2"), []any{1.0, "2"}, ErrValueShape},
		{"fractional int", target("uCount", "int"), []any{1.5}, ErrValueShape},
		{"fractional int component", target("uCell", "ivec2"), []any{1, float32(2.25)}, ErrValueShape},
		{"int64 overflow", target("uCount", "int"), []any{int64(math.MaxInt32) + 1}, ErrValueShape},
		{"uint32 overflow", target("uTex", "sampler2D"), []any{uint32(math.MaxUint32)}, ErrValueShape},
		{"NaN for int", target("uCount", "int"), []any{math.NaN()}, ErrValueShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := recorder.New()
			_, err := Dispatch(r, testProgram, tt.target, tt.values...)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, r.Calls)
		})
	}
}

func TestDispatchWholeFloatsForInt(t *testing.T) {
	r := recorder.New()

	_, err := Dispatch(r, testProgram, target("uCount", "int"), 3.0)
	require.NoError(t, err)
	_, err = Dispatch(r, testProgram, target("uCell", "ivec2"), float32(-2), int64(math.MinInt32))
	require.NoError(t, err)
	// floats stay unrestricted for float types
	_, err = Dispatch(r, testProgram, target("uTime", "float"), 1.5)
	require.NoError(t, err)

	ints := r.CallsTo(recorder.MethodUniformInt)
	require.Len(t, ints, 2)
	assert.Equal(t, []int32{3}, ints[0].Ints)
	assert.Equal(t, []int32{-2, math.MinInt32}, ints[1].Ints)
}
