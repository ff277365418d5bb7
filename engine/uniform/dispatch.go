package uniform

import (
	"fmt"
	"math"

	"cogentcore.org/core/base/errors"
	"github.com/ccaven/lunch/engine/backend"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrUnknownUniform is returned when a uniform name is not in the program's uniform table.
	ErrUnknownUniform = errors.New("uniform: unknown uniform")

	// ErrUnsupportedType is returned when a uniform's declared type has no registered upload op.
	ErrUnsupportedType = errors.New("uniform: unsupported type")

	// ErrValueShape is returned when the supplied values do not fit the uniform's type.
	ErrValueShape = errors.New("uniform: value shape does not match type")
)

// Target is the uniform a Dispatch call writes to.
type Target struct {
	Name     string
	GLSLType string
	Location backend.Location

	// Active is false when the linked program has no location for the uniform.
	Active bool
}

// upload is a validated, backend-ready form of the values passed to Dispatch.
type upload struct {
	op     Op
	vector bool
	floats []float32
	ints   []int32
}

// Dispatch uploads values to target through b.
// A nil target yields ErrUnknownUniform. The calling convention follows the argument shape:
// several scalars are uploaded component-wise, a single scalar as one component and a single
// slice or mgl32 value as a vector array (matrices with transpose=false). Values for int and
// sampler types must be whole numbers within the int32 range. prog is bound with
// UseProgram before every upload. Inactive targets bind the program and upload nothing.
// No backend call is made when an error is returned.
//
// Parameters:
//   - b: the backend to upload through
//   - prog: the program owning target
//   - target: the uniform to write, or nil if the name is unknown
//   - values: the values to upload
//
// Returns:
//   - Op: the upload op used
//   - error: ErrUnknownUniform, ErrUnsupportedType or ErrValueShape, wrapped with the uniform name
func Dispatch(b backend.Backend, prog backend.ProgramHandle, target *Target, values ...any) (Op, error) {
	if target == nil {
		return 0, ErrUnknownUniform
	}
	op, ok := Lookup(target.GLSLType)
	if !ok {
		return 0, fmt.Errorf("uniform %q of type %q: %w", target.Name, target.GLSLType, ErrUnsupportedType)
	}
	u, err := prepare(op, values)
	if err != nil {
		return op, fmt.Errorf("uniform %q of type %q: %w", target.Name, target.GLSLType, err)
	}

	b.UseProgram(prog)
	if !target.Active {
		return op, nil
	}
	u.apply(b, target.Location)
	return op, nil
}

// prepare validates values against op and converts them to the component type op uploads.
func prepare(op Op, values []any) (upload, error) {
	u := upload{op: op}
	switch {
	case len(values) == 0:
		return u, fmt.Errorf("no values: %w", ErrValueShape)

	case len(values) == 1 && isScalar(values[0]):
		if op.Components() != 1 {
			return u, fmt.Errorf("single value for %d components: %w", op.Components(), ErrValueShape)
		}
		return u, u.appendScalars(values)

	case len(values) == 1:
		u.vector = true
		if op.IsInt() {
			ints, ok := intArray(values[0])
			if !ok {
				return u, fmt.Errorf("%T cannot be uploaded as int array: %w", values[0], ErrValueShape)
			}
			u.ints = ints
		} else {
			floats, ok := floatArray(values[0])
			if !ok {
				return u, fmt.Errorf("%T cannot be uploaded as float array: %w", values[0], ErrValueShape)
			}
			u.floats = floats
		}
		n := len(u.floats) + len(u.ints)
		if n == 0 || n%op.Components() != 0 {
			return u, fmt.Errorf("%d components is not a multiple of %d: %w", n, op.Components(), ErrValueShape)
		}
		return u, nil

	default:
		if op.IsMatrix() || op == OpSampler {
			return u, fmt.Errorf("%d scalars for %s: %w", len(values), op, ErrValueShape)
		}
		if len(values) != op.Components() {
			return u, fmt.Errorf("%d scalars for %d components: %w", len(values), op.Components(), ErrValueShape)
		}
		return u, u.appendScalars(values)
	}
}

func (u *upload) appendScalars(values []any) error {
	for _, v := range values {
		f, i, ok := scalar(v)
		if !ok {
			return fmt.Errorf("%T is not a scalar: %w", v, ErrValueShape)
		}
		if u.op.IsInt() {
			if !exactInt(v) {
				return fmt.Errorf("%v is not representable as int32: %w", v, ErrValueShape)
			}
			u.ints = append(u.ints, i)
		} else {
			u.floats = append(u.floats, f)
		}
	}
	return nil
}

func (u *upload) apply(b backend.Backend, loc backend.Location) {
	switch {
	case !u.vector && u.op.IsInt():
		b.UniformInt(loc, u.ints...)
	case !u.vector:
		b.UniformFloat(loc, u.floats...)
	case u.op.IsMatrix():
		b.UniformMatrixv(loc, u.op.MatrixDim(), false, u.floats)
	case u.op.IsInt():
		b.UniformIntv(loc, u.op.Components(), u.ints)
	default:
		b.UniformFloatv(loc, u.op.Components(), u.floats)
	}
}

func isScalar(v any) bool {
	_, _, ok := scalar(v)
	return ok
}

// scalar converts a plain number or bool to both component types.
func scalar(v any) (float32, int32, bool) {
	switch s := v.(type) {
	case float32:
		return s, int32(s), true
	case float64:
		return float32(s), int32(s), true
	case int:
		return float32(s), int32(s), true
	case int32:
		return float32(s), s, true
	case int64:
		return float32(s), int32(s), true
	case uint32:
		return float32(s), int32(s), true
	case bool:
		if s {
			return 1, 1, true
		}
		return 0, 0, true
	}
	return 0, 0, false
}

// exactInt reports whether the scalar v converts to int32 without truncation or wrap-around.
func exactInt(v any) bool {
	switch s := v.(type) {
	case float32:
		return exactIntFloat(float64(s))
	case float64:
		return exactIntFloat(s)
	case int:
		return s >= math.MinInt32 && s <= math.MaxInt32
	case int64:
		return s >= math.MinInt32 && s <= math.MaxInt32
	case uint32:
		return s <= math.MaxInt32
	}
	return true
}

func exactIntFloat(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32
}

// floatArray flattens float slices and mgl32 values. mgl32 matrices are already column-major.
func floatArray(v any) ([]float32, bool) {
	switch a := v.(type) {
	case []float32:
		return a, true
	case []float64:
		out := make([]float32, len(a))
		for i, f := range a {
			out[i] = float32(f)
		}
		return out, true
	case mgl32.Vec2:
		return a[:], true
	case mgl32.Vec3:
		return a[:], true
	case mgl32.Vec4:
		return a[:], true
	case mgl32.Mat2:
		return a[:], true
	case mgl32.Mat3:
		return a[:], true
	case mgl32.Mat4:
		return a[:], true
	}
	return nil, false
}

func intArray(v any) ([]int32, bool) {
	switch a := v.(type) {
	case []int32:
		return a, true
	case []int:
		out := make([]int32, len(a))
		for i, n := range a {
			if !exactInt(n) {
				return nil, false
			}
			out[i] = int32(n)
		}
		return out, true
	}
	return nil, false
}
