package wgpubackend

import (
	"fmt"
	"slices"
	"strings"

	"cogentcore.org/core/base/keylist"
	"github.com/ccaven/lunch/engine/shader"
)

const (
	// GlobalsGroup is the bind group of the uniform block that replaces loose uniforms.
	GlobalsGroup = 0

	// GlobalsBinding is the binding of the uniform block inside GlobalsGroup.
	GlobalsBinding = 0

	// SamplerGroup is the bind group opaque uniforms are moved to, one binding per sampler
	// in declaration order.
	SamplerGroup = 1

	// GlobalsBlockName is the block name of the generated uniform block.
	GlobalsBlockName = "Globals"

	defaultVersion = "#version 450"
)

// Layout is the resource layout shared by both stages of one program.
type Layout struct {
	// Block is the std140 layout of the loose non-opaque uniforms.
	Block shader.BlockLayout

	// Samplers lists the opaque uniforms; a sampler's binding in SamplerGroup is its index.
	Samplers []string
}

// NewLayout computes the layout of a program from its two stage sources. Uniforms are
// collected from the vertex and then the fragment source; a name declared in both keeps its
// first position and takes the fragment declaration.
//
// Parameters:
//   - vertexSource: the vertex stage GLSL
//   - fragmentSource: the fragment stage GLSL
//
// Returns:
//   - Layout: the shared layout
func NewLayout(vertexSource, fragmentSource string) Layout {
	merged := keylist.New[string, shader.DeclaredVariable]()
	for _, src := range []string{vertexSource, fragmentSource} {
		for _, v := range shader.Scan(src, shader.KindUniform) {
			merged.Set(v.Name, v)
		}
	}

	layout := Layout{
		Block:    shader.Layout140(merged.Values),
		Samplers: make([]string, 0),
	}
	for _, v := range merged.Values {
		if shader.IsOpaqueType(v.GLSLType) {
			layout.Samplers = append(layout.Samplers, v.Name)
		}
	}
	return layout
}

// Rewrite turns a GL-style GLSL source into one the WebGPU GLSL front end accepts:
//   - loose uniforms in layout.Block are commented out and declared once in a std140 block
//     `layout(std140, set = 0, binding = 0) uniform Globals { ... };` placed after #version;
//   - opaque uniforms get `layout(set = 1, binding = N)`;
//   - stage inputs and outputs get sequential `layout(location = N)` per direction, so vertex
//     outputs and fragment inputs are matched by declaration order;
//   - a missing #version line becomes "#version 450".
//
// Lines the scanner does not recognise are left untouched.
//
// Parameters:
//   - stage: the stage the source is written for
//   - source: the GLSL source
//   - layout: the layout shared with the other stage
//
// Returns:
//   - string: the rewritten source
func Rewrite(stage shader.Stage, source string, layout Layout) string {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines)+len(layout.Block.Fields)+4)
	blockAt := -1
	inputs, outputs := 0, 0

	for _, line := range lines {
		if blockAt < 0 && strings.HasPrefix(strings.TrimSpace(line), "#version") {
			out = append(out, line)
			blockAt = len(out)
			continue
		}

		decl, ok := shader.ParseDeclaration(line)
		if !ok {
			out = append(out, line)
			continue
		}

		switch direction(stage, decl.Keyword) {
		case "uniform":
			if _, inBlock := layout.Block.Field(decl.Name); inBlock {
				out = append(out, "// "+strings.TrimSpace(line))
			} else if binding := slices.Index(layout.Samplers, decl.Name); binding >= 0 {
				out = append(out, fmt.Sprintf("layout(set = %d, binding = %d) uniform %s %s;", SamplerGroup, binding, decl.GLSLType, decl.Name))
			} else {
				out = append(out, line)
			}
		case "in":
			out = append(out, fmt.Sprintf("layout(location = %d) in %s %s;", inputs, decl.GLSLType, decl.Name))
			inputs++
		case "out":
			out = append(out, fmt.Sprintf("layout(location = %d) out %s %s;", outputs, decl.GLSLType, decl.Name))
			outputs++
		default:
			out = append(out, line)
		}
	}

	if blockAt < 0 {
		out = slices.Insert(out, 0, defaultVersion)
		blockAt = 1
	}
	if block := globalsBlock(layout.Block); len(block) > 0 {
		out = slices.Insert(out, blockAt, block...)
	}
	return strings.Join(out, "\n")
}

// direction normalises the legacy GLSL ES 1.00 keywords to in/out for the given stage.
func direction(stage shader.Stage, keyword string) string {
	switch keyword {
	case "attribute":
		return "in"
	case "varying":
		if stage == shader.StageVertex {
			return "out"
		}
		return "in"
	}
	return keyword
}

func globalsBlock(block shader.BlockLayout) []string {
	if len(block.Fields) == 0 {
		return nil
	}
	lines := make([]string, 0, len(block.Fields)+2)
	lines = append(lines, fmt.Sprintf("layout(std140, set = %d, binding = %d) uniform %s {", GlobalsGroup, GlobalsBinding, GlobalsBlockName))
	for _, f := range block.Fields {
		lines = append(lines, fmt.Sprintf("    %s %s;", f.GLSLType, f.Name))
	}
	lines = append(lines, "};")
	return lines
}
