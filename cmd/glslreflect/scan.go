package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"cogentcore.org/core/base/errors"
	"github.com/ccaven/lunch/engine/program"
	"github.com/ccaven/lunch/engine/shader"
	"github.com/ccaven/lunch/engine/uniform"
)

// Scan prints the attribute and uniform tables of every file in c.Files.
func Scan(c *Config) error {
	if err := setup(c); err != nil {
		return err
	}
	if len(c.Files) == 0 {
		return fmt.Errorf("scan: no shader files given")
	}
	defines, err := c.defines()
	if err != nil {
		return err
	}

	var errs []error
	for _, file := range c.Files {
		s, err := loadFile(file, defines)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, writeShader(os.Stdout, file, s))
	}
	return errors.Join(errs...)
}

// loadFile loads one source with includes resolved against its own directory.
func loadFile(file string, defines map[string]string) (shader.Shader, error) {
	stage, ok := shader.StageForPath(file)
	if !ok {
		return nil, fmt.Errorf("%s: cannot infer the shader stage from the extension", file)
	}
	fsys := os.DirFS(filepath.Dir(file))
	return shader.LoadShader(fsys, filepath.Base(file), stage, filepath.Base(file), shader.WithDefines(defines))
}

// writeShader prints the declarations scanned from one source. Uniforms show the upload
// operation their type dispatches to.
func writeShader(w io.Writer, title string, s shader.Shader) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (%s)\n", title, s.Stage())
	for _, v := range s.Attributes() {
		fmt.Fprintf(tw, "  attribute\t%s\t%s\tline %d\n", v.Name, v.GLSLType, v.Line)
	}
	for _, v := range s.Uniforms() {
		fmt.Fprintf(tw, "  uniform\t%s\t%s\t%s\n", v.Name, v.GLSLType, opName(v.GLSLType))
	}
	if len(s.Attributes())+len(s.Uniforms()) == 0 {
		fmt.Fprintln(tw, "  no declarations")
	}
	return tw.Flush()
}

// writeProgram prints the location tables of a linked program.
func writeProgram(w io.Writer, p program.Program) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "program %s\n", p.Key())
	for _, e := range p.Attributes().Entries() {
		fmt.Fprintf(tw, "  attribute\t%s\t%s\t%s\n", e.Name, e.GLSLType, activity(e))
	}
	for _, e := range p.Uniforms().Entries() {
		fmt.Fprintf(tw, "  uniform\t%s\t%s\t%s\t%s\n", e.Name, e.GLSLType, opName(e.GLSLType), activity(e))
	}
	return tw.Flush()
}

func opName(glslType string) string {
	op, ok := uniform.Lookup(glslType)
	if !ok {
		return "unsupported"
	}
	return op.String()
}

func activity(e program.Entry) string {
	if e.Active {
		return "active"
	}
	return "inactive"
}
