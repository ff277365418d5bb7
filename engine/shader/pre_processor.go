// pre_processor.go implements the shader source pre-processor. It expands
// `#include "file"` lines from an fs.FS before the source reaches the scanner or the
// backend, so declarations living in shared include files are reflected like any other
// line, and it injects `#define` lines requested by the caller.
//
// Include paths are resolved relative to the directory of the including file first and
// then relative to the root of the file system. The directive itself is kept as a comment
// so backend line numbers stay readable.
package shader

import (
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"cogentcore.org/core/base/errors"
)

// ErrInclude is returned when an #include directive is malformed, cannot be resolved, or
// forms a cycle.
var ErrInclude = errors.New("shader: include failed")

const includePrefix = `#include "`

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// fsys resolves include paths. Nil disables include expansion.
	fsys fs.FS

	// dir is the directory of the top-level source within fsys.
	dir string

	// defines are injected as `#define KEY VALUE` lines, sorted by key.
	defines map[string]string

	// includes accumulates the resolved include paths during a Process call, in first-seen order.
	includes []string
}

// PreProcessor expands #include directives and injects #define lines in shader source.
type PreProcessor interface {
	// Process expands the source. The list of resolved includes is reset at the start of
	// each call and can be read back with Includes afterwards.
	//
	// Parameters:
	//   - source: the raw shader source text
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an ErrInclude wrapped with the offending line when an include fails
	Process(source string) (string, error)

	// Includes returns the include paths resolved by the most recent Process call,
	// relative to the file system root. Returns nil before Process has been called.
	//
	// Returns:
	//   - []string: resolved include paths in first-seen order
	Includes() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor resolving includes from fsys.
//
// Parameters:
//   - fsys: the file system includes are read from, or nil to leave #include lines untouched
//   - dir: the directory of the top-level source inside fsys ("." for the root)
//   - defines: macro definitions to inject, may be nil
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor(fsys fs.FS, dir string, defines map[string]string) PreProcessor {
	return &preProcessor{
		fsys:    fsys,
		dir:     path.Clean(dir),
		defines: defines,
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.includes = p.includes[:0]

	expanded, err := p.expand(source, p.dir, nil)
	if err != nil {
		return "", err
	}
	return p.injectDefines(expanded), nil
}

func (p *preProcessor) Includes() []string {
	return p.includes
}

// expand replaces every include directive in source with the expanded contents of the
// referenced file. stack holds the chain of files currently being expanded.
//
// Parameters:
//   - source: the text to expand
//   - dir: the directory relative includes are resolved against
//   - stack: include paths currently open, used for cycle detection
//
// Returns:
//   - string: the expanded text
//   - error: an ErrInclude describing the failing directive
func (p *preProcessor) expand(source, dir string, stack []string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), includePrefix)
		if !ok || p.fsys == nil {
			out = append(out, line)
			continue
		}

		name, _, found := strings.Cut(rest, `"`)
		if !found || name == "" {
			return "", fmt.Errorf("line %d: malformed include %q: %w", i+1, line, ErrInclude)
		}

		resolved, data, err := p.read(dir, name)
		if err != nil {
			return "", fmt.Errorf("line %d: %q: %w", i+1, name, errors.Join(ErrInclude, err))
		}
		if slices.Contains(stack, resolved) {
			return "", fmt.Errorf("line %d: include cycle through %q: %w", i+1, resolved, ErrInclude)
		}
		if !slices.Contains(p.includes, resolved) {
			p.includes = append(p.includes, resolved)
		}

		body, err := p.expand(data, path.Dir(resolved), append(stack, resolved))
		if err != nil {
			return "", fmt.Errorf("%s: %w", resolved, err)
		}

		out = append(out, "// "+strings.TrimSpace(line), body)
	}

	return strings.Join(out, "\n"), nil
}

// read loads an include, trying the including directory before the file system root.
//
// Parameters:
//   - dir: the directory of the including file
//   - name: the path written in the directive
//
// Returns:
//   - string: the resolved path within the file system
//   - string: the file contents
//   - error: the read error of the root lookup when neither location exists
func (p *preProcessor) read(dir, name string) (string, string, error) {
	candidates := []string{path.Join(dir, name), path.Clean(name)}
	var lastErr error
	for _, c := range candidates {
		b, err := fs.ReadFile(p.fsys, c)
		if err == nil {
			return c, string(b), nil
		}
		lastErr = err
	}
	return "", "", lastErr
}

// injectDefines inserts the configured #define lines after a leading #version directive,
// or at the top of the source when there is none.
//
// Parameters:
//   - source: the expanded source
//
// Returns:
//   - string: the source with defines injected
func (p *preProcessor) injectDefines(source string) string {
	if len(p.defines) == 0 {
		return source
	}

	defs := make([]string, 0, len(p.defines))
	for _, k := range slices.Sorted(maps.Keys(p.defines)) {
		defs = append(defs, strings.TrimSpace("#define "+k+" "+p.defines[k]))
	}

	lines := strings.Split(source, "\n")
	at := 0
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "#version") {
		at = 1
	}
	lines = slices.Insert(lines, at, defs...)
	return strings.Join(lines, "\n")
}
