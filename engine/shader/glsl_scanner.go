package shader

import (
	"regexp"
	"slices"
	"strings"

	"cogentcore.org/core/base/keylist"
)

// identifierRegex matches a bare GLSL identifier. Array suffixes like `name[4]` do not match.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Scan extracts the declarations of the requested kind from GLSL source text, one per line,
// in source-line order. A line declares a variable only when, after trimming and cutting at
// the first `;`, it splits on single spaces into exactly `<keyword> <type> <name>`.
//
// Anything else is skipped without error: precision or layout qualifiers, arrays,
// multi-variable declarations, comments and preprocessor directives. This is a known
// limitation of the line grammar, not a validation step. Duplicated names are returned
// as they appear; see ScanTable for the folded view.
//
// Parameters:
//   - source: the raw shader source text
//   - kind: KindAttribute or KindUniform
//
// Returns:
//   - []DeclaredVariable: the matched declarations in source order, never nil
func Scan(source string, kind VariableKind) []DeclaredVariable {
	keywords := kindKeywords[kind]
	lines := strings.Split(source, "\n")
	out := make([]DeclaredVariable, 0)

	for i, line := range lines {
		decl, ok := ParseDeclaration(line)
		if !ok || !slices.Contains(keywords, decl.Keyword) {
			continue
		}
		out = append(out, DeclaredVariable{
			Name:     decl.Name,
			GLSLType: decl.GLSLType,
			Kind:     kind,
			Line:     i + 1,
		})
	}

	return out
}

// ScanTable scans source like Scan and folds the result into an ordered table keyed by name.
// When a name is declared twice the later declaration replaces the earlier one in place.
//
// Parameters:
//   - source: the raw shader source text
//   - kind: KindAttribute or KindUniform
//
// Returns:
//   - *keylist.List[string, DeclaredVariable]: declarations keyed by name, in first-seen order
func ScanTable(source string, kind VariableKind) *keylist.List[string, DeclaredVariable] {
	table := keylist.New[string, DeclaredVariable]()
	for _, v := range Scan(source, kind) {
		table.Set(v.Name, v)
	}
	return table
}

// Declaration is a single-line `<keyword> <type> <name>` declaration.
type Declaration struct {
	Keyword  string
	GLSLType string
	Name     string
}

// ParseDeclaration tokenizes one source line with the grammar Scan uses, whatever its keyword.
// It lets source rewriters recognise exactly the lines the scanner reflects.
//
// Parameters:
//   - line: a single line of shader source
//
// Returns:
//   - Declaration: keyword, type and name
//   - bool: false when the line is not a three-word declaration of identifiers
func ParseDeclaration(line string) (Declaration, bool) {
	line = strings.TrimSpace(line)
	line, _, _ = strings.Cut(line, ";")
	line = strings.TrimSpace(line)
	if line == "" {
		return Declaration{}, false
	}

	words := strings.Split(line, " ")
	if len(words) != 3 {
		return Declaration{}, false
	}
	if !identifierRegex.MatchString(words[1]) || !identifierRegex.MatchString(words[2]) {
		return Declaration{}, false
	}
	return Declaration{Keyword: words[0], GLSLType: words[1], Name: words[2]}, true
}
