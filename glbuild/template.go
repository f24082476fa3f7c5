package glbuild

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Template is a GLSL source text containing insertion markers.
// Markers are resolved by substitution. Content is accumulated at a marker
// by re-appending the marker after the inserted content so that later
// insertions at the same marker keep registration order.
type Template struct {
	buf []byte
}

// NewTemplate returns a template holding a copy of src.
func NewTemplate(src []byte) *Template {
	return &Template{buf: append([]byte(nil), src...)}
}

// LoadTemplate reads a template from r. On failure the returned template is nil.
func LoadTemplate(r io.Reader) (*Template, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading shader template: %w", err)
	}
	return &Template{buf: src}, nil
}

// LoadTemplateFile reads the template at path. On failure the returned template is nil.
func LoadTemplateFile(path string) (*Template, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return LoadTemplate(fp)
}

// Substitute replaces the first occurrence of marker with replacement.
// It reports false and leaves the template untouched if marker is not present.
func (t *Template) Substitute(marker, replacement string) bool {
	if marker == "" {
		return false
	}
	idx := bytes.Index(t.buf, []byte(marker))
	if idx < 0 {
		return false
	}
	tail := t.buf[idx+len(marker):]
	out := make([]byte, 0, idx+len(replacement)+len(tail))
	out = append(out, t.buf[:idx]...)
	out = append(out, replacement...)
	out = append(out, tail...)
	t.buf = out
	return true
}

// Accumulate inserts content just before marker, leaving the marker in place
// for subsequent insertions. Equivalent to Substitute(marker, content+marker).
func (t *Template) Accumulate(marker, content string) bool {
	return t.Substitute(marker, content+marker)
}

// Resolve removes marker from the template once nothing else will be inserted at it.
func (t *Template) Resolve(marker string) bool {
	return t.Substitute(marker, "")
}

// Count returns the number of non-overlapping occurrences of marker.
func (t *Template) Count(marker string) int {
	if marker == "" {
		return 0
	}
	return bytes.Count(t.buf, []byte(marker))
}

// Validate checks each marker is present exactly once.
func (t *Template) Validate(markers ...string) error {
	for _, marker := range markers {
		n := t.Count(marker)
		if n == 0 {
			return fmt.Errorf("%q: %w", marker, ErrMarkerNotFound)
		} else if n > 1 {
			return fmt.Errorf("marker %q found %d times in template, want exactly one", marker, n)
		}
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Template) Clone() *Template {
	return NewTemplate(t.buf)
}

// Bytes returns the template text. The returned slice aliases the template buffer
// and must not be modified.
func (t *Template) Bytes() []byte { return t.buf }

func (t *Template) String() string { return string(t.buf) }

// WriteTo writes the template text to w.
func (t *Template) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(t.buf)
	return int64(n), err
}

// glslTypes are the types a global declaration in a template may start with.
var glslTypes = map[string]bool{
	"void": true, "bool": true, "int": true, "uint": true, "float": true, "double": true,
	"vec2": true, "vec3": true, "vec4": true, "ivec2": true, "ivec3": true, "ivec4": true,
	"bvec2": true, "bvec3": true, "bvec4": true, "uvec2": true, "uvec3": true, "uvec4": true,
	"mat2": true, "mat3": true, "mat4": true, "sampler2D": true, "sampler3D": true,
}

// DeclaredNames returns the global names t declares, in order of appearance:
// uniforms, inputs, outputs, constants, functions and #define macros.
// Comments, function parameters and function bodies are skipped.
func (t *Template) DeclaredNames() []string {
	toks := tokenizeGLSL(t.buf)
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	braces, parens := 0, 0
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok {
		case "{":
			braces++
			continue
		case "}":
			braces--
			continue
		case "(":
			parens++
			continue
		case ")":
			parens--
			continue
		case "#define":
			if i+1 < len(toks) {
				add(toks[i+1])
			}
			continue
		}
		if braces != 0 || parens != 0 || !glslTypes[tok] {
			continue
		}
		// type name[, name...] up to the first token that is not part of the declarator list.
		for j := i + 1; j < len(toks) && IsIdentifier(toks[j]) && !glslTypes[toks[j]]; {
			add(toks[j])
			j++
			if j < len(toks) && toks[j] == "[" {
				for j < len(toks) && toks[j] != "]" {
					j++
				}
				j++
			}
			if j >= len(toks) || toks[j] != "," {
				break
			}
			j++
		}
	}
	return names
}

// tokenizeGLSL splits src into identifiers, numbers, preprocessor directives
// and single byte punctuation. Comments and whitespace are dropped.
func tokenizeGLSL(src []byte) []string {
	var toks []string
	isIdent := func(c byte) bool {
		return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
	}
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := bytes.Index(src[i+2:], []byte("*/"))
			if end < 0 {
				return toks
			}
			i += end + 4
		case c == '#':
			start := i
			i++
			for i < len(src) && isIdent(src[i]) {
				i++
			}
			toks = append(toks, string(src[start:i]))
		case isIdent(c):
			start := i
			for i < len(src) && (isIdent(src[i]) || src[i] == '.') {
				i++
			}
			toks = append(toks, string(src[start:i]))
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			toks = append(toks, string(c))
			i++
		}
	}
	return toks
}
