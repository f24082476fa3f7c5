package glbuild

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Markers delimiting the insertion points of a fragment shader template.
// Each must appear exactly once in a raw template. They are GLSL comments so
// a template with unresolved markers is still lexically valid GLSL.
const (
	MarkerUniforms      = "/*<uniforms>*/"
	MarkerDistFunctions = "/*<dist_functions>*/"
	MarkerSceneDist     = "/*<scene_dist_code>*/"
)

// DefaultEvalPoint is the name of the vec3 variable the scene distance function
// is evaluated at inside the template.
const DefaultEvalPoint = "p"

// DefaultBlendUniform is the global smooth-minimum control uniform shared by the scene fold
// and the Unioned/Intersected combinators.
const DefaultBlendUniform = "u_SmoothMinValue"

var (
	ErrMarkerNotFound   = errors.New("template marker not found")
	ErrEmptyScene       = errors.New("no objects registered in scene")
	ErrUniformCollision = errors.New("uniform name collision")
	ErrKindConflict     = errors.New("conflicting distance function definitions for kind")
	ErrInvalidName      = errors.New("invalid GLSL identifier")
)

// Shape is a node of a scene graph that can generate the GLSL needed to evaluate
// its signed distance. Primitives additionally implement [Primitive].
type Shape interface {
	// Name returns the unique identifier of the shape. For shapes that own
	// GPU parameters it is also the GLSL uniform name.
	Name() string
	// AppendUniforms appends the uniforms this shape and its children own to dst,
	// left child first, then right child, then the shape's own uniforms.
	AppendUniforms(dst []Uniform) []Uniform
	// AppendCall appends a GLSL float expression evaluating the signed distance from
	// evalPoint (a vec3 expression) to the shape.
	AppendCall(b []byte, evalPoint string) []byte
	// ForEachChild iterates over the shape's direct children.
	// Primitives have none, combinators have exactly two.
	ForEachChild(userData any, fn func(userData any, s *Shape) error) error
	// SetUniforms uploads the shape's current parameters.
	SetUniforms(u UniformSetter)
}

// Primitive is a [Shape] whose call expression invokes its [Kind]'s distance function.
type Primitive interface {
	Shape
	Kind() Kind
}

// UniformSetter uploads named uniform values to a compiled program.
type UniformSetter interface {
	SetUniform1f(name string, v float32)
	SetUniform4f(name string, v0, v1, v2, v3 float32)
}

// Uniform is a single GLSL uniform declaration owned by a shape.
type Uniform struct {
	Type string
	Name string
	// Owner is the shape that declared the uniform. Two uniforms with the same name
	// and owner are the same declaration reached twice through a shared shape.
	Owner Shape
}

// AppendDecl appends `uniform <type> <name>;\n` to b.
func (u Uniform) AppendDecl(b []byte) []byte {
	b = append(b, "uniform "...)
	b = append(b, u.Type...)
	b = append(b, ' ')
	b = append(b, u.Name...)
	b = append(b, ";\n"...)
	return b
}

// AppendUniformDecls appends the uniform declarations of s to b.
func AppendUniformDecls(b []byte, s Shape) []byte {
	for _, u := range s.AppendUniforms(nil) {
		b = u.AppendDecl(b)
	}
	return b
}

// Kind describes a primitive shape family and the GLSL distance function shared by all
// its instances. The function takes the evaluation point and the instance parameters:
//
//	float <Key>Dist(vec3 p, <ParamType> params)
type Kind struct {
	key       string
	funcName  string
	paramType string
	source    []byte
}

// MakeKind parses a GLSL distance function definition for the primitive kind key.
// The function must be named key+"Dist" and take exactly a vec3 and one parameter argument.
func MakeKind(key string, def []byte) (Kind, error) {
	if !IsIdentifier(key) {
		return Kind{}, fmt.Errorf("kind key %q: %w", key, ErrInvalidName)
	}
	def = bytes.TrimSpace(def)
	fnNameEnd := bytes.IndexByte(def, '(')
	fnNameStart := bytes.IndexByte(def, ' ')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd {
		return Kind{}, errors.New("unable to parse distance function name")
	}
	if !bytes.HasPrefix(def, []byte("float ")) {
		return Kind{}, errors.New("distance function must return float")
	}
	name := string(bytes.TrimSpace(def[fnNameStart:fnNameEnd]))
	if name != key+"Dist" {
		return Kind{}, fmt.Errorf("distance function for kind %q must be named %sDist, got %q", key, key, name)
	}
	argsEnd := bytes.IndexByte(def, ')')
	if argsEnd < fnNameEnd {
		return Kind{}, errors.New("unterminated distance function argument list")
	}
	args := strings.Split(string(def[fnNameEnd+1:argsEnd]), ",")
	if len(args) != 2 {
		return Kind{}, fmt.Errorf("distance function %s takes 2 arguments, got %d", name, len(args))
	}
	point := strings.Fields(args[0])
	param := strings.Fields(args[1])
	if len(point) != 2 || point[0] != "vec3" || len(param) != 2 {
		return Kind{}, fmt.Errorf("distance function %s must have signature (vec3, <type>)", name)
	}
	if bytes.Count(def, []byte("{")) != bytes.Count(def, []byte("}")) || !bytes.HasSuffix(def, []byte("}")) {
		return Kind{}, fmt.Errorf("distance function %s has unbalanced braces", name)
	}
	return Kind{
		key:       key,
		funcName:  name,
		paramType: param[0],
		source:    def,
	}, nil
}

// Key returns the stable identifier used to deduplicate the kind's definition.
func (k Kind) Key() string { return k.key }

// FuncName returns the GLSL distance function name.
func (k Kind) FuncName() string { return k.funcName }

// ParamType returns the GLSL type of the instance parameter uniform.
func (k Kind) ParamType() string { return k.paramType }

// AppendDefinition appends the GLSL distance function definition followed by a newline.
func (k Kind) AppendDefinition(b []byte) []byte {
	b = append(b, k.source...)
	b = append(b, '\n')
	return b
}

// Definition returns the GLSL distance function definition.
func (k Kind) Definition() string { return string(k.source) }

// AppendCall appends `<Key>Dist(<evalPoint>, <uniformName>)`.
func (k Kind) AppendCall(b []byte, evalPoint, uniformName string) []byte {
	b = append(b, k.funcName...)
	b = append(b, '(')
	b = append(b, evalPoint...)
	b = append(b, ", "...)
	b = append(b, uniformName...)
	b = append(b, ')')
	return b
}

// Uniform returns the instance uniform for a shape of this kind named name.
func (k Kind) Uniform(name string, owner Shape) Uniform {
	return Uniform{Type: k.paramType, Name: name, Owner: owner}
}

// IsZero reports whether k is the zero Kind.
func (k Kind) IsZero() bool { return k.key == "" }

func (k Kind) equal(other Kind) bool {
	return k.key == other.key && k.paramType == other.paramType && bytes.Equal(k.source, other.source)
}

// AppendSmin appends `smin(<a>, <b>, <k>)`.
func AppendSmin(b []byte, a, bexpr, k string) []byte {
	b = append(b, "smin("...)
	b = append(b, a...)
	b = append(b, ", "...)
	b = append(b, bexpr...)
	b = append(b, ", "...)
	b = append(b, k...)
	b = append(b, ')')
	return b
}

// IsIdentifier reports whether name is a valid GLSL identifier not reserved by the GL.
func IsIdentifier(name string) bool {
	if name == "" || strings.HasPrefix(name, "gl_") || strings.Contains(name, "__") {
		return false
	}
	for i, c := range name {
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && i > 0) {
			return false
		}
	}
	return true
}

// AppendAllNodes BFS iterates over all of root's descendants and appends all nodes
// found to dst, root first. Shared nodes are appended every time they are reached.
func AppendAllNodes(dst []Shape, root Shape) ([]Shape, error) {
	if root == nil {
		return dst, errors.New("nil shape")
	}
	var userData any
	nilChild := errors.New("got nil child in AppendAllNodes")
	start := len(dst)
	dst = append(dst, root)
	for next := start; next < len(dst); next++ {
		err := dst[next].ForEachChild(userData, func(userData any, s *Shape) error {
			if s == nil || *s == nil {
				return nilChild
			}
			if len(dst)-start > maxNodes {
				return fmt.Errorf("scene graph exceeds %d nodes, possible cycle", maxNodes)
			}
			dst = append(dst, *s)
			return nil
		})
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}

const maxNodes = 1 << 16

func forEachNodeDFS(s Shape, fnEnter, fnExit func(s Shape) error) error {
	err := fnEnter(s)
	if err != nil {
		return err
	}
	err = s.ForEachChild(nil, func(userData any, child *Shape) error {
		return forEachNodeDFS(*child, fnEnter, fnExit)
	})
	if err != nil {
		return err
	}
	return fnExit(s)
}

func countDirectChildren(s Shape) (directChildren int) {
	s.ForEachChild(nil, func(userData any, _ *Shape) error {
		directChildren++
		return nil
	})
	return directChildren
}

// FormatShape returns a compact description of the shape tree, i.e: "Intersected(Sphere,Cube)".
func FormatShape(sh Shape) string {
	if sh == nil {
		panic("nil shape")
	}
	prevWasPrimitive := false
	var sb strings.Builder
	err := forEachNodeDFS(sh, func(s Shape) error {
		if prevWasPrimitive {
			sb.WriteByte(',')
		}
		tp := reflect.TypeOf(s)
		if tp.Kind() == reflect.Pointer {
			tp = tp.Elem()
		}
		sb.WriteString(tp.Name())
		if countDirectChildren(s) != 0 {
			sb.WriteByte('(')
		}
		prevWasPrimitive = false
		return nil
	}, func(s Shape) error {
		isPrimitive := countDirectChildren(s) == 0
		if !isPrimitive {
			sb.WriteByte(')')
		}
		prevWasPrimitive = true
		return nil
	})
	if err != nil {
		return err.Error()
	}
	return sb.String()
}
