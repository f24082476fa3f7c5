package glbuild

import (
	"errors"
	"fmt"
)

// Registrar is the build context of a scene shader. It records distance function
// kinds and top-level scene objects in registration order and composes them into
// a template with [Registrar.Build]. Build does not modify the registrar nor the
// template it receives, so a registrar may be built any number of times.
type Registrar struct {
	kinds   []Kind
	objects []Shape
	// EvalPoint is the vec3 variable scene objects are evaluated at. Defaults to [DefaultEvalPoint].
	EvalPoint string
	// Blend is the uniform controlling the smooth minimum of the scene fold. Defaults to [DefaultBlendUniform].
	// It only affects the fold: combinators blend with [DefaultBlendUniform], which stays reserved.
	Blend string
}

// NewRegistrar returns a Registrar using the default evaluation point and blend uniform.
func NewRegistrar() *Registrar {
	return &Registrar{
		EvalPoint: DefaultEvalPoint,
		Blend:     DefaultBlendUniform,
	}
}

// RegisterKind records a distance function kind. Kinds used by registered objects
// are discovered during Build so explicit registration only fixes emission order.
// Registering an identical kind twice is a no-op.
func (r *Registrar) RegisterKind(k Kind) error {
	if k.IsZero() {
		return errors.New("zero Kind")
	}
	kinds, err := appendKind(r.kinds, k)
	if err != nil {
		return err
	}
	r.kinds = kinds
	return nil
}

// RegisterObject appends a top-level scene object. The scene distance is the
// smooth minimum of all top-level objects.
func (r *Registrar) RegisterObject(s Shape) error {
	if s == nil {
		return errors.New("nil scene object")
	}
	if !IsIdentifier(s.Name()) {
		return fmt.Errorf("object name %q: %w", s.Name(), ErrInvalidName)
	}
	r.objects = append(r.objects, s)
	return nil
}

// Objects returns the registered top-level objects in registration order.
func (r *Registrar) Objects() []Shape {
	return append([]Shape(nil), r.objects...)
}

// Kinds returns the explicitly registered kinds in registration order.
func (r *Registrar) Kinds() []Kind {
	return append([]Kind(nil), r.kinds...)
}

// Build composes the registered scene into a copy of tmpl and returns it.
// Uniform declarations are accumulated per object in registration order, each
// kind's distance function is emitted once, and the objects' call expressions
// are folded into the scene distance function with [Fold].
// All three markers must be present exactly once in tmpl.
func (r *Registrar) Build(tmpl *Template) (*Template, error) {
	if tmpl == nil {
		return nil, errors.New("nil template")
	}
	if len(r.objects) == 0 {
		return nil, ErrEmptyScene
	}
	out := tmpl.Clone()
	err := out.Validate(MarkerUniforms, MarkerDistFunctions, MarkerSceneDist)
	if err != nil {
		return nil, err
	}
	kinds, err := r.collectKinds()
	if err != nil {
		return nil, err
	}
	uniforms, err := r.collectUniforms(r.reservedNames(out, kinds))
	if err != nil {
		return nil, err
	}

	var scratch []byte
	for _, u := range uniforms {
		scratch = u.AppendDecl(scratch[:0])
		if !out.Accumulate(MarkerUniforms, string(scratch)) {
			return nil, fmt.Errorf("uniform %s: %w", u.Name, ErrMarkerNotFound)
		}
	}
	for _, k := range kinds {
		scratch = k.AppendDefinition(scratch[:0])
		if !out.Accumulate(MarkerDistFunctions, string(scratch)) {
			return nil, fmt.Errorf("kind %s: %w", k.Key(), ErrMarkerNotFound)
		}
	}
	calls := make([]string, len(r.objects))
	for i, obj := range r.objects {
		calls[i] = string(obj.AppendCall(scratch[:0], r.evalPoint()))
	}
	expr, err := Fold(calls, r.blend())
	if err != nil {
		return nil, err
	}
	if !out.Substitute(MarkerSceneDist, "return "+expr+";") {
		return nil, fmt.Errorf("scene distance: %w", ErrMarkerNotFound)
	}
	if !out.Resolve(MarkerUniforms) || !out.Resolve(MarkerDistFunctions) {
		return nil, fmt.Errorf("resolving accumulators: %w", ErrMarkerNotFound)
	}
	return out, nil
}

// collectKinds returns explicitly registered kinds followed by kinds found
// walking the scene objects, each key once.
func (r *Registrar) collectKinds() (kinds []Kind, err error) {
	kinds = append(kinds, r.kinds...)
	var nodes []Shape
	for _, obj := range r.objects {
		nodes, err = AppendAllNodes(nodes[:0], obj)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", obj.Name(), err)
		}
		for _, node := range nodes {
			prim, ok := node.(Primitive)
			if !ok {
				continue
			}
			k := prim.Kind()
			if k.IsZero() {
				return nil, fmt.Errorf("primitive %s has no distance function kind", prim.Name())
			}
			kinds, err = appendKind(kinds, k)
			if err != nil {
				return nil, fmt.Errorf("primitive %s: %w", prim.Name(), err)
			}
		}
	}
	return kinds, nil
}

// glslBuiltins are built-in functions generated scene code may call.
var glslBuiltins = []string{
	"abs", "clamp", "cos", "cross", "distance", "dot", "exp", "floor", "fract",
	"length", "log", "max", "min", "mix", "mod", "normalize", "pow", "sign",
	"sin", "smoothstep", "sqrt", "step", "tan",
}

// reservedNames maps every name a uniform may not take to what declares it:
// the evaluation point, the blend uniform, the template's global declarations,
// the kinds' distance functions and GLSL built-in functions.
func (r *Registrar) reservedNames(tmpl *Template, kinds []Kind) map[string]string {
	reserved := make(map[string]string)
	for _, name := range glslBuiltins {
		reserved[name] = "a GLSL built-in function"
	}
	for _, name := range tmpl.DeclaredNames() {
		reserved[name] = "a template declaration"
	}
	for _, k := range kinds {
		reserved[k.FuncName()] = "the distance function of kind " + k.Key()
	}
	reserved[r.evalPoint()] = "the evaluation point"
	reserved[r.blend()] = "the blend uniform"
	reserved[DefaultBlendUniform] = "the combinator blend uniform"
	return reserved
}

// collectUniforms returns the uniforms of all objects in registration order.
// A uniform reached twice through a shared shape is returned once. Distinct
// shapes sharing a name and uniforms named like a reserved name are collisions.
func (r *Registrar) collectUniforms(reserved map[string]string) ([]Uniform, error) {
	owners := make(map[string]Shape)
	var nodes []Shape
	var err error
	for _, obj := range r.objects {
		nodes, err = AppendAllNodes(nodes[:0], obj)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			name := node.Name()
			if prev, ok := owners[name]; ok && prev != node {
				return nil, fmt.Errorf("shape name %q used by %s and %s: %w", name, FormatShape(prev), FormatShape(node), ErrUniformCollision)
			}
			owners[name] = node
		}
	}

	var uniforms []Uniform
	declared := make(map[string]Shape)
	for _, obj := range r.objects {
		for _, u := range obj.AppendUniforms(nil) {
			if !IsIdentifier(u.Name) {
				return nil, fmt.Errorf("uniform %q: %w", u.Name, ErrInvalidName)
			}
			if what, ok := reserved[u.Name]; ok {
				return nil, fmt.Errorf("uniform %q collides with %s: %w", u.Name, what, ErrUniformCollision)
			}
			owner, ok := declared[u.Name]
			if ok && owner == u.Owner {
				continue // Shared shape already declared.
			} else if ok {
				return nil, fmt.Errorf("uniform %q: %w", u.Name, ErrUniformCollision)
			}
			declared[u.Name] = u.Owner
			uniforms = append(uniforms, u)
		}
	}
	return uniforms, nil
}

func (r *Registrar) evalPoint() string {
	if r.EvalPoint == "" {
		return DefaultEvalPoint
	}
	return r.EvalPoint
}

func (r *Registrar) blend() string {
	if r.Blend == "" {
		return DefaultBlendUniform
	}
	return r.Blend
}

func appendKind(kinds []Kind, k Kind) ([]Kind, error) {
	for _, existing := range kinds {
		if existing.key != k.key {
			continue
		} else if !existing.equal(k) {
			return kinds, fmt.Errorf("kind %q: %w", k.key, ErrKindConflict)
		}
		return kinds, nil
	}
	return append(kinds, k), nil
}

// Fold reduces call expressions into a single smooth minimum expression.
// Calls are pushed onto a stack in order. The two topmost entries a (top) and
// b are popped and smin(a, b, blend) is pushed until one entry remains, so for
// calls [A, B, C] the result is smin(smin(C, B, blend), A, blend).
func Fold(calls []string, blend string) (string, error) {
	if len(calls) == 0 {
		return "", ErrEmptyScene
	}
	stack := append(make([]string, 0, len(calls)), calls...)
	var buf []byte
	for len(stack) > 1 {
		a := stack[len(stack)-1]
		b := stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		buf = AppendSmin(buf[:0], a, b, blend)
		stack = append(stack, string(buf))
	}
	return stack[0], nil
}
