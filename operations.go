package rmsdf

import (
	"github.com/raymarch/rmsdf/glbuild"
)

// binary holds the two children of a combinator. Children may be shared with
// other combinators or be top-level scene objects themselves.
type binary struct {
	name string
	a, b glbuild.Shape
}

func (bld *Builder) makeBinary(op, name string, a, b glbuild.Shape) binary {
	if a == nil || b == nil {
		bld.nilsdf(op)
	}
	bld.checkName(name)
	return binary{name: name, a: a, b: b}
}

func (c *binary) Name() string { return c.name }

// Children returns the combinator's two operands.
func (c *binary) Children() (a, b glbuild.Shape) { return c.a, c.b }

func (c *binary) ForEachChild(userData any, fn func(userData any, s *glbuild.Shape) error) error {
	err := fn(userData, &c.a)
	if err != nil {
		return err
	}
	return fn(userData, &c.b)
}

func (c *binary) AppendUniforms(dst []glbuild.Uniform) []glbuild.Uniform {
	dst = c.a.AppendUniforms(dst)
	return c.b.AppendUniforms(dst)
}

func (c *binary) SetUniforms(u glbuild.UniformSetter) {
	c.a.SetUniforms(u)
	c.b.SetUniforms(u)
}

// Cropped is the portion of A outside of B.
type Cropped struct {
	binary
}

// Crop returns the portion of a that lies outside b, max(a, -b).
func (bld *Builder) Crop(name string, a, b glbuild.Shape) *Cropped {
	return &Cropped{binary: bld.makeBinary("Crop", name, a, b)}
}

func (c *Cropped) AppendCall(b []byte, evalPoint string) []byte {
	b = append(b, "max("...)
	b = c.a.AppendCall(b, evalPoint)
	b = append(b, ", -("...)
	b = c.b.AppendCall(b, evalPoint)
	b = append(b, "))"...)
	return b
}

// Intersected is the rounded intersection of A and B. The rounding radius is
// the scene's global smoothing value.
type Intersected struct {
	binary
}

// Intersect returns the rounded intersection of a and b.
func (bld *Builder) Intersect(name string, a, b glbuild.Shape) *Intersected {
	return &Intersected{binary: bld.makeBinary("Intersect", name, a, b)}
}

func (c *Intersected) AppendCall(b []byte, evalPoint string) []byte {
	return appendSminCall(b, &c.binary, evalPoint, "-"+glbuild.DefaultBlendUniform)
}

// Unioned is the smooth union of A and B. The blend radius is the scene's
// global smoothing value.
type Unioned struct {
	binary
}

// Union returns the smooth union of a and b.
func (bld *Builder) Union(name string, a, b glbuild.Shape) *Unioned {
	return &Unioned{binary: bld.makeBinary("Union", name, a, b)}
}

func (c *Unioned) AppendCall(b []byte, evalPoint string) []byte {
	return appendSminCall(b, &c.binary, evalPoint, glbuild.DefaultBlendUniform)
}

func appendSminCall(b []byte, c *binary, evalPoint, k string) []byte {
	b = append(b, "smin("...)
	b = c.a.AppendCall(b, evalPoint)
	b = append(b, ", "...)
	b = c.b.AppendCall(b, evalPoint)
	b = append(b, ", "...)
	b = append(b, k...)
	b = append(b, ')')
	return b
}

// Interpolated linearly blends the distance of A into B as Grade goes from 0 to 1.
// The grade is uploaded as a float uniform named after the shape.
type Interpolated struct {
	binary
	Grade float32
}

// Interpolate returns the linear blend of a and b by grade in [0,1].
func (bld *Builder) Interpolate(name string, a, b glbuild.Shape, grade float32) *Interpolated {
	if grade < 0 || grade > 1 {
		bld.shapeErrorf("interpolation grade %g outside [0,1]", grade)
	}
	return &Interpolated{binary: bld.makeBinary("Interpolate", name, a, b), Grade: grade}
}

func (c *Interpolated) AppendUniforms(dst []glbuild.Uniform) []glbuild.Uniform {
	dst = c.binary.AppendUniforms(dst)
	return append(dst, glbuild.Uniform{Type: "float", Name: c.name, Owner: c})
}

func (c *Interpolated) AppendCall(b []byte, evalPoint string) []byte {
	b = append(b, "mix("...)
	b = c.a.AppendCall(b, evalPoint)
	b = append(b, ", "...)
	b = c.b.AppendCall(b, evalPoint)
	b = append(b, ", clamp("...)
	b = append(b, c.name...)
	b = append(b, ", 0.0, 1.0))"...)
	return b
}

func (c *Interpolated) SetUniforms(u glbuild.UniformSetter) {
	c.binary.SetUniforms(u)
	u.SetUniform1f(c.name, c.Grade)
}
