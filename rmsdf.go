// Package rmsdf defines the shapes of a ray marched signed distance field scene.
// Every shape generates the GLSL uniforms and call expression the scene shader
// is composed of (see [glbuild.Registrar]) and can be evaluated on the CPU
// with the same semantics.
package rmsdf

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/raymarch/rmsdf/glbuild"
)

// Builder wraps all shape construction logic.
// Provides error handling strategies with panics or error accumulation during shape generation.
type Builder struct {
	NoDimensionPanic bool
	accumErrs        []error
}

func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	if !bld.NoDimensionPanic {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

func (*Builder) nilsdf(msg string) {
	panic("nil shape argument: " + msg)
}

func (bld *Builder) checkName(name string) {
	if !glbuild.IsIdentifier(name) {
		bld.shapeErrorf("shape name %q is not a valid GLSL identifier", name)
	}
}

func minf(a, b float32) float32 {
	return math32.Min(a, b)
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}

func absf(a float32) float32 {
	return math32.Abs(a)
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}

func mixf(x, y, a float32) float32 {
	return x*(1-a) + y*a
}

// Smin is the polynomial smooth minimum of a and b with blend k, the CPU
// counterpart of the shader's smin. A negative k yields a smooth maximum.
func Smin(a, b, k float32) float32 {
	if k == 0 {
		return minf(a, b)
	}
	h := clampf(0.5+0.5*(b-a)/k, 0, 1)
	return mixf(b, a, h) - k*h*(1-h)
}

// glslMod is GLSL's mod: x - y*floor(x/y).
func glslMod(x, y float32) float32 {
	return x - y*math32.Floor(x/y)
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := clampf((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
