package rmsdf

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/raymarch/rmsdf/glbuild"
	"github.com/raymarch/rmsdf/gleval"
	"github.com/soypat/geometry/ms3"
)

// wrapPeriod is the space repetition period of SinSphere and Vase.
const wrapPeriod = 25

func wrapSpace(p ms3.Vec, s float32) ms3.Vec {
	return ms3.Vec{
		X: glslMod(p.X+0.5*s, s) - 0.5*s,
		Y: glslMod(p.Y+0.5*s, s) - 0.5*s,
		Z: glslMod(p.Z+0.5*s, s) - 0.5*s,
	}
}

func boxDist(p ms3.Vec, size float32) float32 {
	dx := absf(p.X) - size
	dy := absf(p.Y) - size
	dz := absf(p.Z) - size
	outside := ms3.Vec{X: maxf(dx, 0), Y: maxf(dy, 0), Z: maxf(dz, 0)}
	return minf(maxf(dx, maxf(dy, dz)), 0) + ms3.Norm(outside)
}

func (s *Sphere) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	c, r := s.Center, s.Radius
	for i, p := range pos {
		dist[i] = ms3.Norm(ms3.Sub(p, c)) - r
	}
	return nil
}

func (c *Cube) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	center, size := c.Center, c.Size
	for i, p := range pos {
		dist[i] = boxDist(ms3.Sub(p, center), size)
	}
	return nil
}

func (pl *Plane) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	h := pl.Height
	for i, p := range pos {
		dist[i] = p.Y - h
	}
	return nil
}

func (s *SinSphere) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	env, err := gleval.GetEnv(userData)
	if err != nil {
		return err
	}
	t := env.Time
	c, r := s.Center, s.Radius
	for i, p := range pos {
		d := wrapSpace(ms3.Sub(p, c), wrapPeriod)
		dist[i] = (ms3.Norm(d) - r - math32.Sin(p.X*40+t*3)*0.05) * 0.5
	}
	return nil
}

func (v *Vase) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	c, w := v.Center, v.Size
	for i, p := range pos {
		p1 := wrapSpace(ms3.Sub(p, c), wrapPeriod)
		scale := mixf(1, 4, smoothstep(-w, w, p1.Y))
		p1.X *= scale
		p1.Z *= scale
		// Row vector times GLSL mat2(c, -s, s, c).
		sa, ca := math32.Sin(p1.Y), math32.Cos(p1.Y)
		p1.X, p1.Z = p1.X*ca-p1.Z*sa, p1.X*sa+p1.Z*ca
		dist[i] = boxDist(p1, w) / scale
	}
	return nil
}

func evaluateShape(s glbuild.Shape, pos []ms3.Vec, dist []float32, userData any) error {
	sdf, err := gleval.AssertSDF3(s)
	if err != nil {
		return err
	}
	return sdf.Evaluate(pos, dist, userData)
}

// evaluateChildren evaluates child a into d1 and child b into d2.
func (c *binary) evaluateChildren(pos []ms3.Vec, d1, d2 []float32, userData any) error {
	err := evaluateShape(c.a, pos, d1, userData)
	if err != nil {
		return err
	}
	return evaluateShape(c.b, pos, d2, userData)
}

func (c *Cropped) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	env, err := gleval.GetEnv(userData)
	if err != nil {
		return err
	}
	d2 := env.Float.Acquire(len(dist))
	defer env.Float.Release(d2)
	err = c.evaluateChildren(pos, dist, d2, userData)
	if err != nil {
		return err
	}
	for i := range dist {
		dist[i] = maxf(dist[i], -d2[i])
	}
	return nil
}

func (c *Intersected) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	env, err := gleval.GetEnv(userData)
	if err != nil {
		return err
	}
	d2 := env.Float.Acquire(len(dist))
	defer env.Float.Release(d2)
	err = c.evaluateChildren(pos, dist, d2, userData)
	if err != nil {
		return err
	}
	k := -env.SmoothMin
	for i := range dist {
		dist[i] = Smin(dist[i], d2[i], k)
	}
	return nil
}

func (c *Unioned) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	env, err := gleval.GetEnv(userData)
	if err != nil {
		return err
	}
	d2 := env.Float.Acquire(len(dist))
	defer env.Float.Release(d2)
	err = c.evaluateChildren(pos, dist, d2, userData)
	if err != nil {
		return err
	}
	k := env.SmoothMin
	for i := range dist {
		dist[i] = Smin(dist[i], d2[i], k)
	}
	return nil
}

func (c *Interpolated) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	env, err := gleval.GetEnv(userData)
	if err != nil {
		return err
	}
	d2 := env.Float.Acquire(len(dist))
	defer env.Float.Release(d2)
	err = c.evaluateChildren(pos, dist, d2, userData)
	if err != nil {
		return err
	}
	t := clampf(c.Grade, 0, 1)
	for i := range dist {
		dist[i] = mixf(dist[i], d2[i], t)
	}
	return nil
}

// SceneSDF is the CPU evaluation of a scene's distance function. Objects are
// blended with the same pairing order the composed shader uses.
type SceneSDF struct {
	objects []glbuild.Shape
}

// NewSceneSDF returns the scene distance of objects, given in registration order.
func NewSceneSDF(objects []glbuild.Shape) (*SceneSDF, error) {
	if len(objects) == 0 {
		return nil, glbuild.ErrEmptyScene
	}
	for _, obj := range objects {
		_, err := gleval.AssertSDF3(obj)
		if err != nil {
			return nil, err
		}
	}
	return &SceneSDF{objects: append([]glbuild.Shape(nil), objects...)}, nil
}

// Evaluate implements [gleval.SDF3]. The last object registered is blended
// with the one before it first, mirroring [glbuild.Fold].
func (s *SceneSDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(s.objects) == 0 {
		return errors.New("empty SceneSDF")
	}
	err := gleval.CheckBuffers(pos, dist)
	if err != nil {
		return err
	}
	env, err := gleval.GetEnv(userData)
	if err != nil {
		return err
	}
	last := len(s.objects) - 1
	err = evaluateShape(s.objects[last], pos, dist, userData)
	if err != nil {
		return err
	}
	if last == 0 {
		return nil
	}
	aux := env.Float.Acquire(len(dist))
	defer env.Float.Release(aux)
	k := env.SmoothMin
	for i := last - 1; i >= 0; i-- {
		err = evaluateShape(s.objects[i], pos, aux, userData)
		if err != nil {
			return err
		}
		for j := range dist {
			dist[j] = Smin(dist[j], aux[j], k)
		}
	}
	return nil
}
