package rmsdf

import (
	"github.com/raymarch/rmsdf/glbuild"
	"github.com/raymarch/rmsdf/glbuild/glsllib"
	"github.com/soypat/geometry/ms3"
)

var (
	sphereKind    = glsllib.Sphere()
	cubeKind      = glsllib.Cube()
	planeKind     = glsllib.Plane()
	sinSphereKind = glsllib.SinSphere()
	vaseKind      = glsllib.Vase()
)

// SphereKind returns the distance function kind shared by all [Sphere] instances.
func SphereKind() glbuild.Kind { return sphereKind }

// CubeKind returns the distance function kind shared by all [Cube] instances.
func CubeKind() glbuild.Kind { return cubeKind }

// PlaneKind returns the distance function kind shared by all [Plane] instances.
func PlaneKind() glbuild.Kind { return planeKind }

// SinSphereKind returns the distance function kind shared by all [SinSphere] instances.
func SinSphereKind() glbuild.Kind { return sinSphereKind }

// VaseKind returns the distance function kind shared by all [Vase] instances.
func VaseKind() glbuild.Kind { return vaseKind }

// Kinds returns the kinds of all primitives of the package.
func Kinds() []glbuild.Kind {
	return []glbuild.Kind{sphereKind, cubeKind, planeKind, sinSphereKind, vaseKind}
}

// Sphere is a sphere uploaded to the GPU as a vec4 (center, radius).
type Sphere struct {
	name   string
	Center ms3.Vec
	Radius float32
}

// NewSphere creates a sphere named name. The name is the sphere's GLSL uniform.
func (bld *Builder) NewSphere(name string, center ms3.Vec, r float32) *Sphere {
	bld.checkName(name)
	if r < 0 {
		bld.shapeErrorf("negative sphere radius %g", r)
	}
	return &Sphere{name: name, Center: center, Radius: r}
}

func (s *Sphere) Name() string { return s.name }

func (s *Sphere) Kind() glbuild.Kind { return sphereKind }

func (s *Sphere) AppendUniforms(dst []glbuild.Uniform) []glbuild.Uniform {
	return append(dst, sphereKind.Uniform(s.name, s))
}

func (s *Sphere) AppendCall(b []byte, evalPoint string) []byte {
	return sphereKind.AppendCall(b, evalPoint, s.name)
}

func (s *Sphere) ForEachChild(userData any, fn func(userData any, s *glbuild.Shape) error) error {
	return nil
}

func (s *Sphere) SetUniforms(u glbuild.UniformSetter) {
	u.SetUniform4f(s.name, s.Center.X, s.Center.Y, s.Center.Z, s.Radius)
}

// Cube is an axis aligned cube uploaded to the GPU as a vec4 (center, half-size).
type Cube struct {
	name   string
	Center ms3.Vec
	// Size is half the cube's side length.
	Size float32
}

// NewCube creates a cube named name with side length 2*size.
func (bld *Builder) NewCube(name string, center ms3.Vec, size float32) *Cube {
	bld.checkName(name)
	if size < 0 {
		bld.shapeErrorf("negative cube size %g", size)
	}
	return &Cube{name: name, Center: center, Size: size}
}

func (c *Cube) Name() string { return c.name }

func (c *Cube) Kind() glbuild.Kind { return cubeKind }

func (c *Cube) AppendUniforms(dst []glbuild.Uniform) []glbuild.Uniform {
	return append(dst, cubeKind.Uniform(c.name, c))
}

func (c *Cube) AppendCall(b []byte, evalPoint string) []byte {
	return cubeKind.AppendCall(b, evalPoint, c.name)
}

func (c *Cube) ForEachChild(userData any, fn func(userData any, s *glbuild.Shape) error) error {
	return nil
}

func (c *Cube) SetUniforms(u glbuild.UniformSetter) {
	u.SetUniform4f(c.name, c.Center.X, c.Center.Y, c.Center.Z, c.Size)
}

// Plane is the horizontal plane y=Height, uploaded to the GPU as a float.
type Plane struct {
	name   string
	Height float32
}

// NewPlane creates a horizontal plane named name at height y.
func (bld *Builder) NewPlane(name string, y float32) *Plane {
	bld.checkName(name)
	return &Plane{name: name, Height: y}
}

func (p *Plane) Name() string { return p.name }

func (p *Plane) Kind() glbuild.Kind { return planeKind }

func (p *Plane) AppendUniforms(dst []glbuild.Uniform) []glbuild.Uniform {
	return append(dst, planeKind.Uniform(p.name, p))
}

func (p *Plane) AppendCall(b []byte, evalPoint string) []byte {
	return planeKind.AppendCall(b, evalPoint, p.name)
}

func (p *Plane) ForEachChild(userData any, fn func(userData any, s *glbuild.Shape) error) error {
	return nil
}

func (p *Plane) SetUniforms(u glbuild.UniformSetter) {
	u.SetUniform1f(p.name, p.Height)
}

// SinSphere is a sphere whose surface ripples along x over time.
// It is repeated in space every 25 units.
type SinSphere struct {
	name   string
	Center ms3.Vec
	Radius float32
}

// NewSinSphere creates a rippling sphere named name.
func (bld *Builder) NewSinSphere(name string, center ms3.Vec, r float32) *SinSphere {
	bld.checkName(name)
	if r < 0 {
		bld.shapeErrorf("negative sin-sphere radius %g", r)
	}
	return &SinSphere{name: name, Center: center, Radius: r}
}

func (s *SinSphere) Name() string { return s.name }

func (s *SinSphere) Kind() glbuild.Kind { return sinSphereKind }

func (s *SinSphere) AppendUniforms(dst []glbuild.Uniform) []glbuild.Uniform {
	return append(dst, sinSphereKind.Uniform(s.name, s))
}

func (s *SinSphere) AppendCall(b []byte, evalPoint string) []byte {
	return sinSphereKind.AppendCall(b, evalPoint, s.name)
}

func (s *SinSphere) ForEachChild(userData any, fn func(userData any, s *glbuild.Shape) error) error {
	return nil
}

func (s *SinSphere) SetUniforms(u glbuild.UniformSetter) {
	u.SetUniform4f(s.name, s.Center.X, s.Center.Y, s.Center.Z, s.Radius)
}

// Vase is a box that flares out and twists along y.
// It is repeated in space every 25 units.
type Vase struct {
	name   string
	Center ms3.Vec
	Size   float32
}

// NewVase creates a vase named name.
func (bld *Builder) NewVase(name string, center ms3.Vec, size float32) *Vase {
	bld.checkName(name)
	if size <= 0 {
		bld.shapeErrorf("zero or negative vase size %g", size)
	}
	return &Vase{name: name, Center: center, Size: size}
}

func (v *Vase) Name() string { return v.name }

func (v *Vase) Kind() glbuild.Kind { return vaseKind }

func (v *Vase) AppendUniforms(dst []glbuild.Uniform) []glbuild.Uniform {
	return append(dst, vaseKind.Uniform(v.name, v))
}

func (v *Vase) AppendCall(b []byte, evalPoint string) []byte {
	return vaseKind.AppendCall(b, evalPoint, v.name)
}

func (v *Vase) ForEachChild(userData any, fn func(userData any, s *glbuild.Shape) error) error {
	return nil
}

func (v *Vase) SetUniforms(u glbuild.UniformSetter) {
	u.SetUniform4f(v.name, v.Center.X, v.Center.Y, v.Center.Z, v.Size)
}
