// Package glsllib holds the GLSL sources of the ray marcher: the distance
// function of every primitive kind and the vertex and fragment shader templates.
package glsllib

import (
	_ "embed"

	"github.com/raymarch/rmsdf/glbuild"
)

//go:embed sphere.glsl
var sphereSrc []byte

// Sphere is the distance function of a sphere with center xyz and radius w:
//
//	float SphereDist(vec3 p, vec4 sphereObj)
func Sphere() glbuild.Kind {
	return mustKind("Sphere", sphereSrc)
}

//go:embed cube.glsl
var cubeSrc []byte

// Cube is the distance function of an axis aligned cube with center xyz and half-size w:
//
//	float CubeDist(vec3 p, vec4 cubeObj)
func Cube() glbuild.Kind {
	return mustKind("Cube", cubeSrc)
}

//go:embed plane.glsl
var planeSrc []byte

// Plane is the distance function of the horizontal plane at height planeY:
//
//	float PlaneDist(vec3 p, float planeY)
func Plane() glbuild.Kind {
	return mustKind("Plane", planeSrc)
}

//go:embed sinsphere.glsl
var sinSphereSrc []byte

// SinSphere is the distance function of a sphere with a time animated sine
// ripple along x, repeated every 25 units:
//
//	float SinSphereDist(vec3 p, vec4 sphereObj)
//
// It requires wrapSpace and u_Time from the fragment template.
func SinSphere() glbuild.Kind {
	return mustKind("SinSphere", sinSphereSrc)
}

//go:embed vase.glsl
var vaseSrc []byte

// Vase is the distance function of a box flared and twisted along y,
// repeated every 25 units:
//
//	float VaseDist(vec3 p, vec4 cubeObj)
//
// It requires wrapSpace and Rotate from the fragment template.
func Vase() glbuild.Kind {
	return mustKind("Vase", vaseSrc)
}

// Kinds returns all primitive kinds of the library.
func Kinds() []glbuild.Kind {
	return []glbuild.Kind{Sphere(), Cube(), Plane(), SinSphere(), Vase()}
}

//go:embed fragment.glsl
var fragmentSrc []byte

// FragmentTemplate returns a new ray marching fragment shader template with the
// uniform, distance function and scene distance markers unresolved.
func FragmentTemplate() *glbuild.Template {
	return glbuild.NewTemplate(fragmentSrc)
}

//go:embed vertex.glsl
var vertexSrc []byte

// VertexSource returns the full screen quad vertex shader.
func VertexSource() []byte {
	return append([]byte(nil), vertexSrc...)
}

func mustKind(key string, src []byte) glbuild.Kind {
	k, err := glbuild.MakeKind(key, src)
	if err != nil {
		panic(err)
	}
	return k
}
