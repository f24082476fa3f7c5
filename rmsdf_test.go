package rmsdf_test

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/raymarch/rmsdf"
	"github.com/raymarch/rmsdf/glbuild"
	"github.com/raymarch/rmsdf/glbuild/glsllib"
	"github.com/raymarch/rmsdf/gleval"
	"github.com/soypat/geometry/ms3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func call(s glbuild.Shape) string { return string(s.AppendCall(nil, "p")) }

func decls(s glbuild.Shape) string { return string(glbuild.AppendUniformDecls(nil, s)) }

func TestPrimitiveCalls(t *testing.T) {
	var bld rmsdf.Builder
	for _, test := range []struct {
		shape    glbuild.Primitive
		wantCall string
		wantDecl string
	}{
		{bld.NewSphere("u_SphereObj", ms3.Vec{Y: 1, Z: 6}, 1), "SphereDist(p, u_SphereObj)", "uniform vec4 u_SphereObj;\n"},
		{bld.NewCube("u_CubeObj", ms3.Vec{X: -3, Y: 0.75, Z: 6}, 0.75), "CubeDist(p, u_CubeObj)", "uniform vec4 u_CubeObj;\n"},
		{bld.NewPlane("u_PlaneObj", 0), "PlaneDist(p, u_PlaneObj)", "uniform float u_PlaneObj;\n"},
		{bld.NewSinSphere("u_Sin", ms3.Vec{}, 1), "SinSphereDist(p, u_Sin)", "uniform vec4 u_Sin;\n"},
		{bld.NewVase("u_Vase", ms3.Vec{}, 1), "VaseDist(p, u_Vase)", "uniform vec4 u_Vase;\n"},
	} {
		assert.Equal(t, test.wantCall, call(test.shape))
		assert.Equal(t, test.wantDecl, decls(test.shape))
		assert.Equal(t, test.shape.Kind().FuncName(), test.wantCall[:strings.IndexByte(test.wantCall, '(')])
	}
	assert.Len(t, rmsdf.Kinds(), len(glsllib.Kinds()))
	assert.Equal(t, "Sphere", rmsdf.SphereKind().Key())
	assert.Equal(t, "Plane", rmsdf.PlaneKind().Key())
}

func TestCombinatorCalls(t *testing.T) {
	var bld rmsdf.Builder
	a := bld.NewSphere("u_A", ms3.Vec{}, 1)
	b := bld.NewCube("u_B", ms3.Vec{}, 1)

	assert.Equal(t, "max(SphereDist(p, u_A), -(CubeDist(p, u_B)))", call(bld.Crop("crop", a, b)))
	assert.Equal(t, "smin(SphereDist(p, u_A), CubeDist(p, u_B), -u_SmoothMinValue)", call(bld.Intersect("inter", a, b)))
	assert.Equal(t, "smin(SphereDist(p, u_A), CubeDist(p, u_B), u_SmoothMinValue)", call(bld.Union("union", a, b)))
	assert.Equal(t, "mix(SphereDist(p, u_A), CubeDist(p, u_B), clamp(u_Grade, 0.0, 1.0))", call(bld.Interpolate("u_Grade", a, b, 0.5)))
}

func TestIntersectIsNegatedUnion(t *testing.T) {
	var bld rmsdf.Builder
	a := bld.NewSphere("u_A", ms3.Vec{}, 1)
	b := bld.NewPlane("u_B", 0)
	union := call(bld.Union("union", a, b))
	inter := call(bld.Intersect("inter", a, b))
	assert.NotEqual(t, union, inter)
	assert.Equal(t, union, strings.Replace(inter, "-"+glbuild.DefaultBlendUniform, glbuild.DefaultBlendUniform, 1))
}

func TestCustomBlendOnlyAffectsFold(t *testing.T) {
	var bld rmsdf.Builder
	a := bld.NewSphere("u_A", ms3.Vec{}, 1)
	b := bld.NewCube("u_B", ms3.Vec{}, 1)
	c := bld.NewSphere("u_C", ms3.Vec{}, 1)
	reg := glbuild.NewRegistrar()
	reg.Blend = "u_Blend"
	require.NoError(t, reg.RegisterObject(bld.Union("u_U", a, b)))
	require.NoError(t, reg.RegisterObject(c))
	out, err := reg.Build(glsllib.FragmentTemplate())
	require.NoError(t, err)
	assert.Contains(t, out.String(),
		"return smin(SphereDist(p, u_C), smin(SphereDist(p, u_A), CubeDist(p, u_B), u_SmoothMinValue), u_Blend);")

	for _, name := range []string{"u_Blend", glbuild.DefaultBlendUniform} {
		reg := glbuild.NewRegistrar()
		reg.Blend = "u_Blend"
		require.NoError(t, reg.RegisterObject(bld.NewSphere(name, ms3.Vec{}, 1)))
		_, err := reg.Build(glsllib.FragmentTemplate())
		assert.ErrorIs(t, err, glbuild.ErrUniformCollision, name)
	}
}

func TestCombinatorUniformOrder(t *testing.T) {
	var bld rmsdf.Builder
	a := bld.NewSphere("u_A", ms3.Vec{}, 1)
	b := bld.NewCube("u_B", ms3.Vec{}, 1)
	c := bld.NewPlane("u_C", 0)
	tree := bld.Interpolate("u_Grade", bld.Crop("crop", a, b), c, 0)
	assert.Equal(t, "uniform vec4 u_A;\nuniform vec4 u_B;\nuniform float u_C;\nuniform float u_Grade;\n", decls(tree))

	ca, cb := tree.Children()
	assert.Equal(t, "crop", ca.Name())
	assert.Same(t, c, cb)
}

func TestBuilderErrors(t *testing.T) {
	bld := rmsdf.Builder{NoDimensionPanic: true}
	bld.NewSphere("bad name", ms3.Vec{}, -1)
	bld.NewCube("u_C", ms3.Vec{}, -1)
	bld.NewVase("u_V", ms3.Vec{}, 0)
	s := bld.NewSphere("u_S", ms3.Vec{}, 1)
	bld.Interpolate("u_I", s, s, 2)
	err := bld.Err()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"bad name", "sphere radius", "cube size", "vase size", "grade"} {
		assert.Contains(t, msg, want)
	}

	var panicky rmsdf.Builder
	assert.Panics(t, func() { panicky.NewSphere("u_S", ms3.Vec{}, -1) })
	assert.Panics(t, func() { panicky.Union("u_U", s, nil) })
	assert.NoError(t, panicky.Err())
}

func TestSmin(t *testing.T) {
	assert.InDelta(t, -0.25, rmsdf.Smin(0, 0, 1), tol)
	assert.InDelta(t, 1, rmsdf.Smin(1, 5, 0.5), tol, "far apart values are not blended")
	assert.InDelta(t, 5, rmsdf.Smin(1, 5, -0.5), tol, "negative blend is a smooth maximum")
	assert.Equal(t, float32(-2), rmsdf.Smin(-2, 3, 0))
	for _, v := range [][2]float32{{0, 0}, {0.1, 0.3}, {-1, 0.2}} {
		assert.GreaterOrEqual(t, rmsdf.Smin(v[0], v[1], -0.5), math32.Max(v[0], v[1]))
		assert.LessOrEqual(t, rmsdf.Smin(v[0], v[1], 0.5), math32.Min(v[0], v[1]))
	}
}

func eval(t *testing.T, s any, env *gleval.Env, pos ...ms3.Vec) []float32 {
	t.Helper()
	sdf, err := gleval.AssertSDF3(s)
	require.NoError(t, err)
	dist := make([]float32, len(pos))
	require.NoError(t, sdf.Evaluate(pos, dist, env))
	return dist
}

func TestPrimitiveEvaluate(t *testing.T) {
	var bld rmsdf.Builder
	env := &gleval.Env{SmoothMin: 0.5}
	sphere := bld.NewSphere("u_S", ms3.Vec{Y: 1, Z: 6}, 1)
	d := eval(t, sphere, env, ms3.Vec{Y: 1, Z: 6}, ms3.Vec{Y: 3, Z: 6})
	assert.InDelta(t, -1, d[0], tol)
	assert.InDelta(t, 1, d[1], tol)

	cube := bld.NewCube("u_C", ms3.Vec{X: 1}, 0.5)
	d = eval(t, cube, env, ms3.Vec{X: 1}, ms3.Vec{X: 3}, ms3.Vec{X: 2.5, Y: 1.5})
	assert.InDelta(t, -0.5, d[0], tol)
	assert.InDelta(t, 1.5, d[1], tol)
	assert.InDelta(t, math32.Sqrt2, d[2], tol)

	plane := bld.NewPlane("u_P", -1)
	d = eval(t, plane, env, ms3.Vec{X: 5, Y: 2, Z: 9})
	assert.InDelta(t, 3, d[0], tol)

	vase := bld.NewVase("u_V", ms3.Vec{}, 1)
	d = eval(t, vase, env, ms3.Vec{}, ms3.Vec{Y: 5})
	assert.Less(t, d[0], float32(0))
	assert.Greater(t, d[1], float32(0))
}

func TestSinSphereRequiresEnv(t *testing.T) {
	var bld rmsdf.Builder
	s := bld.NewSinSphere("u_S", ms3.Vec{}, 1)
	dist := make([]float32, 1)
	assert.Error(t, s.Evaluate([]ms3.Vec{{}}, dist, nil))

	env := &gleval.Env{}
	d := eval(t, s, env, ms3.Vec{}, ms3.Vec{Z: 25})
	assert.InDelta(t, -0.5, d[0], tol)
	assert.InDelta(t, d[0], d[1], 1e-3, "space repeats every 25 units")
}

func TestCombinatorEvaluate(t *testing.T) {
	var bld rmsdf.Builder
	env := &gleval.Env{SmoothMin: 0.25}
	a := bld.NewSphere("u_A", ms3.Vec{}, 1)
	b := bld.NewSphere("u_B", ms3.Vec{X: 1}, 1)
	pos := []ms3.Vec{{X: -0.5}, {X: 0.5}, {X: 3}}
	da := eval(t, a, env, pos...)
	db := eval(t, b, env, pos...)

	crop := eval(t, bld.Crop("crop", a, b), env, pos...)
	inter := eval(t, bld.Intersect("inter", a, b), env, pos...)
	union := eval(t, bld.Union("union", a, b), env, pos...)
	interp := eval(t, bld.Interpolate("u_G", a, b, 0.25), env, pos...)
	for i := range pos {
		assert.InDelta(t, math32.Max(da[i], -db[i]), crop[i], tol)
		assert.InDelta(t, rmsdf.Smin(da[i], db[i], -0.25), inter[i], tol)
		assert.InDelta(t, rmsdf.Smin(da[i], db[i], 0.25), union[i], tol)
		assert.InDelta(t, 0.75*da[i]+0.25*db[i], interp[i], tol)
	}
	assert.Zero(t, env.Float.InUse(), "scratch buffers must be released")
}

func TestSceneSDFFoldOrder(t *testing.T) {
	var bld rmsdf.Builder
	plane := bld.NewPlane("u_PlaneObj", 0)
	sphere := bld.NewSphere("u_SphereObj", ms3.Vec{Y: 1, Z: 6}, 1)
	cube := bld.NewCube("u_CubeObj", ms3.Vec{X: -3, Y: 0.75, Z: 6}, 0.75)
	scene, err := rmsdf.NewSceneSDF([]glbuild.Shape{plane, sphere, cube})
	require.NoError(t, err)

	const k = 0.8
	env := &gleval.Env{SmoothMin: k}
	pos := []ms3.Vec{{X: -1.5, Y: 0.5, Z: 6}, {Y: 0.2, Z: 6}, {X: 4, Y: 3}}
	got := eval(t, scene, env, pos...)
	dp := eval(t, plane, env, pos...)
	ds := eval(t, sphere, env, pos...)
	dc := eval(t, cube, env, pos...)
	for i := range pos {
		want := rmsdf.Smin(rmsdf.Smin(dc[i], ds[i], k), dp[i], k)
		assert.InDelta(t, want, got[i], tol)
	}

	_, err = rmsdf.NewSceneSDF(nil)
	assert.ErrorIs(t, err, glbuild.ErrEmptyScene)
}

func TestComposeDemoScene(t *testing.T) {
	var bld rmsdf.Builder
	plane := bld.NewPlane("u_PlaneObj", 0)
	sphere := bld.NewSphere("u_SphereObj", ms3.Vec{Y: 1, Z: 6}, 1)
	cube := bld.NewCube("u_CubeObj", ms3.Vec{X: -3, Y: 0.75, Z: 6}, 0.75)
	reg := glbuild.NewRegistrar()
	for _, obj := range []glbuild.Shape{plane, sphere, cube} {
		require.NoError(t, reg.RegisterObject(obj))
	}
	out, err := reg.Build(glsllib.FragmentTemplate())
	require.NoError(t, err)
	src := out.String()
	assert.Contains(t, src, "return smin(smin(CubeDist(p, u_CubeObj), SphereDist(p, u_SphereObj), u_SmoothMinValue), PlaneDist(p, u_PlaneObj), u_SmoothMinValue);")
	for _, name := range []string{"u_PlaneObj", "u_SphereObj", "u_CubeObj"} {
		assert.Equal(t, 1, strings.Count(src, " "+name+";\n"), name)
	}
}

func TestComposeSharedChild(t *testing.T) {
	var bld rmsdf.Builder
	sphere := bld.NewSphere("u_SphereObj", ms3.Vec{}, 1)
	cube := bld.NewCube("u_CubeObj", ms3.Vec{}, 1)
	other := bld.NewSphere("u_Other", ms3.Vec{X: 2}, 1)
	reg := glbuild.NewRegistrar()
	require.NoError(t, reg.RegisterObject(sphere))
	require.NoError(t, reg.RegisterObject(bld.Intersect("inter", sphere, cube)))
	require.NoError(t, reg.RegisterObject(bld.Interpolate("u_Grade", other, sphere, 0.5)))
	out, err := reg.Build(glsllib.FragmentTemplate())
	require.NoError(t, err)
	src := out.String()
	assert.Equal(t, 1, strings.Count(src, "uniform vec4 u_SphereObj;"))
	assert.Equal(t, 1, strings.Count(src, "float SphereDist("))
	assert.Equal(t, 1, strings.Count(src, "uniform float u_Grade;"))

	clash := glbuild.NewRegistrar()
	require.NoError(t, clash.RegisterObject(sphere))
	require.NoError(t, clash.RegisterObject(bld.NewCube("u_SphereObj", ms3.Vec{}, 1)))
	_, err = clash.Build(glsllib.FragmentTemplate())
	assert.ErrorIs(t, err, glbuild.ErrUniformCollision)
}

type setterLog map[string][]float32

func (s setterLog) SetUniform1f(name string, v float32) { s[name] = []float32{v} }
func (s setterLog) SetUniform4f(name string, v0, v1, v2, v3 float32) {
	s[name] = []float32{v0, v1, v2, v3}
}

func TestSetUniforms(t *testing.T) {
	var bld rmsdf.Builder
	a := bld.NewSphere("u_A", ms3.Vec{X: 1, Y: 2, Z: 3}, 4)
	b := bld.NewPlane("u_B", -2)
	log := make(setterLog)
	bld.Interpolate("u_G", a, b, 0.3).SetUniforms(log)
	assert.Equal(t, setterLog{
		"u_A": {1, 2, 3, 4},
		"u_B": {-2},
		"u_G": {0.3},
	}, log)
}

type fakeWidgets struct {
	labels []string
	set    map[string]float32
}

func (w *fakeWidgets) Begin(string) bool           { return true }
func (w *fakeWidgets) End()                        {}
func (w *fakeWidgets) Text(string)                 {}
func (w *fakeWidgets) Button(string) bool          { return false }
func (w *fakeWidgets) SameLine()                   {}
func (w *fakeWidgets) Checkbox(string, *bool) bool { return false }
func (w *fakeWidgets) SliderFloat(label string, v *float32, min, max float32) bool {
	w.labels = append(w.labels, label)
	nv, ok := w.set[label]
	if ok {
		*v = nv
	}
	return ok
}

func TestEditors(t *testing.T) {
	var bld rmsdf.Builder
	cube := bld.NewCube("u_CubeObj", ms3.Vec{}, 1)
	ui := &fakeWidgets{set: map[string]float32{"x": 2, "size": 3}}
	cube.RenderEditor(ui)
	assert.Equal(t, []string{"x", "y", "z", "size"}, ui.labels)
	assert.Equal(t, ms3.Vec{X: 2}, cube.Center)
	assert.Equal(t, float32(3), cube.Size)
	assert.Equal(t, "u_CubeObj", cube.SectionName())

	vase := bld.NewVase("u_Vase", ms3.Vec{}, 1)
	vase.RenderEditor(&fakeWidgets{set: map[string]float32{"size": 0}})
	assert.Greater(t, vase.Size, float32(0))

	interp := bld.Interpolate("u_G", cube, vase, 0)
	ui = &fakeWidgets{set: map[string]float32{"grade": 0.7}}
	interp.RenderEditor(ui)
	assert.Equal(t, []string{"grade"}, ui.labels)
	assert.Equal(t, float32(0.7), interp.Grade)

	var _ rmsdf.Editable = bld.NewSinSphere("u_S", ms3.Vec{}, 1)
	_, isEditable := any(bld.NewPlane("u_P", 0)).(rmsdf.Editable)
	assert.False(t, isEditable, "planes are not editable")
}

func TestNormals(t *testing.T) {
	var bld rmsdf.Builder
	sphere := bld.NewSphere("u_S", ms3.Vec{}, 1)
	pos := []ms3.Vec{{X: 2}, {Y: -2}, {Z: 2}}
	normals := make([]ms3.Vec, len(pos))
	env := &gleval.Env{}
	require.NoError(t, gleval.NormalsCentralDiff(sphere, pos, normals, 1e-3, env))
	for i, n := range normals {
		unit := ms3.Scale(1/ms3.Norm(n), n)
		want := ms3.Scale(0.5, pos[i])
		assert.InDelta(t, want.X, unit.X, 1e-3)
		assert.InDelta(t, want.Y, unit.Y, 1e-3)
		assert.InDelta(t, want.Z, unit.Z, 1e-3)
	}
	assert.Zero(t, env.V3.InUse())
}
