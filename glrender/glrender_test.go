package glrender

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"testing"

	"github.com/raymarch/rmsdf"
	"github.com/raymarch/rmsdf/glbuild"
	"github.com/raymarch/rmsdf/gleval"
	"github.com/soypat/geometry/ms3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	loc    int32
	values []float32
}

type fakeHandle struct {
	locs    map[string]int32
	queries map[string]int
	uploads []upload
	bound   bool
	deleted bool
}

func newFakeHandle(names ...string) *fakeHandle {
	h := &fakeHandle{locs: make(map[string]int32), queries: make(map[string]int)}
	for i, name := range names {
		h.locs[name] = int32(i)
	}
	return h
}

func (h *fakeHandle) UniformLocation(name string) int32 {
	h.queries[name]++
	loc, ok := h.locs[name]
	if !ok {
		return NotFound
	}
	return loc
}

func (h *fakeHandle) up(loc int32, v ...float32)                  { h.uploads = append(h.uploads, upload{loc, v}) }
func (h *fakeHandle) Uniform1f(loc int32, v float32)              { h.up(loc, v) }
func (h *fakeHandle) Uniform2f(loc int32, v0, v1 float32)         { h.up(loc, v0, v1) }
func (h *fakeHandle) Uniform3f(loc int32, v0, v1, v2 float32)     { h.up(loc, v0, v1, v2) }
func (h *fakeHandle) Uniform4f(loc int32, v0, v1, v2, v3 float32) { h.up(loc, v0, v1, v2, v3) }
func (h *fakeHandle) Uniform1i(loc int32, v int32)                { h.up(loc, float32(v)) }
func (h *fakeHandle) Bind()                                       { h.bound = true }
func (h *fakeHandle) Unbind()                                     { h.bound = false }
func (h *fakeHandle) Delete()                                     { h.deleted = true }

func TestProgramUniformCache(t *testing.T) {
	h := newFakeHandle("u_A", "u_B")
	prog := NewProgram(h)
	for i := 0; i < 3; i++ {
		prog.SetUniform1f("u_A", float32(i))
		prog.SetUniform3f("u_B", 1, 2, 3)
	}
	assert.Equal(t, 1, h.queries["u_A"])
	assert.Equal(t, 1, h.queries["u_B"])
	assert.Equal(t, 2, prog.Lookups())
	require.Len(t, h.uploads, 6)
	assert.Equal(t, upload{0, []float32{2}}, h.uploads[4])
	assert.Equal(t, upload{1, []float32{1, 2, 3}}, h.uploads[5])
}

func TestProgramMissingUniform(t *testing.T) {
	var logbuf bytes.Buffer
	rmsdf.SetLogger(slog.New(slog.NewTextHandler(&logbuf, nil)))
	t.Cleanup(func() { rmsdf.SetLogger(nil) })

	h := newFakeHandle("u_A")
	prog := NewProgram(h)
	prog.SetUniform4f("u_Missing", 1, 2, 3, 4)
	prog.SetUniform4f("u_Missing", 1, 2, 3, 4)
	prog.SetUniform2f("u_Missing", 1, 2)
	assert.Equal(t, NotFound, prog.UniformLocation("u_Missing"))
	assert.Equal(t, 1, h.queries["u_Missing"], "missing uniforms are looked up once")
	assert.Empty(t, h.uploads)
	assert.Equal(t, 1, bytes.Count(logbuf.Bytes(), []byte("uniform not found in program")))
	assert.Contains(t, logbuf.String(), "u_Missing")
	assert.Contains(t, logbuf.String(), "level=WARN")
}

func TestProgramLifecycle(t *testing.T) {
	h := newFakeHandle("u_EnableShadows")
	prog := NewProgram(h)
	prog.Bind()
	assert.True(t, h.bound)
	prog.SetUniformBool("u_EnableShadows", true)
	prog.SetUniformBool("u_EnableShadows", false)
	prog.SetUniform1i("u_EnableShadows", 7)
	assert.Equal(t, []upload{{0, []float32{1}}, {0, []float32{0}}, {0, []float32{7}}}, h.uploads)
	prog.Unbind()
	assert.False(t, h.bound)
	prog.Delete()
	assert.True(t, h.deleted)
	assert.Same(t, h, prog.Handle())
}

func TestProgramUploadsShapes(t *testing.T) {
	var bld rmsdf.Builder
	sphere := bld.NewSphere("u_SphereObj", ms3.Vec{X: 1, Y: 2, Z: 3}, 0.5)
	h := newFakeHandle("u_SphereObj")
	var setter glbuild.UniformSetter = NewProgram(h)
	sphere.SetUniforms(setter)
	assert.Equal(t, []upload{{0, []float32{1, 2, 3, 0.5}}}, h.uploads)
}

func TestSnapshot(t *testing.T) {
	var bld rmsdf.Builder
	sphere := bld.NewSphere("u_S", ms3.Vec{Z: 5}, 1)
	scene, err := rmsdf.NewSceneSDF([]glbuild.Shape{sphere})
	require.NoError(t, err)
	env := &gleval.Env{SmoothMin: 0.5}
	img, err := Snapshot(scene, SnapshotConfig{
		Width:    16,
		Height:   16,
		LightPos: ms3.Vec{},
	}, env)
	require.NoError(t, err)
	assert.Greater(t, img.RGBAAt(8, 8).R, uint8(200), "sphere center faces the light")
	assert.Equal(t, uint8(0), img.RGBAAt(0, 0).R, "corner rays miss the scene")
	assert.Zero(t, env.Float.InUse())
	assert.Zero(t, env.V3.InUse())

	_, err = Snapshot(scene, SnapshotConfig{}, env)
	assert.Error(t, err)
	_, err = Snapshot(scene, SnapshotConfig{Width: 1, Height: 1}, nil)
	assert.Error(t, err)
}

func TestSnapshotYaw(t *testing.T) {
	var bld rmsdf.Builder
	sphere := bld.NewSphere("u_S", ms3.Vec{X: 5}, 1)
	scene, err := rmsdf.NewSceneSDF([]glbuild.Shape{sphere})
	require.NoError(t, err)
	cfg := SnapshotConfig{Width: 9, Height: 9, LightPos: ms3.Vec{}}
	img, err := Snapshot(scene, cfg, &gleval.Env{})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), img.RGBAAt(4, 4).R, "sphere is to the side of the camera")

	// Forward after a quarter turn about Y points toward +X.
	cfg.CameraRotY = 3.14159265 / 2
	img, err = Snapshot(scene, cfg, &gleval.Env{})
	require.NoError(t, err)
	assert.Greater(t, img.RGBAAt(4, 4).R, uint8(200))
}

func TestShadows(t *testing.T) {
	var bld rmsdf.Builder
	plane := bld.NewPlane("u_P", 0)
	sphere := bld.NewSphere("u_S", ms3.Vec{Y: 2}, 1)
	scene, err := rmsdf.NewSceneSDF([]glbuild.Shape{plane, sphere})
	require.NoError(t, err)
	env := &gleval.Env{SmoothMin: 0.1}
	r := snapshotRenderer{
		cfg: SnapshotConfig{
			LightPos: ms3.Vec{Y: 10},
			Shadows:  true,
			March:    gleval.DefaultMarchConfig(),
		},
		env:    env,
		hitPos: []ms3.Vec{{}, {X: 5}},
	}
	diffuse, err := r.light(scene)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, diffuse[0], 1e-2, "point under the sphere is occluded")
	assert.InDelta(t, 0.894, diffuse[1], 1e-2)

	r.cfg.Shadows = false
	diffuse, err = r.light(scene)
	require.NoError(t, err)
	assert.InDelta(t, 1, diffuse[0], 1e-2)
}

func TestDistanceSlice(t *testing.T) {
	var bld rmsdf.Builder
	sphere := bld.NewSphere("u_S", ms3.Vec{}, 1)
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	err := DistanceSlice(sphere, img, SliceConfig{Min: [2]float32{-2, -2}, Max: [2]float32{2, 2}}, &gleval.Env{})
	require.NoError(t, err)
	inside := img.RGBAAt(10, 10)
	outside := img.RGBAAt(0, 0)
	assert.Greater(t, int(inside.B), int(inside.R), "interior is blue")
	assert.Greater(t, int(outside.R), int(outside.B), "exterior is orange")

	err = DistanceSlice(sphere, img, SliceConfig{Min: [2]float32{2, 2}, Max: [2]float32{-2, -2}}, &gleval.Env{})
	assert.Error(t, err)
}

func TestShadeGradient(t *testing.T) {
	shade := ShadeGradient(color.RGBA{B: 255, A: 255}, color.RGBA{R: 255, A: 255})
	assert.Equal(t, color.RGBA{B: 255, A: 255}, shade(0))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, shade(1))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, shade(-3), "diffuse is clamped")
	assert.Equal(t, color.Gray{Y: 255}, ShadeGamma(1))
	assert.Equal(t, color.Gray{}, ShadeGamma(0))
}

func TestDrawCaption(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 30))
	require.NoError(t, DrawCaption(img, "rmsdf", image.Pt(4, 20), color.White))
	lit := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			lit++
		}
	}
	assert.Greater(t, lit, 10)
	w, err := CaptionWidth("rmsdf")
	require.NoError(t, err)
	assert.Greater(t, w, 0)
	assert.Less(t, w, 120)
}
