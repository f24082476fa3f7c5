package glrender

import (
	"errors"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/raymarch/rmsdf/gleval"
	"github.com/soypat/geometry/ms3"
)

// SnapshotConfig configures a CPU rendering of a scene as seen by the ray marching fragment shader.
type SnapshotConfig struct {
	Width, Height int
	CameraPos     ms3.Vec
	// CameraRotY is the camera yaw in radians.
	CameraRotY float32
	LightPos   ms3.Vec
	Shadows    bool
	// March configures ray marching. The zero value uses [gleval.DefaultMarchConfig].
	March gleval.MarchConfig
	// Shade maps the diffuse light term in [0,1] to a pixel color. Defaults to [ShadeGamma].
	Shade func(diffuse float32) color.Color
	// Caption is drawn on the top left corner when not empty.
	Caption string
}

// Snapshot ray marches sdf on the CPU producing the image the fragment shader
// would render with the same camera, light and scene uniforms. Scene globals
// such as the smoothing value and time are read from env.
func Snapshot(sdf gleval.SDF3, cfg SnapshotConfig, env *gleval.Env) (*image.RGBA, error) {
	if sdf == nil {
		return nil, errors.New("nil SDF3")
	} else if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("invalid snapshot dimensions")
	} else if env == nil {
		return nil, errors.New("nil gleval.Env")
	}
	if cfg.March.MaxSteps == 0 {
		cfg.March = gleval.DefaultMarchConfig()
	}
	if cfg.Shade == nil {
		cfg.Shade = ShadeGamma
	}
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	r := snapshotRenderer{
		cfg:  cfg,
		env:  env,
		ro:   make([]ms3.Vec, cfg.Width),
		rd:   make([]ms3.Vec, cfg.Width),
		dist: make([]float32, cfg.Width),
	}
	for row := 0; row < cfg.Height; row++ {
		err := r.renderRow(sdf, img, row)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Caption != "" {
		err := DrawCaption(img, cfg.Caption, image.Pt(8, 20), color.White)
		if err != nil {
			return nil, err
		}
	}
	return img, nil
}

type snapshotRenderer struct {
	cfg  SnapshotConfig
	env  *gleval.Env
	ro   []ms3.Vec
	rd   []ms3.Vec
	dist []float32
	// Per row hit buffers.
	hitIdx  []int
	hitPos  []ms3.Vec
	normals []ms3.Vec
	lightRo []ms3.Vec
	lightRd []ms3.Vec
	lightD  []float32
}

// rayDir returns the direction of the ray through the pixel center (px, py),
// with py measured from the bottom of the image like gl_FragCoord.
func rayDir(px, py, width, height, yaw float32) ms3.Vec {
	u := (px - 0.5*width) / height
	v := (py - 0.5*height) / height
	d := mgl32.Vec3{u, v, 1}.Normalize()
	d = mgl32.Rotate3DY(yaw).Mul3x1(d)
	return ms3.Vec{X: d[0], Y: d[1], Z: d[2]}
}

func (r *snapshotRenderer) renderRow(sdf gleval.SDF3, img *image.RGBA, row int) error {
	cfg := r.cfg
	w, h := float32(cfg.Width), float32(cfg.Height)
	py := float32(cfg.Height-1-row) + 0.5
	for i := range r.ro {
		r.ro[i] = cfg.CameraPos
		r.rd[i] = rayDir(float32(i)+0.5, py, w, h, cfg.CameraRotY)
	}
	err := gleval.RayMarch(sdf, r.ro, r.rd, r.dist, cfg.March, r.env)
	if err != nil {
		return err
	}
	miss := cfg.Shade(0)
	r.hitIdx = r.hitIdx[:0]
	r.hitPos = r.hitPos[:0]
	for i, d := range r.dist {
		if d >= cfg.March.MaxDist {
			img.Set(i, row, miss)
			continue
		}
		r.hitIdx = append(r.hitIdx, i)
		r.hitPos = append(r.hitPos, ms3.Add(r.ro[i], ms3.Scale(d, r.rd[i])))
	}
	if len(r.hitIdx) == 0 {
		return nil
	}
	diffuse, err := r.light(sdf)
	if err != nil {
		return err
	}
	for k, i := range r.hitIdx {
		img.Set(i, row, cfg.Shade(diffuse[k]))
	}
	return nil
}

// light computes the diffuse term of every hit position, darkening positions
// occluded from the light when shadows are enabled.
func (r *snapshotRenderer) light(sdf gleval.SDF3) ([]float32, error) {
	cfg := r.cfg
	n := len(r.hitPos)
	r.normals = grow(r.normals, n)
	err := gleval.NormalsCentralDiff(sdf, r.hitPos, r.normals, 2e-3, r.env)
	if err != nil {
		return nil, err
	}
	r.lightRo = grow(r.lightRo, n)
	r.lightRd = grow(r.lightRd, n)
	diffuse := make([]float32, n)
	for k, p := range r.hitPos {
		nrm := unit(r.normals[k])
		r.normals[k] = nrm
		l := unit(ms3.Sub(cfg.LightPos, p))
		diffuse[k] = clamp(ms3.Dot(nrm, l), 0, 1)
		r.lightRo[k] = ms3.Add(p, ms3.Scale(cfg.March.SurfDist*2, nrm))
		r.lightRd[k] = l
	}
	if !cfg.Shadows {
		return diffuse, nil
	}
	r.lightD = grow(r.lightD, n)
	err = gleval.RayMarch(sdf, r.lightRo, r.lightRd, r.lightD, cfg.March, r.env)
	if err != nil {
		return nil, err
	}
	for k, p := range r.hitPos {
		if r.lightD[k] < ms3.Norm(ms3.Sub(cfg.LightPos, p)) {
			diffuse[k] *= 0.1
		}
	}
	return diffuse, nil
}

// SliceConfig configures [DistanceSlice].
type SliceConfig struct {
	// Y is the height of the horizontal slicing plane.
	Y float32
	// Min and Max are the XZ corners of the sliced window. Min maps to the image's top left.
	Min, Max [2]float32
	// Conv maps distance to color. Defaults to [ColorConversionInigoQuilez] with
	// a characteristic distance of a third of the window's diagonal.
	Conv func(float32) color.Color
}

// DistanceSlice renders the signed distance of sdf over a horizontal plane into img.
// It is a top down view useful to inspect blend regions between objects.
func DistanceSlice(sdf gleval.SDF3, img *image.RGBA, cfg SliceConfig, env *gleval.Env) error {
	bb := img.Bounds()
	dxi, dyi := bb.Dx(), bb.Dy()
	if dxi == 0 || dyi == 0 {
		return errors.New("empty image")
	}
	sx := cfg.Max[0] - cfg.Min[0]
	sz := cfg.Max[1] - cfg.Min[1]
	if sx <= 0 || sz <= 0 {
		return errors.New("invalid slice window")
	}
	conv := cfg.Conv
	if conv == nil {
		conv = ColorConversionInigoQuilez(math32.Hypot(sx, sz) / 3)
	}
	pos := make([]ms3.Vec, dxi)
	dist := make([]float32, dxi)
	for j := 0; j < dyi; j++ {
		z := cfg.Min[1] + sz*(float32(j)+0.5)/float32(dyi)
		for i := range pos {
			x := cfg.Min[0] + sx*(float32(i)+0.5)/float32(dxi)
			pos[i] = ms3.Vec{X: x, Y: cfg.Y, Z: z}
		}
		err := sdf.Evaluate(pos, dist, env)
		if err != nil {
			return err
		}
		for i, d := range dist {
			img.Set(bb.Min.X+i, bb.Min.Y+j, conv(d))
		}
	}
	return nil
}

func unit(v ms3.Vec) ms3.Vec {
	n := ms3.Norm(v)
	if n == 0 {
		return v
	}
	return ms3.Scale(1/n, v)
}

func grow[T any](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}
