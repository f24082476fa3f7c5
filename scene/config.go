package scene

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"github.com/raymarch/rmsdf"
	"github.com/raymarch/rmsdf/glbuild"
	"github.com/soypat/geometry/ms3"
	"gopkg.in/yaml.v3"
)

// Shape kinds accepted in a [ShapeConfig].
const (
	KindSphere      = "sphere"
	KindCube        = "cube"
	KindPlane       = "plane"
	KindSinSphere   = "sinsphere"
	KindVase        = "vase"
	KindCrop        = "crop"
	KindIntersect   = "intersect"
	KindUnion       = "union"
	KindInterpolate = "interpolate"
)

var (
	ErrUnknownKind = errors.New("unknown shape kind")
	ErrUnknownRef  = errors.New("reference to undefined shape")
	ErrRefCycle    = errors.New("shape reference cycle")
)

// Config describes a scene and its window. It is read from TOML or YAML with [LoadConfig].
type Config struct {
	Window    WindowConfig  `toml:"window" yaml:"window"`
	Shaders   ShaderConfig  `toml:"shaders" yaml:"shaders"`
	Camera    CameraConfig  `toml:"camera" yaml:"camera"`
	Light     [3]float32    `toml:"light" yaml:"light"`
	SmoothMin float32       `toml:"smooth_min" yaml:"smooth_min"`
	Shadows   bool          `toml:"shadows" yaml:"shadows"`
	Shapes    []ShapeConfig `toml:"shapes" yaml:"shapes"`
	// Objects names the top level shapes in registration order.
	Objects []string `toml:"objects" yaml:"objects"`
	// Editables names the shapes listed in the object editor.
	Editables []string `toml:"editables" yaml:"editables"`
}

type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

// ShaderConfig optionally overrides the embedded shaders with files.
type ShaderConfig struct {
	Vertex   string `toml:"vertex" yaml:"vertex"`
	Fragment string `toml:"fragment" yaml:"fragment"`
}

type CameraConfig struct {
	Position [3]float32 `toml:"position" yaml:"position"`
	RotY     float32    `toml:"rot_y" yaml:"rot_y"`
	Velocity float32    `toml:"velocity" yaml:"velocity"`
}

// ShapeConfig defines a named shape. Primitives use Center and Size
// (radius of spheres, half side of cubes), planes use Height and
// combinators reference two other shapes by name with A and B.
type ShapeConfig struct {
	Name   string     `toml:"name" yaml:"name"`
	Kind   string     `toml:"kind" yaml:"kind"`
	Center [3]float32 `toml:"center,omitempty" yaml:"center,omitempty"`
	Size   float32    `toml:"size,omitempty" yaml:"size,omitempty"`
	Height float32    `toml:"height,omitempty" yaml:"height,omitempty"`
	A      string     `toml:"a,omitempty" yaml:"a,omitempty"`
	B      string     `toml:"b,omitempty" yaml:"b,omitempty"`
	Grade  float32    `toml:"grade,omitempty" yaml:"grade,omitempty"`
}

// DefaultConfig returns the demo scene: a floor plane with primitives of
// every kind and one example of each combinator.
func DefaultConfig() *Config {
	s := DefaultSettings()
	return &Config{
		Window: WindowConfig{Title: "Ray Marching", Width: s.Width, Height: s.Height},
		Camera: CameraConfig{Position: s.Camera.Position, Velocity: s.Camera.Velocity},
		Light:  s.LightPos,
		Shapes: []ShapeConfig{
			{Name: "u_PlaneObj", Kind: KindPlane},
			{Name: "u_SphereObj", Kind: KindSphere, Center: [3]float32{0, 1, 6}, Size: 1},
			{Name: "u_CubeObj", Kind: KindCube, Center: [3]float32{-3, 0.75, 6}, Size: 0.75},
			{Name: "u_SinSphereObj", Kind: KindSinSphere, Center: [3]float32{3, 1, 6}, Size: 0.75},
			{Name: "u_VaseObj", Kind: KindVase, Center: [3]float32{3, 1, 6}, Size: 0.5},
			{Name: "u_Morph", Kind: KindInterpolate, A: "u_SinSphereObj", B: "u_VaseObj", Grade: 0.5},
			{Name: "u_BlockObj", Kind: KindCube, Center: [3]float32{-3, 1, 12}, Size: 1},
			{Name: "u_HoleObj", Kind: KindSphere, Center: [3]float32{-3, 1.75, 12}, Size: 1.2},
			{Name: "u_Carved", Kind: KindCrop, A: "u_BlockObj", B: "u_HoleObj"},
			{Name: "u_LensA", Kind: KindSphere, Center: [3]float32{2.5, 1, 12}, Size: 1},
			{Name: "u_LensB", Kind: KindSphere, Center: [3]float32{3.5, 1, 12}, Size: 1},
			{Name: "u_Lens", Kind: KindIntersect, A: "u_LensA", B: "u_LensB"},
		},
		Objects:   []string{"u_PlaneObj", "u_SphereObj", "u_CubeObj", "u_Morph", "u_Carved", "u_Lens"},
		Editables: []string{"u_SphereObj", "u_CubeObj", "u_SinSphereObj", "u_VaseObj", "u_Morph", "u_HoleObj", "u_LensA"},
	}
}

// LoadConfig reads a scene configuration. The format is chosen by the file
// extension: .toml, .yaml or .yml. Unknown fields are an error. Window,
// camera and light fields absent from the file keep the defaults of
// [DefaultConfig] while the scene itself is taken from the file only.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Shapes, cfg.Objects, cfg.Editables = nil, nil, nil
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

// Settings returns the runtime settings of cfg, reading shader overrides from disk.
func (cfg *Config) Settings() (Settings, error) {
	s := Settings{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Camera: Camera{
			Position: mgl32.Vec3(cfg.Camera.Position),
			RotY:     cfg.Camera.RotY,
			Velocity: cfg.Camera.Velocity,
		},
		LightPos:  mgl32.Vec3(cfg.Light),
		SmoothMin: cfg.SmoothMin,
		Shadows:   cfg.Shadows,
	}
	if cfg.Shaders.Vertex != "" {
		src, err := os.ReadFile(cfg.Shaders.Vertex)
		if err != nil {
			return s, fmt.Errorf("vertex shader: %w", err)
		}
		s.Vertex = src
	}
	if cfg.Shaders.Fragment != "" {
		tmpl, err := glbuild.LoadTemplateFile(cfg.Shaders.Fragment)
		if err != nil {
			return s, fmt.Errorf("fragment template: %w", err)
		}
		s.Fragment = tmpl
	}
	return s, nil
}

// Resolve builds the configured shapes and returns the top level objects and
// editables in configuration order. A shape referenced from several places
// is built once and shared.
func (cfg *Config) Resolve() (objects []glbuild.Shape, editables []rmsdf.Editable, err error) {
	r := shapeResolver{
		bld:   rmsdf.Builder{NoDimensionPanic: true},
		defs:  make(map[string]*ShapeConfig, len(cfg.Shapes)),
		built: make(map[string]glbuild.Shape, len(cfg.Shapes)),
		state: make(map[string]uint8, len(cfg.Shapes)),
	}
	for i := range cfg.Shapes {
		sc := &cfg.Shapes[i]
		if _, dup := r.defs[sc.Name]; dup {
			return nil, nil, fmt.Errorf("shape %q defined twice", sc.Name)
		}
		r.defs[sc.Name] = sc
	}
	for _, name := range cfg.Objects {
		s, err := r.resolve(name)
		if err != nil {
			return nil, nil, err
		}
		objects = append(objects, s)
	}
	for _, name := range cfg.Editables {
		s, err := r.resolve(name)
		if err != nil {
			return nil, nil, err
		}
		e, ok := s.(rmsdf.Editable)
		if !ok {
			return nil, nil, fmt.Errorf("shape %q of kind %s is not editable", name, r.defs[name].Kind)
		}
		editables = append(editables, e)
	}
	if err := r.bld.Err(); err != nil {
		return nil, nil, err
	}
	return objects, editables, nil
}

// NewRuntime returns a Runtime with the configured scene registered.
func (cfg *Config) NewRuntime(backend Backend) (*Runtime, error) {
	s, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	objects, editables, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	r := New(backend, s)
	for _, obj := range objects {
		if err := r.RegisterObject(obj); err != nil {
			return nil, err
		}
	}
	for _, e := range editables {
		r.RegisterEditable(e)
	}
	return r, nil
}

const (
	unvisited uint8 = iota
	visiting
	done
)

type shapeResolver struct {
	bld   rmsdf.Builder
	defs  map[string]*ShapeConfig
	built map[string]glbuild.Shape
	state map[string]uint8
}

func (r *shapeResolver) resolve(name string) (glbuild.Shape, error) {
	sc, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRef, name)
	}
	switch r.state[name] {
	case done:
		return r.built[name], nil
	case visiting:
		return nil, fmt.Errorf("%w through %q", ErrRefCycle, name)
	}
	r.state[name] = visiting
	s, err := r.build(sc)
	if err != nil {
		return nil, err
	}
	r.state[name] = done
	r.built[name] = s
	return s, nil
}

func (r *shapeResolver) build(sc *ShapeConfig) (glbuild.Shape, error) {
	bld := &r.bld
	center := ms3.Vec{X: sc.Center[0], Y: sc.Center[1], Z: sc.Center[2]}
	switch sc.Kind {
	case KindSphere:
		return bld.NewSphere(sc.Name, center, sc.Size), nil
	case KindCube:
		return bld.NewCube(sc.Name, center, sc.Size), nil
	case KindPlane:
		return bld.NewPlane(sc.Name, sc.Height), nil
	case KindSinSphere:
		return bld.NewSinSphere(sc.Name, center, sc.Size), nil
	case KindVase:
		return bld.NewVase(sc.Name, center, sc.Size), nil
	case KindCrop, KindIntersect, KindUnion, KindInterpolate:
	default:
		return nil, fmt.Errorf("shape %q: %w %q", sc.Name, ErrUnknownKind, sc.Kind)
	}
	if sc.A == "" || sc.B == "" {
		return nil, fmt.Errorf("shape %q of kind %s needs both a and b", sc.Name, sc.Kind)
	}
	a, err := r.resolve(sc.A)
	if err != nil {
		return nil, fmt.Errorf("shape %q: %w", sc.Name, err)
	}
	b, err := r.resolve(sc.B)
	if err != nil {
		return nil, fmt.Errorf("shape %q: %w", sc.Name, err)
	}
	switch sc.Kind {
	case KindCrop:
		return bld.Crop(sc.Name, a, b), nil
	case KindIntersect:
		return bld.Intersect(sc.Name, a, b), nil
	case KindUnion:
		return bld.Union(sc.Name, a, b), nil
	default:
		return bld.Interpolate(sc.Name, a, b, sc.Grade), nil
	}
}
