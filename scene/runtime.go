// Package scene drives a ray marched scene: it registers shape kinds and
// objects, composes and compiles the fragment shader, moves the camera from
// key input and uploads the scene uniforms every frame.
package scene

import (
	"errors"
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/raymarch/rmsdf"
	"github.com/raymarch/rmsdf/glbuild"
	"github.com/raymarch/rmsdf/glbuild/glsllib"
	"github.com/raymarch/rmsdf/gleval"
	"github.com/raymarch/rmsdf/glrender"
	"github.com/soypat/geometry/ms3"
)

// MinSmoothMin is the smallest blend value uploaded to the shader. Smaller
// values make the shader's smooth minimum divide by zero.
const MinSmoothMin = 1e-4

const (
	turnRate        = math32.Pi / 2
	defaultVelocity = 7.5
	editorTitle     = "Object Editor"
	helpText        = "\nUse WASD to move through X and Z axes\nUse Shift/Ctrl to move through Y axis\nUse <-/-> (arrows) to rotate the camera"
)

// Program is a compiled shader program. [*glrender.Program] implements it.
type Program interface {
	glbuild.UniformSetter
	SetUniform2f(name string, v0, v1 float32)
	SetUniform3f(name string, v0, v1, v2 float32)
	SetUniformBool(name string, b bool)
	Bind()
	Delete()
}

// Backend provides the GPU resources of a [Runtime]. Methods are called
// from the thread owning the GL context.
type Backend interface {
	// Compile links the vertex and fragment sources into a program.
	Compile(vertex, fragment []byte) (Program, error)
	// Draw draws the full screen quad with the bound program.
	Draw()
	// Release frees the quad and any other backend resources.
	Release()
}

// Camera is the scene's point of view. It moves along its yaw rotated axes.
type Camera struct {
	Position mgl32.Vec3
	// RotY is the yaw in radians.
	RotY float32
	// Velocity is the movement speed in units per second.
	Velocity float32

	move mgl32.Vec3
	turn float32
}

// Settings configures a new [Runtime].
type Settings struct {
	Width, Height int
	Camera        Camera
	LightPos      mgl32.Vec3
	SmoothMin     float32
	Shadows       bool
	// Vertex is the vertex shader source. Defaults to [glsllib.VertexSource].
	Vertex []byte
	// Fragment is the fragment template with the composition markers. Defaults to [glsllib.FragmentTemplate].
	Fragment *glbuild.Template
}

// DefaultSettings returns the window size, camera and light of the demo scene.
func DefaultSettings() Settings {
	return Settings{
		Width:  640,
		Height: 480,
		Camera: Camera{
			Position: mgl32.Vec3{0, 1, 0},
			Velocity: defaultVelocity,
		},
		LightPos: mgl32.Vec3{math32.Sin(40) * 3, 5 + math32.Cos(40)*3, 6},
	}
}

// Runtime owns a scene and its per frame state. It is driven by a host
// through OnCreate, OnUpdate, OnImGuiUpdate and OnKeyEvent, all called from
// the thread owning the GL context.
type Runtime struct {
	Camera    Camera
	LightPos  mgl32.Vec3
	SmoothMin float32
	Shadows   bool
	// Time is the elapsed scene time in seconds.
	Time float32

	width, height int
	vertex        []byte
	fragment      *glbuild.Template
	source        *glbuild.Template
	registrar     *glbuild.Registrar
	editables     []rmsdf.Editable
	selected      int
	keyHandlers   map[Key]keyHandler
	backend       Backend
	prog          Program
	frameTime     float32
	quit          bool
}

// New returns a Runtime with no objects drawing through backend.
// backend may be nil for a Runtime only used for CPU rendering.
func New(backend Backend, s Settings) *Runtime {
	if s.Vertex == nil {
		s.Vertex = glsllib.VertexSource()
	}
	if s.Fragment == nil {
		s.Fragment = glsllib.FragmentTemplate()
	}
	if s.Camera.Velocity == 0 {
		s.Camera.Velocity = defaultVelocity
	}
	return &Runtime{
		Camera:    s.Camera,
		LightPos:  s.LightPos,
		SmoothMin: s.SmoothMin,
		Shadows:   s.Shadows,
		width:     s.Width,
		height:    s.Height,
		vertex:    s.Vertex,
		fragment:  s.Fragment,
		registrar: glbuild.NewRegistrar(),
		selected:  -1,
		backend:   backend,
	}
}

// RegisterKind registers a kind whose distance function is emitted even
// when no object uses it.
func (r *Runtime) RegisterKind(k glbuild.Kind) error {
	return r.registrar.RegisterKind(k)
}

// RegisterObject adds a top level object to the scene. Objects are blended
// together in the shader in registration order.
func (r *Runtime) RegisterObject(s glbuild.Shape) error {
	return r.registrar.RegisterObject(s)
}

// RegisterEditable adds e to the object editor.
func (r *Runtime) RegisterEditable(e rmsdf.Editable) error {
	if e == nil {
		return errors.New("nil editable")
	}
	r.editables = append(r.editables, e)
	return nil
}

// Objects returns the registered top level objects.
func (r *Runtime) Objects() []glbuild.Shape { return r.registrar.Objects() }

// Editables returns the registered editables.
func (r *Runtime) Editables() []rmsdf.Editable {
	return append([]rmsdf.Editable(nil), r.editables...)
}

// Selected returns the index of the editable shown in the editor or -1.
func (r *Runtime) Selected() int { return r.selected }

// Source returns the composed fragment shader after a successful OnCreate.
func (r *Runtime) Source() *glbuild.Template { return r.source }

// Compose builds the fragment shader of the registered scene.
func (r *Runtime) Compose() (*glbuild.Template, error) {
	return r.registrar.Build(r.fragment)
}

// OnCreate composes and compiles the scene shader, uploads the uniforms
// that stay constant and installs the key handlers. It returns false if the
// scene could not be created.
func (r *Runtime) OnCreate() bool {
	log := rmsdf.Logger()
	if r.backend == nil {
		log.Error("scene has no rendering backend")
		return false
	}
	src, err := r.Compose()
	if err != nil {
		log.Error("composing scene shader", "err", err)
		return false
	}
	log.Debug("scene shader composed", "objects", len(r.registrar.Objects()), "bytes", len(src.Bytes()))
	prog, err := r.backend.Compile(r.vertex, src.Bytes())
	if err != nil || prog == nil {
		log.Error("compiling scene shader", "err", err)
		return false
	}
	r.source = src
	r.prog = prog
	prog.Bind()
	prog.SetUniform2f("u_Resolution", float32(r.width), float32(r.height))
	prog.SetUniform3f("u_LightPos", r.LightPos[0], r.LightPos[1], r.LightPos[2])
	r.installKeyHandlers()
	log.Info("scene created", "objects", len(r.registrar.Objects()), "editables", len(r.editables))
	return true
}

// OnUpdate advances the scene by dt seconds, uploads the frame's uniforms
// and draws. It returns false when the host should stop.
func (r *Runtime) OnUpdate(dt float32) bool {
	if r.prog == nil || r.quit {
		return false
	}
	r.Time += dt
	r.trackFrameTime(dt)
	r.moveCamera(dt)

	r.prog.Bind()
	r.prog.SetUniform3f("u_CameraPos", r.Camera.Position[0], r.Camera.Position[1], r.Camera.Position[2])
	r.prog.SetUniform1f("u_CameraRotY", r.Camera.RotY)
	r.prog.SetUniformBool("u_EnableShadows", r.Shadows)
	r.prog.SetUniform1f(glbuild.DefaultBlendUniform, r.blend())
	r.prog.SetUniform1f("u_Time", r.Time)
	for _, obj := range r.registrar.Objects() {
		obj.SetUniforms(r.prog)
	}
	r.backend.Draw()
	return true
}

// OnImGuiUpdate draws the object editor: a button per editable, the global
// scene controls, the selected editable's sliders and the frame statistics.
func (r *Runtime) OnImGuiUpdate(ui rmsdf.Widgets) {
	ui.Begin(editorTitle)
	for i, e := range r.editables {
		if ui.Button(e.SectionName()) {
			r.selected = i
		}
		ui.SameLine()
	}
	ui.Checkbox("Shadows", &r.Shadows)
	ui.SliderFloat("Smooth %", &r.SmoothMin, 0, 1)
	if r.selected >= 0 && r.selected < len(r.editables) {
		r.editables[r.selected].RenderEditor(ui)
	}
	var fps float32
	if r.frameTime > 0 {
		fps = 1 / r.frameTime
	}
	ui.Text(fmt.Sprintf("Application average %.3f ms/frame (%.1f FPS)", r.frameTime*1000, fps))
	ui.Text(helpText)
	ui.End()
}

// OnKeyEvent dispatches a key transition. Keys without a handler are ignored.
func (r *Runtime) OnKeyEvent(key Key, action Action, mods int) {
	if h, ok := r.keyHandlers[key]; ok {
		h(action, mods)
	}
}

// SetResolution updates the viewport resolution uniform after a resize.
func (r *Runtime) SetResolution(width, height int) {
	r.width, r.height = width, height
	if r.prog != nil {
		r.prog.Bind()
		r.prog.SetUniform2f("u_Resolution", float32(width), float32(height))
	}
}

// Release frees the program and backend resources.
func (r *Runtime) Release() {
	if r.prog != nil {
		r.prog.Delete()
		r.prog = nil
	}
	if r.backend != nil {
		r.backend.Release()
	}
}

func (r *Runtime) moveCamera(dt float32) {
	cam := &r.Camera
	cam.RotY += cam.turn * dt
	dir := mgl32.Rotate3DY(cam.RotY).Mul3x1(cam.move.Mul(dt))
	cam.Position = cam.Position.Add(dir)
}

func (r *Runtime) blend() float32 {
	return math32.Max(r.SmoothMin, MinSmoothMin)
}

// trackFrameTime keeps an exponential moving average of frame durations.
func (r *Runtime) trackFrameTime(dt float32) {
	if r.frameTime == 0 {
		r.frameTime = dt
		return
	}
	r.frameTime += 0.05 * (dt - r.frameTime)
}

// Env returns the CPU evaluation environment matching the uniforms uploaded this frame.
func (r *Runtime) Env() *gleval.Env {
	return &gleval.Env{SmoothMin: r.blend(), Time: r.Time}
}

// SceneSDF returns the CPU distance function of the registered objects.
func (r *Runtime) SceneSDF() (*rmsdf.SceneSDF, error) {
	return rmsdf.NewSceneSDF(r.registrar.Objects())
}

// Snapshot renders the scene on the CPU from the current camera.
// Zero width or height use the runtime's resolution.
func (r *Runtime) Snapshot(width, height int, caption string) (*image.RGBA, error) {
	if width == 0 || height == 0 {
		width, height = r.width, r.height
	}
	sdf, err := r.SceneSDF()
	if err != nil {
		return nil, err
	}
	return glrender.Snapshot(sdf, glrender.SnapshotConfig{
		Width:      width,
		Height:     height,
		CameraPos:  toMs3(r.Camera.Position),
		CameraRotY: r.Camera.RotY,
		LightPos:   toMs3(r.LightPos),
		Shadows:    r.Shadows,
		Caption:    caption,
	}, r.Env())
}

func toMs3(v mgl32.Vec3) ms3.Vec {
	return ms3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
