//go:build !tinygo && cgo

package rmaux

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/inkyblackness/imgui-go/v4"
	"github.com/raymarch/rmsdf"
	"github.com/raymarch/rmsdf/scene"
)

func run(newRuntime NewRuntime, cfg UIConfig) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	log := rmsdf.Logger()
	window, term, err := startGLFW(cfg)
	if err != nil {
		return err
	}
	defer term()

	backend, err := newGLBackend()
	if err != nil {
		return fmt.Errorf("creating quad: %w", err)
	}
	rt, err := newRuntime(backend)
	if err != nil {
		backend.Release()
		return err
	}
	defer rt.Release()
	fbw, fbh := window.GetFramebufferSize()
	rt.SetResolution(fbw, fbh)
	if !rt.OnCreate() {
		return fmt.Errorf("scene creation failed")
	}

	var gui *imguiHost
	if !cfg.HideEditor {
		gui, err = newImguiHost(window)
		if err != nil {
			return err
		}
		defer gui.dispose()
	}
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if gui != nil {
			gui.keyEvent(key, action, mods)
			if gui.wantsKeyboard() {
				return
			}
		}
		rt.OnKeyEvent(sceneKey(key), scene.Action(action), int(mods))
	})
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
		rt.SetResolution(width, height)
	})

	ctx := cfg.Context
	previousTime := glfw.GetTime()
	log.Info("entering frame loop", "width", fbw, "height", fbh)
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		glfw.PollEvents()
		currentTime := glfw.GetTime()
		dt := float32(currentTime - previousTime)
		previousTime = currentTime

		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		if !rt.OnUpdate(dt) {
			break
		}
		if gui != nil {
			gui.newFrame(dt)
			rt.OnImGuiUpdate(widgets{})
			gui.render()
		}
		window.SwapBuffers()
	}
	return nil
}

func startGLFW(cfg UIConfig) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err = glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	rmsdf.Logger().Info("OpenGL context created", "version", gl.GoStr(gl.GetString(gl.VERSION)))
	return window, glfw.Terminate, nil
}

func sceneKey(k glfw.Key) scene.Key {
	switch k {
	case glfw.KeyW:
		return scene.KeyW
	case glfw.KeyA:
		return scene.KeyA
	case glfw.KeyS:
		return scene.KeyS
	case glfw.KeyD:
		return scene.KeyD
	case glfw.KeyLeftShift:
		return scene.KeyLeftShift
	case glfw.KeyLeftControl:
		return scene.KeyLeftControl
	case glfw.KeyLeft:
		return scene.KeyLeft
	case glfw.KeyRight:
		return scene.KeyRight
	case glfw.KeyEscape:
		return scene.KeyEscape
	}
	return scene.KeyUnknown
}

// widgets draws editor widgets with ImGui.
type widgets struct{}

var _ rmsdf.Widgets = widgets{}

func (widgets) Begin(title string) bool             { return imgui.Begin(title) }
func (widgets) End()                                { imgui.End() }
func (widgets) Text(text string)                    { imgui.Text(text) }
func (widgets) Button(label string) bool            { return imgui.Button(label) }
func (widgets) SameLine()                           { imgui.SameLine() }
func (widgets) Checkbox(label string, v *bool) bool { return imgui.Checkbox(label, v) }
func (widgets) SliderFloat(label string, v *float32, min, max float32) bool {
	return imgui.SliderFloat(label, v, min, max)
}
