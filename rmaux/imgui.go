//go:build !tinygo && cgo

package rmaux

import (
	"math"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/inkyblackness/imgui-go/v4"
	"github.com/raymarch/rmsdf"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

const imguiVertex = `#version 330 core
uniform mat4 ProjMtx;
in vec2 Position;
in vec2 UV;
in vec4 Color;
out vec2 Frag_UV;
out vec4 Frag_Color;
void main() {
	Frag_UV = UV;
	Frag_Color = Color;
	gl_Position = ProjMtx * vec4(Position.xy, 0, 1);
}
`

const imguiFragment = `#version 330 core
uniform sampler2D Texture;
in vec2 Frag_UV;
in vec4 Frag_Color;
out vec4 Out_Color;
void main() {
	Out_Color = vec4(Frag_Color.rgb, Frag_Color.a * texture(Texture, Frag_UV.st).r);
}
`

// imguiHost feeds GLFW input to ImGui and draws its output with OpenGL.
type imguiHost struct {
	ctx    *imgui.Context
	io     imgui.IO
	window *glfw.Window

	prog                    glgl.Program
	texLoc, projLoc         int32
	posLoc, uvLoc, colorLoc uint32
	vao, vbo, ebo, fontTex  uint32

	mouseJustPressed [3]bool
}

func newImguiHost(window *glfw.Window) (*imguiHost, error) {
	h := &imguiHost{
		ctx:    imgui.CreateContext(nil),
		io:     imgui.CurrentIO(),
		window: window,
	}
	err := h.createDeviceObjects()
	if err != nil {
		h.ctx.Destroy()
		return nil, err
	}
	h.installCallbacks()
	return h, nil
}

func (h *imguiHost) createDeviceObjects() (err error) {
	// The atlas is uploaded as a single channel red texture.
	h.prog, err = glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   imguiVertex + "\x00",
		Fragment: imguiFragment + "\x00",
	})
	if err != nil {
		return err
	}
	if h.texLoc, err = h.prog.UniformLocation("Texture\x00"); err != nil {
		return err
	}
	if h.projLoc, err = h.prog.UniformLocation("ProjMtx\x00"); err != nil {
		return err
	}
	if h.posLoc, err = h.prog.AttribLocation("Position\x00"); err != nil {
		return err
	}
	if h.uvLoc, err = h.prog.AttribLocation("UV\x00"); err != nil {
		return err
	}
	if h.colorLoc, err = h.prog.AttribLocation("Color\x00"); err != nil {
		return err
	}
	gl.GenVertexArrays(1, &h.vao)
	gl.GenBuffers(1, &h.vbo)
	gl.GenBuffers(1, &h.ebo)

	atlas := h.io.Fonts().TextureDataAlpha8()
	gl.GenTextures(1, &h.fontTex)
	gl.BindTexture(gl.TEXTURE_2D, h.fontTex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, int32(atlas.Width), int32(atlas.Height),
		0, gl.RED, gl.UNSIGNED_BYTE, atlas.Pixels)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	h.io.Fonts().SetTextureID(imgui.TextureID(h.fontTex))
	return glgl.Err()
}

func (h *imguiHost) installCallbacks() {
	keys := map[int]glfw.Key{
		imgui.KeyTab:        glfw.KeyTab,
		imgui.KeyLeftArrow:  glfw.KeyLeft,
		imgui.KeyRightArrow: glfw.KeyRight,
		imgui.KeyUpArrow:    glfw.KeyUp,
		imgui.KeyDownArrow:  glfw.KeyDown,
		imgui.KeyHome:       glfw.KeyHome,
		imgui.KeyEnd:        glfw.KeyEnd,
		imgui.KeyDelete:     glfw.KeyDelete,
		imgui.KeyBackspace:  glfw.KeyBackspace,
		imgui.KeyEnter:      glfw.KeyEnter,
		imgui.KeyEscape:     glfw.KeyEscape,
	}
	for imguiKey, glfwKey := range keys {
		h.io.KeyMap(imguiKey, int(glfwKey))
	}
	h.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Press && int(button) < len(h.mouseJustPressed) {
			h.mouseJustPressed[button] = true
		}
	})
	h.window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		h.io.AddMouseWheelDelta(float32(xoff), float32(yoff))
	})
	h.window.SetCharCallback(func(w *glfw.Window, char rune) {
		h.io.AddInputCharacters(string(char))
	})
}

func (h *imguiHost) keyEvent(key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	switch action {
	case glfw.Press:
		h.io.KeyPress(int(key))
	case glfw.Release:
		h.io.KeyRelease(int(key))
	}
	h.io.KeyCtrl(int(glfw.KeyLeftControl), int(glfw.KeyRightControl))
	h.io.KeyShift(int(glfw.KeyLeftShift), int(glfw.KeyRightShift))
	h.io.KeyAlt(int(glfw.KeyLeftAlt), int(glfw.KeyRightAlt))
	h.io.KeySuper(int(glfw.KeyLeftSuper), int(glfw.KeyRightSuper))
}

func (h *imguiHost) wantsKeyboard() bool { return h.io.WantCaptureKeyboard() }

func (h *imguiHost) newFrame(dt float32) {
	w, ht := h.window.GetSize()
	h.io.SetDisplaySize(imgui.Vec2{X: float32(w), Y: float32(ht)})
	if dt > 0 {
		h.io.SetDeltaTime(dt)
	}
	if h.window.GetAttrib(glfw.Focused) != 0 {
		x, y := h.window.GetCursorPos()
		h.io.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	} else {
		h.io.SetMousePosition(imgui.Vec2{X: -math.MaxFloat32, Y: -math.MaxFloat32})
	}
	for i := range h.mouseJustPressed {
		down := h.mouseJustPressed[i] || h.window.GetMouseButton(glfw.MouseButton1+glfw.MouseButton(i)) == glfw.Press
		h.io.SetMouseButtonDown(i, down)
		h.mouseJustPressed[i] = false
	}
	imgui.NewFrame()
}

func (h *imguiHost) render() {
	imgui.Render()
	w, ht := h.window.GetSize()
	fbw, fbh := h.window.GetFramebufferSize()
	h.renderDrawData([2]float32{float32(w), float32(ht)}, [2]float32{float32(fbw), float32(fbh)}, imgui.RenderedDrawData())
}

func (h *imguiHost) renderDrawData(displaySize, framebufferSize [2]float32, drawData imgui.DrawData) {
	dw, dh := displaySize[0], displaySize[1]
	fbw, fbh := framebufferSize[0], framebufferSize[1]
	if fbw <= 0 || fbh <= 0 || dw <= 0 || dh <= 0 {
		return
	}
	drawData.ScaleClipRects(imgui.Vec2{X: fbw / dw, Y: fbh / dh})

	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.SCISSOR_TEST)
	gl.Viewport(0, 0, int32(fbw), int32(fbh))
	ortho := [4][4]float32{
		{2 / dw, 0, 0, 0},
		{0, 2 / -dh, 0, 0},
		{0, 0, -1, 0},
		{-1, 1, 0, 1},
	}
	h.prog.Bind()
	gl.Uniform1i(h.texLoc, 0)
	gl.UniformMatrix4fv(h.projLoc, 1, false, &ortho[0][0])
	gl.ActiveTexture(gl.TEXTURE0)

	gl.BindVertexArray(h.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, h.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.ebo)
	vertexSize, posOff, uvOff, colOff := imgui.VertexBufferLayout()
	gl.EnableVertexAttribArray(h.posLoc)
	gl.EnableVertexAttribArray(h.uvLoc)
	gl.EnableVertexAttribArray(h.colorLoc)
	gl.VertexAttribPointer(h.posLoc, 2, gl.FLOAT, false, int32(vertexSize), gl.PtrOffset(posOff))
	gl.VertexAttribPointer(h.uvLoc, 2, gl.FLOAT, false, int32(vertexSize), gl.PtrOffset(uvOff))
	gl.VertexAttribPointer(h.colorLoc, 4, gl.UNSIGNED_BYTE, true, int32(vertexSize), gl.PtrOffset(colOff))
	indexSize := imgui.IndexBufferLayout()
	drawType := uint32(gl.UNSIGNED_SHORT)
	if indexSize == 4 {
		drawType = gl.UNSIGNED_INT
	}

	for _, list := range drawData.CommandLists() {
		vertexBuffer, vertexBufferSize := list.VertexBuffer()
		gl.BufferData(gl.ARRAY_BUFFER, vertexBufferSize, vertexBuffer, gl.STREAM_DRAW)
		indexBuffer, indexBufferSize := list.IndexBuffer()
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, indexBufferSize, indexBuffer, gl.STREAM_DRAW)
		indexOffset := 0
		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
			} else {
				gl.BindTexture(gl.TEXTURE_2D, uint32(cmd.TextureID()))
				clip := cmd.ClipRect()
				gl.Scissor(int32(clip.X), int32(fbh)-int32(clip.W), int32(clip.Z-clip.X), int32(clip.W-clip.Y))
				gl.DrawElements(gl.TRIANGLES, int32(cmd.ElementCount()), drawType, gl.PtrOffset(indexOffset))
			}
			indexOffset += cmd.ElementCount() * indexSize
		}
	}
	gl.BindVertexArray(0)
	gl.Disable(gl.SCISSOR_TEST)
	gl.Disable(gl.BLEND)
	if err := glgl.Err(); err != nil {
		rmsdf.Logger().Error("rendering editor", "err", err)
	}
}

func (h *imguiHost) dispose() {
	if h.vao != 0 {
		gl.DeleteVertexArrays(1, &h.vao)
	}
	if h.vbo != 0 {
		gl.DeleteBuffers(1, &h.vbo)
	}
	if h.ebo != 0 {
		gl.DeleteBuffers(1, &h.ebo)
	}
	if h.fontTex != 0 {
		gl.DeleteTextures(1, &h.fontTex)
		h.io.Fonts().SetTextureID(0)
	}
	h.prog.Delete()
	h.ctx.Destroy()
}
