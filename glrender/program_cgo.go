//go:build !tinygo && cgo

package glrender

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/raymarch/rmsdf"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// Compile compiles and links the vertex and fragment shaders into a program.
// A compile or link failure is logged with the driver's info log and returned.
// Requires a current OpenGL context.
func Compile(vertex, fragment []byte) (*Program, error) {
	log := rmsdf.Logger()
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   string(vertex) + "\x00",
		Fragment: string(fragment) + "\x00",
	})
	if err != nil {
		log.Error("shader program compilation failed", "err", err)
		return nil, err
	}
	log.Info("shader program created", "id", prog.ID(), "fragment_bytes", len(fragment))
	return NewProgram(&glHandle{prog: prog}), nil
}

type glHandle struct {
	prog glgl.Program
}

func (h *glHandle) UniformLocation(name string) int32 {
	loc, err := h.prog.UniformLocation(name + "\x00")
	if err != nil {
		return NotFound
	}
	return loc
}

func (h *glHandle) Uniform1f(loc int32, v float32)              { gl.Uniform1f(loc, v) }
func (h *glHandle) Uniform2f(loc int32, v0, v1 float32)         { gl.Uniform2f(loc, v0, v1) }
func (h *glHandle) Uniform3f(loc int32, v0, v1, v2 float32)     { gl.Uniform3f(loc, v0, v1, v2) }
func (h *glHandle) Uniform4f(loc int32, v0, v1, v2, v3 float32) { gl.Uniform4f(loc, v0, v1, v2, v3) }
func (h *glHandle) Uniform1i(loc int32, v int32)                { gl.Uniform1i(loc, v) }
func (h *glHandle) Bind()                                       { h.prog.Bind() }
func (h *glHandle) Unbind()                                     { h.prog.Unbind() }
func (h *glHandle) Delete()                                     { h.prog.Delete() }

// Quad is the full screen quad the fragment shader is rasterized over.
// Its vertex array and buffers are owned by the Quad and released by Delete.
type Quad struct {
	vao, vbo, ibo uint32
}

// NewQuad uploads the quad vertices to attribute location 0.
// Requires a current OpenGL context.
func NewQuad() (*Quad, error) {
	vertices := []float32{
		-1, -1,
		1, -1,
		1, 1,
		-1, 1,
	}
	indices := []uint32{0, 1, 2, 2, 3, 0}
	var q Quad
	gl.GenVertexArrays(1, &q.vao)
	gl.BindVertexArray(q.vao)

	gl.GenBuffers(1, &q.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &q.ibo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, q.ibo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(indices), gl.Ptr(indices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	err := glgl.Err()
	if err != nil {
		q.Delete()
		return nil, err
	}
	return &q, nil
}

// Draw draws the quad with the currently bound program.
func (q *Quad) Draw() {
	gl.BindVertexArray(q.vao)
	gl.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

// Delete releases the quad's GPU buffers.
func (q *Quad) Delete() {
	if q.ibo != 0 {
		gl.DeleteBuffers(1, &q.ibo)
	}
	if q.vbo != 0 {
		gl.DeleteBuffers(1, &q.vbo)
	}
	if q.vao != 0 {
		gl.DeleteVertexArrays(1, &q.vao)
	}
	*q = Quad{}
}
