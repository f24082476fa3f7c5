//go:build !tinygo && cgo

package rmaux

import (
	"github.com/raymarch/rmsdf/glrender"
	"github.com/raymarch/rmsdf/scene"
)

// glBackend draws the scene program over a full screen quad.
type glBackend struct {
	quad *glrender.Quad
}

var _ scene.Backend = (*glBackend)(nil)

func newGLBackend() (*glBackend, error) {
	quad, err := glrender.NewQuad()
	if err != nil {
		return nil, err
	}
	return &glBackend{quad: quad}, nil
}

func (b *glBackend) Compile(vertex, fragment []byte) (scene.Program, error) {
	prog, err := glrender.Compile(vertex, fragment)
	if err != nil {
		return nil, err
	}
	return prog, nil
}

func (b *glBackend) Draw() { b.quad.Draw() }

func (b *glBackend) Release() { b.quad.Delete() }
