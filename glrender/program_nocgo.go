//go:build tinygo || !cgo

package glrender

import "errors"

var errNoCGo = errors.New("GPU rendering requires cgo")

// Compile requires cgo.
func Compile(vertex, fragment []byte) (*Program, error) {
	return nil, errNoCGo
}

// Quad requires cgo.
type Quad struct{}

// NewQuad requires cgo.
func NewQuad() (*Quad, error) { return nil, errNoCGo }

func (q *Quad) Draw()   {}
func (q *Quad) Delete() {}
