// Package glrender renders ray marched scenes: on the GPU through a compiled
// [Program] drawing a full screen [Quad], or on the CPU with [Snapshot].
package glrender

import (
	"github.com/raymarch/rmsdf"
	"github.com/raymarch/rmsdf/glbuild"
)

// NotFound is the location of a uniform absent from a program.
const NotFound int32 = -1

// Handle is a linked GPU program. Uniform uploads act on the currently bound program.
type Handle interface {
	// UniformLocation returns the location of the named uniform or [NotFound].
	UniformLocation(name string) int32
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, v0, v1 float32)
	Uniform3f(loc int32, v0, v1, v2 float32)
	Uniform4f(loc int32, v0, v1, v2, v3 float32)
	Uniform1i(loc int32, v int32)
	Bind()
	Unbind()
	Delete()
}

// Program wraps a GPU program handle and caches uniform locations by name.
// A uniform missing from the program is looked up once, reported and its
// uploads are skipped afterwards.
type Program struct {
	h       Handle
	locs    map[string]int32
	lookups int
}

var _ glbuild.UniformSetter = (*Program)(nil)

// NewProgram returns a Program with an empty uniform location cache.
func NewProgram(h Handle) *Program {
	return &Program{h: h, locs: make(map[string]int32)}
}

// Handle returns the underlying GPU program.
func (p *Program) Handle() Handle { return p.h }

func (p *Program) Bind()   { p.h.Bind() }
func (p *Program) Unbind() { p.h.Unbind() }

// Delete releases the GPU program. The Program must not be used afterwards.
func (p *Program) Delete() {
	p.h.Delete()
	clear(p.locs)
}

// Lookups returns how many times uniform locations were queried from the GPU.
func (p *Program) Lookups() int { return p.lookups }

// UniformLocation returns the cached location of name, querying the GPU on first use.
func (p *Program) UniformLocation(name string) int32 {
	loc, ok := p.locs[name]
	if ok {
		return loc
	}
	loc = p.h.UniformLocation(name)
	p.lookups++
	log := rmsdf.Logger()
	if loc == NotFound {
		log.Warn("uniform not found in program", "name", name)
	} else {
		log.Debug("uniform location", "name", name, "loc", loc)
	}
	p.locs[name] = loc
	return loc
}

func (p *Program) SetUniform1f(name string, v float32) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.h.Uniform1f(loc, v)
	}
}

func (p *Program) SetUniform2f(name string, v0, v1 float32) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.h.Uniform2f(loc, v0, v1)
	}
}

func (p *Program) SetUniform3f(name string, v0, v1, v2 float32) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.h.Uniform3f(loc, v0, v1, v2)
	}
}

func (p *Program) SetUniform4f(name string, v0, v1, v2, v3 float32) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.h.Uniform4f(loc, v0, v1, v2, v3)
	}
}

func (p *Program) SetUniform1i(name string, v int32) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.h.Uniform1i(loc, v)
	}
}

// SetUniformBool uploads b as an integer, the representation of GLSL bool uniforms.
func (p *Program) SetUniformBool(name string, b bool) {
	var v int32
	if b {
		v = 1
	}
	p.SetUniform1i(name, v)
}
