package gleval

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// Env carries the scene globals the GLSL reads from built-in uniforms
// (u_SmoothMinValue and u_Time) and the scratch buffers CPU evaluators
// need for combining child distances. It is passed to evaluators as userData.
// An Env is not safe for concurrent use.
type Env struct {
	// SmoothMin is the global blend value of smooth minimum operations.
	SmoothMin float32
	// Time is the elapsed time in seconds.
	Time  float32
	Float BufPool[float32]
	V3    BufPool[ms3.Vec]
}

// GetEnv extracts the [Env] from userData. userData may be an *Env or
// implement interface{ Env() *Env }.
func GetEnv(userData any) (*Env, error) {
	switch ud := userData.(type) {
	case *Env:
		if ud == nil {
			return nil, errors.New("nil *gleval.Env")
		}
		return ud, nil
	case interface{ Env() *Env }:
		env := ud.Env()
		if env == nil {
			return nil, errors.New("nil *gleval.Env returned by userData")
		}
		return env, nil
	case nil:
		return nil, errors.New("nil userData, want *gleval.Env")
	}
	return nil, fmt.Errorf("userData of type %T does not provide a *gleval.Env", userData)
}

// BufPool hands out scratch buffers for evaluation. Buffers are reused once released.
type BufPool[T any] struct {
	free     [][]T
	acquired int
}

// Acquire returns a buffer of length n. Contents are undefined.
func (bp *BufPool[T]) Acquire(n int) []T {
	bp.acquired++
	for i, buf := range bp.free {
		if cap(buf) >= n {
			last := len(bp.free) - 1
			bp.free[i] = bp.free[last]
			bp.free = bp.free[:last]
			return buf[:n]
		}
	}
	return make([]T, n)
}

// Release returns buf to the pool. buf must not be used after released.
func (bp *BufPool[T]) Release(buf []T) {
	if buf == nil {
		return
	}
	bp.acquired--
	bp.free = append(bp.free, buf[:0])
}

// InUse returns the amount of acquired buffers not yet released.
func (bp *BufPool[T]) InUse() int { return bp.acquired }
