package gleval

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// SDF3 implements a 3D signed distance field in vectorized form. It is the CPU
// mirror of the GLSL a shape generates for the ray marcher.
type SDF3 interface {
	// Evaluate evaluates the signed distance field over pos positions.
	// dist and pos must be of same length. Resulting distances are stored
	// in dist.
	//
	// userData facilitates getting data to the evaluators for use in processing, such as [Env].
	Evaluate(pos []ms3.Vec, dist []float32, userData any) error
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and distance buffer length mismatch")
)

// AssertSDF3 asserts s implements [SDF3], returning a descriptive error if it does not.
func AssertSDF3(s any) (SDF3, error) {
	if s == nil {
		return nil, errors.New("nil SDF3")
	}
	sdf, ok := s.(SDF3)
	if !ok {
		return nil, fmt.Errorf("%T does not implement gleval.SDF3", s)
	}
	return sdf, nil
}

// CheckBuffers returns an error if pos and dist cannot be used together in an evaluation.
func CheckBuffers(pos []ms3.Vec, dist []float32) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	return nil
}

// NormalsCentralDiff uses central differences algorithm for normal calculation, which are stored in normals for each position.
// The returned normals are not normalized (converted to unit length).
func NormalsCentralDiff(s SDF3, pos []ms3.Vec, normals []ms3.Vec, step float32, userData any) error {
	step *= 0.5
	if step <= 0 {
		return errors.New("invalid step")
	} else if len(pos) != len(normals) {
		return errors.New("length of position must match length of normals")
	} else if s == nil {
		return errors.New("nil SDF3")
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	env, err := GetEnv(userData)
	if err != nil {
		return fmt.Errorf("Env required for normal calculation: %w", err)
	}
	d1 := env.Float.Acquire(len(pos))
	d2 := env.Float.Acquire(len(pos))
	auxPos := env.V3.Acquire(len(pos))
	defer env.Float.Release(d1)
	defer env.Float.Release(d2)
	defer env.V3.Release(auxPos)
	var vecs = [3]ms3.Vec{{X: step}, {Y: step}, {Z: step}}
	for dim := 0; dim < 3; dim++ {
		h := vecs[dim]
		for i, p := range pos {
			auxPos[i] = ms3.Add(p, h)
		}
		err = s.Evaluate(auxPos, d1, userData)
		if err != nil {
			return err
		}
		for i, p := range pos {
			auxPos[i] = ms3.Sub(p, h)
		}
		err = s.Evaluate(auxPos, d2, userData)
		if err != nil {
			return err
		}

		switch dim {
		case 0:
			for i, d := range d1 {
				normals[i].X = d - d2[i]
			}
		case 1:
			for i, d := range d1 {
				normals[i].Y = d - d2[i]
			}
		case 2:
			for i, d := range d1 {
				normals[i].Z = d - d2[i]
			}
		}
	}
	return nil
}

// MarchConfig configures [RayMarch].
type MarchConfig struct {
	MaxSteps int
	// MaxDist is the distance after which a ray is considered a miss.
	MaxDist float32
	// SurfDist is the distance below which a ray is considered a hit.
	SurfDist float32
}

// DefaultMarchConfig matches the constants of the fragment shader.
func DefaultMarchConfig() MarchConfig {
	return MarchConfig{MaxSteps: 256, MaxDist: 200, SurfDist: 1e-3}
}

// RayMarch sphere traces all rays with origins ro and unit directions rd in lockstep,
// storing the distance travelled along each ray in dist. Rays that miss the surface
// end with a distance greater than cfg.MaxDist.
func RayMarch(s SDF3, ro, rd []ms3.Vec, dist []float32, cfg MarchConfig, userData any) error {
	if len(ro) != len(rd) {
		return errors.New("ray origin and direction length mismatch")
	}
	err := CheckBuffers(ro, dist)
	if err != nil {
		return err
	}
	env, err := GetEnv(userData)
	if err != nil {
		return err
	}
	pos := env.V3.Acquire(len(ro))
	dS := env.Float.Acquire(len(ro))
	done := make([]bool, len(ro))
	defer env.V3.Release(pos)
	defer env.Float.Release(dS)
	for i := range dist {
		dist[i] = 0
	}
	for step := 0; step < cfg.MaxSteps; step++ {
		for i := range pos {
			pos[i] = ms3.Add(ro[i], ms3.Scale(dist[i], rd[i]))
		}
		err = s.Evaluate(pos, dS, userData)
		if err != nil {
			return err
		}
		active := 0
		for i, d := range dS {
			if done[i] {
				continue
			}
			dist[i] += d
			if dist[i] > cfg.MaxDist || math32.Abs(d) < cfg.SurfDist {
				done[i] = true
				continue
			}
			active++
		}
		if active == 0 {
			break
		}
	}
	return nil
}
