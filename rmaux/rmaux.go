// Package rmaux hosts a [scene.Runtime] in a GLFW window with an ImGui object
// editor and provides file output helpers for CPU snapshots.
package rmaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/raymarch/rmsdf"
	"github.com/raymarch/rmsdf/scene"
)

// UIConfig configures the window [Run] opens.
type UIConfig struct {
	Title         string
	Width, Height int
	// Context cancels the frame loop when done. May be nil.
	Context context.Context
	// HideEditor disables the ImGui object editor.
	HideEditor bool
}

// NewRuntime creates the runtime once the GL context is current.
// [scene.Config.NewRuntime] has this signature.
type NewRuntime func(backend scene.Backend) (*scene.Runtime, error)

// UIConfigFrom returns the window configuration of a scene configuration.
func UIConfigFrom(cfg *scene.Config) UIConfig {
	return UIConfig{Title: cfg.Window.Title, Width: cfg.Window.Width, Height: cfg.Window.Height}
}

// Run opens a window and drives the runtime returned by newRuntime until the
// window is closed, the runtime asks to stop or cfg.Context is done.
// It must be called from the main goroutine and requires cgo.
func Run(newRuntime NewRuntime, cfg UIConfig) error {
	if newRuntime == nil {
		return errors.New("nil runtime constructor")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Title == "" {
		cfg.Title = "Ray Marching"
	}
	return run(newRuntime, cfg)
}

// WritePNGFile encodes img as a PNG file with said filename.
func WritePNGFile(filename string, img image.Image) error {
	watch := stopwatch()
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return err
	}
	err = fp.Sync()
	if err != nil {
		return err
	}
	rmsdf.Logger().Info("wrote png", "file", filename, "bounds", img.Bounds().String(), "took", watch())
	return nil
}

// SnapshotPNG renders the runtime's scene on the CPU and writes it to filename.
func SnapshotPNG(filename string, r *scene.Runtime, width, height int, caption string) error {
	watch := stopwatch()
	img, err := r.Snapshot(width, height, caption)
	if err != nil {
		return fmt.Errorf("rendering snapshot: %w", err)
	}
	rmsdf.Logger().Debug("snapshot rendered", "took", watch())
	return WritePNGFile(filename, img)
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
