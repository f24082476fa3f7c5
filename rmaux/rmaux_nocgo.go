//go:build tinygo || !cgo

package rmaux

import "errors"

func run(newRuntime NewRuntime, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
