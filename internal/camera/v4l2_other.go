//go:build !linux

package camera

import (
	"fmt"
	"io/fs"
	"runtime"
)

func openPlatform(path string) (Device, error) {
	return nil, fmt.Errorf("open %s: capture is not supported on %s: %w", path, runtime.GOOS, fs.ErrNotExist)
}
