package site

import (
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// writeFile replaces dest atomically. atomic.WriteFile keeps the mode of an
// existing destination and creates new files 0600, so the mode is set after.
func writeFile(dest string, r io.Reader, perm os.FileMode) error {
	if err := atomic.WriteFile(dest, r); err != nil {
		return err
	}
	return os.Chmod(dest, perm)
}
