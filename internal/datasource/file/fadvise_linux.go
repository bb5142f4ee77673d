//go:build linux

package file

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints sequential access for the whole file. Failures are
// ignored; the hint only affects read-ahead.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
