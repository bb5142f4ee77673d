// Package file opens the locally cached copy of the sales extract.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local reads one file from disk.
type Local struct{ path string }

func NewLocal(path string) *Local { return &Local{path: path} }

func (l *Local) Path() string { return l.path }

// Open returns the file for a single front-to-back read. A done ctx is
// reported before the filesystem is touched, and directories are rejected.
// Errors carry the path and still match os.ErrNotExist and friends.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	adviseSequential(f)
	return f, nil
}
