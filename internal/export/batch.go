// Package export persists pipeline outputs. Files are staged beside their
// destinations and only renamed into place on Commit, so a failed run leaves
// every previous output untouched.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// WriteFunc renders one output into w.
type WriteFunc func(w io.Writer) error

// Batch collects staged outputs. It is not safe for concurrent use.
type Batch struct {
	files []*renameio.PendingFile
	dsts  []string
	done  bool
}

// Stage renders write into a temp file in dst's directory. The destination is
// not touched until Commit. Staging the same destination twice is an error.
func (b *Batch) Stage(dst string, write WriteFunc) error {
	if b.done {
		return errors.New("export: batch already committed or discarded")
	}
	if dst == "" {
		return errors.New("export: empty destination path")
	}
	for _, d := range b.dsts {
		if filepath.Clean(d) == filepath.Clean(dst) {
			return fmt.Errorf("export: %s staged twice", dst)
		}
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create dir %s: %w", dir, err)
	}
	pf, err := renameio.NewPendingFile(dst, renameio.WithTempDir(dir), renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("export: create temp for %s: %w", dst, err)
	}

	bw := bufio.NewWriterSize(pf, 64<<10)
	if err := write(bw); err != nil {
		_ = pf.Cleanup()
		return fmt.Errorf("export: write %s: %w", dst, err)
	}
	if err := bw.Flush(); err != nil {
		_ = pf.Cleanup()
		return fmt.Errorf("export: flush %s: %w", dst, err)
	}

	b.files = append(b.files, pf)
	b.dsts = append(b.dsts, dst)
	return nil
}

// Paths returns the staged destinations in staging order.
func (b *Batch) Paths() []string {
	return append([]string(nil), b.dsts...)
}

// Commit syncs each staged file and renames it onto its destination in
// staging order. If one fails, the remaining temp files are removed;
// destinations replaced before the failure keep their new content.
func (b *Batch) Commit() error {
	if b.done {
		return errors.New("export: batch already committed or discarded")
	}
	b.done = true
	for i, pf := range b.files {
		if err := pf.CloseAtomicallyReplace(); err != nil {
			for _, rest := range b.files[i:] {
				_ = rest.Cleanup()
			}
			return fmt.Errorf("export: commit %s: %w", b.dsts[i], err)
		}
		log.Printf("export: wrote path=%s", b.dsts[i])
	}
	return nil
}

// Discard removes all staged temp files. It is a no-op after Commit, so it
// can be deferred unconditionally.
func (b *Batch) Discard() {
	if b.done {
		return
	}
	b.done = true
	for i, pf := range b.files {
		if err := pf.Cleanup(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("export: discard path=%s err=%v", b.dsts[i], err)
		}
	}
}
