package fs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TempFilePrefix marks in-flight documents. List and Watch skip them and
// Initialize sweeps the ones a crashed writer left behind.
const TempFilePrefix = "canon-tmp-"

// staleTempAge is how old an in-flight file must be before Initialize removes it.
const staleTempAge = time.Hour

// writeFileAtomic stages data in a sibling temp file and renames it over
// filename. The parent directory must already exist.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	staged, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", filepath.Base(filename), err)
	}
	name := staged.Name()

	if err := finishStaged(staged, data, perm); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("stage %s: %w", filepath.Base(filename), err)
	}
	if err := os.Rename(name, filename); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("publish %s: %w", filepath.Base(filename), err)
	}
	syncDir(dir)
	return nil
}

// finishStaged writes, flushes and closes f. f is always closed.
func finishStaged(f *os.File, data []byte, perm os.FileMode) error {
	_, werr := f.Write(data)
	serr := f.Sync()
	cerr := f.Close()
	if err := errors.Join(werr, serr, cerr); err != nil {
		return err
	}
	return os.Chmod(f.Name(), perm)
}

// syncDir persists the rename. Some platforms cannot fsync a directory; the
// document is already in place, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// sweepTempFiles removes in-flight files under root that are older than
// olderThan and returns how many it removed. Hidden directories are skipped.
func sweepTempFiles(root string, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(p); err == nil {
			removed++
		}
		return nil
	})
	return removed, err
}
