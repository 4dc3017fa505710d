package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSize returns the on-disk byte size of a file, or of every regular file
// below a directory. A missing path is 0. Entries that cannot be read
// contribute nothing; the first such failure is returned alongside the
// partial total.
func DirSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	if !info.IsDir() {
		return info.Size(), nil
	}

	// WalkDir does not follow a symlinked root
	root, err := filepath.EvalSymlinks(path)
	if err != nil {
		return 0, err
	}

	var total int64
	var firstErr error

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission denied or vanished entry - skip and continue
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}

		total += fi.Size()
		return nil
	})

	if walkErr != nil && firstErr == nil {
		firstErr = walkErr
	}
	if firstErr != nil {
		return total, fmt.Errorf("partial size for %s: %w", path, firstErr)
	}

	return total, nil
}
