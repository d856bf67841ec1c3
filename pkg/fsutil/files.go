package fsutil

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

// FileSize reports the size of the regular file at path.
// A missing file is not an error: exists is false and size is 0.
func FileSize(fsys afero.Fs, path string) (size int64, exists bool, err error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, false, fmt.Errorf("%s is a directory, not a file", path)
	}
	return info.Size(), true, nil
}

// RemoveIfExists deletes the file at path, ignoring a file that is already gone.
func RemoveIfExists(fsys afero.Fs, path string) error {
	if err := fsys.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
