package orchestrator

import (
	"context"
	"fmt"

	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/glorpus-work/wabbaget/pkg/fsutil"
	"github.com/glorpus-work/wabbaget/pkg/manifest"
)

// FileStatus is the verification outcome for one archive.
type FileStatus string

const (
	StatusOK        FileStatus = "ok"
	StatusMissing   FileStatus = "missing"
	StatusWrongSize FileStatus = "wrong-size"
	StatusMismatch  FileStatus = "mismatch"
)

// Check pairs an entry with its verification outcome.
type Check struct {
	Entry  manifest.Entry
	Path   string
	Size   int64
	Status FileStatus
}

// Verify hashes every present file of the expected size and reports the state
// of each entry. It never downloads or deletes anything.
func (o *Orchestrator) Verify(ctx context.Context, entries []manifest.Entry, dir string) ([]Check, error) {
	checks := make([]Check, 0, len(entries))
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return checks, err
		}

		path, err := fsutil.SafeJoin(dir, entry.FileName)
		if err != nil {
			return checks, fmt.Errorf("%w: %w", errors.ErrInvalidPath, err)
		}
		check := Check{Entry: entry, Path: path}

		emit(o.Hooks, Event{Phase: PhaseVerifying, Index: i + 1, Total: len(entries), FileName: entry.FileName})

		size, exists, err := fsutil.FileSize(o.FS, path)
		switch {
		case err != nil:
			return checks, err
		case !exists:
			check.Status = StatusMissing
		case size != entry.Size:
			check.Size = size
			check.Status = StatusWrongSize
		default:
			check.Size = size
			ok, err := o.Verifier.CompareFile(path, entry.Digest)
			if err != nil {
				return checks, errors.Wrapf(err, "verifying %s", entry.FileName)
			}
			check.Status = StatusOK
			if !ok {
				check.Status = StatusMismatch
			}
		}
		checks = append(checks, check)
	}
	return checks, nil
}
