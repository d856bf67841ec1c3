// Package orchestrator drives every modlist archive through
// check, resolve, transfer and verify until its digest matches.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/glorpus-work/wabbaget/internal/logger"
	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/glorpus-work/wabbaget/pkg/fsutil"
	"github.com/glorpus-work/wabbaget/pkg/hooks"
	"github.com/glorpus-work/wabbaget/pkg/manifest"
	"github.com/spf13/afero"
)

// Orchestrator ties the resolver, transfer and digest verification together.
type Orchestrator struct {
	FS       afero.Fs
	Resolver Resolver
	Transfer Transferer
	Verifier Verifier
	Scripts  ScriptRunner // optional
	Retry    RetryPolicy
	Existing ExistingPolicy
	Hooks    Hooks // Hooks for progress and event notifications
}

// New creates an orchestrator with the default retry and existing-file policies.
func New(fs afero.Fs, resolver Resolver, transfer Transferer, verifier Verifier) *Orchestrator {
	return &Orchestrator{
		FS:       fs,
		Resolver: resolver,
		Transfer: transfer,
		Verifier: verifier,
		Retry:    DefaultRetryPolicy(),
		Existing: TrustSize,
	}
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Run processes entries in order into dir. The first fatal error stops the run.
func (o *Orchestrator) Run(ctx context.Context, entries []manifest.Entry, dir string) (Summary, error) {
	summary := Summary{Total: len(entries)}

	if err := fsutil.EnsureDir(o.FS, dir); err != nil {
		return summary, errors.Wrapf(err, "creating download directory %s", dir)
	}

	for i, entry := range entries {
		res, err := o.process(ctx, entry, dir, i+1, len(entries))
		if err != nil {
			return summary, err
		}
		if res.Skipped {
			summary.Skipped++
			continue
		}
		summary.Downloaded++
		summary.Retries += res.Attempts - 1
	}

	return summary, nil
}

// Process handles a single entry.
func (o *Orchestrator) Process(ctx context.Context, entry manifest.Entry, dir string) (Result, error) {
	return o.process(ctx, entry, dir, 1, 1)
}

func (o *Orchestrator) process(ctx context.Context, entry manifest.Entry, dir string, index, total int) (Result, error) {
	ev := func(phase, msg string) {
		emit(o.Hooks, Event{Phase: phase, Index: index, Total: total, FileName: entry.FileName, Msg: msg})
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	path, err := fsutil.SafeJoin(dir, entry.FileName)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", errors.ErrInvalidPath, err)
	}
	res := Result{Path: path}
	hctx := hookContext(entry, path)

	ev(PhaseChecking, "")

	if o.Scripts != nil {
		out, err := o.Scripts.Execute(ctx, hooks.PreDownload, hctx)
		if err != nil {
			return res, err
		}
		if out.Skip {
			res.Skipped = true
			ev(PhaseSkipped, "excluded by pre-download hook")
			return res, nil
		}
	}

	skip, err := o.checkExisting(entry, path)
	if err != nil {
		return res, err
	}
	if skip {
		res.Skipped = true
		ev(PhaseSkipped, "already downloaded")
		return res, nil
	}

	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		if err := ctx.Err(); err != nil {
			return res, err
		}

		ev(PhaseResolving, "")
		u, err := o.Resolver.Resolve(ctx, entry.FileID, entry.GameID)
		if err != nil {
			return res, errors.NewResolveError(entry.FileName, err)
		}

		offset, _, err := fsutil.FileSize(o.FS, path)
		if err != nil {
			return res, err
		}
		if offset > 0 {
			ev(PhaseDownloading, fmt.Sprintf("resuming at byte %d", offset))
		} else {
			ev(PhaseDownloading, "")
		}

		if err := o.Transfer.Fetch(ctx, u, path, offset); err != nil {
			return res, err
		}

		ev(PhaseVerifying, "")
		ok, err := o.Verifier.CompareFile(path, entry.Digest)
		if err != nil {
			return res, errors.Wrapf(err, "verifying %s", entry.FileName)
		}
		if ok {
			break
		}

		if err := fsutil.RemoveIfExists(o.FS, path); err != nil {
			return res, err
		}
		ev(PhaseMismatch, fmt.Sprintf("attempt %d", attempt))
		logger.Warn("Digest mismatch, re-downloading", logger.Fields{"file": entry.FileName, "attempt": attempt})

		if o.Retry.MaxAttempts > 0 && attempt >= o.Retry.MaxAttempts {
			return res, errors.NewIntegrityExhaustedError(entry.FileName, attempt)
		}
		if err := sleep(ctx, o.Retry.Delay); err != nil {
			return res, err
		}
	}

	if o.Scripts != nil {
		if _, err := o.Scripts.Execute(ctx, hooks.PostDownload, hctx); err != nil {
			return res, err
		}
	}

	ev(PhaseDone, "")
	return res, nil
}

// checkExisting reports whether a present file can be kept as is. Files
// that cannot be completed are removed.
func (o *Orchestrator) checkExisting(entry manifest.Entry, path string) (bool, error) {
	size, exists, err := fsutil.FileSize(o.FS, path)
	if err != nil || !exists {
		return false, err
	}

	switch {
	case size == entry.Size:
		if o.Existing != AlwaysVerify {
			return true, nil
		}
		ok, err := o.Verifier.CompareFile(path, entry.Digest)
		if err != nil {
			return false, errors.Wrapf(err, "verifying %s", entry.FileName)
		}
		if ok {
			return true, nil
		}
		logger.Warn("Existing file does not match its digest, discarding", logger.Fields{"file": entry.FileName})
		return false, fsutil.RemoveIfExists(o.FS, path)
	case size > entry.Size:
		logger.Warn("Existing file is larger than expected, discarding", logger.Fields{
			"file": entry.FileName, "size": size, "expected": entry.Size,
		})
		return false, fsutil.RemoveIfExists(o.FS, path)
	default:
		logger.Debug("Partial file found", logger.Fields{"file": entry.FileName, "size": size, "expected": entry.Size})
		return false, nil
	}
}

func hookContext(entry manifest.Entry, path string) hooks.Context {
	return hooks.Context{
		FileName:  entry.FileName,
		SizeBytes: entry.Size,
		Digest:    entry.Digest,
		GameID:    entry.GameID,
		FileID:    entry.FileID,
		Path:      path,
		GameName:  entry.GameName,
		ModID:     entry.ModID,
		ModName:   entry.ModName,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
