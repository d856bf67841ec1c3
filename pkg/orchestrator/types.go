//go:generate mockgen -destination=./mocks/orchestrator.go . Resolver,Transferer,Verifier,ScriptRunner

package orchestrator

import (
	"context"
	"net/url"
	"time"

	"github.com/glorpus-work/wabbaget/pkg/hooks"
)

// Resolver produces a fresh, time-limited download location for an archive.
type Resolver interface {
	Resolve(ctx context.Context, fileID, gameID int64) (*url.URL, error)
}

// Transferer writes the bytes at u into path, starting at offset.
type Transferer interface {
	Fetch(ctx context.Context, u *url.URL, path string, offset int64) error
}

// Verifier checks a local file against its expected digest.
type Verifier interface {
	CompareFile(path, expected string) (bool, error)
}

// ScriptRunner executes the optional pre/post download hook scripts.
type ScriptRunner interface {
	Execute(ctx context.Context, hookType hooks.HookType, hctx hooks.Context) (hooks.Result, error)
}

// ExistingPolicy decides how a present file of the expected size is treated.
type ExistingPolicy string

const (
	// TrustSize skips a file whose size matches without hashing it.
	TrustSize ExistingPolicy = "trust-size"
	// AlwaysVerify hashes a file of matching size and re-downloads it on mismatch.
	AlwaysVerify ExistingPolicy = "always-verify"
)

// RetryPolicy bounds the download-verify loop of a single archive.
type RetryPolicy struct {
	// MaxAttempts is the number of downloads tried. <= 0 retries forever.
	MaxAttempts int
	// Delay is the pause after a digest mismatch.
	Delay time.Duration
}

// DefaultRetryPolicy returns the retry policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Delay: 2 * time.Second}
}

// Event phases.
const (
	PhaseChecking    = "checking"
	PhaseSkipped     = "skipped"
	PhaseResolving   = "resolving"
	PhaseDownloading = "downloading"
	PhaseVerifying   = "verifying"
	PhaseMismatch    = "mismatch"
	PhaseDone        = "done"
)

// Event represents a simple progress notification.
type Event struct {
	Phase    string
	Index    int // 1-based position in the run
	Total    int
	FileName string
	Msg      string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Result describes what happened to one archive.
type Result struct {
	Path     string
	Skipped  bool
	Attempts int
}

// Summary aggregates a whole run.
type Summary struct {
	Total      int
	Skipped    int
	Downloaded int
	Retries    int
}
