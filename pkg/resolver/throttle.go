package resolver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/glorpus-work/wabbaget/internal/logger"
	"golang.org/x/time/rate"
)

// throttle is an http.RoundTripper that spends a token bucket before every
// outbound request.
type throttle struct {
	limiter *rate.Limiter
	rps     float64
	burst   int
	next    http.RoundTripper
}

// NewThrottle wraps next so that at most rps requests per second are sent,
// with bursts of up to burst requests.
func NewThrottle(rps float64, burst int, next http.RoundTripper) (http.RoundTripper, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%g] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}
	if next == nil {
		next = http.DefaultTransport
	}

	return &throttle{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		next:    next,
	}, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	if !t.limiter.Allow() {
		start := time.Now()
		logger.Debug("Resolver rate limit reached, waiting", logger.Fields{"rate": t.rps, "burst": t.burst})
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
		}
		logger.Debug("Resolver throttle wait complete", logger.Fields{"waited": time.Since(start).String()})
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}
