package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThrottle_RejectsZero(t *testing.T) {
	_, err := NewThrottle(0, 1, nil)
	assert.ErrorIs(t, err, ErrMustNotBeZero)

	_, err = NewThrottle(1, 0, nil)
	assert.ErrorIs(t, err, ErrMustNotBeZero)
}

func TestThrottle_SpacesRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	rt, err := NewThrottle(20, 1, http.DefaultTransport)
	require.NoError(t, err)
	client := &http.Client{Transport: rt}

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, int32(3), hits.Load())
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestThrottle_WaitHonorsContext(t *testing.T) {
	rt, err := NewThrottle(0.001, 1, http.DefaultTransport)
	require.NoError(t, err)

	// Spend the only token.
	require.True(t, rt.(*throttle).limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://127.0.0.1:1/", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, ErrWaitingFailed)
}
