package transfer

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payload = bytes.Repeat([]byte("0123456789abcdef"), 512)

// rangeServer serves payload honouring Range requests and records the Range headers it saw.
type rangeServer struct {
	mu     sync.Mutex
	ranges []string
}

func (rs *rangeServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.ranges = append(rs.ranges, r.Header.Get("Range"))
		rs.mu.Unlock()
		http.ServeContent(w, r, "mod.7z", time.Time{}, bytes.NewReader(payload))
	})
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNewClient_DefaultUserAgent(t *testing.T) {
	c := NewClient(afero.NewMemMapFs(), time.Second, "")
	assert.Equal(t, DefaultUserAgent, c.userAgent)

	c = NewClient(afero.NewMemMapFs(), time.Second, "test-agent/1.0")
	assert.Equal(t, "test-agent/1.0", c.userAgent)
}

func TestFetch_FullDownloadCreatesDirectories(t *testing.T) {
	rs := &rangeServer{}
	server := httptest.NewServer(rs.handler())
	defer server.Close()

	fs := afero.NewMemMapFs()
	c := NewClient(fs, time.Second, "test")
	path := filepath.Join("/downloads", "nested", "mod.7z")

	require.NoError(t, c.Fetch(context.Background(), mustParse(t, server.URL), path, 0))

	got, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, []string{""}, rs.ranges)
}

func TestFetch_OffsetZeroTruncatesExistingFile(t *testing.T) {
	server := httptest.NewServer((&rangeServer{}).handler())
	defer server.Close()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/mod.7z", bytes.Repeat([]byte("x"), len(payload)+100), 0o644))

	c := NewClient(fs, time.Second, "test")
	require.NoError(t, c.Fetch(context.Background(), mustParse(t, server.URL), "/dl/mod.7z", 0))

	got, err := afero.ReadFile(fs, "/dl/mod.7z")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetch_ResumesFromOffset(t *testing.T) {
	rs := &rangeServer{}
	server := httptest.NewServer(rs.handler())
	defer server.Close()

	fs := afero.NewMemMapFs()
	partial := payload[:1000]
	require.NoError(t, afero.WriteFile(fs, "/dl/mod.7z", partial, 0o644))

	c := NewClient(fs, time.Second, "test")
	require.NoError(t, c.Fetch(context.Background(), mustParse(t, server.URL), "/dl/mod.7z", int64(len(partial))))

	got, err := afero.ReadFile(fs, "/dl/mod.7z")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, []string{"bytes=1000-"}, rs.ranges)
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		existing   []byte
		offset     int64
		wantCause  error
		wantStatus int
	}{
		{
			name: "server ignores range",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(payload)
			},
			existing:   payload[:10],
			offset:     10,
			wantCause:  ErrRangeIgnored,
			wantStatus: http.StatusOK,
		},
		{
			name: "range not satisfiable",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			},
			existing:   payload[:10],
			offset:     10,
			wantCause:  ErrRangeNotSatisfiable,
			wantStatus: http.StatusRequestedRangeNotSatisfiable,
		},
		{
			name: "content range starts elsewhere",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Range", "bytes 0-9/100")
				w.WriteHeader(http.StatusPartialContent)
				_, _ = w.Write(payload[:10])
			},
			existing:   payload[:10],
			offset:     10,
			wantCause:  ErrContentRange,
			wantStatus: http.StatusPartialContent,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantCause:  ErrUnexpectedStatus,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "offset does not match local length",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				t.Error("no request expected")
			},
			existing:  payload[:10],
			offset:    20,
			wantCause: ErrOffsetMismatch,
		},
		{
			name: "resume without local file",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				t.Error("no request expected")
			},
			offset:    20,
			wantCause: ErrOffsetMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			fs := afero.NewMemMapFs()
			if tt.existing != nil {
				require.NoError(t, afero.WriteFile(fs, "/dl/mod.7z", tt.existing, 0o644))
			}

			c := NewClient(fs, time.Second, "test")
			err := c.Fetch(context.Background(), mustParse(t, server.URL), "/dl/mod.7z", tt.offset)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrTransfer)
			assert.ErrorIs(t, err, tt.wantCause)

			var transferErr *errors.TransferError
			require.ErrorAs(t, err, &transferErr)
			assert.Equal(t, tt.wantStatus, transferErr.StatusCode)
			assert.Equal(t, tt.offset, transferErr.Offset)

			if tt.existing != nil {
				got, err := afero.ReadFile(fs, "/dl/mod.7z")
				require.NoError(t, err)
				assert.Equal(t, tt.existing, got, "partial file must be left untouched")
			}
		})
	}
}

func TestFetch_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c := NewClient(afero.NewMemMapFs(), time.Second, "test")
	err := c.Fetch(context.Background(), mustParse(t, addr), "/dl/mod.7z", 0)
	assert.ErrorIs(t, err, errors.ErrTransfer)
}

func TestFetch_NilURL(t *testing.T) {
	c := NewClient(afero.NewMemMapFs(), time.Second, "test")
	err := c.Fetch(context.Background(), nil, "/dl/mod.7z", 0)
	assert.ErrorIs(t, err, ErrNilURL)
}

func TestFetch_BandwidthLimitAndProgress(t *testing.T) {
	server := httptest.NewServer((&rangeServer{}).handler())
	defer server.Close()

	fs := afero.NewMemMapFs()
	c := NewClient(fs, time.Second, "test", WithBandwidthLimit(1<<20), WithProgress())
	require.NotNil(t, c.limiter)

	require.NoError(t, c.Fetch(context.Background(), mustParse(t, server.URL), "/dl/mod.7z", 0))

	got, err := afero.ReadFile(fs, "/dl/mod.7z")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWithBandwidthLimit_Disabled(t *testing.T) {
	c := NewClient(afero.NewMemMapFs(), time.Second, "test", WithBandwidthLimit(0))
	assert.Nil(t, c.limiter)
}

func TestContentRangeStart(t *testing.T) {
	tests := []struct {
		header  string
		want    int64
		wantErr bool
	}{
		{header: "bytes 1000-8191/8192", want: 1000},
		{header: "bytes 0-0/1", want: 0},
		{header: "bytes */8192", wantErr: true},
		{header: "", wantErr: true},
		{header: "items 1-2/3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := contentRangeStart(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrContentRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
