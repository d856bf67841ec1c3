// Package transfer fetches a URL into a local file, resuming from the length
// of a partial file left behind by an earlier attempt.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/wabbaget/internal/logger"
	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/glorpus-work/wabbaget/pkg/fsutil"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "wabbaget/1.0"

// Client performs resumable HTTP transfers.
type Client struct {
	fs        afero.Fs
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	progress  bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithBandwidthLimit caps the transfer rate in bytes per second. Zero or less disables the cap.
func WithBandwidthLimit(bytesPerSecond int) Option {
	return func(c *Client) {
		if bytesPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
	}
}

// WithProgress enables progress logging at most once per second.
func WithProgress() Option {
	return func(c *Client) {
		c.progress = true
	}
}

// NewClient creates a transfer client writing to fs. timeout bounds the wait
// for response headers only, since bodies may take arbitrarily long.
func NewClient(fs afero.Fs, timeout time.Duration, userAgent string, opts ...Option) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	c := &Client{
		fs:        fs,
		client:    &http.Client{Transport: transport},
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads u into path. With offset 0 the file is created (or
// truncated) and filled from the start; otherwise offset must equal the
// current file length and the remainder is requested with a byte range and
// appended. A server that ignores or rejects the range is an error, never a
// silent restart.
func (c *Client) Fetch(ctx context.Context, u *url.URL, path string, offset int64) error {
	if u == nil {
		return errors.NewTransferError("", offset, 0, ErrNilURL)
	}
	rawURL := u.String()

	if err := c.checkOffset(path, offset); err != nil {
		return errors.NewTransferError(rawURL, offset, 0, err)
	}
	if err := fsutil.EnsureFileDir(c.fs, path); err != nil {
		return errors.NewTransferError(rawURL, offset, 0, errors.Wrap(err, "could not create download dir"))
	}

	resp, err := c.doRequest(ctx, rawURL, offset)
	if err != nil {
		return errors.NewTransferError(rawURL, offset, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp, offset); err != nil {
		return errors.NewTransferError(rawURL, offset, resp.StatusCode, err)
	}

	if err := c.writeBody(ctx, resp, path, offset); err != nil {
		return errors.NewTransferError(rawURL, offset, resp.StatusCode, err)
	}
	return nil
}

func (c *Client) checkOffset(path string, offset int64) error {
	if offset < 0 {
		return fmt.Errorf("negative offset %d: %w", offset, ErrOffsetMismatch)
	}
	if offset == 0 {
		return nil
	}
	size, exists, err := fsutil.FileSize(c.fs, path)
	if err != nil {
		return err
	}
	if !exists || size != offset {
		return fmt.Errorf("have %d bytes, resume at %d: %w", size, offset, ErrOffsetMismatch)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string, offset int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download failed")
	}
	return resp, nil
}

func checkResponse(resp *http.Response, offset int64) error {
	switch {
	case offset == 0 && resp.StatusCode == http.StatusOK:
		return nil
	case offset > 0 && resp.StatusCode == http.StatusOK:
		return ErrRangeIgnored
	case offset > 0 && resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		return ErrRangeNotSatisfiable
	case offset > 0 && resp.StatusCode == http.StatusPartialContent:
		start, err := contentRangeStart(resp.Header.Get("Content-Range"))
		if err != nil {
			return err
		}
		if start != offset {
			return fmt.Errorf("range starts at %d, want %d: %w", start, offset, ErrContentRange)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}

// contentRangeStart parses the first byte position of "bytes <start>-<end>/<total>".
func contentRangeStart(header string) (int64, error) {
	rangeSpec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes ")
	if !ok {
		return 0, fmt.Errorf("%q: %w", header, ErrContentRange)
	}
	startStr, _, ok := strings.Cut(rangeSpec, "-")
	if !ok {
		return 0, fmt.Errorf("%q: %w", header, ErrContentRange)
	}
	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", header, ErrContentRange)
	}
	return start, nil
}

func (c *Client) writeBody(ctx context.Context, resp *http.Response, path string, offset int64) error {
	flags := os.O_WRONLY | os.O_CREATE
	if offset == 0 {
		flags |= os.O_TRUNC
	}
	file, err := c.fs.OpenFile(path, flags, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(err, "could not open file")
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		_ = file.Close()
		return errors.Wrap(err, "could not seek to resume offset")
	}

	var writer io.Writer = file
	if c.limiter != nil {
		writer = &limitedWriter{ctx: ctx, w: writer, limiter: c.limiter}
	}
	if c.progress {
		total := int64(-1)
		if resp.ContentLength >= 0 {
			total = offset + resp.ContentLength
		}
		writer = &progressWriter{
			w:           writer,
			name:        path,
			transferred: offset,
			total:       total,
			startTime:   time.Now(),
		}
	}

	n, err := io.Copy(writer, resp.Body)
	if err != nil {
		// Whatever reached the file stays there for the next resume.
		_ = file.Close()
		return errors.Wrap(err, "could not write file")
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		_ = file.Close()
		return fmt.Errorf("expected %d bytes, got %d: %w", resp.ContentLength, n, ErrShortBody)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return errors.Wrap(err, "could not sync file")
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, "could not close file")
	}

	logger.Debug("transfer complete", logger.Fields{"path": path, "offset": offset, "bytes": n})
	return nil
}
