// Package resolver turns a (file id, game id) pair into a time-limited
// download location.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/wabbaget/internal/logger"
	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/glorpus-work/wabbaget/pkg/session"
)

const (
	// DefaultEndpoint is the Nexus Mods download link generator.
	DefaultEndpoint = "https://www.nexusmods.com/Core/Libs/Common/Managers/Downloads?GenerateDownloadUrl"

	// DefaultRate is the default number of resolver calls per second.
	DefaultRate = 1.0

	defaultBurst = 1

	// maxResponseSize caps the generator response we are willing to decode.
	maxResponseSize = 64 * 1024
)

// Resolver produces a fresh download location for a file.
type Resolver interface {
	Resolve(ctx context.Context, fileID, gameID int64) (*url.URL, error)
}

// NexusResolver asks the Nexus Mods site for a download location using the
// cookies of a logged in session.
type NexusResolver struct {
	client    *http.Client
	endpoint  string
	userAgent string
	rps       float64
	transport http.RoundTripper
}

// Option configures a NexusResolver.
type Option func(*NexusResolver)

// WithEndpoint overrides the link generator endpoint.
func WithEndpoint(endpoint string) Option {
	return func(r *NexusResolver) {
		r.endpoint = endpoint
	}
}

// WithRate sets the resolver call budget in calls per second. Values <= 0
// disable throttling.
func WithRate(rps float64) Option {
	return func(r *NexusResolver) {
		r.rps = rps
	}
}

// WithTransport replaces the underlying transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(r *NexusResolver) {
		r.transport = rt
	}
}

// NewNexusResolver creates a resolver bound to sess.
func NewNexusResolver(sess *session.Session, timeout time.Duration, userAgent string, opts ...Option) (*NexusResolver, error) {
	if !sess.Valid() {
		return nil, errors.Wrap(errors.ErrSessionExpired, ErrNoSession.Error())
	}

	r := &NexusResolver{
		endpoint:  DefaultEndpoint,
		userAgent: userAgent,
		rps:       DefaultRate,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(r)
	}

	jar, err := sess.Jar()
	if err != nil {
		return nil, err
	}

	rt := r.transport
	if r.rps > 0 {
		rt, err = NewThrottle(r.rps, defaultBurst, r.transport)
		if err != nil {
			return nil, err
		}
	}

	r.client = &http.Client{
		Timeout:   timeout,
		Transport: rt,
		Jar:       jar,
		// A redirect from the generator means the session was bounced to the login page.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return r, nil
}

type generateResponse struct {
	URL string `json:"url"`
}

// Resolve requests a download location for fileID of gameID.
func (r *NexusResolver) Resolve(ctx context.Context, fileID, gameID int64) (*url.URL, error) {
	form := url.Values{}
	form.Set("fid", strconv.FormatInt(fileID, 10))
	form.Set("game_id", strconv.FormatInt(gameID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resolver request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	logger.Debug("Resolving download url", logger.Fields{"file_id": fileID, "game_id": gameID})

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "resolver request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return nil, errors.Wrapf(errors.ErrSessionExpired, "resolver answered HTTP %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %w: HTTP %d", errors.ErrSessionExpired, ErrBadStatus, resp.StatusCode)
	}

	var body generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return nil, errors.Wrap(errors.ErrSessionExpired, fmt.Sprintf("undecodable resolver response: %v", err))
	}
	if body.URL == "" {
		return nil, errors.Wrap(errors.ErrSessionExpired, ErrEmptyURL.Error())
	}

	u, err := url.Parse(quote(body.URL))
	if err != nil {
		return nil, errors.Wrap(err, "resolver returned an unusable url")
	}
	return u, nil
}

const safeChars = ":/?&=%"

// quote percent-encodes every byte of s except unreserved characters and
// safeChars, leaving existing escapes intact.
func quote(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(safeChars, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
