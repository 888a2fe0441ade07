// Package fetcher downloads activity files from the device platform.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/config"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
)

// Authorizer signs a request with a user's delegated token.
type Authorizer interface {
	Authorize(req *http.Request, accessToken, tokenSecret string) error
}

// Config holds the platform endpoint and limits.
type Config struct {
	BaseURL    string // generic activity-file endpoint, used when no callback URL is known
	AuthScheme string // config.AuthSchemeBearer or config.AuthSchemeOAuth1
	Timeout    time.Duration
	MaxBytes   int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client. The client's own timeout still applies.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// Fetcher retrieves raw activity files. It has no side effects besides the HTTP call.
type Fetcher struct {
	client     *http.Client
	cfg        Config
	callbacks  domain.CallbackStore
	authorizer Authorizer
}

// New constructs a Fetcher. authorizer is required when cfg.AuthScheme is oauth1.
func New(cfg Config, callbacks domain.CallbackStore, authorizer Authorizer, opts ...Option) *Fetcher {
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = config.AuthSchemeBearer
	}
	f := &Fetcher{
		client:     &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		callbacks:  callbacks,
		authorizer: authorizer,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the file for activityID. A nil or inactive connection fails with
// domain.ErrNotConnected before any network I/O.
func (f *Fetcher) Fetch(ctx context.Context, activityID string, conn *domain.Connection) ([]byte, error) {
	if conn == nil || !conn.Active {
		return nil, domain.ErrNotConnected
	}

	target, err := f.resolveURL(ctx, activityID, conn)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrFileUnavailable, err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	if err := f.authorize(req, conn); err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFileUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}

	limit := f.cfg.MaxBytes
	if limit <= 0 {
		limit = 16 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrFileUnavailable, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrFileUnavailable, limit)
	}
	return body, nil
}

func (f *Fetcher) resolveURL(ctx context.Context, activityID string, conn *domain.Connection) (string, error) {
	base := f.cfg.BaseURL
	if f.callbacks != nil {
		callback, err := f.callbacks.CallbackURL(ctx, conn.TenantID, conn.UserID, activityID)
		if err != nil {
			return "", fmt.Errorf("lookup callback url: %w", err)
		}
		if callback != "" {
			base = callback
		}
	}
	if base == "" {
		return "", fmt.Errorf("%w: no activity file endpoint configured", domain.ErrFileUnavailable)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: parse endpoint: %v", domain.ErrFileUnavailable, err)
	}
	query := u.Query()
	if query.Get("activityId") == "" {
		query.Set("activityId", activityID)
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (f *Fetcher) authorize(req *http.Request, conn *domain.Connection) error {
	switch f.cfg.AuthScheme {
	case config.AuthSchemeOAuth1:
		if f.authorizer == nil {
			return fmt.Errorf("%w: no signer configured", domain.ErrCryptoUnavailable)
		}
		return f.authorizer.Authorize(req, conn.AccessToken, conn.TokenSecret)
	case config.AuthSchemeBearer:
		req.Header.Set("Authorization", "Bearer "+conn.AccessToken)
		return nil
	default:
		return fmt.Errorf("unsupported platform auth scheme %q", f.cfg.AuthScheme)
	}
}

// StatusError is a non-2xx platform response. It matches domain.ErrFileUnavailable.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("activity file request failed with status %d", e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is lets errors.Is(err, domain.ErrFileUnavailable) match.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrFileUnavailable
}
