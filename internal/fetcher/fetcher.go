// Package fetcher downloads portal pages through a list of public CORS
// relays, falling back to the next relay whenever one fails.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/billvault/internal/metrics"
	"github.com/mmynk/billvault/internal/models"
)

// MinBodyLength is the smallest body accepted as a real page. Relays that
// fail quietly tend to return empty or redirect stubs shorter than this.
const MinBodyLength = 200

// maxBodyBytes caps how much of one response is read.
const maxBodyBytes = 8 << 20

// Fetcher tries each proxy in order and returns the first acceptable body.
type Fetcher struct {
	proxies    []Proxy
	minLength  int
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMinLength overrides MinBodyLength.
func WithMinLength(n int) Option {
	return func(f *Fetcher) { f.minLength = n }
}

// WithHTTPClient replaces the default client, which times out after 20s.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// New creates a Fetcher with the default proxy list.
func New(logger *slog.Logger, opts ...Option) *Fetcher {
	return NewWithProxies(DefaultProxies, logger, opts...)
}

// NewWithProxies creates a Fetcher with a custom proxy list (for testing and
// configured deployments).
func NewWithProxies(proxies []Proxy, logger *slog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		proxies:    proxies,
		minLength:  MinBodyLength,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		log:        logger.With("adapter", "fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the body of target as served by the first proxy that
// answers with an acceptable page. Individual proxy failures are not
// reported; when all fail the error wraps models.ErrPortalUnreachable.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	for _, p := range f.proxies {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		body, err := f.try(ctx, p, target)
		if err != nil {
			metrics.ProxyAttempts.WithLabelValues(p.Name, "failed").Inc()
			f.log.DebugContext(ctx, "proxy attempt failed", "proxy", p.Name, "error", err)
			continue
		}

		metrics.ProxyAttempts.WithLabelValues(p.Name, "ok").Inc()
		f.log.DebugContext(ctx, "proxy attempt succeeded", "proxy", p.Name, "bytes", len(body))
		return body, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("fetch portal page: %w", models.ErrPortalUnreachable)
}

type envelope struct {
	Contents *string `json:"contents"`
}

func (f *Fetcher) try(ctx context.Context, p Proxy, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.RequestURL(target), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	body := string(raw)
	if p.Envelope {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", fmt.Errorf("decode envelope: %w", err)
		}
		if env.Contents == nil {
			return "", errors.New("envelope has no contents")
		}
		body = *env.Contents
	}

	if len(body) <= f.minLength {
		return "", fmt.Errorf("body too short (%d bytes)", len(body))
	}
	return body, nil
}
