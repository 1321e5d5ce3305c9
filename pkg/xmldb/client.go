// Package xmldb fetches the single-document XML catalog published by
// 3dsdb.com and decodes it into releases.
package xmldb

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/ctr-titledb/internal/metrics"
	"github.com/JakeFAU/ctr-titledb/pkg/fetcherr"
	"github.com/JakeFAU/ctr-titledb/pkg/index"
	"github.com/JakeFAU/ctr-titledb/pkg/transport"
)

// DefaultURL is the catalog endpoint.
const DefaultURL = "http://3dsdb.com/xml.php"

// Client fetches the XML catalog.
type Client struct {
	getter transport.Getter
	url    string
	logger *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithURL overrides the catalog endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Client on top of getter.
func New(getter transport.Getter, opts ...Option) *Client {
	c := &Client{
		getter: getter,
		url:    DefaultURL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is delivered by ReleasesAsync.
type Result struct {
	Releases []Release
	Err      error
}

// URL returns the endpoint the client fetches.
func (c *Client) URL() string {
	return c.url
}

// Releases fetches and decodes the catalog, blocking until done.
func (c *Client) Releases(ctx context.Context) ([]Release, error) {
	logger := c.logger.With(zap.String("source", Source), zap.String("url", c.url))
	logger.Debug("fetching catalog")

	start := time.Now()
	done := metrics.StartFetch(Source)
	body, err := c.getter.Get(ctx, c.url)
	done()
	if err != nil {
		metrics.ObserveFetch(Source, metrics.OutcomeTransportError, time.Since(start), 0)
		logger.Warn("catalog fetch failed", zap.Error(err))
		return nil, fetcherr.Transport(Source, c.url, err)
	}
	metrics.ObserveBytes(c.url, len(body))

	releases, err := decode(body)
	if err != nil {
		metrics.ObserveFetch(Source, metrics.OutcomeDecodeError, time.Since(start), 0)
		logger.Warn("catalog decode failed", zap.Error(err), zap.Int("bytes", len(body)))
		return nil, fetcherr.Decode(Source, c.url, err)
	}

	elapsed := time.Since(start)
	metrics.ObserveFetch(Source, metrics.OutcomeSuccess, elapsed, len(releases))
	logger.Info("catalog fetched", zap.Int("records", len(releases)), zap.Duration("duration", elapsed))
	return releases, nil
}

// ReleasesAsync runs Releases in the background. The channel receives
// exactly one Result and is then closed.
func (c *Client) ReleasesAsync(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		releases, err := c.Releases(ctx)
		out <- Result{Releases: releases, Err: err}
	}()
	return out
}

// ReleasesMap fetches the catalog and indexes it by title ID.
func (c *Client) ReleasesMap(ctx context.Context) (map[string]Release, error) {
	releases, err := c.Releases(ctx)
	if err != nil {
		return nil, err
	}
	return index.ByTitleID(releases), nil
}
