package jsondb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/ctr-titledb/internal/metrics"
	"github.com/JakeFAU/ctr-titledb/pkg/fetcherr"
	"github.com/JakeFAU/ctr-titledb/pkg/index"
	"github.com/JakeFAU/ctr-titledb/pkg/transport"
)

// DefaultBaseURL hosts the per-region list_<CODE>.json files.
const DefaultBaseURL = "https://raw.githubusercontent.com/hax0kartik/3dsdb/master/jsons"

// Client fetches region partitions of the JSON feed.
type Client struct {
	getter  transport.Getter
	baseURL string
	logger  *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the host and path the region files live under.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
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
		getter:  getter,
		baseURL: DefaultBaseURL,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is delivered by ReleasesAsync.
type Result struct {
	Region   Region
	Releases []Release
	Err      error
}

// Endpoint returns the URL of the region's list file.
func (c *Client) Endpoint(region Region) string {
	return fmt.Sprintf("%s/list_%s.json", strings.TrimRight(c.baseURL, "/"), region)
}

// Releases fetches and decodes a single region, blocking until done.
func (c *Client) Releases(ctx context.Context, region Region) ([]Release, error) {
	if !region.Valid() {
		return nil, fmt.Errorf("jsondb: %w: %s", ErrUnknownRegion, region)
	}
	url := c.Endpoint(region)
	logger := c.logger.With(zap.String("source", Source), zap.Stringer("region", region), zap.String("url", url))
	logger.Debug("fetching region")

	start := time.Now()
	done := metrics.StartFetch(Source)
	body, err := c.getter.Get(ctx, url)
	done()
	if err != nil {
		metrics.ObserveFetch(Source, metrics.OutcomeTransportError, time.Since(start), 0)
		logger.Warn("region fetch failed", zap.Error(err))
		return nil, fetcherr.Transport(Source, url, err)
	}
	metrics.ObserveBytes(url, len(body))

	releases, err := decode(body)
	if err != nil {
		metrics.ObserveFetch(Source, metrics.OutcomeDecodeError, time.Since(start), 0)
		logger.Warn("region decode failed", zap.Error(err), zap.Int("bytes", len(body)))
		return nil, fetcherr.Decode(Source, url, err)
	}

	elapsed := time.Since(start)
	metrics.ObserveFetch(Source, metrics.OutcomeSuccess, elapsed, len(releases))
	logger.Debug("region fetched", zap.Int("records", len(releases)), zap.Duration("duration", elapsed))
	return releases, nil
}

// ReleasesAsync runs Releases in the background. The channel receives
// exactly one Result and is then closed.
func (c *Client) ReleasesAsync(ctx context.Context, region Region) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		releases, err := c.Releases(ctx, region)
		out <- Result{Region: region, Releases: releases, Err: err}
	}()
	return out
}

// AllReleases fetches every region concurrently and concatenates the
// results in canonical region order. Any failure fails the whole call; the
// error returned is the first one observed, and no records are returned.
// Sibling fetches are not canceled.
func (c *Client) AllReleases(ctx context.Context) ([]Release, error) {
	regions := Regions()
	parts := make([][]Release, len(regions))
	start := time.Now()

	var g errgroup.Group
	for i, region := range regions {
		g.Go(func() error {
			releases, err := c.Releases(ctx, region)
			if err != nil {
				return err
			}
			parts[i] = releases
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Warn("all-region fetch failed", zap.String("source", Source), zap.Error(err))
		return nil, err
	}

	total := 0
	for _, part := range parts {
		total += len(part)
	}
	out := make([]Release, 0, total)
	for _, part := range parts {
		out = append(out, part...)
	}
	c.logger.Info("all regions fetched",
		zap.String("source", Source),
		zap.Int("regions", len(regions)),
		zap.Int("records", total),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// ReleasesMap fetches a region and indexes it by title ID.
func (c *Client) ReleasesMap(ctx context.Context, region Region) (map[string]Release, error) {
	releases, err := c.Releases(ctx, region)
	if err != nil {
		return nil, err
	}
	return index.ByTitleID(releases), nil
}
