// Package content resolves the packages a document imports.
//
// A Loader looks a package up in its cache, then asks the host override, then
// fetches it from the request's own source or from the conventional location
// <baseURL>/<name>/<version>/document.json. Batches load concurrently and
// concurrent loads of the same package share one fetch.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/ports"
)

const (
	// DefaultBaseURL hosts the public packages.
	DefaultBaseURL = "https://d2na8397m465mh.cloudfront.net/packages"
	// PackageFileName is the file fetched under <baseURL>/<name>/<version>/.
	PackageFileName = "document.json"

	defaultConcurrency = 8
)

// Fetcher retrieves a package payload.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// OverrideFunc lets the host supply packages itself. An error falls back to fetching.
type OverrideFunc func(ctx context.Context, req domain.ImportRequest) ([]byte, error)

// Option configures a Loader.
type Option func(*Loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func WithCache(cache ports.PackageCache) Option {
	return func(l *Loader) {
		l.cache = cache
	}
}

func WithOverride(fn OverrideFunc) Option {
	return func(l *Loader) {
		l.override = fn
	}
}

func WithFetcher(f Fetcher) Option {
	return func(l *Loader) {
		l.fetcher = f
	}
}

func WithBaseURL(url string) Option {
	return func(l *Loader) {
		l.baseURL = strings.TrimRight(url, "/")
	}
}

// WithConcurrency bounds the number of packages fetched at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// Loader implements ports.PackageLoader.
type Loader struct {
	logger      *slog.Logger
	cache       ports.PackageCache
	override    OverrideFunc
	fetcher     Fetcher
	baseURL     string
	concurrency int

	inflight singleflight.Group
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
		baseURL:     DefaultBaseURL,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fetcher == nil {
		l.fetcher = NewHTTPFetcher(nil)
	}
	return l
}

// Load resolves every request. Results are in request order; a failed request
// carries a *domain.PackageError.
func (l *Loader) Load(ctx context.Context, requests []domain.ImportRequest) []domain.PackageResult {
	results := make([]domain.PackageResult, len(requests))
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, req := range requests {
		g.Go(func() error {
			data, err := l.loadShared(ctx, req)
			results[i] = domain.PackageResult{Request: req, Data: data, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// loadShared joins any in-flight load of the same key. The shared load is not
// bound to one caller's cancellation; each caller stops waiting on its own ctx.
func (l *Loader) loadShared(ctx context.Context, req domain.ImportRequest) ([]byte, error) {
	ch := l.inflight.DoChan(req.Key(), func() (any, error) {
		return l.load(context.WithoutCancel(ctx), req)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]byte), nil
	case <-ctx.Done():
		return nil, &domain.PackageError{Name: req.Name, Version: req.Version, Err: ctx.Err()}
	}
}

func (l *Loader) load(ctx context.Context, req domain.ImportRequest) ([]byte, error) {
	key := req.Key()
	if l.cache != nil {
		data, err := l.cache.Get(ctx, key)
		if err == nil {
			l.logger.Debug("package cache hit", "package", key)
			return data, nil
		}
		if !errors.Is(err, domain.ErrPackageNotFound) {
			l.logger.Warn("package cache lookup failed", "package", key, "err", err)
		}
	}

	data, err := l.fetch(ctx, req)
	if err == nil {
		err = validatePackage(data)
	}
	if err != nil {
		return nil, &domain.PackageError{Name: req.Name, Version: req.Version, Err: err}
	}

	if l.cache != nil {
		if err := l.cache.Put(ctx, key, data); err != nil {
			l.logger.Warn("failed to cache package", "package", key, "err", err)
		}
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, req domain.ImportRequest) ([]byte, error) {
	if l.override != nil {
		data, err := l.override(ctx, req)
		if err == nil {
			return data, nil
		}
		l.logger.Debug("package override failed, fetching", "package", req.Key(), "err", err)
	}
	url := l.URL(req)
	l.logger.Debug("fetching package", "package", req.Key(), "url", url)
	return l.fetcher.Fetch(ctx, url)
}

// URL returns where req is fetched from when no override supplies it.
func (l *Loader) URL(req domain.ImportRequest) string {
	if req.Source != "" {
		return req.Source
	}
	return fmt.Sprintf("%s/%s/%s/%s", l.baseURL, req.Name, req.Version, PackageFileName)
}

// Flush drops every cached package.
func (l *Loader) Flush(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Flush(ctx)
}

func validatePackage(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("package is not a JSON object: %w", err)
	}
	if len(obj) == 0 {
		return errors.New("package is empty")
	}
	return nil
}
