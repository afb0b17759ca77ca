package ports

import (
	"context"

	"github.com/aretw0/viewhost/pkg/domain"
)

// PackageLoader resolves a batch of import requests.
// It returns one result per request, in request order.
type PackageLoader interface {
	Load(ctx context.Context, requests []domain.ImportRequest) []domain.PackageResult
}

// PackageCache stores fetched package payloads by key (name/version).
type PackageCache interface {
	// Get returns domain.ErrPackageNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	// Flush drops every cached package.
	Flush(ctx context.Context) error
}

// Scheduler runs tasks after the current call stack unwinds, in submission order.
// Post is called with document locks held: it must not block on a task or run
// one inline.
type Scheduler interface {
	Post(task func())
}
