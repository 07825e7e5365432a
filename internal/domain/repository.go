package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PageFetcher retrieves the raw body of a page. Implementations own
// headers, rate limiting and transport-level retries.
type PageFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// RunRepository persists harvest runs and their unified tables
type RunRepository interface {
	SaveRun(ctx context.Context, run *RunResult) error
	LatestRun(ctx context.Context) (*RunSummary, error)
	LoadTable(ctx context.Context, runID string) (FoodTable, error)
}
