package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/myfcd/harvester/internal/domain"
)

// Cache keys of the published snapshot
const (
	tableCacheKey   = "table:latest"
	summaryCacheKey = "run:latest"
)

// TableServiceConfig holds configuration for the table service
type TableServiceConfig struct {
	CacheTTL time.Duration
	Search   SearchConfig
}

// TableService serves lookups over the latest published unified table.
// The table lives in the cache; on a miss it is reloaded from the run
// repository when one is configured.
type TableService struct {
	cache    domain.CacheRepository
	runs     domain.RunRepository
	search   *SearchService
	cacheTTL time.Duration
}

// NewTableService creates a new table service with dependencies. runs may be nil.
func NewTableService(
	cache domain.CacheRepository,
	runs domain.RunRepository,
	config TableServiceConfig,
) *TableService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &TableService{
		cache:    cache,
		runs:     runs,
		search:   NewSearchService(config.Search),
		cacheTTL: cacheTTL,
	}
}

// Publish makes table the snapshot served by the service. summary may be nil
// when the table comes from a plain export file.
func (s *TableService) Publish(ctx context.Context, table domain.FoodTable, summary *domain.RunSummary) error {
	if table == nil {
		return domain.ErrInvalidRequest
	}
	// Without a repository an expired snapshot could never be reloaded
	ttl := s.cacheTTL
	if s.runs == nil {
		ttl = 0
	}
	if err := s.cache.Set(ctx, tableCacheKey, table, ttl); err != nil {
		return fmt.Errorf("caching table: %w", err)
	}
	if summary != nil {
		if err := s.cache.Set(ctx, summaryCacheKey, summary, ttl); err != nil {
			return fmt.Errorf("caching run summary: %w", err)
		}
	}
	return nil
}

// Refresh loads the latest stored run and publishes it
func (s *TableService) Refresh(ctx context.Context) error {
	if s.runs == nil {
		return domain.ErrCacheMiss
	}

	summary, err := s.runs.LatestRun(ctx)
	if err != nil {
		return err
	}
	table, err := s.runs.LoadTable(ctx, summary.RunID)
	if err != nil {
		return err
	}

	log.Printf("[TABLE] Loaded run %s (%d foods)", summary.RunID, len(table))
	return s.Publish(ctx, table, summary)
}

// Food returns the record for an exact food name
func (s *TableService) Food(ctx context.Context, name string) (*domain.FoodRecord, error) {
	if name == "" {
		return nil, domain.ErrInvalidRequest
	}
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	record, ok := table[name]
	if !ok {
		return nil, domain.ErrFoodNotFound
	}
	return &record, nil
}

// FoodNames returns every food name, sorted
func (s *TableService) FoodNames(ctx context.Context) ([]string, error) {
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return table.Names(), nil
}

// NutrientNames returns the sorted union of nutrient names
func (s *TableService) NutrientNames(ctx context.Context) ([]string, error) {
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return table.NutrientNames(), nil
}

// Search ranks the table's food names against query
func (s *TableService) Search(ctx context.Context, query string, limit int) ([]domain.SearchMatch, error) {
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return s.search.Search(ctx, query, table.Names(), limit)
}

// LatestRun returns the summary of the published run
func (s *TableService) LatestRun(ctx context.Context) (*domain.RunSummary, error) {
	value, err := s.getOrRefresh(ctx, summaryCacheKey)
	if err != nil {
		return nil, err
	}
	summary, ok := value.(*domain.RunSummary)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return summary, nil
}

// table returns the published table
func (s *TableService) table(ctx context.Context) (domain.FoodTable, error) {
	value, err := s.getOrRefresh(ctx, tableCacheKey)
	if err != nil {
		return nil, err
	}
	table, ok := value.(domain.FoodTable)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return table, nil
}

// getOrRefresh reads key from the cache, reloading from the repository once on a miss
func (s *TableService) getOrRefresh(ctx context.Context, key string) (interface{}, error) {
	value, err := s.cache.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) || s.runs == nil {
		return nil, err
	}

	if refreshErr := s.Refresh(ctx); refreshErr != nil {
		log.Printf("[TABLE] Refresh after cache miss failed: %v", refreshErr)
		return nil, domain.ErrCacheMiss
	}
	return s.cache.Get(ctx, key)
}
