package usecase

import (
	"context"
	"log"

	"github.com/myfcd/harvester/internal/domain"
	"github.com/myfcd/harvester/internal/infrastructure/myfcd"
	"golang.org/x/sync/errgroup"
)

// MaxWorkers bounds the per-source fetch pool
const MaxWorkers = 8

// HarvesterConfig holds configuration for the harvester
type HarvesterConfig struct {
	// Workers is the number of detail pages fetched at once per source.
	// The client's rate policy still applies to every request.
	Workers int
}

// Harvester turns one source into a table of food records
type Harvester struct {
	fetcher    domain.PageFetcher
	discoverer *Discoverer
	workers    int
}

// NewHarvester creates a harvester that fetches every page through fetcher
func NewHarvester(fetcher domain.PageFetcher, config HarvesterConfig) *Harvester {
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	return &Harvester{
		fetcher:    fetcher,
		discoverer: NewDiscoverer(fetcher),
		workers:    workers,
	}
}

// pageOutcome is the result of one detail page: a record or a skip
type pageOutcome struct {
	record  *domain.FoodRecord
	skipped *domain.SkippedItem
}

// Harvest discovers the source's detail pages, then fetches, extracts and
// normalizes each one. A page that fails is recorded as skipped and the
// harvest goes on; only a discovery failure is returned as an error.
// Records are inserted in discovery order, so a repeated name keeps the
// record of its last occurrence whatever order the fetches finished in.
func (h *Harvester) Harvest(ctx context.Context, src domain.SourceConfig) (*domain.SourceResult, error) {
	pages, err := h.discoverer.Discover(ctx, src)
	if err != nil {
		return nil, err
	}

	outcomes := make([]pageOutcome, len(pages))
	if h.workers == 1 {
		for i, page := range pages {
			log.Printf("[HARVEST] %s: requesting url #%d/%d", src.Name, i+1, len(pages))
			outcomes[i] = h.harvestPage(ctx, src, page)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(h.workers)
		for i, page := range pages {
			i, page := i, page
			g.Go(func() error {
				log.Printf("[HARVEST] %s: requesting url #%d/%d", src.Name, i+1, len(pages))
				outcomes[i] = h.harvestPage(gctx, src, page)
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &domain.SourceResult{
		Source:     src.Name,
		Discovered: len(pages),
		Table:      make(domain.FoodTable),
	}
	for _, o := range outcomes {
		if o.skipped != nil {
			result.Skipped = append(result.Skipped, *o.skipped)
			continue
		}
		result.Table[o.record.Name] = *o.record
	}

	log.Printf("[HARVEST] %s: finished, %d records, %d skipped", src.Name, result.Harvested(), len(result.Skipped))
	return result, nil
}

// harvestPage runs fetch → extract → normalize for one detail page
func (h *Harvester) harvestPage(ctx context.Context, src domain.SourceConfig, page domain.DetailPage) pageOutcome {
	skip := func(stage string, err error) pageOutcome {
		log.Printf("[HARVEST] %s: skipping %s (%s): %v", src.Name, page.Identifier, stage, err)
		return pageOutcome{skipped: &domain.SkippedItem{
			URL:        page.URL,
			Identifier: page.Identifier,
			Stage:      stage,
			Err:        err,
		}}
	}

	body, err := h.fetcher.Get(ctx, page.URL)
	if err != nil {
		return skip(domain.StageFetch, err)
	}

	name, rawJSON, err := myfcd.ExtractPayload(string(body))
	if err != nil {
		return skip(domain.StageExtract, err)
	}

	nutrients, err := myfcd.Normalize(rawJSON, src.Variant)
	if err != nil {
		return skip(domain.StageNormalize, err)
	}

	return pageOutcome{record: &domain.FoodRecord{Name: name, Nutrients: nutrients}}
}
