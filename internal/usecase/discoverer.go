package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"github.com/myfcd/harvester/internal/domain"
)

// Discoverer finds the detail pages a source lists
type Discoverer struct {
	fetcher domain.PageFetcher
}

// NewDiscoverer creates a discoverer that reads listings through fetcher
func NewDiscoverer(fetcher domain.PageFetcher) *Discoverer {
	return &Discoverer{fetcher: fetcher}
}

// Discover fetches the source's listing endpoint and returns one detail page
// per identifier match, in document order. Duplicate identifiers are kept.
// A listing that matches nothing is an error: it means the endpoint or the
// identifier format changed.
func (d *Discoverer) Discover(ctx context.Context, src domain.SourceConfig) ([]domain.DetailPage, error) {
	pattern, err := regexp.Compile(src.IdentifierPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: invalid identifier pattern: %v", domain.ErrDiscovery, src.Name, err)
	}

	body, err := d.fetcher.Get(ctx, src.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDiscovery, src.Name, err)
	}

	matches := pattern.FindAllString(string(body), -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s: no identifiers matching %q in listing", domain.ErrDiscovery, src.Name, src.IdentifierPattern)
	}

	pages := make([]domain.DetailPage, len(matches))
	for i, id := range matches {
		pages[i] = domain.DetailPage{Identifier: id, URL: src.DetailURL(id)}
	}

	log.Printf("[HARVEST] %s: discovered %d food item URLs", src.Name, len(pages))
	return pages, nil
}
