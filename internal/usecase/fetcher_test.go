package usecase

import (
	"context"
	"net/http"
	"sync"

	"github.com/myfcd/harvester/internal/domain"
)

// fakeFetcher serves canned pages by URL; unknown URLs answer 404
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)

	if err := ctx.Err(); err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &domain.FetchError{URL: url, StatusCode: http.StatusNotFound}
	}
	return []byte(body), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// testSource is a catalog served entirely by a fakeFetcher
func testSource(name string, variant domain.SchemaVariant) domain.SourceConfig {
	return domain.SourceConfig{
		Name:              name,
		ListingURL:        "https://catalog.test/" + name + "/listing",
		IdentifierPattern: `R\d{6,}`,
		URLPrefix:         "https://catalog.test/" + name + "/detail/",
		URLSuffix:         "/0/168",
		Variant:           variant,
	}
}

// detailPage renders a catalog detail page with the given payload
func detailPage(name, payload string) string {
	return "<html><body><h3>" + name + "</h3><script>\nvar product_nutrients =  " +
		payload + ";\nvar product_id = 1;\n</script></body></html>"
}
