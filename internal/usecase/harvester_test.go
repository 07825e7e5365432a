package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myfcd/harvester/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fiveItemCatalog lists five foods; the fourth detail page answers 404
func fiveItemCatalog(src domain.SourceConfig) *fakeFetcher {
	fetcher := newFakeFetcher()
	ids := []string{"R100001", "R100002", "R100003", "R100004", "R100005"}
	fetcher.pages[src.ListingURL] = `{"data":[["` + strings.Join(ids, `"],["`) + `"]]}`
	for i, id := range ids {
		if i == 3 {
			continue
		}
		payload := fmt.Sprintf(`{"Energy":{"value":%d},"Protein":{"value":1.5}}`, 100+i)
		fetcher.pages[src.DetailURL(id)] = detailPage(fmt.Sprintf("Food %d", i+1), payload)
	}
	return fetcher
}

func TestHarvest_SkipsFailedItem(t *testing.T) {
	src := testSource("current", domain.VariantNamed)
	fetcher := fiveItemCatalog(src)

	result, err := NewHarvester(fetcher, HarvesterConfig{}).Harvest(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, "current", result.Source)
	assert.Equal(t, 5, result.Discovered)
	assert.Equal(t, 4, result.Harvested())
	assert.ElementsMatch(t, []string{"Food 1", "Food 2", "Food 3", "Food 5"}, result.Table.Names())

	require.Len(t, result.Skipped, 1)
	skipped := result.Skipped[0]
	assert.Equal(t, "R100004", skipped.Identifier)
	assert.Equal(t, src.DetailURL("R100004"), skipped.URL)
	assert.Equal(t, domain.StageFetch, skipped.Stage)
	assert.ErrorIs(t, skipped.Err, domain.ErrFetch)
	assert.Contains(t, skipped.Reason(), "404")
}

func TestHarvest_WorkerPoolMatchesSequential(t *testing.T) {
	src := testSource("current", domain.VariantNamed)

	sequential, err := NewHarvester(fiveItemCatalog(src), HarvesterConfig{Workers: 1}).Harvest(context.Background(), src)
	require.NoError(t, err)
	pooled, err := NewHarvester(fiveItemCatalog(src), HarvesterConfig{Workers: 4}).Harvest(context.Background(), src)
	require.NoError(t, err)

	if diff := cmp.Diff(sequential.Table, pooled.Table); diff != "" {
		t.Errorf("pooled table mismatch (-sequential +pooled):\n%s", diff)
	}
	assert.Equal(t, sequential.Skipped[0].Identifier, pooled.Skipped[0].Identifier)
}

func TestHarvest_DuplicateNameLastOccurrenceWins(t *testing.T) {
	for _, workers := range []int{1, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			src := testSource("current", domain.VariantNamed)
			fetcher := newFakeFetcher()
			fetcher.pages[src.ListingURL] = `R100001 R100002 R100003`
			fetcher.pages[src.DetailURL("R100001")] = detailPage("Kuih", `{"Energy":{"value":1}}`)
			fetcher.pages[src.DetailURL("R100002")] = detailPage("Kuih", `{"Energy":{"value":2}}`)
			fetcher.pages[src.DetailURL("R100003")] = detailPage("Teh", `{"Energy":{"value":3}}`)

			result, err := NewHarvester(fetcher, HarvesterConfig{Workers: workers}).Harvest(context.Background(), src)

			require.NoError(t, err)
			assert.Len(t, result.Table, 2)
			assert.Equal(t, 2.0, result.Table["Kuih"].Nutrients["Energy"])
		})
	}
}

func TestHarvest_BananaEndToEnd(t *testing.T) {
	src := testSource("current", domain.VariantNamed)
	fetcher := newFakeFetcher()
	fetcher.pages[src.ListingURL] = `{"data":[["R123456"]]}`
	fetcher.pages[src.DetailURL("R123456")] = detailPage("Banana", `{"Energy":{"value":89},"Protein":{"value":1.1}}`)

	result, err := NewHarvester(fetcher, HarvesterConfig{}).Harvest(context.Background(), src)

	require.NoError(t, err)
	want := domain.FoodTable{
		"Banana": {Name: "Banana", Nutrients: domain.Nutrients{"Energy": 89.0, "Protein": 1.1}},
	}
	if diff := cmp.Diff(want, result.Table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, result.Skipped)
}

func TestHarvest_VariantsShapeNutrientNames(t *testing.T) {
	tests := []struct {
		variant domain.SchemaVariant
		payload string
		want    domain.Nutrients
	}{
		{domain.VariantPositional, `[{"value":89},{"value":1.1}]`, domain.Nutrients{"0": 89.0, "1": 1.1}},
		{domain.VariantPositionalNamed, `[{"name":"Energy","value":89}]`, domain.Nutrients{"Energy": 89.0}},
	}

	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			src := testSource("catalog", tt.variant)
			fetcher := newFakeFetcher()
			fetcher.pages[src.ListingURL] = `R200001`
			fetcher.pages[src.DetailURL("R200001")] = detailPage("Roti", tt.payload)

			result, err := NewHarvester(fetcher, HarvesterConfig{}).Harvest(context.Background(), src)

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Table["Roti"].Nutrients)
		})
	}
}

func TestHarvest_SkipStages(t *testing.T) {
	src := testSource("1997", domain.VariantPositionalNamed)
	fetcher := newFakeFetcher()
	fetcher.pages[src.ListingURL] = `R300001 R300002 R300003`
	fetcher.pages[src.DetailURL("R300001")] = "<html><body>maintenance</body></html>"
	fetcher.pages[src.DetailURL("R300002")] = detailPage("Ikan", `[{"value":1}]`)
	fetcher.pages[src.DetailURL("R300003")] = detailPage("Sayur", `[{"name":"Energy","value":20}]`)

	result, err := NewHarvester(fetcher, HarvesterConfig{}).Harvest(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, []string{"Sayur"}, result.Table.Names())
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, domain.StageExtract, result.Skipped[0].Stage)
	assert.ErrorIs(t, result.Skipped[0].Err, domain.ErrExtraction)
	assert.Equal(t, domain.StageNormalize, result.Skipped[1].Stage)
	assert.ErrorIs(t, result.Skipped[1].Err, domain.ErrExtraction)
}

func TestHarvest_DiscoveryFailure(t *testing.T) {
	src := testSource("current", domain.VariantNamed)

	result, err := NewHarvester(newFakeFetcher(), HarvesterConfig{}).Harvest(context.Background(), src)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrDiscovery)
}

func TestHarvest_ContextCancelled(t *testing.T) {
	src := testSource("current", domain.VariantNamed)
	fetcher := fiveItemCatalog(src)
	// the listing is served, then every detail fetch sees the cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancelling := &cancelAfterFirst{fetcher: fetcher, cancel: cancel}
	result, err := NewHarvester(cancelling, HarvesterConfig{}).Harvest(ctx, src)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewHarvester_WorkerBounds(t *testing.T) {
	assert.Equal(t, 1, NewHarvester(newFakeFetcher(), HarvesterConfig{Workers: -3}).workers)
	assert.Equal(t, MaxWorkers, NewHarvester(newFakeFetcher(), HarvesterConfig{Workers: 50}).workers)
}

// cancelAfterFirst cancels the context once the first page has been served
type cancelAfterFirst struct {
	fetcher *fakeFetcher
	cancel  context.CancelFunc
}

func (c *cancelAfterFirst) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.fetcher.Get(ctx, url)
	c.cancel()
	return body, err
}
