package myfcd

import (
	"fmt"
	"strings"

	"github.com/myfcd/harvester/internal/domain"
)

// Source names, listed in merge priority order
const (
	SourceCurrent  = "current"
	SourceIndustry = "industry"
	Source1997     = "1997"
)

// DefaultSources returns the three MyFCD catalogs in merge priority order.
// The current catalog is applied first and the 1997 catalog last, so on a
// shared food name the 1997 record is the one kept.
func DefaultSources() []domain.SourceConfig {
	return []domain.SourceConfig{
		{
			Name:              SourceCurrent,
			ListingURL:        "https://myfcd.moh.gov.my/myfcdcurrent/index.php/ajax/datatable_data",
			IdentifierPattern: `R\d{6,}`,
			URLPrefix:         "https://myfcd.moh.gov.my/myfcdcurrent/index.php/site/detail_product/",
			URLSuffix:         "/0/168/-1/0/0",
			Variant:           domain.VariantNamed,
		},
		{
			Name:              SourceIndustry,
			ListingURL:        "https://myfcd.moh.gov.my/myfcdindustri//static/DataTables-1.10.12/examples/server_side/scripts/server_processing.php",
			IdentifierPattern: `\d{7,}`,
			URLPrefix:         "https://myfcd.moh.gov.my/myfcdindustri/index.php/site/detail_product/",
			URLSuffix:         "/0/10/-1/0/0/",
			Variant:           domain.VariantPositional,
		},
		{
			Name:              Source1997,
			ListingURL:        "https://myfcd.moh.gov.my/myfcd97/index.php/ajax/datatable_data",
			IdentifierPattern: `\d{6,}`,
			URLPrefix:         "https://myfcd.moh.gov.my/myfcd97/index.php/site/detail_product/",
			URLSuffix:         "/0/10/-1/0/0/",
			Variant:           domain.VariantPositionalNamed,
		},
	}
}

// SelectSources returns the named sources in merge priority order,
// regardless of the order the names were given in. An empty list selects all.
func SelectSources(names []string) ([]domain.SourceConfig, error) {
	all := DefaultSources()
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if !IsKnownSource(name) {
			return nil, fmt.Errorf("unknown source %q (want one of %s)", name, strings.Join(SourceNames(), ", "))
		}
		wanted[name] = true
	}

	var selected []domain.SourceConfig
	for _, src := range all {
		if wanted[src.Name] {
			selected = append(selected, src)
		}
	}
	return selected, nil
}

// SourceNames returns the known source names in priority order
func SourceNames() []string {
	return []string{SourceCurrent, SourceIndustry, Source1997}
}

// IsKnownSource reports whether name is one of the compiled-in sources
func IsKnownSource(name string) bool {
	for _, n := range SourceNames() {
		if n == name {
			return true
		}
	}
	return false
}
