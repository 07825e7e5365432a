package domain

import "fmt"

// SchemaVariant identifies how a source encodes its nutrient list
type SchemaVariant string

const (
	// VariantNamed is an object keyed by nutrient name: {"Energy": {"value": 89}}
	VariantNamed SchemaVariant = "named"

	// VariantPositional is an array of {"value": ...} nodes with no label
	VariantPositional SchemaVariant = "positional"

	// VariantPositionalNamed is an array of {"name": ..., "value": ...} nodes
	VariantPositionalNamed SchemaVariant = "positional-with-embedded-name"
)

// ParseSchemaVariant converts a configuration string into a SchemaVariant
func ParseSchemaVariant(s string) (SchemaVariant, error) {
	switch v := SchemaVariant(s); v {
	case VariantNamed, VariantPositional, VariantPositionalNamed:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVariant, s)
}

// SourceConfig describes one catalog: where its identifiers are listed and
// how a detail URL and its nutrient payload are built from an identifier.
type SourceConfig struct {
	Name              string        `json:"name"`
	ListingURL        string        `json:"listingUrl"`
	IdentifierPattern string        `json:"identifierPattern"`
	URLPrefix         string        `json:"urlPrefix"`
	URLSuffix         string        `json:"urlSuffix"`
	Variant           SchemaVariant `json:"variant"`
}

// DetailURL assembles the detail-page URL for an identifier
func (c SourceConfig) DetailURL(identifier string) string {
	return c.URLPrefix + identifier + c.URLSuffix
}

// DetailPage is one discovered record: its identifier and detail URL
type DetailPage struct {
	Identifier string
	URL        string
}
