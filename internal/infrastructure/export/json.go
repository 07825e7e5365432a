package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/myfcd/harvester/internal/domain"
)

// nested is the exported shape: food name → nutrient name → value
type nested map[string]domain.Nutrients

func toNested(table domain.FoodTable) nested {
	out := make(nested, len(table))
	for name, record := range table {
		nutrients := record.Nutrients
		if nutrients == nil {
			nutrients = domain.Nutrients{}
		}
		out[name] = nutrients
	}
	return out
}

// WriteJSON writes the table as an indented nested JSON object
func WriteJSON(w io.Writer, table domain.FoodTable) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toNested(table)); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// ReadJSON reads a table written by WriteJSON
func ReadJSON(r io.Reader) (domain.FoodTable, error) {
	var in nested
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}

	table := make(domain.FoodTable, len(in))
	for name, nutrients := range in {
		if nutrients == nil {
			nutrients = domain.Nutrients{}
		}
		table[name] = domain.FoodRecord{Name: name, Nutrients: nutrients}
	}
	return table, nil
}
