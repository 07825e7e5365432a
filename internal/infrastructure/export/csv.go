// Package export writes a unified food table to delimited and structured files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/myfcd/harvester/internal/domain"
)

// csvFoodColumn is the header of the food name column
const csvFoodColumn = "food"

// WriteCSV writes one row per food (sorted by name) and one column per
// nutrient (sorted union across all foods). Nutrients a food lacks are left empty.
func WriteCSV(w io.Writer, table domain.FoodTable) error {
	nutrients := table.NutrientNames()

	cw := csv.NewWriter(w)
	header := append([]string{csvFoodColumn}, nutrients...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	row := make([]string, len(header))
	for _, name := range table.Names() {
		record := table[name]
		row[0] = name
		for i, nutrient := range nutrients {
			value, ok := record.Nutrients[nutrient]
			if !ok {
				row[i+1] = ""
				continue
			}
			row[i+1] = formatValue(value)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %q: %w", name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatValue renders a nutrient value for a CSV cell
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
