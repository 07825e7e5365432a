package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/myfcd/harvester/internal/domain"
)

// WriteYAML writes the table in the same nested shape as WriteJSON
func WriteYAML(w io.Writer, table domain.FoodTable) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toNested(table)); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
