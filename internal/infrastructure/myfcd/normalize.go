package myfcd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/myfcd/harvester/internal/domain"
)

// jsonMember is one element of the top-level document, in document order.
// Key is empty for array elements.
type jsonMember struct {
	Key string
	Raw json.RawMessage
}

// Normalize decodes a nutrient payload and maps it to nutrient name → value
// according to the source's schema variant.
func Normalize(rawJSON string, variant domain.SchemaVariant) (domain.Nutrients, error) {
	entries, err := NormalizeEntries(rawJSON, variant)
	if err != nil {
		return nil, err
	}

	nutrients := make(domain.Nutrients, len(entries))
	for _, e := range entries {
		nutrients[e.Name] = e.Value
	}
	return nutrients, nil
}

// NormalizeEntries decodes a nutrient payload into (name, value) pairs in
// document order.
//
// named: the document is an object; each key is the nutrient name.
// positional: each node is labelled by its zero-based position.
// positional-with-embedded-name: each node is labelled by its "name" field.
//
// The positional variants are published as arrays, but an object whose
// values are nodes is accepted too; its keys are ignored.
func NormalizeEntries(rawJSON string, variant domain.SchemaVariant) ([]domain.NutrientEntry, error) {
	switch variant {
	case domain.VariantNamed, domain.VariantPositional, domain.VariantPositionalNamed:
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidVariant, variant)
	}

	members, isArray, err := decodeMembers(rawJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding nutrient JSON: %v", domain.ErrExtraction, err)
	}
	if variant == domain.VariantNamed && isArray {
		return nil, fmt.Errorf("%w: %s payload must be an object, got array", domain.ErrExtraction, variant)
	}

	entries := make([]domain.NutrientEntry, 0, len(members))
	for i, m := range members {
		node, err := decodeNode(m.Raw)
		if err != nil {
			return nil, fmt.Errorf("%w: nutrient node %d: %v", domain.ErrExtraction, i, err)
		}

		value, ok := node["value"]
		if !ok {
			return nil, fmt.Errorf("%w: nutrient node %d has no value", domain.ErrExtraction, i)
		}

		var name string
		switch variant {
		case domain.VariantNamed:
			name = m.Key
		case domain.VariantPositional:
			name = strconv.Itoa(i)
		case domain.VariantPositionalNamed:
			label, ok := node["name"].(string)
			if !ok || strings.TrimSpace(label) == "" {
				return nil, fmt.Errorf("%w: nutrient node %d has no name", domain.ErrExtraction, i)
			}
			name = label
		}

		entries = append(entries, domain.NutrientEntry{Name: name, Value: value})
	}
	return entries, nil
}

// decodeMembers walks the top level of a JSON object or array, keeping
// document order, and checks nothing trails it.
func decodeMembers(rawJSON string) ([]jsonMember, bool, error) {
	dec := json.NewDecoder(strings.NewReader(rawJSON))

	tok, err := dec.Token()
	if err != nil {
		return nil, false, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil, false, fmt.Errorf("expected object or array, got %v", tok)
	}
	isArray := delim == '['

	var members []jsonMember
	for dec.More() {
		var m jsonMember
		if !isArray {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, false, err
			}
			m.Key, _ = keyTok.(string)
		}
		if err := dec.Decode(&m.Raw); err != nil {
			return nil, false, err
		}
		members = append(members, m)
	}

	// closing delimiter
	if _, err := dec.Token(); err != nil {
		return nil, false, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false, errors.New("unexpected data after JSON document")
	}

	return members, isArray, nil
}

func decodeNode(raw json.RawMessage) (map[string]any, error) {
	var node map[string]any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("expected object: %v", err)
	}
	if node == nil {
		return nil, errors.New("expected object, got null")
	}
	return node, nil
}
