package myfcd

import (
	"fmt"
	"strings"

	"github.com/myfcd/harvester/internal/domain"
)

// Markers of the detail page layout shared by all three catalogs
const (
	headingOpen   = "<h3>"
	headingClose  = "</h3"
	payloadMarker = "var product_nutrients =  "
)

// Payload terminators: the escaped form seen when the page body has been
// rendered as an escaped string, and the raw form served over the wire.
var payloadTerminators = []string{`;\n`, ";\n"}

// ExtractPayload pulls the food display name and the raw nutrient JSON out
// of a detail page. The JSON is returned unparsed.
func ExtractPayload(markup string) (name, rawJSON string, err error) {
	name, err = extractName(markup)
	if err != nil {
		return "", "", err
	}
	rawJSON, err = extractNutrientJSON(markup)
	if err != nil {
		return "", "", err
	}
	return name, rawJSON, nil
}

// extractName returns the text of the first <h3> heading, cut at the first
// embedded tag (product codes and icons follow the real name).
func extractName(markup string) (string, error) {
	start := strings.Index(markup, headingOpen)
	if start < 0 {
		return "", fmt.Errorf("%w: no %s heading", domain.ErrExtraction, headingOpen)
	}
	start += len(headingOpen)

	end := strings.Index(markup[start:], headingClose)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated %s heading", domain.ErrExtraction, headingOpen)
	}

	name := markup[start : start+end]
	if idx := strings.Index(name, "<"); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty food name", domain.ErrExtraction)
	}
	return name, nil
}

// extractNutrientJSON returns the text assigned to product_nutrients
func extractNutrientJSON(markup string) (string, error) {
	start := strings.Index(markup, payloadMarker)
	if start < 0 {
		return "", fmt.Errorf("%w: no product_nutrients assignment", domain.ErrExtraction)
	}
	rest := markup[start+len(payloadMarker):]

	end := -1
	for _, term := range payloadTerminators {
		if idx := strings.Index(rest, term); idx >= 0 && (end < 0 || idx < end) {
			end = idx
		}
	}
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated product_nutrients assignment", domain.ErrExtraction)
	}
	return rest[:end], nil
}
