package domain

import (
	"sort"
	"time"
)

// Nutrients maps a nutrient name to its value as published by the source.
// Values are whatever the embedded JSON carried (float64, string, bool or nil).
type Nutrients map[string]any

// NutrientEntry is a single (name, value) pair pulled out of one schema node
// while a record is being normalized.
type NutrientEntry struct {
	Name  string
	Value any
}

// FoodRecord represents one food item harvested from a detail page
type FoodRecord struct {
	Name      string    `json:"name"`
	Nutrients Nutrients `json:"nutrients"`
}

// FoodTable maps a food display name to its record.
// A per-source table and the unified table share this shape.
type FoodTable map[string]FoodRecord

// Names returns the food names in the table, sorted
func (t FoodTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NutrientNames returns the sorted union of nutrient names across all records
func (t FoodTable) NutrientNames() []string {
	seen := make(map[string]struct{})
	for _, record := range t {
		for name := range record.Nutrients {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Harvest stages a single detail URL can fail in
const (
	StageFetch     = "fetch"
	StageExtract   = "extract"
	StageNormalize = "normalize"
)

// SkippedItem records a detail page that was dropped from a source's table
type SkippedItem struct {
	URL        string `json:"url"`
	Identifier string `json:"identifier"`
	Stage      string `json:"stage"`
	Err        error  `json:"-"`
}

// Reason returns the error text of the skipped item
func (s SkippedItem) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// SourceResult is the outcome of harvesting one source
type SourceResult struct {
	Source     string
	Discovered int
	Table      FoodTable
	Skipped    []SkippedItem
	Err        error // discovery failure; Table is nil when set
}

// Harvested returns the number of records in the source's table
func (r SourceResult) Harvested() int {
	return len(r.Table)
}

// Failed reports whether the source produced no table at all
func (r SourceResult) Failed() bool {
	return r.Err != nil
}

// RunResult is the outcome of one pipeline run across all configured sources
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    []SourceResult
	Table      FoodTable
}

// HasFailures reports whether any source failed or any item was skipped
func (r RunResult) HasFailures() bool {
	for _, s := range r.Sources {
		if s.Failed() || len(s.Skipped) > 0 {
			return true
		}
	}
	return false
}

// Summary flattens the run into the form persisted by the store and served by the API
func (r RunResult) Summary() RunSummary {
	summary := RunSummary{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Foods:      len(r.Table),
	}
	for _, s := range r.Sources {
		stat := SourceStats{
			Source:     s.Source,
			Discovered: s.Discovered,
			Harvested:  s.Harvested(),
			Skipped:    len(s.Skipped),
		}
		if s.Err != nil {
			stat.Error = s.Err.Error()
		}
		summary.Sources = append(summary.Sources, stat)
	}
	return summary
}

// RunSummary holds the counts of a finished run without its table
type RunSummary struct {
	RunID      string        `json:"runId"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Foods      int           `json:"foods"`
	Sources    []SourceStats `json:"sources"`
}

// SourceStats holds per-source counts of a finished run
type SourceStats struct {
	Source     string `json:"source"`
	Discovered int    `json:"discovered"`
	Harvested  int    `json:"harvested"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

// SearchMatch is one food name ranked against a search query
type SearchMatch struct {
	Name          string   `json:"name"`
	Score         float64  `json:"score"` // 0-100
	MatchedTokens []string `json:"matchedTokens,omitempty"`
}
