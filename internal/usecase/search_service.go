package usecase

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/myfcd/harvester/internal/domain"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Scoring weights
const (
	queryCoverageWeight = 0.60 // share of query tokens found in the name (most important)
	nameCoverageWeight  = 0.20 // share of name tokens found in the query
	jaccardWeight       = 0.20
	substringBonus      = 10.0
	fuzzyWeightFactor   = 0.8 // fuzzy token matches count for 80% of an exact match
	fuzzySimilarity     = 0.9 // Jaro-Winkler similarity needed for a fuzzy match
)

// stopWords are dropped from queries and names before scoring
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "with": true, "dan": true, "dengan": true,
}

// SearchConfig holds configuration for the search service
type SearchConfig struct {
	MinConfidence       float64
	Limit               int
	EnableFuzzyMatching bool
	EnableDebugLogging  bool
}

// SearchService ranks food names against free-text queries
type SearchService struct {
	minConfidence      float64
	limit              int
	enableFuzzy        bool
	enableDebugLogging bool
}

// NewSearchService creates a new search service with the given configuration
func NewSearchService(config SearchConfig) *SearchService {
	threshold := config.MinConfidence
	if threshold <= 0 {
		threshold = 40.0 // Default 40% threshold
	}

	limit := config.Limit
	if limit <= 0 {
		limit = 20
	}

	return &SearchService{
		minConfidence:      threshold,
		limit:              limit,
		enableFuzzy:        config.EnableFuzzyMatching,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Search returns the names scoring at or above the confidence threshold,
// best first and then by name. limit <= 0 uses the configured default.
func (s *SearchService) Search(ctx context.Context, query string, names []string, limit int) ([]domain.SearchMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if limit <= 0 {
		limit = s.limit
	}

	queryTokens := tokenize(query)
	var matches []domain.SearchMatch
	for _, name := range names {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		score, matched := s.score(query, queryTokens, name)
		if s.enableDebugLogging {
			log.Printf("[SEARCH] %q vs %q: %.1f %v", query, name, score, matched)
		}
		if score < s.minConfidence {
			continue
		}
		matches = append(matches, domain.SearchMatch{Name: name, Score: score, MatchedTokens: matched})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// score computes the similarity (0-100) between a query and a food name:
// query token coverage, name token coverage and Jaccard overlap, plus a
// bonus when one string contains the other.
func (s *SearchService) score(query string, queryTokens []string, name string) (float64, []string) {
	nameTokens := tokenize(name)
	if len(queryTokens) == 0 || len(nameTokens) == 0 {
		return 0, nil
	}

	nameSet := make(map[string]bool, len(nameTokens))
	for _, t := range nameTokens {
		nameSet[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	hits := 0.0
	for _, qt := range queryTokens {
		if seen[qt] {
			continue
		}
		seen[qt] = true
		if nameSet[qt] {
			hits++
			matched = append(matched, qt)
			continue
		}
		if s.enableFuzzy {
			if nt, ok := fuzzyTokenMatch(qt, nameTokens); ok {
				hits += fuzzyWeightFactor
				matched = append(matched, nt)
			}
		}
	}

	querySet := len(seen)
	queryCoverage := hits / float64(querySet)
	nameCoverage := hits / float64(len(nameSet))
	if nameCoverage > 1 {
		nameCoverage = 1
	}
	union := float64(querySet+len(nameSet)) - hits
	jaccard := hits / union
	if jaccard > 1 {
		jaccard = 1
	}

	score := (queryCoverage*queryCoverageWeight + nameCoverage*nameCoverageWeight + jaccard*jaccardWeight) * 100

	queryLower := strings.ToLower(strings.TrimSpace(query))
	nameLower := strings.ToLower(name)
	if len(queryLower) > 3 && (strings.Contains(nameLower, queryLower) || strings.Contains(queryLower, nameLower)) {
		score += substringBonus
	}

	if score > 100 {
		score = 100
	}
	return score, matched
}

// fuzzyTokenMatch returns the closest name token when it is similar enough.
// Short tokens are never fuzzy matched to avoid false positives.
func fuzzyTokenMatch(token string, candidates []string) (string, bool) {
	if len([]rune(token)) < 4 {
		return "", false
	}
	best, bestSim := "", 0.0
	for _, c := range candidates {
		if len([]rune(c)) < 4 {
			continue
		}
		if sim := matchr.JaroWinkler(token, c, false); sim > bestSim {
			best, bestSim = c, sim
		}
	}
	return best, bestSim >= fuzzySimilarity
}

// tokenize splits a string into normalized lowercase tokens,
// dropping punctuation, stop words and single characters.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len([]rune(word)) <= 1 || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
