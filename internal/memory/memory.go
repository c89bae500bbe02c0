// Package memory provides the agent's long-term memory: a store of text
// snippets that can be searched by relevance.
package memory

import (
	"context"
	"fmt"
	"strings"

	units "github.com/docker/go-units"
)

// DefaultRelevantCount is the k used when callers do not specify one.
const DefaultRelevantCount = 5

// Provider is the capability contract every memory backend implements.
type Provider interface {
	// Add stores text and returns its id.
	Add(ctx context.Context, text string) (string, error)
	// Get returns the single most relevant entry for query (or none).
	Get(ctx context.Context, query string) ([]string, error)
	// Clear removes every entry.
	Clear(ctx context.Context) error
	// GetRelevant returns up to k entries ordered by relevance.
	GetRelevant(ctx context.Context, query string, k int) ([]string, error)
	GetStats(ctx context.Context) (Stats, error)
}

// Stats summarizes a provider's contents.
type Stats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
	Bytes   int64  `json:"bytes"`
}

// Size returns Bytes in human-readable form (e.g. "1.2kB").
func (s Stats) Size() string {
	return units.HumanSize(float64(s.Bytes))
}

func (s Stats) String() string {
	return fmt.Sprintf("%s: %d entries (%s)", s.Backend, s.Entries, s.Size())
}

// queryTerms splits a query into lowercase search terms.
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// overlap returns the fraction of terms contained in text.
func overlap(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
