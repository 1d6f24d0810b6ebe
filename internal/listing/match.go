package listing

import (
	"strings"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// MatchTerm keeps the records with a top-level string field containing
// term, ignoring case. An empty term keeps everything.
func MatchTerm(records []types.Record, term string) []types.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return records
	}
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		for _, v := range r {
			if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), term) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// TermFilter adapts MatchTerm for Pager.ApplyFilter.
func TermFilter(term string) func([]types.Record) []types.Record {
	return func(records []types.Record) []types.Record {
		return MatchTerm(records, term)
	}
}
