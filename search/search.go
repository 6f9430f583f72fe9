// Package search ranks metric names against a fuzzy query string.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Result is one ranked candidate.
type Result struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Rank filters and orders candidates against query using non-contiguous
// subsequence matching, so "lat p99" matches "http.latency.p99".
//
// The query is split on whitespace; every term must match a candidate for it
// to be included, and term scores are summed. Results are ordered by
// descending score, ties broken by shorter then lexicographically smaller
// name. An empty query returns all candidates in their original order with
// zero score. Candidates with no match are omitted.
func Rank(query string, candidates []string) []Result {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		out := make([]Result, len(candidates))
		for i, c := range candidates {
			out[i] = Result{Name: c}
		}
		return out
	}

	var out []Result
	one := make([]string, 1)
	for _, c := range candidates {
		total := 0
		matched := true
		for _, term := range terms {
			one[0] = c
			m := fuzzy.Find(term, one)
			if len(m) == 0 {
				matched = false
				break
			}
			total += m[0].Score
		}
		if matched {
			out = append(out, Result{Name: c, Score: total})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if len(out[i].Name) != len(out[j].Name) {
			return len(out[i].Name) < len(out[j].Name)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
