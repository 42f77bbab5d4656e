package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the default maximum edit distance for a suggestion
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions is the default number of suggestions returned
	DefaultMaxSuggestions = 3
)

// FuzzyMatchOptions configures fuzzy matching
type FuzzyMatchOptions struct {
	MaxDistance    int
	MaxSuggestions int
	CaseSensitive  bool
}

func (o *FuzzyMatchOptions) withDefaults() FuzzyMatchOptions {
	out := FuzzyMatchOptions{}
	if o != nil {
		out = *o
	}
	if out.MaxDistance == 0 {
		out.MaxDistance = DefaultMaxDistance
	}
	if out.MaxSuggestions == 0 {
		out.MaxSuggestions = DefaultMaxSuggestions
	}
	return out
}

// FindSimilar returns candidates within edit distance of target, closest
// first, ties in alphabetical order
//
// Example:
//
//	FindSimilar("shop.Ordr", []string{"shop.Order", "shop.Line"}, nil)
//	// Returns: ["shop.Order"]
func FindSimilar(target string, candidates []string, opts *FuzzyMatchOptions) []string {
	o := opts.withDefaults()
	fold := func(s string) string {
		if o.CaseSensitive {
			return s
		}
		return strings.ToLower(s)
	}

	type match struct {
		value    string
		distance int
	}
	var matches []match
	t := fold(target)
	for _, c := range candidates {
		if d := LevenshteinDistance(t, fold(c)); d <= o.MaxDistance {
			matches = append(matches, match{c, d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].value < matches[j].value
	})

	out := make([]string, 0, o.MaxSuggestions)
	for i := 0; i < len(matches) && i < o.MaxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// SuggestTypes matches target against type IDs and their unqualified
// names, so "Ordr" suggests "shop.Order"
func SuggestTypes(target string, ids []string) []string {
	if strings.Contains(target, ".") {
		return FindSimilar(target, ids, nil)
	}
	byName := make(map[string][]string)
	var names []string
	for _, id := range ids {
		name := id[strings.LastIndex(id, ".")+1:]
		if _, ok := byName[name]; !ok {
			names = append(names, name)
		}
		byName[name] = append(byName[name], id)
	}

	var out []string
	for _, name := range FindSimilar(target, names, nil) {
		out = append(out, byName[name]...)
	}
	if len(out) > DefaultMaxSuggestions {
		out = out[:DefaultMaxSuggestions]
	}
	return out
}

// LevenshteinDistance returns the number of single-rune insertions,
// deletions or substitutions turning a into b
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// FindBestMatch returns the closest candidate, or "" when none is close
func FindBestMatch(target string, candidates []string, opts *FuzzyMatchOptions) string {
	if m := FindSimilar(target, candidates, opts); len(m) > 0 {
		return m[0]
	}
	return ""
}
