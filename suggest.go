package rexx

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// suggest returns a " (did you mean X?)" hint for a misspelled name.
func suggest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}
	best, dist := "", -1
	for _, r := range fuzzy.RankFindFold(name, candidates) {
		if dist < 0 || r.Distance < dist {
			best, dist = r.Target, r.Distance
		}
	}
	if best == "" {
		sort.Strings(candidates)
		limit := max(1, len(name)/3)
		for _, c := range candidates {
			d := fuzzy.LevenshteinDistance(strings.ToUpper(name), strings.ToUpper(c))
			if d <= limit && (dist < 0 || d < dist) {
				best, dist = c, d
			}
		}
	}
	if best == "" || strings.EqualFold(best, name) {
		return ""
	}
	return " (did you mean " + best + "?)"
}
