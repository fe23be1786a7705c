package filter

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxSuggestions = 3

// SuggestValues offers up to three "did you mean" options for a typed facet value.
// It returns nothing when the input already names an option.
func SuggestValues(input string, options []string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	for _, option := range options {
		if strings.EqualFold(option, input) {
			return nil
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(input, options)
	sort.Sort(ranks)

	suggestions := make([]string, 0, maxSuggestions)
	for _, rank := range ranks {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, rank.Target)
	}
	return suggestions
}
