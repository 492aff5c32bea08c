package download

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/desertthunder/autospoty/internal/shared"
)

// FirstResult trusts the search engine's ranking.
type FirstResult struct{}

func (FirstResult) Match(_ string, results []SearchResult) SearchResult {
	return results[0]
}

// ScoredMatcher ranks candidates by how many query words appear in their title or channel.
//
// Candidates labelled as alternate versions (live, cover, karaoke...) lose a point for each
// such word the query does not ask for. Ties keep search order.
type ScoredMatcher struct{}

var versionWords = []string{"live", "cover", "karaoke", "instrumental", "remix", "reaction", "nightcore", "sped", "slowed"}

func (ScoredMatcher) Match(query string, results []SearchResult) SearchResult {
	wanted := tokenize(query)

	best, bestScore := 0, 0
	for i, r := range results {
		s := score(wanted, tokenize(r.Title+" "+r.Channel))
		if i == 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return results[best]
}

func score(wanted, have []string) int {
	s := len(lo.Intersect(wanted, have))
	for _, w := range versionWords {
		if lo.Contains(have, w) && !lo.Contains(wanted, w) {
			s--
		}
	}
	return s
}

// tokenize lowercases s and splits it into unique words.
func tokenize(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return lo.Uniq(words)
}

// MatcherFor resolves a configured matcher name. An empty name means "first".
func MatcherFor(name string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "first":
		return FirstResult{}, nil
	case "scored":
		return ScoredMatcher{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown matcher %q", shared.ErrInvalidConfig, name)
	}
}
