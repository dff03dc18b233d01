// Package similarity ranks catalog hook signatures against a method name that
// matched no known hook. Matching runs in three tiers, strongest first: word
// matching, shared-affix matching, then edit distance. A lower tier is only
// consulted while result slots remain.
package similarity

import (
	"sort"
	"strings"

	"github.com/publicrust/rust-analyzer-sub000/pkg/hooks"
)

const (
	// bonusCandidatePrefix rewards a candidate whose name starts with the
	// whole query, e.g. "OnDispenser" against "OnDispenserBonus".
	bonusCandidatePrefix = 50

	// bonusQuerySubstring rewards the query appearing anywhere inside the
	// candidate name.
	bonusQuerySubstring = 30

	// weightWordExact scores an exactly matching word pair, per character.
	weightWordExact = 15

	// weightWordPrefix scores a word pair where one word is a prefix of the
	// other, per character of the shorter word.
	weightWordPrefix = 10

	// weightWordSubstring scores a word pair where one word contains the
	// other, per character of the shorter word.
	weightWordSubstring = 5

	// weightCommonPrefix and weightCommonSuffix score shared affixes in the
	// partial-match tier, per shared character.
	weightCommonPrefix = 4
	weightCommonSuffix = 3

	// minAffixLen is the shortest shared prefix or suffix worth scoring.
	minAffixLen = 2

	// maxDistanceDivisor bounds the edit-distance tier: a candidate qualifies
	// only when the distance is at most a third of the longer name.
	maxDistanceDivisor = 3
)

// Rank scores candidates against query and returns at most max suggestions,
// ordered by tier then score, deduplicated by rendered signature. Once the
// stronger tiers fill the cap, weaker tiers are not consulted at all, so an
// edit-distance hit can never displace a word match.
func Rank(query string, candidates []hooks.Descriptor, max int) []Suggestion {
	if max <= 0 || query == "" || len(candidates) == 0 {
		return nil
	}

	tiers := []struct {
		tier  Tier
		score func(query, candidate string) (int, bool)
	}{
		{TierWordMatch, wordScore},
		{TierPartialMatch, partialScore},
		{TierLevenshtein, levenshteinScore},
	}

	seen := make(map[string]struct{}, max)
	out := make([]Suggestion, 0, max)
	for _, t := range tiers {
		if len(out) >= max {
			break
		}
		matches := make([]Suggestion, 0, len(candidates))
		for _, c := range candidates {
			score, ok := t.score(query, c.Name)
			if !ok {
				continue
			}
			matches = append(matches, Suggestion{Text: c.Signature, Tier: t.tier, Score: score})
		}
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].Score != matches[j].Score {
				return matches[i].Score > matches[j].Score
			}
			return matches[i].Text < matches[j].Text
		})
		for _, m := range matches {
			if len(out) >= max {
				break
			}
			if _, dup := seen[m.Text]; dup {
				continue
			}
			seen[m.Text] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

// wordScore implements the strongest tier: whole-name containment bonuses
// plus pairwise word scoring. A positive score qualifies.
func wordScore(query, candidate string) (int, bool) {
	q := strings.ToLower(query)
	c := strings.ToLower(candidate)

	score := 0
	if strings.HasPrefix(c, q) {
		score += bonusCandidatePrefix
	}
	if strings.Contains(c, q) {
		score += bonusQuerySubstring
	}

	qWords := splitWords(q)
	cWords := splitWords(c)
	for _, qw := range qWords {
		for _, cw := range cWords {
			switch {
			case qw == cw:
				score += len(qw) * weightWordExact
			case strings.HasPrefix(cw, qw) || strings.HasPrefix(qw, cw):
				score += min(len(qw), len(cw)) * weightWordPrefix
			case strings.Contains(cw, qw) || strings.Contains(qw, cw):
				score += min(len(qw), len(cw)) * weightWordSubstring
			}
		}
	}
	return score, score > 0
}

// partialScore rewards shared prefixes and suffixes between word pairs.
// A positive score qualifies.
func partialScore(query, candidate string) (int, bool) {
	qWords := splitWords(strings.ToLower(query))
	cWords := splitWords(strings.ToLower(candidate))

	score := 0
	for _, qw := range qWords {
		for _, cw := range cWords {
			if n := commonPrefixLen(qw, cw); n >= minAffixLen {
				score += n * weightCommonPrefix
			}
			if n := commonSuffixLen(qw, cw); n >= minAffixLen {
				score += n * weightCommonSuffix
			}
		}
	}
	return score, score > 0
}

// levenshteinScore is the weakest tier. A candidate qualifies only when the
// edit distance stays within a third of the longer name; the score maps the
// distance onto a 0-100 scale.
func levenshteinScore(query, candidate string) (int, bool) {
	longest := max(len(query), len(candidate))
	if longest == 0 {
		return 0, false
	}
	dist := levenshtein(query, candidate)
	if dist > longest/maxDistanceDivisor {
		return 0, false
	}
	return 100 - dist*100/longest, true
}

// levenshtein computes the classic edit distance between two strings.
func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}

// splitWords breaks an identifier into words on '.', '_' and space.
func splitWords(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '_' || r == ' '
	})
	if len(words) == 0 {
		return []string{s}
	}
	return words
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}
