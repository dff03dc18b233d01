package similarity

// Tier identifies the matching strategy that produced a suggestion. A result
// from a higher tier always outranks any result from a lower tier, regardless
// of raw score.
type Tier int

const (
	TierLevenshtein Tier = iota + 1
	TierPartialMatch
	TierWordMatch
)

// String implements fmt.Stringer for toon serialization.
func (t Tier) String() string {
	switch t {
	case TierWordMatch:
		return "word-match"
	case TierPartialMatch:
		return "partial-match"
	case TierLevenshtein:
		return "levenshtein"
	default:
		return "unknown"
	}
}

// Suggestion is one ranked replacement candidate for an unmatched hook name.
// Text is the rendered signature of the candidate.
type Suggestion struct {
	Text  string `json:"text" toon:"text"`
	Tier  Tier   `json:"tier" toon:"tier"`
	Score int    `json:"score" toon:"score"`
}
