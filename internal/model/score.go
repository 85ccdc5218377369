package model

// Decision scores form the single total order every ranking and selection
// step in the engine reduces to. Comparing two outcomes never re-derives
// policy semantics; it compares these integers.
const (
	ScorePass        = 2
	ScoreNeedsReview = 1
	ScoreFail        = 0
	ScoreUnknown     = -1
)

// DecisionScore maps a PASS/NEEDS_REVIEW/FAIL shaped label to its ordinal
// score. Any other label, including an empty one, scores as the lowest
// tier: an outcome the engine cannot interpret is never preferred over one
// it can.
func DecisionScore(decision string) int {
	switch decision {
	case GatePass:
		return ScorePass
	case GateNeedsReview:
		return ScoreNeedsReview
	case GateFail:
		return ScoreFail
	default:
		return ScoreUnknown
	}
}
