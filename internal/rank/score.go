package rank

import (
	"math"

	"github.com/simgate/simgate/internal/model"
	"github.com/simgate/simgate/internal/repair"
)

// Score breakdown component names. These are the stable keys of
// ProfileRow.ScoreBreakdown.
const (
	ComponentDecision    = "decision"
	ComponentExit        = "exit"
	ComponentReasons     = "reasons"
	ComponentRecommended = "recommended"
	ComponentDelta       = "delta"
	ComponentSafety      = "safety"
	ComponentStrictness  = "strictness"
)

// Weights parameterizes the weighted linear scoring function. A zero
// weight disables its component.
type Weights struct {
	// DecisionWeight multiplies the ordinal decision score; it dominates
	// every other component at the default magnitudes.
	DecisionWeight float64 `json:"decision_weight"`
	// ExitPenalty is subtracted once for any non-zero exit code.
	ExitPenalty float64 `json:"exit_penalty"`
	// ReasonPenalty is subtracted per reason.
	ReasonPenalty float64 `json:"reason_penalty"`
	// RecommendedBonus is added when the profile is the snapshot's
	// recommended profile.
	RecommendedBonus float64 `json:"recommended_bonus"`
	// DeltaWeight rewards improved over unchanged over worse repair
	// deltas.
	DeltaWeight float64 `json:"delta_weight,omitempty"`
	// SafetyPenalty is subtracted once when a safety guard fired.
	SafetyPenalty float64 `json:"safety_penalty,omitempty"`
	// StrictnessWeight multiplies the profile's configured minimum
	// confidence, rewarding stricter profiles when all else is equal.
	StrictnessWeight float64 `json:"strictness_weight,omitempty"`
}

// GovernanceWeights returns the default weights for ranking policy
// profiles.
func GovernanceWeights() Weights {
	return Weights{
		DecisionWeight:   100,
		ExitPenalty:      5,
		ReasonPenalty:    1,
		RecommendedBonus: 3,
	}
}

// InvariantRepairWeights returns the default weights for ranking repair
// strategy profiles. On top of the governance components it scores the
// repair delta, a safety-guard penalty, and profile strictness.
func InvariantRepairWeights() Weights {
	w := GovernanceWeights()
	w.DeltaWeight = 10
	w.SafetyPenalty = 20
	w.StrictnessWeight = 10
	return w
}

// Outcome is one profile's evaluation result, as produced by an Evaluator.
type Outcome struct {
	Decision string   `json:"decision"`
	ExitCode int      `json:"exit_code"`
	Reasons  []string `json:"reasons"`
	// Delta, SafetyTriggered, and MinConfidence feed the invariant-repair
	// components and are ignored under governance weights.
	Delta           string  `json:"delta,omitempty"`
	SafetyTriggered bool    `json:"safety_triggered,omitempty"`
	MinConfidence   float64 `json:"min_confidence,omitempty"`
}

// scoreOutcome computes the weighted total and its named components for one
// profile's outcome.
func scoreOutcome(profile string, outcome *Outcome, weights Weights, recommended string) (float64, map[string]float64) {
	breakdown := make(map[string]float64)

	breakdown[ComponentDecision] = float64(model.DecisionScore(outcome.Decision)) * weights.DecisionWeight

	if outcome.ExitCode != 0 {
		breakdown[ComponentExit] = -math.Abs(weights.ExitPenalty)
	} else {
		breakdown[ComponentExit] = 0
	}

	breakdown[ComponentReasons] = -float64(len(outcome.Reasons)) * math.Abs(weights.ReasonPenalty)

	if recommended != "" && profile == recommended {
		breakdown[ComponentRecommended] = weights.RecommendedBonus
	} else {
		breakdown[ComponentRecommended] = 0
	}

	if weights.DeltaWeight != 0 {
		breakdown[ComponentDelta] = deltaOrdinal(outcome.Delta) * weights.DeltaWeight
	}
	if weights.SafetyPenalty != 0 {
		if outcome.SafetyTriggered {
			breakdown[ComponentSafety] = -math.Abs(weights.SafetyPenalty)
		} else {
			breakdown[ComponentSafety] = 0
		}
	}
	if weights.StrictnessWeight != 0 {
		breakdown[ComponentStrictness] = weights.StrictnessWeight * outcome.MinConfidence
	}

	total := 0.0
	for _, component := range breakdown {
		total += component
	}
	return total, breakdown
}

func deltaOrdinal(delta string) float64 {
	switch delta {
	case repair.DeltaImproved:
		return 1
	case repair.DeltaWorse:
		return -1
	default:
		return 0
	}
}
