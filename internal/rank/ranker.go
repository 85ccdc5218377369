package rank

import (
	"context"
	"sort"

	"github.com/simgate/simgate/internal/logger"
	"github.com/simgate/simgate/internal/model"
	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

// Best-profile selection reasons.
const (
	ReasonRecommendedPreferred = "recommended_profile_preferred_within_top_total_score"
	ReasonHighestTotalScore    = "highest_total_score"
)

// Evaluator runs the full decision procedure for one candidate profile
// against the fixed source evidence. Evaluations are invoked sequentially;
// each returns an independent outcome.
type Evaluator interface {
	Evaluate(ctx context.Context, profile string) (*Outcome, error)
}

// Snapshot carries the comparison-wide inputs that are not per-profile.
type Snapshot struct {
	// RecommendedProfile, when set and tied at the top total score, wins
	// the best-profile selection.
	RecommendedProfile string `json:"recommended_profile,omitempty"`
	// MinTopScoreMargin downgrades an otherwise-PASS aggregate to
	// NEEDS_REVIEW when the gap between the best and second-best total
	// scores falls below it. Zero or negative disables the constraint.
	MinTopScoreMargin float64 `json:"min_top_score_margin,omitempty"`
}

// ProfileRow is one profile's scored evaluation within a ranking.
type ProfileRow struct {
	Profile         string             `json:"profile"`
	Decision        string             `json:"decision"`
	ExitCode        int                `json:"exit_code"`
	Reasons         []string           `json:"reasons"`
	ScoreBreakdown  map[string]float64 `json:"score_breakdown"`
	TotalScore      float64            `json:"total_score"`
	Rank            int                `json:"rank"`
	decisionOrdinal int
}

// Ranking is the comparator's full output: every profile's row in sorted
// order plus the winning profile and the aggregate verdict.
type Ranking struct {
	Rows            []ProfileRow `json:"rows"`
	BestProfile     string       `json:"best_profile"`
	BestReason      string       `json:"best_reason"`
	AggregateStatus string       `json:"aggregate_status"`
	TopScoreMargin  float64      `json:"top_score_margin"`
}

// Comparator fans one fixed source out across candidate profiles and ranks
// the outcomes.
type Comparator struct {
	evaluator Evaluator
	weights   Weights
	log       *logger.Logger
}

// NewComparator creates a profile comparator with the given scoring
// weights.
func NewComparator(evaluator Evaluator, weights Weights, log *logger.Logger) *Comparator {
	return &Comparator{evaluator: evaluator, weights: weights, log: log}
}

// Compare evaluates every candidate profile, scores each outcome, and
// ranks the rows by (total_score, decision_score, -exit_code) descending.
// Evaluation failures are configuration errors and abort the comparison.
func (c *Comparator) Compare(ctx context.Context, profiles []string, snapshot Snapshot) (*Ranking, error) {
	if len(profiles) == 0 {
		return nil, simgateerrors.NewValidationError("profiles", "no candidate profiles given", nil)
	}

	rows := make([]ProfileRow, 0, len(profiles))
	for _, profile := range profiles {
		outcome, err := c.evaluator.Evaluate(ctx, profile)
		if err != nil {
			return nil, err
		}

		total, breakdown := scoreOutcome(profile, outcome, c.weights, snapshot.RecommendedProfile)
		reasons := outcome.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		rows = append(rows, ProfileRow{
			Profile:         profile,
			Decision:        outcome.Decision,
			ExitCode:        outcome.ExitCode,
			Reasons:         reasons,
			ScoreBreakdown:  breakdown,
			TotalScore:      total,
			decisionOrdinal: model.DecisionScore(outcome.Decision),
		})

		c.log.WithFields(map[string]any{
			"profile":  profile,
			"decision": outcome.Decision,
			"total":    total,
		}).Debug("profile evaluated")
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalScore != rows[j].TotalScore {
			return rows[i].TotalScore > rows[j].TotalScore
		}
		if rows[i].decisionOrdinal != rows[j].decisionOrdinal {
			return rows[i].decisionOrdinal > rows[j].decisionOrdinal
		}
		return rows[i].ExitCode < rows[j].ExitCode
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	ranking := &Ranking{Rows: rows}
	ranking.BestProfile, ranking.BestReason = selectBest(rows, snapshot.RecommendedProfile)
	if len(rows) > 1 {
		ranking.TopScoreMargin = rows[0].TotalScore - rows[1].TotalScore
	}
	ranking.AggregateStatus = aggregateStatus(rows, ranking, snapshot)

	return ranking, nil
}

// selectBest picks among the rows tied at the maximum total score: the
// recommended profile when it is in the tie, otherwise the first row in
// sort order.
func selectBest(rows []ProfileRow, recommended string) (string, string) {
	top := rows[0].TotalScore
	if recommended != "" {
		for _, row := range rows {
			if row.TotalScore != top {
				break
			}
			if row.Profile == recommended {
				return recommended, ReasonRecommendedPreferred
			}
		}
	}
	return rows[0].Profile, ReasonHighestTotalScore
}

func aggregateStatus(rows []ProfileRow, ranking *Ranking, snapshot Snapshot) string {
	allFailed := true
	var winner *ProfileRow
	for i := range rows {
		if rows[i].Decision != model.GateFail {
			allFailed = false
		}
		if rows[i].Profile == ranking.BestProfile && winner == nil {
			winner = &rows[i]
		}
	}

	switch {
	case allFailed:
		return model.GateFail
	case winner != nil && winner.Decision == model.GateNeedsReview:
		return model.GateNeedsReview
	}

	// A close race between profiles is itself a signal requiring human
	// judgment.
	if snapshot.MinTopScoreMargin > 0 && len(rows) > 1 && ranking.TopScoreMargin < snapshot.MinTopScoreMargin {
		return model.GateNeedsReview
	}

	return model.GatePass
}
