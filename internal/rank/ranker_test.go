package rank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simgate/simgate/internal/model"
	"github.com/simgate/simgate/internal/repair"
	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

// mapEvaluator resolves profiles from a fixed outcome table.
type mapEvaluator struct {
	outcomes map[string]*Outcome
}

func (m *mapEvaluator) Evaluate(_ context.Context, profile string) (*Outcome, error) {
	outcome, ok := m.outcomes[profile]
	if !ok {
		return nil, simgateerrors.NewProfileNotFoundError(profile, "")
	}
	return outcome, nil
}

func governanceComparator(outcomes map[string]*Outcome) *Comparator {
	return NewComparator(&mapEvaluator{outcomes: outcomes}, GovernanceWeights(), nil)
}

func TestCompareOrdering(t *testing.T) {
	t.Parallel()

	t.Run("total score dominates", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(map[string]*Outcome{
			"strict":  {Decision: model.GateFail, ExitCode: 1, Reasons: []string{"timeout"}},
			"lenient": {Decision: model.GatePass, ExitCode: 0},
		})

		ranking, err := comparator.Compare(context.Background(), []string{"strict", "lenient"}, Snapshot{})
		require.NoError(t, err)
		require.Equal(t, "lenient", ranking.Rows[0].Profile)
		require.Equal(t, 1, ranking.Rows[0].Rank)
		require.Equal(t, 2, ranking.Rows[1].Rank)
	})

	t.Run("equal totals break on decision then exit code", func(t *testing.T) {
		t.Parallel()
		// Both rows total -6; the exit code decides the order.
		comparator := governanceComparator(map[string]*Outcome{
			"a": {Decision: model.GateFail, ExitCode: 2, Reasons: []string{"timeout"}},
			"b": {Decision: model.GateFail, ExitCode: 1, Reasons: []string{"timeout"}},
		})

		ranking, err := comparator.Compare(context.Background(), []string{"a", "b"}, Snapshot{})
		require.NoError(t, err)
		require.Equal(t, "b", ranking.Rows[0].Profile, "lower exit code wins the tie")
	})

	t.Run("reranking is deterministic", func(t *testing.T) {
		t.Parallel()
		outcomes := map[string]*Outcome{
			"a": {Decision: model.GatePass},
			"b": {Decision: model.GatePass},
			"c": {Decision: model.GateNeedsReview},
		}
		profiles := []string{"a", "b", "c"}

		first, err := governanceComparator(outcomes).Compare(context.Background(), profiles, Snapshot{})
		require.NoError(t, err)
		second, err := governanceComparator(outcomes).Compare(context.Background(), profiles, Snapshot{})
		require.NoError(t, err)

		for i := range first.Rows {
			require.Equal(t, first.Rows[i].Profile, second.Rows[i].Profile)
			require.Equal(t, first.Rows[i].Rank, second.Rows[i].Rank)
		}
	})
}

func TestCompareBestSelection(t *testing.T) {
	t.Parallel()

	t.Run("recommended profile wins within top tie", func(t *testing.T) {
		t.Parallel()
		// Recommendation bonus applies to neither of these identical
		// outcomes, keeping them tied; the recommended one must win.
		comparator := NewComparator(&mapEvaluator{outcomes: map[string]*Outcome{
			"a": {Decision: model.GatePass},
			"b": {Decision: model.GatePass},
		}}, Weights{DecisionWeight: 100, ExitPenalty: 5, ReasonPenalty: 1}, nil)

		ranking, err := comparator.Compare(context.Background(), []string{"a", "b"}, Snapshot{RecommendedProfile: "b"})
		require.NoError(t, err)
		require.Equal(t, "b", ranking.BestProfile)
		require.Equal(t, ReasonRecommendedPreferred, ranking.BestReason)
	})

	t.Run("recommended profile outside the tie loses", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(map[string]*Outcome{
			"a": {Decision: model.GatePass},
			"b": {Decision: model.GateFail},
		})

		ranking, err := comparator.Compare(context.Background(), []string{"a", "b"}, Snapshot{RecommendedProfile: "b"})
		require.NoError(t, err)
		require.Equal(t, "a", ranking.BestProfile)
		require.Equal(t, ReasonHighestTotalScore, ranking.BestReason)
	})
}

func TestCompareAggregateStatus(t *testing.T) {
	t.Parallel()

	t.Run("all failing profiles aggregate to FAIL", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(map[string]*Outcome{
			"a": {Decision: model.GateFail, Reasons: []string{"timeout"}},
			"b": {Decision: model.GateFail, Reasons: []string{"nan_inf"}},
		})

		ranking, err := comparator.Compare(context.Background(), []string{"a", "b"}, Snapshot{})
		require.NoError(t, err)
		require.Equal(t, model.GateFail, ranking.AggregateStatus)
	})

	t.Run("winning NEEDS_REVIEW aggregates to NEEDS_REVIEW", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(map[string]*Outcome{
			"a": {Decision: model.GateNeedsReview},
			"b": {Decision: model.GateFail},
		})

		ranking, err := comparator.Compare(context.Background(), []string{"a", "b"}, Snapshot{})
		require.NoError(t, err)
		require.Equal(t, model.GateNeedsReview, ranking.AggregateStatus)
	})

	t.Run("clear winner aggregates to PASS", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(map[string]*Outcome{
			"a": {Decision: model.GatePass},
			"b": {Decision: model.GateFail},
		})

		ranking, err := comparator.Compare(context.Background(), []string{"a", "b"}, Snapshot{})
		require.NoError(t, err)
		require.Equal(t, model.GatePass, ranking.AggregateStatus)
	})

	t.Run("narrow margin downgrades PASS to NEEDS_REVIEW", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(map[string]*Outcome{
			"a": {Decision: model.GatePass},
			"b": {Decision: model.GatePass, Reasons: []string{"stale_baseline"}},
		})
		snapshot := Snapshot{MinTopScoreMargin: 5}

		ranking, err := comparator.Compare(context.Background(), []string{"a", "b"}, snapshot)
		require.NoError(t, err)
		require.Equal(t, 1.0, ranking.TopScoreMargin)
		require.Equal(t, model.GateNeedsReview, ranking.AggregateStatus)
	})

	t.Run("comfortable margin stays PASS", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(map[string]*Outcome{
			"a": {Decision: model.GatePass},
			"b": {Decision: model.GateNeedsReview},
		})
		snapshot := Snapshot{MinTopScoreMargin: 5}

		ranking, err := comparator.Compare(context.Background(), []string{"a", "b"}, snapshot)
		require.NoError(t, err)
		require.Equal(t, model.GatePass, ranking.AggregateStatus)
	})
}

func TestCompareScoreComponents(t *testing.T) {
	t.Parallel()

	t.Run("governance breakdown", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(map[string]*Outcome{
			"a": {Decision: model.GateNeedsReview, ExitCode: 1, Reasons: []string{"r1", "r2"}},
		})

		ranking, err := comparator.Compare(context.Background(), []string{"a"}, Snapshot{RecommendedProfile: "a"})
		require.NoError(t, err)

		row := ranking.Rows[0]
		require.Equal(t, 100.0, row.ScoreBreakdown[ComponentDecision])
		require.Equal(t, -5.0, row.ScoreBreakdown[ComponentExit])
		require.Equal(t, -2.0, row.ScoreBreakdown[ComponentReasons])
		require.Equal(t, 3.0, row.ScoreBreakdown[ComponentRecommended])
		require.Equal(t, 96.0, row.TotalScore)
	})

	t.Run("invariant-repair components", func(t *testing.T) {
		t.Parallel()
		comparator := NewComparator(&mapEvaluator{outcomes: map[string]*Outcome{
			"careful": {
				Decision:      model.GatePass,
				Delta:         repair.DeltaImproved,
				MinConfidence: 0.9,
			},
			"reckless": {
				Decision:        model.GatePass,
				Delta:           repair.DeltaWorse,
				SafetyTriggered: true,
				MinConfidence:   0.2,
			},
		}}, InvariantRepairWeights(), nil)

		ranking, err := comparator.Compare(context.Background(), []string{"careful", "reckless"}, Snapshot{})
		require.NoError(t, err)

		require.Equal(t, "careful", ranking.Rows[0].Profile)
		careful := ranking.Rows[0]
		require.Equal(t, 10.0, careful.ScoreBreakdown[ComponentDelta])
		require.Equal(t, 0.0, careful.ScoreBreakdown[ComponentSafety])
		require.Equal(t, 9.0, careful.ScoreBreakdown[ComponentStrictness])

		reckless := ranking.Rows[1]
		require.Equal(t, -10.0, reckless.ScoreBreakdown[ComponentDelta])
		require.Equal(t, -20.0, reckless.ScoreBreakdown[ComponentSafety])
	})

	t.Run("stricter profile wins when all else is equal", func(t *testing.T) {
		t.Parallel()
		comparator := NewComparator(&mapEvaluator{outcomes: map[string]*Outcome{
			"floor-low":  {Decision: model.GatePass, Delta: repair.DeltaImproved, MinConfidence: 0.5},
			"floor-high": {Decision: model.GatePass, Delta: repair.DeltaImproved, MinConfidence: 0.8},
		}}, InvariantRepairWeights(), nil)

		ranking, err := comparator.Compare(context.Background(), []string{"floor-low", "floor-high"}, Snapshot{})
		require.NoError(t, err)
		require.Equal(t, "floor-high", ranking.Rows[0].Profile)
	})
}

func TestCompareErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty profile list", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(nil)
		_, err := comparator.Compare(context.Background(), nil, Snapshot{})
		require.Error(t, err)
	})

	t.Run("unresolvable profile aborts", func(t *testing.T) {
		t.Parallel()
		comparator := governanceComparator(map[string]*Outcome{
			"a": {Decision: model.GatePass},
		})
		_, err := comparator.Compare(context.Background(), []string{"a", "ghost"}, Snapshot{})
		require.Error(t, err)

		var notFound *simgateerrors.ProfileNotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}
