package regression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simgate/simgate/internal/checker"
	"github.com/simgate/simgate/internal/model"
)

func evidenceFixture(mutate func(e *model.Evidence)) *model.Evidence {
	e := &model.Evidence{
		SchemaVersion: "1.0",
		RunID:         "run-base",
		Backend:       model.BackendMock,
		ModelScript:   "models/pendulum.json",
		Status:        model.StatusSuccess,
		Gate:          model.GatePass,
		Stages:        model.StageResults{Check: true, Simulate: true},
		Metrics:       model.Metrics{RuntimeSeconds: 1.0, Events: 10},
	}
	if mutate != nil {
		mutate(e)
	}
	return e
}

func compareFixture(t *testing.T, baseline, candidate *model.Evidence, opts Options) *Result {
	t.Helper()
	result, err := Compare(checker.NewDefaultRegistry(), baseline, candidate, opts)
	require.NoError(t, err)
	return result
}

func TestCompareRuntimeThreshold(t *testing.T) {
	t.Parallel()

	t.Run("within threshold passes", func(t *testing.T) {
		t.Parallel()
		candidate := evidenceFixture(func(e *model.Evidence) {
			e.RunID = "run-cand"
			e.Metrics.RuntimeSeconds = 1.1
		})

		result := compareFixture(t, evidenceFixture(nil), candidate, DefaultOptions())
		require.Equal(t, model.GatePass, result.Decision)
		require.Empty(t, result.Reasons)
	})

	t.Run("beyond threshold fails with formatted reason", func(t *testing.T) {
		t.Parallel()
		candidate := evidenceFixture(func(e *model.Evidence) {
			e.RunID = "run-cand"
			e.Metrics.RuntimeSeconds = 1.3
		})

		result := compareFixture(t, evidenceFixture(nil), candidate, DefaultOptions())
		require.Equal(t, model.GateFail, result.Decision)
		require.Equal(t, []string{"runtime_regression:1.3000s>1.2000s"}, result.Reasons)
	})

	t.Run("zero baseline runtime skips the check", func(t *testing.T) {
		t.Parallel()
		baseline := evidenceFixture(func(e *model.Evidence) {
			e.Metrics.RuntimeSeconds = 0
		})
		candidate := evidenceFixture(func(e *model.Evidence) {
			e.Metrics.RuntimeSeconds = 1.9
		})

		result := compareFixture(t, baseline, candidate, DefaultOptions())
		require.Equal(t, model.GatePass, result.Decision)
	})
}

func TestCompareStrictMode(t *testing.T) {
	t.Parallel()

	t.Run("identical records add no strict reasons", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.Strict = true
		opts.StrictModelScript = true

		result := compareFixture(t, evidenceFixture(nil), evidenceFixture(nil), opts)
		require.Equal(t, model.GatePass, result.Decision)
		require.Empty(t, result.Reasons)
	})

	t.Run("mismatches each append a distinct reason", func(t *testing.T) {
		t.Parallel()
		candidate := evidenceFixture(func(e *model.Evidence) {
			e.SchemaVersion = "2.0"
			e.Backend = model.BackendNative
			e.ModelScript = "models/other.json"
		})
		opts := DefaultOptions()
		opts.Strict = true
		opts.StrictModelScript = true

		result := compareFixture(t, evidenceFixture(nil), candidate, opts)
		require.Equal(t, model.GateFail, result.Decision)
		require.Equal(t, []string{
			"schema_version_mismatch:1.0!=2.0",
			"backend_mismatch:mock!=native",
			"model_script_mismatch",
		}, result.Reasons)
	})

	t.Run("model script mismatch ignored without strict flag", func(t *testing.T) {
		t.Parallel()
		candidate := evidenceFixture(func(e *model.Evidence) {
			e.ModelScript = "models/other.json"
		})
		opts := DefaultOptions()
		opts.Strict = true

		result := compareFixture(t, evidenceFixture(nil), candidate, opts)
		require.Equal(t, model.GatePass, result.Decision)
	})
}

func TestCompareStatusAndStages(t *testing.T) {
	t.Parallel()

	t.Run("failed candidate status and gate", func(t *testing.T) {
		t.Parallel()
		candidate := evidenceFixture(func(e *model.Evidence) {
			e.Status = model.StatusFailed
			e.Gate = model.GateFail
		})

		result := compareFixture(t, evidenceFixture(nil), candidate, DefaultOptions())
		require.Equal(t, model.GateFail, result.Decision)
		require.Contains(t, result.Reasons, "candidate_status_failed:failed")
		require.Contains(t, result.Reasons, "candidate_gate_not_pass:FAIL")
	})

	t.Run("stage regressions get dedicated reasons", func(t *testing.T) {
		t.Parallel()
		candidate := evidenceFixture(func(e *model.Evidence) {
			e.Stages = model.StageResults{Check: false, Simulate: false}
		})

		result := compareFixture(t, evidenceFixture(nil), candidate, DefaultOptions())
		require.Contains(t, result.Reasons, ReasonCheckRegression)
		require.Contains(t, result.Reasons, ReasonSimulateRegression)
	})

	t.Run("no stage reason when baseline also failed the stage", func(t *testing.T) {
		t.Parallel()
		baseline := evidenceFixture(func(e *model.Evidence) {
			e.Stages.Simulate = false
		})
		candidate := evidenceFixture(func(e *model.Evidence) {
			e.Stages.Simulate = false
		})

		result := compareFixture(t, baseline, candidate, DefaultOptions())
		require.NotContains(t, result.Reasons, ReasonSimulateRegression)
	})
}

func TestCompareCheckerUnion(t *testing.T) {
	t.Parallel()

	t.Run("checker reasons merge without duplicates", func(t *testing.T) {
		t.Parallel()
		candidate := evidenceFixture(func(e *model.Evidence) {
			e.Status = model.StatusFailed
			e.Gate = model.GateFail
			e.FailureKind = model.FailureTimeout
		})

		result := compareFixture(t, evidenceFixture(nil), candidate, DefaultOptions())
		require.Equal(t, []string{
			"candidate_status_failed:failed",
			"candidate_gate_not_pass:FAIL",
			checker.ReasonTimeout,
		}, result.Reasons)
		require.Len(t, result.Findings, 1)
	})

	t.Run("unknown checker subset fails fast", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.Checkers = []string{"bogus"}

		_, err := Compare(checker.NewDefaultRegistry(), evidenceFixture(nil), evidenceFixture(nil), opts)
		require.Error(t, err)
	})
}

func TestCompareDecisionReasonsInvariant(t *testing.T) {
	t.Parallel()

	// decision == FAIL iff reasons non-empty, across a spread of inputs.
	candidates := []*model.Evidence{
		evidenceFixture(nil),
		evidenceFixture(func(e *model.Evidence) { e.Metrics.RuntimeSeconds = 5.0 }),
		evidenceFixture(func(e *model.Evidence) { e.Status = model.StatusFailed }),
		evidenceFixture(func(e *model.Evidence) { e.Artifacts.LogExcerpt = "found inf" }),
	}

	for _, candidate := range candidates {
		result := compareFixture(t, evidenceFixture(nil), candidate, DefaultOptions())
		if len(result.Reasons) > 0 {
			require.Equal(t, model.GateFail, result.Decision)
		} else {
			require.Equal(t, model.GatePass, result.Decision)
		}
	}
}

func TestCompareEchoesIdentity(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.ProposalID = "prop-42"
	candidate := evidenceFixture(func(e *model.Evidence) {
		e.RunID = "run-cand"
		e.Metrics.RuntimeSeconds = 1.05
	})

	result := compareFixture(t, evidenceFixture(nil), candidate, opts)
	require.Equal(t, "prop-42", result.ProposalID)
	require.Equal(t, "run-base", result.BaselineRunID)
	require.Equal(t, "run-cand", result.CandidateRunID)
	require.Equal(t, 1.0, result.BaselineRuntimeSeconds)
	require.Equal(t, 1.05, result.CandidateRuntimeSeconds)
}
