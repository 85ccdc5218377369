package policy

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simgate/simgate/internal/checker"
	"github.com/simgate/simgate/internal/model"
	"github.com/simgate/simgate/internal/regression"
)

var bundledProfiles = []string{"default", "strict", "lenient"}

// emittableReasons lists every reason token the comparator and the built-in
// checkers can produce. Bundled profile prefixes must match against these.
func emittableReasons() []string {
	return []string{
		regression.ReasonSchemaVersionMismatch,
		regression.ReasonBackendMismatch,
		regression.ReasonModelScriptMismatch,
		regression.ReasonCandidateFailed,
		regression.ReasonCandidateGate,
		regression.ReasonCheckRegression,
		regression.ReasonSimulateRegression,
		regression.ReasonRuntimeRegression,
		checker.ReasonTimeout,
		checker.ReasonNaNInf,
		checker.ReasonPerformanceRegression,
		checker.ReasonEventExplosion,
	}
}

func loadBundledProfile(t *testing.T, name string) *Policy {
	t.Helper()
	store := NewStore(StoreConfig{Dir: filepath.Join("..", "..", "policies")})
	p, err := store.Load(name)
	require.NoError(t, err)
	return p
}

func TestBundledProfilePrefixesMatchEmittableReasons(t *testing.T) {
	t.Parallel()

	tokens := emittableReasons()
	matchesSomeToken := func(prefix string) bool {
		for _, token := range tokens {
			if strings.HasPrefix(token, prefix) {
				return true
			}
		}
		return false
	}

	for _, name := range bundledProfiles {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := loadBundledProfile(t, name)

			for _, prefix := range p.CriticalReasonPrefixes {
				require.True(t, matchesSomeToken(prefix),
					"critical prefix %q matches no emittable reason token", prefix)
			}
			for _, prefix := range p.NeedsReviewReasonPrefixes {
				require.True(t, matchesSomeToken(prefix),
					"review prefix %q matches no emittable reason token", prefix)
			}
		})
	}
}

func TestBundledProfilesBlockStageRegressions(t *testing.T) {
	t.Parallel()

	// A candidate that lost a previously-passing check or simulate stage
	// must never classify as PASS, under any bundled profile.
	for _, name := range bundledProfiles {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := loadBundledProfile(t, name)

			for _, reason := range []string{regression.ReasonCheckRegression, regression.ReasonSimulateRegression} {
				result, err := Classify([]string{reason}, RiskLow, p)
				require.NoError(t, err)
				require.NotEqual(t, model.GatePass, result.PolicyDecision,
					"%s under %s must block", reason, name)
				require.Empty(t, result.UnknownReasons,
					"%s must land in a configured bucket, not the unknown backstop", reason)
			}
		})
	}
}

func TestDefaultProfileBucketsGateReason(t *testing.T) {
	t.Parallel()

	p := loadBundledProfile(t, "default")
	result, err := Classify([]string{"candidate_gate_not_pass:FAIL"}, RiskLow, p)
	require.NoError(t, err)

	require.Equal(t, model.GateFail, result.PolicyDecision)
	require.Equal(t, []string{"candidate_gate_not_pass:FAIL"}, result.CriticalReasons)
	require.Empty(t, result.UnknownReasons)
}
