package policy

import (
	"fmt"
	"strings"

	"github.com/simgate/simgate/internal/model"
	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

// Result is the classifier's verdict on one reason list. PolicyReasons
// holds the bucket that determined the decision; the other buckets are
// informational.
type Result struct {
	PolicyDecision  string   `json:"policy_decision"`
	RiskLevel       string   `json:"risk_level"`
	Profile         string   `json:"profile,omitempty"`
	CriticalReasons []string `json:"critical_reasons"`
	ReviewReasons   []string `json:"review_reasons"`
	UnknownReasons  []string `json:"unknown_reasons"`
	PolicyReasons   []string `json:"policy_reasons"`
	HumanChecks     []string `json:"human_checks,omitempty"`
}

// Classify buckets each reason against the policy's prefixes and walks the
// decision ladder:
//
//  1. no reasons at all: PASS
//  2. any critical reason: FAIL
//  3. any unknown reason, when the policy fails on unknowns: FAIL
//  4. any review reason: FAIL at the configured risk levels, else NEEDS_REVIEW
//  5. otherwise: PASS
//
// The ladder short-circuits: a critical reason decides the outcome even
// when review or unknown reasons also exist.
func Classify(reasons []string, riskLevel string, p *Policy) (*Result, error) {
	if p == nil {
		return nil, simgateerrors.NewValidationError("policy", "policy is nil", nil)
	}
	if !ValidRiskLevel(riskLevel) {
		return nil, simgateerrors.NewValidationError("risk_level",
			fmt.Sprintf("unknown risk level %q (want low, medium, or high)", riskLevel), nil)
	}

	result := &Result{
		RiskLevel:       riskLevel,
		Profile:         p.Name,
		CriticalReasons: []string{},
		ReviewReasons:   []string{},
		UnknownReasons:  []string{},
		PolicyReasons:   []string{},
	}

	for _, reason := range reasons {
		switch {
		case matchesAnyPrefix(reason, p.CriticalReasonPrefixes):
			result.CriticalReasons = append(result.CriticalReasons, reason)
		case matchesAnyPrefix(reason, p.NeedsReviewReasonPrefixes):
			result.ReviewReasons = append(result.ReviewReasons, reason)
		default:
			result.UnknownReasons = append(result.UnknownReasons, reason)
		}
	}

	switch {
	case len(reasons) == 0:
		result.PolicyDecision = model.GatePass

	case len(result.CriticalReasons) > 0:
		result.PolicyDecision = model.GateFail
		result.PolicyReasons = result.CriticalReasons

	case len(result.UnknownReasons) > 0 && p.failOnUnknown():
		result.PolicyDecision = model.GateFail
		result.PolicyReasons = result.UnknownReasons

	case len(result.ReviewReasons) > 0:
		if containsString(p.FailOnNeedsReviewRiskLevels, riskLevel) {
			result.PolicyDecision = model.GateFail
		} else {
			result.PolicyDecision = model.GateNeedsReview
		}
		result.PolicyReasons = result.ReviewReasons

	default:
		result.PolicyDecision = model.GatePass
	}

	if result.PolicyDecision != model.GatePass {
		result.HumanChecks = p.HumanChecksFor(result.PolicyReasons)
	}

	return result, nil
}

func matchesAnyPrefix(reason string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(reason, prefix) {
			return true
		}
	}
	return false
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
