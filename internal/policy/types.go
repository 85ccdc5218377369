package policy

import (
	"sort"
)

// Risk levels accepted by the classifier.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Policy is one named classification profile. It is immutable for the
// duration of an evaluation; the store returns a fresh document per load.
//
// Reason matching is by literal string prefix. Prefixes are static strings,
// not patterns.
type Policy struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// CriticalReasonPrefixes match reasons that fail the change outright.
	CriticalReasonPrefixes []string `yaml:"critical_reason_prefixes" json:"critical_reason_prefixes"`

	// NeedsReviewReasonPrefixes match reasons that require human review,
	// or fail outright at the risk levels listed below.
	NeedsReviewReasonPrefixes []string `yaml:"needs_review_reason_prefixes" json:"needs_review_reason_prefixes"`

	// FailOnNeedsReviewRiskLevels lists the risk levels at which a
	// review-bucket reason escalates to FAIL.
	FailOnNeedsReviewRiskLevels []string `yaml:"fail_on_needs_review_risk_levels" json:"fail_on_needs_review_risk_levels" validate:"omitempty,dive,risk_level"`

	// FailOnUnknownReasons controls whether a reason matching no prefix
	// blocks the change. Defaults to true when absent: an unrecognized
	// signal is never silently downgraded to a pass.
	FailOnUnknownReasons *bool `yaml:"fail_on_unknown_reasons,omitempty" json:"fail_on_unknown_reasons,omitempty"`

	// HumanCheckTemplates maps a reason prefix to the manual verification
	// text surfaced when that prefix matched.
	HumanCheckTemplates map[string]string `yaml:"human_check_templates,omitempty" json:"human_check_templates,omitempty"`

	// MinConfidence is the profile's configured planner confidence floor.
	// Unused by classification itself; the profile ranker's strictness
	// component reads it.
	MinConfidence float64 `yaml:"min_confidence,omitempty" json:"min_confidence,omitempty" validate:"gte=0,lte=1"`
}

func (p *Policy) failOnUnknown() bool {
	if p.FailOnUnknownReasons == nil {
		return true
	}
	return *p.FailOnUnknownReasons
}

// HumanChecksFor returns the manual verification texts whose prefix matches
// any of the given reasons. Each template fires at most once; templates are
// tried in sorted prefix order so the output is deterministic.
func (p *Policy) HumanChecksFor(reasons []string) []string {
	if len(p.HumanCheckTemplates) == 0 {
		return nil
	}

	prefixes := make([]string, 0, len(p.HumanCheckTemplates))
	for prefix := range p.HumanCheckTemplates {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	var checks []string
	for _, prefix := range prefixes {
		for _, reason := range reasons {
			if hasPrefix(reason, prefix) {
				checks = append(checks, p.HumanCheckTemplates[prefix])
				break
			}
		}
	}
	return checks
}

func hasPrefix(reason, prefix string) bool {
	return len(reason) >= len(prefix) && reason[:len(prefix)] == prefix
}

// ValidRiskLevel reports whether level is one of the accepted risk levels.
func ValidRiskLevel(level string) bool {
	switch level {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}
