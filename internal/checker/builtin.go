package checker

import (
	"fmt"
	"strings"

	"github.com/simgate/simgate/internal/model"
)

// Reason tokens emitted by the built-in checkers. These are stable machine
// identifiers; policy documents match against them by prefix.
const (
	ReasonTimeout               = "timeout"
	ReasonNaNInf                = "nan_inf"
	ReasonPerformanceRegression = "performance_regression"
	ReasonEventExplosion        = "event_explosion"
)

const (
	// explosionRatio is the multiplicative threshold shared by the
	// performance and event-count checkers.
	explosionRatio = 2.0
	// eventAbsoluteFloor is the candidate event count that triggers the
	// event_explosion checker when the baseline has zero events and a
	// ratio is undefined.
	eventAbsoluteFloor = 100
)

func builtinCheckers() []Checker {
	return []Checker{
		timeoutChecker{},
		nanInfChecker{},
		performanceChecker{},
		eventExplosionChecker{},
	}
}

type timeoutChecker struct{}

func (timeoutChecker) Name() string { return ReasonTimeout }

func (timeoutChecker) Check(_, candidate *model.Evidence) []model.Finding {
	if candidate.FailureKind != model.FailureTimeout {
		return nil
	}
	return []model.Finding{{
		Checker:  ReasonTimeout,
		Reason:   ReasonTimeout,
		Message:  fmt.Sprintf("candidate run %s was classified as a timeout", candidate.RunID),
		Severity: model.SeverityCritical,
	}}
}

type nanInfChecker struct{}

func (nanInfChecker) Name() string { return ReasonNaNInf }

func (nanInfChecker) Check(_, candidate *model.Evidence) []model.Finding {
	var findings []model.Finding

	if candidate.FailureKind == model.FailureNaNInf {
		findings = append(findings, model.Finding{
			Checker:  ReasonNaNInf,
			Reason:   ReasonNaNInf,
			Message:  fmt.Sprintf("candidate run %s was classified as numerically unstable", candidate.RunID),
			Severity: model.SeverityCritical,
		})
	}

	excerpt := strings.ToLower(candidate.Artifacts.LogExcerpt)
	if strings.Contains(excerpt, "nan") || strings.Contains(excerpt, "inf") {
		findings = append(findings, model.Finding{
			Checker:  ReasonNaNInf,
			Reason:   ReasonNaNInf,
			Message:  "candidate log excerpt mentions nan/inf values",
			Severity: model.SeverityCritical,
		})
	}

	return findings
}

type performanceChecker struct{}

func (performanceChecker) Name() string { return ReasonPerformanceRegression }

func (performanceChecker) Check(baseline, candidate *model.Evidence) []model.Finding {
	base := baseline.Metrics.RuntimeSeconds
	if base <= 0 {
		return nil
	}
	cand := candidate.Metrics.RuntimeSeconds
	if cand <= explosionRatio*base {
		return nil
	}
	return []model.Finding{{
		Checker:  ReasonPerformanceRegression,
		Reason:   ReasonPerformanceRegression,
		Message:  fmt.Sprintf("candidate runtime %.4fs exceeds %.1fx baseline %.4fs", cand, explosionRatio, base),
		Severity: model.SeverityWarning,
	}}
}

type eventExplosionChecker struct{}

func (eventExplosionChecker) Name() string { return ReasonEventExplosion }

func (eventExplosionChecker) Check(baseline, candidate *model.Evidence) []model.Finding {
	base := baseline.Metrics.Events
	cand := candidate.Metrics.Events

	if base > 0 {
		if float64(cand) <= explosionRatio*float64(base) {
			return nil
		}
		return []model.Finding{{
			Checker:  ReasonEventExplosion,
			Reason:   ReasonEventExplosion,
			Message:  fmt.Sprintf("candidate produced %d events, more than %.1fx baseline %d", cand, explosionRatio, base),
			Severity: model.SeverityWarning,
		}}
	}

	// Zero-event baseline: a multiplicative ratio is undefined, so fall
	// back to an absolute floor.
	if cand < eventAbsoluteFloor {
		return nil
	}
	return []model.Finding{{
		Checker:  ReasonEventExplosion,
		Reason:   ReasonEventExplosion,
		Message:  fmt.Sprintf("candidate produced %d events against a zero-event baseline (floor %d)", cand, eventAbsoluteFloor),
		Severity: model.SeverityWarning,
	}}
}
