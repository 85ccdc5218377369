package regression

import (
	"fmt"

	"github.com/simgate/simgate/internal/checker"
	"github.com/simgate/simgate/internal/model"
)

// Reason tokens for the comparator's built-in structural checks. Checker
// reasons (timeout, nan_inf, ...) are defined alongside the checkers.
const (
	ReasonSchemaVersionMismatch = "schema_version_mismatch"
	ReasonBackendMismatch       = "backend_mismatch"
	ReasonModelScriptMismatch   = "model_script_mismatch"
	ReasonCandidateFailed       = "candidate_status_failed"
	ReasonCandidateGate         = "candidate_gate_not_pass"
	ReasonCheckRegression       = "check_regression"
	ReasonSimulateRegression    = "simulate_regression"
	ReasonRuntimeRegression     = "runtime_regression"
)

// DefaultRuntimeThreshold allows a 20% runtime increase before the
// comparator reports a runtime regression.
const DefaultRuntimeThreshold = 0.2

// Options controls one comparison run.
type Options struct {
	// ProposalID identifies the proposed change under evaluation; it is
	// echoed into the result for auditability.
	ProposalID string
	// RuntimeThreshold is the allowed fractional runtime increase over
	// the baseline (0.2 means +20%).
	RuntimeThreshold float64
	// Strict enables schema/backend identity checks between the two
	// evidence records.
	Strict bool
	// StrictModelScript additionally requires matching model scripts.
	// Only consulted when Strict is set.
	StrictModelScript bool
	// Checkers selects a subset of registered checkers by name. Empty
	// means all.
	Checkers []string
}

// DefaultOptions returns comparison options with default thresholds and
// strictness disabled.
func DefaultOptions() Options {
	return Options{RuntimeThreshold: DefaultRuntimeThreshold}
}

// Result is the comparator's verdict on one baseline/candidate pair.
// Decision is FAIL exactly when Reasons is non-empty.
type Result struct {
	ProposalID              string          `json:"proposal_id,omitempty"`
	BaselineRunID           string          `json:"baseline_run_id"`
	CandidateRunID          string          `json:"candidate_run_id"`
	BaselineRuntimeSeconds  float64         `json:"baseline_runtime_seconds"`
	CandidateRuntimeSeconds float64         `json:"candidate_runtime_seconds"`
	Decision                string          `json:"decision"`
	Reasons                 []string        `json:"reasons"`
	Findings                []model.Finding `json:"findings"`
}

// Compare evaluates the candidate evidence against the baseline. It is a
// pure function: it mutates neither record and returns a freshly derived
// result on every call. Reasons are appended in a fixed order and
// deduplicated; the PASS/FAIL decision depends only on whether any reason
// was recorded.
func Compare(registry *checker.Registry, baseline, candidate *model.Evidence, opts Options) (*Result, error) {
	result := &Result{
		ProposalID:              opts.ProposalID,
		BaselineRunID:           baseline.RunID,
		CandidateRunID:          candidate.RunID,
		BaselineRuntimeSeconds:  baseline.Metrics.RuntimeSeconds,
		CandidateRuntimeSeconds: candidate.Metrics.RuntimeSeconds,
		Reasons:                 []string{},
		Findings:                []model.Finding{},
	}

	seen := make(map[string]struct{})
	appendReason := func(reason string) {
		if _, dup := seen[reason]; dup {
			return
		}
		seen[reason] = struct{}{}
		result.Reasons = append(result.Reasons, reason)
	}

	if opts.Strict {
		if baseline.SchemaVersion != candidate.SchemaVersion {
			appendReason(fmt.Sprintf("%s:%s!=%s", ReasonSchemaVersionMismatch, baseline.SchemaVersion, candidate.SchemaVersion))
		}
		if baseline.Backend != candidate.Backend {
			appendReason(fmt.Sprintf("%s:%s!=%s", ReasonBackendMismatch, baseline.Backend, candidate.Backend))
		}
		if opts.StrictModelScript && baseline.ModelScript != candidate.ModelScript {
			appendReason(ReasonModelScriptMismatch)
		}
	}

	if candidate.Status != model.StatusSuccess {
		appendReason(fmt.Sprintf("%s:%s", ReasonCandidateFailed, candidate.Status))
	}
	if candidate.Gate != model.GatePass {
		appendReason(fmt.Sprintf("%s:%s", ReasonCandidateGate, candidate.Gate))
	}

	if baseline.Stages.Check && !candidate.Stages.Check {
		appendReason(ReasonCheckRegression)
	}
	if baseline.Stages.Simulate && !candidate.Stages.Simulate {
		appendReason(ReasonSimulateRegression)
	}

	if baseline.Metrics.RuntimeSeconds > 0 {
		allowed := baseline.Metrics.RuntimeSeconds * (1 + opts.RuntimeThreshold)
		if candidate.Metrics.RuntimeSeconds > allowed {
			appendReason(fmt.Sprintf("%s:%.4fs>%.4fs", ReasonRuntimeRegression, candidate.Metrics.RuntimeSeconds, allowed))
		}
	}

	checkerRun, err := registry.Run(baseline, candidate, opts.Checkers)
	if err != nil {
		return nil, err
	}
	for _, reason := range checkerRun.Reasons {
		appendReason(reason)
	}
	result.Findings = append(result.Findings, checkerRun.Findings...)

	if len(result.Reasons) > 0 {
		result.Decision = model.GateFail
	} else {
		result.Decision = model.GatePass
	}

	return result, nil
}
