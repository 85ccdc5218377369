package repair

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/simgate/simgate/internal/logger"
	"github.com/simgate/simgate/internal/model"
	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

// StatusUnknown marks an attempt whose external call produced no scoreable
// output. It scores as the lowest tier.
const StatusUnknown = "UNKNOWN"

// DefaultRetryTarget is the single known-safe file retries are narrowed to
// when no retry whitelist is configured.
const DefaultRetryTarget = "model.json"

// Comparison deltas.
const (
	DeltaImproved  = "improved"
	DeltaUnchanged = "unchanged"
	DeltaWorse     = "worse"
)

// Loop states. Transitions are strictly forward within one run; the loop
// is never resumed or merged across runs.
type loopState string

const (
	stateAttemptRunning loopState = "attempt_running"
	stateAttemptScored  loopState = "attempt_scored"
	stateRetrying       loopState = "retrying"
	stateTerminal       loopState = "terminal"
)

// Config controls one repair-loop run. Validation happens before any
// attempt runs; an invalid configuration produces no partial output.
type Config struct {
	// Goal describes what the remediation should fix.
	Goal string
	// PrimaryBackend is the planner used by attempt 1.
	PrimaryBackend string
	// FallbackBackend is the planner used by retries. Empty means reuse
	// the primary backend.
	FallbackBackend string
	// ConfidenceFloor and ConfidenceCeiling bound attempt 1's planner.
	ConfidenceFloor   float64
	ConfidenceCeiling float64
	// FileWhitelist limits what attempt 1 may modify.
	FileWhitelist []string
	// RetryOnFailedAttempt enables the retry path when attempt 1 exits
	// non-zero.
	RetryOnFailedAttempt bool
	// MaxRetries bounds the number of retry attempts. Negative is a
	// configuration error.
	MaxRetries int
	// RetryConfidenceFloor is the floor applied to retries. The
	// effective retry floor is max(ConfidenceFloor, RetryConfidenceFloor)
	// so retries are never less conservative than the primary attempt.
	RetryConfidenceFloor float64
	// RetryFileWhitelist narrows what retries may modify. Empty defaults
	// to the single known-safe target file.
	RetryFileWhitelist []string
}

func (c *Config) validate() error {
	if c.PrimaryBackend == "" {
		return simgateerrors.NewValidationError("primary_backend", "planner backend is required", nil)
	}
	if c.MaxRetries < 0 {
		return simgateerrors.NewValidationError("max_retries",
			fmt.Sprintf("must be >= 0, got %d", c.MaxRetries), nil)
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return simgateerrors.NewValidationError("confidence_floor",
			fmt.Sprintf("must be within [0,1], got %g", c.ConfidenceFloor), nil)
	}
	if c.RetryConfidenceFloor < 0 || c.RetryConfidenceFloor > 1 {
		return simgateerrors.NewValidationError("retry_confidence_floor",
			fmt.Sprintf("must be within [0,1], got %g", c.RetryConfidenceFloor), nil)
	}
	if c.ConfidenceCeiling != 0 && c.ConfidenceCeiling < c.ConfidenceFloor {
		return simgateerrors.NewValidationError("confidence_ceiling",
			fmt.Sprintf("must be >= confidence floor %g, got %g", c.ConfidenceFloor, c.ConfidenceCeiling), nil)
	}
	return nil
}

// Attempt records one remediation attempt's parameters and outcome.
// Attempts are append-only within a run.
type Attempt struct {
	Attempt             int                  `json:"attempt"`
	PlannerBackend      string               `json:"planner_backend"`
	ConfidenceFloor     float64              `json:"confidence_floor"`
	ExitCode            int                  `json:"exit_code"`
	Status              string               `json:"status"`
	PolicyDecision      string               `json:"policy_decision,omitempty"`
	Reasons             []string             `json:"reasons"`
	GuardrailViolations []GuardrailViolation `json:"guardrail_violations"`
	Score               int                  `json:"score"`
}

// Comparison relates the selected attempt's outcome to the failing input.
type Comparison struct {
	Delta                 string   `json:"delta"`
	BeforeScore           int      `json:"before_score"`
	AfterScore            int      `json:"after_score"`
	ScoreDelta            int      `json:"score_delta"`
	FixedReasons          []string `json:"fixed_reasons"`
	NewReasons            []string `json:"new_reasons"`
	FixedGuardrailRuleIDs []string `json:"fixed_guardrail_rule_ids"`
	NewGuardrailRuleIDs   []string `json:"new_guardrail_rule_ids"`
}

// Summary is the full record of one repair-loop run, written once at the
// end.
type Summary struct {
	RunID           string     `json:"run_id"`
	Before          *View      `json:"before"`
	After           *View      `json:"after"`
	Comparison      Comparison `json:"comparison"`
	Attempts        []Attempt  `json:"attempts"`
	SelectedAttempt int        `json:"selected_attempt"`
	RetryUsed       bool       `json:"retry_used"`
}

// Controller drives the bounded repair loop against an executor.
type Controller struct {
	executor Executor
	log      *logger.Logger
}

// NewController creates a repair-loop controller.
func NewController(executor Executor, log *logger.Logger) *Controller {
	return &Controller{executor: executor, log: log}
}

// Run executes one bounded repair loop: a primary attempt, then up to
// MaxRetries increasingly conservative retries when the primary attempt
// exits non-zero. The best-scoring attempt is selected; on equal scores the
// later, more conservative attempt wins.
func (c *Controller) Run(ctx context.Context, before []byte, cfg Config) (*Summary, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	beforeView, err := Normalize(before)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	c.logState(runID, stateAttemptRunning, 1)

	first, err := c.runAttempt(ctx, cfg, 1, cfg.PrimaryBackend, cfg.ConfidenceFloor, cfg.FileWhitelist)
	if err != nil {
		return nil, err
	}
	attempts := []Attempt{*first}
	selected := first
	c.logState(runID, stateAttemptScored, first.Attempt)

	if first.ExitCode != 0 && cfg.RetryOnFailedAttempt && cfg.MaxRetries > 0 {
		backend := cfg.FallbackBackend
		if backend == "" {
			backend = cfg.PrimaryBackend
		}
		// Retries tighten, never loosen: the effective floor is the max
		// of the primary and retry floors.
		floor := math.Max(cfg.ConfidenceFloor, cfg.RetryConfidenceFloor)
		whitelist := cfg.RetryFileWhitelist
		if len(whitelist) == 0 {
			whitelist = []string{DefaultRetryTarget}
		}

		for i := 0; i < cfg.MaxRetries; i++ {
			c.logState(runID, stateRetrying, len(attempts)+1)

			retry, err := c.runAttempt(ctx, cfg, len(attempts)+1, backend, floor, whitelist)
			if err != nil {
				return nil, err
			}
			attempts = append(attempts, *retry)
			c.logState(runID, stateAttemptScored, retry.Attempt)

			// ">=" deliberately favors the later, more conservative
			// attempt when outcomes are otherwise equivalent.
			if retry.Score >= selected.Score {
				selected = retry
			}
			if retry.ExitCode == 0 {
				break
			}
		}
	}

	c.logState(runID, stateTerminal, selected.Attempt)

	afterView := &View{
		Decision: selected.PolicyDecision,
		Reasons:  selected.Reasons,
		Score:    selected.Score,
	}
	if afterView.Decision == "" {
		afterView.Decision = selected.Status
	}

	summary := &Summary{
		RunID:           runID,
		Before:          beforeView,
		After:           afterView,
		Attempts:        attempts,
		SelectedAttempt: selected.Attempt,
		RetryUsed:       len(attempts) > 1,
		Comparison:      buildComparison(beforeView, afterView, attempts[0], *selected),
	}

	return summary, nil
}

func (c *Controller) runAttempt(ctx context.Context, cfg Config, index int, backend string, floor float64, whitelist []string) (*Attempt, error) {
	result, err := c.executor.RunAttempt(ctx, AttemptRequest{
		Attempt:           index,
		Goal:              cfg.Goal,
		PlannerBackend:    backend,
		ConfidenceFloor:   floor,
		ConfidenceCeiling: cfg.ConfidenceCeiling,
		FileWhitelist:     append([]string(nil), whitelist...),
	})
	if err != nil {
		return nil, err
	}

	attempt := &Attempt{
		Attempt:             index,
		PlannerBackend:      backend,
		ConfidenceFloor:     floor,
		ExitCode:            result.ExitCode,
		Status:              StatusUnknown,
		Reasons:             []string{},
		GuardrailViolations: []GuardrailViolation{},
	}

	if result.Summary != nil {
		if result.Summary.Status != "" {
			attempt.Status = result.Summary.Status
		}
		attempt.PolicyDecision = result.Summary.PolicyDecision
		if reasons := result.Summary.Reasons(); reasons != nil {
			attempt.Reasons = append([]string(nil), reasons...)
		}
		if result.Summary.GuardrailViolations != nil {
			attempt.GuardrailViolations = append([]GuardrailViolation(nil), result.Summary.GuardrailViolations...)
		}
	}

	label := attempt.PolicyDecision
	if label == "" {
		label = attempt.Status
	}
	attempt.Score = model.DecisionScore(label)

	return attempt, nil
}

func buildComparison(before, after *View, first, selected Attempt) Comparison {
	comparison := Comparison{
		BeforeScore:  before.Score,
		AfterScore:   after.Score,
		ScoreDelta:   after.Score - before.Score,
		FixedReasons: diffStrings(before.Reasons, after.Reasons),
		NewReasons:   diffStrings(after.Reasons, before.Reasons),
	}

	switch {
	case after.Score > before.Score:
		comparison.Delta = DeltaImproved
	case after.Score < before.Score:
		comparison.Delta = DeltaWorse
	default:
		comparison.Delta = DeltaUnchanged
	}

	firstRules := guardrailRuleIDs(first.GuardrailViolations)
	selectedRules := guardrailRuleIDs(selected.GuardrailViolations)
	comparison.FixedGuardrailRuleIDs = diffStrings(firstRules, selectedRules)
	comparison.NewGuardrailRuleIDs = diffStrings(selectedRules, firstRules)

	return comparison
}

// diffStrings returns the elements of a absent from b, preserving a's
// order.
func diffStrings(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}

	diff := []string{}
	for _, v := range a {
		if _, ok := inB[v]; !ok {
			diff = append(diff, v)
		}
	}
	return diff
}

func guardrailRuleIDs(violations []GuardrailViolation) []string {
	ids := make([]string, 0, len(violations))
	for _, v := range violations {
		ids = append(ids, v.RuleID)
	}
	return ids
}

func (c *Controller) logState(runID string, state loopState, attempt int) {
	c.log.WithFields(map[string]any{
		"run_id":  runID,
		"state":   string(state),
		"attempt": attempt,
	}).Debug("repair loop transition")
}
