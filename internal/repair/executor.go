package repair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/simgate/simgate/internal/logger"
	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

// GuardrailViolation records one constraint a remediation attempt broke
// (touched a file outside its whitelist, claimed a change it did not make).
type GuardrailViolation struct {
	RuleID  string `json:"rule_id"`
	Message string `json:"message"`
}

// AttemptRequest describes one remediation attempt to an executor.
type AttemptRequest struct {
	// Attempt is the 1-based attempt index within the loop.
	Attempt int
	// Goal is the human description of what the remediation should fix.
	Goal string
	// PlannerBackend names the planner driving this attempt.
	PlannerBackend string
	// ConfidenceFloor and ConfidenceCeiling bound the planner's accepted
	// repair proposals.
	ConfidenceFloor   float64
	ConfidenceCeiling float64
	// FileWhitelist limits which files the attempt may modify.
	FileWhitelist []string
}

// AttemptSummary is the structured outcome an attempt reports. Either
// Status or PolicyDecision must be present for the attempt to be scoreable.
type AttemptSummary struct {
	Status              string               `json:"status"`
	PolicyDecision      string               `json:"policy_decision"`
	PolicyReasons       []string             `json:"policy_reasons"`
	FailReasons         []string             `json:"fail_reasons"`
	GuardrailViolations []GuardrailViolation `json:"guardrail_violations"`
}

// Reasons returns the attempt's effective reason list: policy reasons when
// present, otherwise raw fail reasons.
func (s *AttemptSummary) Reasons() []string {
	if s == nil {
		return nil
	}
	if len(s.PolicyReasons) > 0 {
		return s.PolicyReasons
	}
	return s.FailReasons
}

// AttemptResult is what an executor reports back for one attempt. A nil
// Summary means the attempt produced no parseable output; the loop records
// it as UNKNOWN and continues.
type AttemptResult struct {
	ExitCode int
	Summary  *AttemptSummary
}

// Executor runs one remediation attempt and returns its structured result.
// The loop invokes attempts strictly sequentially: attempt N's parameters
// derive from attempt N-1's outcome, so parallel fan-out is unsound.
//
// Implementations own any timeout; the loop itself enforces none.
type Executor interface {
	RunAttempt(ctx context.Context, req AttemptRequest) (*AttemptResult, error)
}

// CommandExecutor drives remediation attempts through an external planner
// command. The command receives the attempt parameters as flags and must
// print an AttemptSummary as JSON on stdout.
type CommandExecutor struct {
	// Command is the argv of the planner process; Command[0] is the
	// executable.
	Command []string
	// Dir is the working directory for the planner process. Empty means
	// inherit.
	Dir string

	Logger *logger.Logger
}

// RunAttempt invokes the planner command once. A non-zero exit is not an
// error here: the exit code and whatever output parsed are handed back to
// the loop, which scores unparseable outcomes as the lowest tier.
func (e *CommandExecutor) RunAttempt(ctx context.Context, req AttemptRequest) (*AttemptResult, error) {
	if len(e.Command) == 0 {
		return nil, simgateerrors.NewValidationError("command", "planner command is empty", nil)
	}

	args := append([]string(nil), e.Command[1:]...)
	args = append(args,
		"--goal", req.Goal,
		"--planner-backend", req.PlannerBackend,
		"--confidence-floor", fmt.Sprintf("%g", req.ConfidenceFloor),
		"--confidence-ceiling", fmt.Sprintf("%g", req.ConfidenceCeiling),
	)
	for _, file := range req.FileWhitelist {
		args = append(args, "--allow-file", file)
	}

	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	cmd.Dir = e.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.Logger.WithFields(map[string]any{
		"attempt": req.Attempt,
		"backend": req.PlannerBackend,
		"floor":   req.ConfidenceFloor,
	}).Debug("running remediation attempt")

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			// The process never ran (missing binary, bad dir). This is
			// loop plumbing, not an attempt outcome.
			return nil, simgateerrors.NewExecutionError("remediation attempt", runErr)
		}
		exitCode = exitErr.ExitCode()
	}

	result := &AttemptResult{ExitCode: exitCode}

	var summary AttemptSummary
	if err := json.Unmarshal(stdout.Bytes(), &summary); err == nil {
		result.Summary = &summary
	} else {
		e.Logger.WithFields(map[string]any{
			"attempt": req.Attempt,
			"exit":    exitCode,
			"stderr":  stderr.String(),
		}).Warn("remediation attempt produced no parseable summary")
	}

	return result, nil
}
