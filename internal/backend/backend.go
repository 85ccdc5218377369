package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/simgate/simgate/internal/model"
	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

// Backend is the execution collaborator that actually runs a simulation and
// produces an evidence record. The core never runs simulations itself; it
// consumes evidence read-only.
type Backend interface {
	// Name returns the backend identifier written into produced evidence.
	Name() string

	// Run executes the model script once and returns the measured
	// evidence. A failed simulation is not an error: it yields evidence
	// with a failed status and a failure classification. Errors are for
	// the backend itself being unusable.
	Run(ctx context.Context, modelScript string) (*model.Evidence, error)
}

// LoadEvidence reads and validates an evidence record from a JSON file.
func LoadEvidence(path string) (*model.Evidence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simgateerrors.NewParseError(path, 0, err)
	}

	var evidence model.Evidence
	if err := json.Unmarshal(data, &evidence); err != nil {
		return nil, simgateerrors.NewParseError(path, 0, err)
	}

	if err := ValidateEvidence(&evidence); err != nil {
		return nil, simgateerrors.NewParseError(path, 0, err)
	}

	return &evidence, nil
}

// ValidateEvidence checks the structural invariants of an evidence record.
func ValidateEvidence(e *model.Evidence) error {
	if e == nil {
		return simgateerrors.NewValidationError("evidence", "evidence is nil", nil)
	}
	if e.SchemaVersion == "" {
		return simgateerrors.NewValidationError("schema_version", "missing schema version", nil)
	}
	if e.RunID == "" {
		return simgateerrors.NewValidationError("run_id", "missing run id", nil)
	}
	if e.Status != model.StatusSuccess && e.Status != model.StatusFailed {
		return simgateerrors.NewValidationError("status", fmt.Sprintf("unknown status %q", e.Status), nil)
	}
	switch e.Gate {
	case model.GatePass, model.GateFail, model.GateNeedsReview:
	default:
		return simgateerrors.NewValidationError("gate", fmt.Sprintf("unknown gate %q", e.Gate), nil)
	}
	if e.Metrics.RuntimeSeconds < 0 {
		return simgateerrors.NewValidationError("metrics.runtime_seconds", "must be >= 0", nil)
	}
	if e.Metrics.Events < 0 {
		return simgateerrors.NewValidationError("metrics.events", "must be >= 0", nil)
	}
	return nil
}
