package backend

import (
	"context"

	"github.com/google/uuid"

	"github.com/simgate/simgate/internal/model"
)

// Scenario scripts what a mock run reports.
type Scenario struct {
	Status         string
	Gate           string
	FailureKind    string
	LogExcerpt     string
	RuntimeSeconds float64
	Events         int
	CheckOK        bool
	SimulateOK     bool
}

// HealthyScenario is a successful run with modest metrics.
func HealthyScenario() Scenario {
	return Scenario{
		Status:         model.StatusSuccess,
		Gate:           model.GatePass,
		LogExcerpt:     "simulation completed",
		RuntimeSeconds: 1.0,
		Events:         10,
		CheckOK:        true,
		SimulateOK:     true,
	}
}

// MockBackend produces deterministic evidence without running anything.
type MockBackend struct {
	SchemaVersion string
	Scenario      Scenario
}

// NewMockBackend returns a mock backend reporting a healthy run.
func NewMockBackend() *MockBackend {
	return &MockBackend{SchemaVersion: "1.0", Scenario: HealthyScenario()}
}

// Name implements Backend.
func (b *MockBackend) Name() string { return model.BackendMock }

// Run implements Backend. Each call mints a fresh run id; everything else
// comes from the configured scenario.
func (b *MockBackend) Run(_ context.Context, modelScript string) (*model.Evidence, error) {
	return &model.Evidence{
		SchemaVersion: b.SchemaVersion,
		RunID:         uuid.NewString(),
		Backend:       b.Name(),
		ModelScript:   modelScript,
		Status:        b.Scenario.Status,
		Gate:          b.Scenario.Gate,
		FailureKind:   b.Scenario.FailureKind,
		Stages: model.StageResults{
			Check:    b.Scenario.CheckOK,
			Simulate: b.Scenario.SimulateOK,
		},
		Metrics: model.Metrics{
			RuntimeSeconds: b.Scenario.RuntimeSeconds,
			Events:         b.Scenario.Events,
		},
		Artifacts: model.Artifacts{LogExcerpt: b.Scenario.LogExcerpt},
	}, nil
}
