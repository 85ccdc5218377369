package model

const (
	// StatusSuccess marks an execution that completed normally.
	StatusSuccess = "success"
	// StatusFailed marks an execution that did not complete normally.
	StatusFailed = "failed"
)

const (
	// GatePass is the passing verdict.
	GatePass = "PASS"
	// GateNeedsReview requires human judgment before the change proceeds.
	GateNeedsReview = "NEEDS_REVIEW"
	// GateFail blocks the change.
	GateFail = "FAIL"
)

const (
	// BackendMock is the deterministic in-process execution backend.
	BackendMock = "mock"
	// BackendNative runs the simulation directly on the host.
	BackendNative = "native"
	// BackendContainer runs the simulation inside a container.
	BackendContainer = "containerized"
)

// Failure classifications reported by execution backends. Checkers key off
// these tokens; backends may report others, which simply match no checker.
const (
	FailureTimeout     = "timeout"
	FailureNaNInf      = "nan_inf"
	FailureToolMissing = "tool_missing"
	FailureDockerError = "docker_error"
)

// Metrics holds the measured quantities of one execution.
type Metrics struct {
	RuntimeSeconds float64 `json:"runtime_seconds"`
	Events         int     `json:"events"`
}

// Artifacts references the diagnostic output captured alongside a run.
type Artifacts struct {
	LogExcerpt string `json:"log_excerpt"`
}

// StageResults records per-stage success for the pipeline stages the
// backend ran before producing the evidence record.
type StageResults struct {
	Check    bool `json:"check"`
	Simulate bool `json:"simulate"`
}

// Evidence is one execution's measured outcome. It is produced once by an
// execution backend and consumed read-only; nothing in this module mutates
// an evidence record after construction.
type Evidence struct {
	SchemaVersion string       `json:"schema_version"`
	RunID         string       `json:"run_id"`
	Backend       string       `json:"backend"`
	ModelScript   string       `json:"model_script,omitempty"`
	Status        string       `json:"status"`
	Gate          string       `json:"gate"`
	FailureKind   string       `json:"failure_kind,omitempty"`
	Stages        StageResults `json:"stages"`
	Metrics       Metrics      `json:"metrics"`
	Artifacts     Artifacts    `json:"artifacts"`
}
