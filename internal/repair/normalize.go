package repair

import (
	"encoding/json"

	"github.com/simgate/simgate/internal/model"
	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

// Shape tags the recognized input record shapes. The shape is resolved once
// at the boundary; downstream code only ever sees a normalized View.
type Shape string

const (
	// ShapeRunSummary is a pipeline run summary carrying a
	// policy_decision and fail_reasons.
	ShapeRunSummary Shape = "run_summary"
	// ShapeRegression is a regression comparison result carrying a
	// decision and reasons.
	ShapeRegression Shape = "regression"
)

// View is the normalized form of a failing input record or a selected
// attempt outcome: a gate-shaped decision, its reasons, and the decision
// score.
type View struct {
	Shape    Shape    `json:"shape,omitempty"`
	Decision string   `json:"decision"`
	Reasons  []string `json:"reasons"`
	Score    int      `json:"score"`
}

// looseRecord captures the union of keys across the recognized shapes.
// Pointer fields distinguish "key absent" from "key empty".
type looseRecord struct {
	PolicyDecision *string  `json:"policy_decision"`
	FailReasons    []string `json:"fail_reasons"`
	Decision       *string  `json:"decision"`
	Reasons        []string `json:"reasons"`
}

// Normalize resolves a raw JSON record into a View. Shapes are tried in a
// fixed order and the first recognized one wins: run summary (has
// policy_decision) before regression result (has decision). A record
// matching neither shape is a configuration error.
func Normalize(raw []byte) (*View, error) {
	var record looseRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, simgateerrors.NewParseError("before record", 0, err)
	}

	switch {
	case record.PolicyDecision != nil:
		return normalizeRunSummary(&record), nil
	case record.Decision != nil:
		return normalizeRegression(&record), nil
	default:
		return nil, simgateerrors.NewValidationError("before",
			"record matches no recognized shape (want policy_decision or decision)", nil)
	}
}

func normalizeRunSummary(record *looseRecord) *View {
	reasons := record.FailReasons
	if reasons == nil {
		reasons = []string{}
	}
	return &View{
		Shape:    ShapeRunSummary,
		Decision: *record.PolicyDecision,
		Reasons:  reasons,
		Score:    model.DecisionScore(*record.PolicyDecision),
	}
}

func normalizeRegression(record *looseRecord) *View {
	reasons := record.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return &View{
		Shape:    ShapeRegression,
		Decision: *record.Decision,
		Reasons:  reasons,
		Score:    model.DecisionScore(*record.Decision),
	}
}
