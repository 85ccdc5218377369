package checker

import (
	"github.com/simgate/simgate/internal/model"
)

// Checker is one independent regression predicate. Implementations compare
// a baseline evidence record against a candidate and report zero or more
// findings.
//
// CONTRACT: Check is a pure read-only function. It must not mutate either
// evidence record and must not fail for well-formed evidence; a checker
// that detects nothing returns an empty slice.
type Checker interface {
	// Name returns the stable identifier callers use to select this
	// checker. Names are unique within a registry.
	Name() string

	// Check compares baseline and candidate evidence and returns the
	// findings it detects, in a deterministic order.
	Check(baseline, candidate *model.Evidence) []model.Finding
}
