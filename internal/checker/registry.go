package checker

import (
	"fmt"
	"sync"

	"github.com/simgate/simgate/internal/model"
	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

// Registry holds the available checkers. Registration order is preserved so
// that running "all checkers" yields reasons in a stable order.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewRegistry returns an empty checker registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// NewDefaultRegistry returns a registry with every built-in checker
// registered in its canonical order.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range builtinCheckers() {
		// Built-in names are unique; registration cannot fail here.
		_ = r.Register(c)
	}
	return r
}

// Register adds a checker. Registering a nil checker or a duplicate name is
// an error.
func (r *Registry) Register(c Checker) error {
	if c == nil {
		return simgateerrors.NewValidationError("checker", "checker is nil", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.checkers[name]; exists {
		return simgateerrors.NewValidationError("checker", fmt.Sprintf("checker %q already registered", name), nil)
	}

	r.checkers[name] = c
	r.order = append(r.order, name)
	return nil
}

// Names returns the registered checker names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Get retrieves a checker by name.
func (r *Registry) Get(name string) (Checker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.checkers[name]
	if !ok {
		return nil, simgateerrors.NewUnknownCheckerError(name)
	}
	return c, nil
}

// RunResult carries the outcome of running a set of checkers once.
type RunResult struct {
	// Reasons holds each distinct reason token in order of first
	// occurrence. Reasons gate policy; a reason appears once even when
	// several checkers emit findings under it.
	Reasons []string
	// Findings holds every finding from every checker, unmerged.
	// Messages are diagnostic only.
	Findings []model.Finding
}

// Run executes the named checkers against the evidence pair. A nil or empty
// name list selects every registered checker in registration order. An
// unknown name is a configuration error detected before any checker runs.
func (r *Registry) Run(baseline, candidate *model.Evidence, names []string) (*RunResult, error) {
	if len(names) == 0 {
		names = r.Names()
	}

	selected := make([]Checker, 0, len(names))
	for _, name := range names {
		c, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, c)
	}

	result := &RunResult{}
	seen := make(map[string]struct{})
	for _, c := range selected {
		for _, finding := range c.Check(baseline, candidate) {
			result.Findings = append(result.Findings, finding)
			if _, dup := seen[finding.Reason]; dup {
				continue
			}
			seen[finding.Reason] = struct{}{}
			result.Reasons = append(result.Reasons, finding.Reason)
		}
	}

	return result, nil
}
