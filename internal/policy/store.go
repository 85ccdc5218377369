package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	yamlLineRegex = regexp.MustCompile(`line (\d+)`)

	// Profile documents may be YAML or JSON; JSON parses through the
	// same YAML decoder.
	profileExtensions = []string{".yaml", ".yml", ".json"}
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("risk_level", func(fl validator.FieldLevel) bool {
			return ValidRiskLevel(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// StoreConfig locates a profile store. The directory is explicit rather
// than a package-level default so multiple stores can coexist in tests.
type StoreConfig struct {
	Dir string
}

// Store resolves profile names to policy documents.
type Store struct {
	cfg StoreConfig
}

// NewStore creates a profile store rooted at the configured directory.
func NewStore(cfg StoreConfig) *Store {
	return &Store{cfg: cfg}
}

// Load resolves a profile name to a policy document. The name maps to
// <dir>/<name>.yaml (or .yml/.json); a name that resolves to no file is a
// ProfileNotFoundError.
func (s *Store) Load(profile string) (*Policy, error) {
	for _, ext := range profileExtensions {
		path := filepath.Join(s.cfg.Dir, profile+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		p, err := s.LoadPath(path)
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			p.Name = profile
		}
		return p, nil
	}

	return nil, simgateerrors.NewProfileNotFoundError(profile, s.cfg.Dir)
}

// LoadPath parses and validates a policy document at an explicit path.
func (s *Store) LoadPath(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simgateerrors.NewParseError(path, 0, err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, simgateerrors.NewParseError(path, extractLine(err), err)
	}

	if p.Name == "" {
		base := filepath.Base(path)
		p.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Validate performs structural validation on a policy document.
func Validate(p *Policy) error {
	if p == nil {
		return simgateerrors.NewValidationError("policy", "policy is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(p); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return simgateerrors.NewValidationError(first.Namespace(),
				fmt.Sprintf("failed %q validation", first.Tag()), err)
		}
		return simgateerrors.NewValidationError("policy", err.Error(), err)
	}

	for i, prefix := range p.CriticalReasonPrefixes {
		if strings.TrimSpace(prefix) == "" {
			return simgateerrors.NewValidationError(
				fmt.Sprintf("critical_reason_prefixes[%d]", i), "empty prefix", nil)
		}
	}
	for i, prefix := range p.NeedsReviewReasonPrefixes {
		if strings.TrimSpace(prefix) == "" {
			return simgateerrors.NewValidationError(
				fmt.Sprintf("needs_review_reason_prefixes[%d]", i), "empty prefix", nil)
		}
	}

	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}

	return line
}
