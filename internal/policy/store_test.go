package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	simgateerrors "github.com/simgate/simgate/pkg/errors"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestStoreLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads yaml profile by name", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeProfile(t, dir, "strict.yaml", `
critical_reason_prefixes: [nan_inf, timeout]
needs_review_reason_prefixes: [runtime_regression]
fail_on_needs_review_risk_levels: [medium, high]
min_confidence: 0.8
`)

		store := NewStore(StoreConfig{Dir: dir})
		p, err := store.Load("strict")
		require.NoError(t, err)
		require.Equal(t, "strict", p.Name)
		require.Equal(t, []string{"nan_inf", "timeout"}, p.CriticalReasonPrefixes)
		require.Equal(t, 0.8, p.MinConfidence)
		require.True(t, p.failOnUnknown(), "unknown reasons block by default")
	})

	t.Run("loads json profile through the same decoder", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeProfile(t, dir, "lenient.json", `{
  "critical_reason_prefixes": ["nan_inf"],
  "needs_review_reason_prefixes": ["runtime_regression", "event_explosion"],
  "fail_on_needs_review_risk_levels": [],
  "fail_on_unknown_reasons": false
}`)

		store := NewStore(StoreConfig{Dir: dir})
		p, err := store.Load("lenient")
		require.NoError(t, err)
		require.Equal(t, "lenient", p.Name)
		require.False(t, p.failOnUnknown())
	})

	t.Run("missing profile is a descriptive 404", func(t *testing.T) {
		t.Parallel()
		store := NewStore(StoreConfig{Dir: t.TempDir()})

		_, err := store.Load("ghost")
		require.Error(t, err)

		var notFound *simgateerrors.ProfileNotFoundError
		require.ErrorAs(t, err, &notFound)
		require.Equal(t, "ghost", notFound.Profile)
	})

	t.Run("invalid risk level fails validation", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeProfile(t, dir, "broken.yaml", `
critical_reason_prefixes: [nan_inf]
needs_review_reason_prefixes: [runtime_regression]
fail_on_needs_review_risk_levels: [extreme]
`)

		store := NewStore(StoreConfig{Dir: dir})
		_, err := store.Load("broken")
		require.Error(t, err)

		var validationErr *simgateerrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("empty prefix fails validation", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeProfile(t, dir, "blank.yaml", `
critical_reason_prefixes: ["nan_inf", "  "]
needs_review_reason_prefixes: []
`)

		store := NewStore(StoreConfig{Dir: dir})
		_, err := store.Load("blank")
		require.Error(t, err)
	})

	t.Run("malformed document is a parse error", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeProfile(t, dir, "bad.yaml", "critical_reason_prefixes: [unterminated\n")

		store := NewStore(StoreConfig{Dir: dir})
		_, err := store.Load("bad")
		require.Error(t, err)

		var parseErr *simgateerrors.ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("two stores resolve independently", func(t *testing.T) {
		t.Parallel()
		dirA := t.TempDir()
		dirB := t.TempDir()
		writeProfile(t, dirA, "gate.yaml", "critical_reason_prefixes: [timeout]\nneeds_review_reason_prefixes: []\n")
		writeProfile(t, dirB, "gate.yaml", "critical_reason_prefixes: [nan_inf]\nneeds_review_reason_prefixes: []\n")

		a, err := NewStore(StoreConfig{Dir: dirA}).Load("gate")
		require.NoError(t, err)
		b, err := NewStore(StoreConfig{Dir: dirB}).Load("gate")
		require.NoError(t, err)

		require.Equal(t, []string{"timeout"}, a.CriticalReasonPrefixes)
		require.Equal(t, []string{"nan_inf"}, b.CriticalReasonPrefixes)
	})
}
