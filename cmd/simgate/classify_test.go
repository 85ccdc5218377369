package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyCommandParsesFlags(t *testing.T) {
	original := classifyCmdRunner
	t.Cleanup(func() { classifyCmdRunner = original })

	var captured classifyOptions
	classifyCmdRunner = func(opts classifyOptions) error {
		captured = opts
		return nil
	}

	root := newRootCmd()
	err := executeCommand(root, "classify",
		"--reason", "timeout",
		"--reason", "nan_inf",
		"--profile", "strict",
		"--risk", "medium",
		"--policy-dir", "testdata/policies",
	)
	require.NoError(t, err)

	require.Equal(t, []string{"timeout", "nan_inf"}, captured.Reasons)
	require.Equal(t, "strict", captured.Profile)
	require.Equal(t, "medium", captured.RiskLevel)
	require.Equal(t, "testdata/policies", captured.PolicyDir)
}

func TestClassifyCommandRequiresReasonsOrInput(t *testing.T) {
	original := classifyCmdRunner
	t.Cleanup(func() { classifyCmdRunner = original })

	classifyCmdRunner = func(opts classifyOptions) error {
		t.Fatal("runner should not be called")
		return nil
	}

	root := newRootCmd()
	err := executeCommand(root, "classify", "--profile", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--reason or --input")
}

func TestClassifyCommandRequiresProfile(t *testing.T) {
	root := newRootCmd()
	err := executeCommand(root, "classify", "--reason", "timeout")
	require.Error(t, err)
	require.Contains(t, err.Error(), "profile")
}
