package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simgate/simgate/internal/logger"
	"github.com/simgate/simgate/internal/model"
)

// Process exit codes. FAIL is the expected, modeled outcome of a gate; only
// codes 2 and 3 indicate something went wrong with the tool itself.
const (
	exitOK       = 0
	exitGate     = 1
	exitConfig   = 2
	exitInternal = 3
)

type rootFlags struct {
	verbose   bool
	json      bool
	policyDir string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "simgate",
		Short:         "simgate gates model changes by comparing execution evidence against policy",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.json, "json", false, "Emit the JSON artifact on stdout instead of the rendered report")
	cmd.PersistentFlags().StringVar(&flags.policyDir, "policy-dir", "policies", "Directory containing policy profile documents")

	cmd.AddCommand(newCompareCmd(flags))
	cmd.AddCommand(newClassifyCmd(flags))
	cmd.AddCommand(newRepairCmd(flags))
	cmd.AddCommand(newRankCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newCommandLogger(root *rootFlags) *logger.Logger {
	level := "info"
	if root.verbose {
		level = "debug"
	}

	log, err := logger.New(logger.Options{Level: level, HumanReadable: !root.json})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(exitInternal)
	}
	return log
}

func emitJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(exitInternal)
	}
}

// decisionExitCode translates a gate-shaped decision into a process exit
// code for CI gating. NEEDS_REVIEW blocks only when the caller asked it to.
func decisionExitCode(decision string, failOnReview bool) int {
	switch decision {
	case model.GatePass:
		return exitOK
	case model.GateNeedsReview:
		if failOnReview {
			return exitGate
		}
		return exitOK
	default:
		return exitGate
	}
}
