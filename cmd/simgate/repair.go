package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simgate/simgate/internal/repair"
	"github.com/simgate/simgate/internal/report"
)

type repairOptions struct {
	BeforePath        string
	PlannerCmd        string
	Goal              string
	PrimaryBackend    string
	FallbackBackend   string
	ConfidenceFloor   float64
	ConfidenceCeiling float64
	FileWhitelist     []string
	Retry             bool
	MaxRetries        int
	RetryFloor        float64
	RetryWhitelist    []string
	OutPath           string
	JSON              bool
	Verbose           bool
}

var repairCmdRunner = runRepair

func newRepairCmd(root *rootFlags) *cobra.Command {
	opts := repairOptions{}

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Drive the bounded repair loop against a failing run",
		Long: `Repair takes a failing run summary or regression result and drives the
remediation loop: one primary attempt, then up to --max-retries fallback
attempts with a tightened confidence floor and a narrowed file whitelist.
The best-scoring attempt is selected and compared against the input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.JSON = root.json
			opts.Verbose = root.verbose

			if strings.TrimSpace(opts.PlannerCmd) == "" {
				return fmt.Errorf("--planner-cmd is required")
			}
			return repairCmdRunner(opts)
		},
	}

	cmd.Flags().StringVar(&opts.BeforePath, "before", "", "Path to the failing run summary or regression result JSON")
	cmd.Flags().StringVar(&opts.PlannerCmd, "planner-cmd", "", "Planner command invoked once per attempt")
	cmd.Flags().StringVar(&opts.Goal, "goal", "repair regression", "Goal description passed to the planner")
	cmd.Flags().StringVar(&opts.PrimaryBackend, "primary-backend", "heuristic", "Planner backend for attempt 1")
	cmd.Flags().StringVar(&opts.FallbackBackend, "fallback-backend", "conservative", "Planner backend for retries")
	cmd.Flags().Float64Var(&opts.ConfidenceFloor, "confidence-floor", 0.5, "Confidence floor for attempt 1")
	cmd.Flags().Float64Var(&opts.ConfidenceCeiling, "confidence-ceiling", 1.0, "Confidence ceiling for all attempts")
	cmd.Flags().StringSliceVar(&opts.FileWhitelist, "allow-file", nil, "File attempt 1 may modify (repeatable)")
	cmd.Flags().BoolVar(&opts.Retry, "retry", true, "Retry with the fallback backend when attempt 1 exits non-zero")
	cmd.Flags().IntVar(&opts.MaxRetries, "max-retries", 2, "Retry budget")
	cmd.Flags().Float64Var(&opts.RetryFloor, "retry-floor", 0.8, "Confidence floor for retries (effective floor never drops below attempt 1's)")
	cmd.Flags().StringSliceVar(&opts.RetryWhitelist, "retry-allow-file", nil, "File retries may modify (default: the known-safe target)")
	cmd.Flags().StringVar(&opts.OutPath, "out", "", "Also write the loop summary JSON to this path")
	cmd.MarkFlagRequired("before") //nolint:errcheck

	return cmd
}

func runRepair(opts repairOptions) error {
	log := newCommandLogger(&rootFlags{verbose: opts.Verbose, json: opts.JSON})

	before, err := os.ReadFile(opts.BeforePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading before record: %v\n", err)
		os.Exit(exitConfig)
	}

	executor := &repair.CommandExecutor{
		Command: strings.Fields(opts.PlannerCmd),
		Logger:  log,
	}
	controller := repair.NewController(executor, log)

	cfg := repair.Config{
		Goal:                 opts.Goal,
		PrimaryBackend:       opts.PrimaryBackend,
		FallbackBackend:      opts.FallbackBackend,
		ConfidenceFloor:      opts.ConfidenceFloor,
		ConfidenceCeiling:    opts.ConfidenceCeiling,
		FileWhitelist:        opts.FileWhitelist,
		RetryOnFailedAttempt: opts.Retry,
		MaxRetries:           opts.MaxRetries,
		RetryConfidenceFloor: opts.RetryFloor,
		RetryFileWhitelist:   opts.RetryWhitelist,
	}

	summary, err := controller.Run(context.Background(), before, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Repair loop error: %v\n", err)
		os.Exit(exitConfig)
	}

	if opts.OutPath != "" {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding summary: %v\n", err)
			os.Exit(exitInternal)
		}
		if err := os.WriteFile(opts.OutPath, append(data, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing summary: %v\n", err)
			os.Exit(exitInternal)
		}
	}

	if opts.JSON {
		emitJSON(summary)
	} else {
		fmt.Print(report.RepairSummary(summary))
	}

	log.WithFields(map[string]any{
		"run_id":   summary.RunID,
		"selected": summary.SelectedAttempt,
		"delta":    summary.Comparison.Delta,
	}).Info("repair loop complete")

	os.Exit(decisionExitCode(summary.After.Decision, false))
	return nil
}
