package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simgate/simgate/internal/policy"
	"github.com/simgate/simgate/internal/repair"
	"github.com/simgate/simgate/internal/report"
)

type classifyOptions struct {
	Reasons      []string
	InputPath    string
	Profile      string
	RiskLevel    string
	FailOnReview bool
	PolicyDir    string
	JSON         bool
	Verbose      bool
}

var classifyCmdRunner = runClassify

func newClassifyCmd(root *rootFlags) *cobra.Command {
	opts := classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify failure reasons against a policy profile",
		Long: `Classify takes a reason list, either given directly with --reason or
extracted from a run summary or regression result file, and evaluates it
against a policy profile at the given risk level.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.JSON = root.json
			opts.Verbose = root.verbose
			opts.PolicyDir = root.policyDir

			if len(opts.Reasons) == 0 && opts.InputPath == "" {
				return fmt.Errorf("either --reason or --input is required")
			}
			return classifyCmdRunner(opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Reasons, "reason", nil, "Reason token to classify (repeatable)")
	cmd.Flags().StringVar(&opts.InputPath, "input", "", "Run summary or regression result JSON to take reasons from")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "Policy profile name")
	cmd.Flags().StringVar(&opts.RiskLevel, "risk", policy.RiskLow, "Risk level of the proposed change (low, medium, high)")
	cmd.Flags().BoolVar(&opts.FailOnReview, "fail-on-review", false, "Exit non-zero on NEEDS_REVIEW")
	cmd.MarkFlagRequired("profile") //nolint:errcheck

	return cmd
}

func runClassify(opts classifyOptions) error {
	log := newCommandLogger(&rootFlags{verbose: opts.Verbose, json: opts.JSON})

	reasons := opts.Reasons
	if opts.InputPath != "" {
		raw, err := os.ReadFile(opts.InputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(exitConfig)
		}
		view, err := repair.Normalize(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error normalizing input: %v\n", err)
			os.Exit(exitConfig)
		}
		reasons = append(reasons, view.Reasons...)
	}

	store := policy.NewStore(policy.StoreConfig{Dir: opts.PolicyDir})
	p, err := store.Load(opts.Profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading profile: %v\n", err)
		os.Exit(exitConfig)
	}

	result, err := policy.Classify(reasons, opts.RiskLevel, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Classification error: %v\n", err)
		os.Exit(exitConfig)
	}

	if opts.JSON {
		emitJSON(result)
	} else {
		fmt.Print(report.Classification(result))
	}

	log.WithFields(map[string]any{
		"profile":  opts.Profile,
		"risk":     opts.RiskLevel,
		"decision": result.PolicyDecision,
	}).Info("classification complete")

	os.Exit(decisionExitCode(result.PolicyDecision, opts.FailOnReview))
	return nil
}
