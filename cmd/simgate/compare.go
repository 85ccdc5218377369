package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simgate/simgate/internal/backend"
	"github.com/simgate/simgate/internal/checker"
	"github.com/simgate/simgate/internal/policy"
	"github.com/simgate/simgate/internal/regression"
	"github.com/simgate/simgate/internal/report"
)

type compareOptions struct {
	BaselinePath      string
	CandidatePath     string
	ProposalID        string
	Threshold         float64
	Strict            bool
	StrictModelScript bool
	Checkers          []string
	ListCheckers      bool
	Profile           string
	RiskLevel         string
	FailOnReview      bool
	PolicyDir         string
	JSON              bool
	Verbose           bool
}

// compareSummary is the run-summary artifact: the regression result plus
// its policy classification, with the decision and reasons hoisted to the
// top level for downstream consumers (the repair loop normalizes on
// policy_decision/fail_reasons).
type compareSummary struct {
	ProposalID     string             `json:"proposal_id,omitempty"`
	PolicyDecision string             `json:"policy_decision"`
	FailReasons    []string           `json:"fail_reasons"`
	Regression     *regression.Result `json:"regression"`
	Policy         *policy.Result     `json:"policy,omitempty"`
}

var compareCmdRunner = runCompare

func newCompareCmd(root *rootFlags) *cobra.Command {
	opts := compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare candidate evidence against a baseline and gate the change",
		Long: `Compare runs the structural regression checks and the checker set over a
baseline/candidate evidence pair. With --profile the resulting reasons are
also classified against a policy document, and the policy decision drives
the exit code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.JSON = root.json
			opts.Verbose = root.verbose
			opts.PolicyDir = root.policyDir

			return compareCmdRunner(opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaselinePath, "baseline", "", "Path to the baseline evidence JSON")
	cmd.Flags().StringVar(&opts.CandidatePath, "candidate", "", "Path to the candidate evidence JSON")
	cmd.Flags().StringVar(&opts.ProposalID, "proposal", "", "Identifier of the proposed change")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", regression.DefaultRuntimeThreshold, "Allowed fractional runtime increase over baseline")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Require matching schema version and backend")
	cmd.Flags().BoolVar(&opts.StrictModelScript, "strict-model-script", false, "Additionally require matching model scripts (implies --strict checks)")
	cmd.Flags().StringSliceVar(&opts.Checkers, "checker", nil, "Run only the named checkers (repeatable; default all)")
	cmd.Flags().BoolVar(&opts.ListCheckers, "list-checkers", false, "List registered checkers and exit")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "Classify reasons against this policy profile")
	cmd.Flags().StringVar(&opts.RiskLevel, "risk", policy.RiskLow, "Risk level of the proposed change (low, medium, high)")
	cmd.Flags().BoolVar(&opts.FailOnReview, "fail-on-review", false, "Exit non-zero on NEEDS_REVIEW")

	return cmd
}

func runCompare(opts compareOptions) error {
	log := newCommandLogger(&rootFlags{verbose: opts.Verbose, json: opts.JSON})
	registry := checker.NewDefaultRegistry()

	if opts.ListCheckers {
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
		return nil
	}

	baseline, err := backend.LoadEvidence(opts.BaselinePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading baseline evidence: %v\n", err)
		os.Exit(exitConfig)
	}
	candidate, err := backend.LoadEvidence(opts.CandidatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading candidate evidence: %v\n", err)
		os.Exit(exitConfig)
	}

	log.WithFields(map[string]any{
		"baseline":  baseline.RunID,
		"candidate": candidate.RunID,
		"strict":    opts.Strict,
	}).Info("comparing evidence")

	result, err := regression.Compare(registry, baseline, candidate, regression.Options{
		ProposalID:        opts.ProposalID,
		RuntimeThreshold:  opts.Threshold,
		Strict:            opts.Strict,
		StrictModelScript: opts.StrictModelScript,
		Checkers:          opts.Checkers,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Comparison error: %v\n", err)
		os.Exit(exitConfig)
	}

	summary := &compareSummary{
		ProposalID:     opts.ProposalID,
		PolicyDecision: result.Decision,
		FailReasons:    result.Reasons,
		Regression:     result,
	}

	if opts.Profile != "" {
		store := policy.NewStore(policy.StoreConfig{Dir: opts.PolicyDir})
		p, err := store.Load(opts.Profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading profile: %v\n", err)
			os.Exit(exitConfig)
		}

		classified, err := policy.Classify(result.Reasons, opts.RiskLevel, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Classification error: %v\n", err)
			os.Exit(exitConfig)
		}
		summary.Policy = classified
		summary.PolicyDecision = classified.PolicyDecision
	}

	if opts.JSON {
		emitJSON(summary)
	} else {
		fmt.Print(report.Regression(result))
		if summary.Policy != nil {
			fmt.Print(report.Classification(summary.Policy))
		}
	}

	log.WithFields(map[string]any{
		"decision": summary.PolicyDecision,
		"reasons":  len(result.Reasons),
	}).Info("comparison complete")

	os.Exit(decisionExitCode(summary.PolicyDecision, opts.FailOnReview))
	return nil
}
