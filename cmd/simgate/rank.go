package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simgate/simgate/internal/model"
	"github.com/simgate/simgate/internal/policy"
	"github.com/simgate/simgate/internal/rank"
	"github.com/simgate/simgate/internal/repair"
	"github.com/simgate/simgate/internal/report"
)

const (
	variantGovernance      = "governance"
	variantInvariantRepair = "invariant-repair"
)

type rankOptions struct {
	InputPath    string
	Profiles     []string
	RiskLevel    string
	Recommended  string
	MinMargin    float64
	Variant      string
	PlannerCmd   string
	Goal         string
	FailOnReview bool
	PolicyDir    string
	JSON         bool
	Verbose      bool
}

var rankCmdRunner = runRank

func newRankCmd(root *rootFlags) *cobra.Command {
	opts := rankOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Evaluate and rank alternative profiles against one failing source",
		Long: `Rank fans a single failing record out across candidate profiles,
evaluates each one independently, and ranks the outcomes with a weighted
score. The governance variant classifies the source's reasons under each
policy profile; the invariant-repair variant additionally drives a repair
loop per profile and scores the repair delta, safety, and strictness.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.JSON = root.json
			opts.Verbose = root.verbose
			opts.PolicyDir = root.policyDir

			switch opts.Variant {
			case variantGovernance:
			case variantInvariantRepair:
				if strings.TrimSpace(opts.PlannerCmd) == "" {
					return fmt.Errorf("--planner-cmd is required for the %s variant", variantInvariantRepair)
				}
			default:
				return fmt.Errorf("unknown variant %q (want %s or %s)", opts.Variant, variantGovernance, variantInvariantRepair)
			}
			return rankCmdRunner(opts)
		},
	}

	cmd.Flags().StringVar(&opts.InputPath, "input", "", "Failing run summary or regression result JSON")
	cmd.Flags().StringSliceVar(&opts.Profiles, "profiles", nil, "Candidate profile names (comma separated or repeatable)")
	cmd.Flags().StringVar(&opts.RiskLevel, "risk", policy.RiskLow, "Risk level of the proposed change (low, medium, high)")
	cmd.Flags().StringVar(&opts.Recommended, "recommended", "", "Recommended profile, preferred within top-score ties")
	cmd.Flags().Float64Var(&opts.MinMargin, "min-margin", 0, "Minimum top-score margin; a closer race downgrades PASS to NEEDS_REVIEW")
	cmd.Flags().StringVar(&opts.Variant, "variant", variantGovernance, "Scoring variant (governance or invariant-repair)")
	cmd.Flags().StringVar(&opts.PlannerCmd, "planner-cmd", "", "Planner command for the invariant-repair variant")
	cmd.Flags().StringVar(&opts.Goal, "goal", "repair regression", "Goal description for invariant-repair evaluations")
	cmd.Flags().BoolVar(&opts.FailOnReview, "fail-on-review", false, "Exit non-zero on NEEDS_REVIEW")
	cmd.MarkFlagRequired("input")    //nolint:errcheck
	cmd.MarkFlagRequired("profiles") //nolint:errcheck

	return cmd
}

func runRank(opts rankOptions) error {
	log := newCommandLogger(&rootFlags{verbose: opts.Verbose, json: opts.JSON})

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

	store := policy.NewStore(policy.StoreConfig{Dir: opts.PolicyDir})

	var evaluator rank.Evaluator
	weights := rank.GovernanceWeights()
	if opts.Variant == variantInvariantRepair {
		weights = rank.InvariantRepairWeights()
		executor := &repair.CommandExecutor{Command: strings.Fields(opts.PlannerCmd), Logger: log}
		evaluator = &loopEvaluator{
			store:      store,
			controller: repair.NewController(executor, log),
			before:     raw,
			goal:       opts.Goal,
		}
	} else {
		evaluator = &classifyEvaluator{store: store, reasons: view.Reasons, risk: opts.RiskLevel}
	}

	comparator := rank.NewComparator(evaluator, weights, log)
	ranking, err := comparator.Compare(context.Background(), opts.Profiles, rank.Snapshot{
		RecommendedProfile: opts.Recommended,
		MinTopScoreMargin:  opts.MinMargin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ranking error: %v\n", err)
		os.Exit(exitConfig)
	}

	if opts.JSON {
		emitJSON(ranking)
	} else {
		fmt.Print(report.Ranking(ranking))
	}

	log.WithFields(map[string]any{
		"best":      ranking.BestProfile,
		"aggregate": ranking.AggregateStatus,
	}).Info("ranking complete")

	os.Exit(decisionExitCode(ranking.AggregateStatus, opts.FailOnReview))
	return nil
}

// classifyEvaluator scores a profile by classifying the fixed source
// reasons under that profile's policy document.
type classifyEvaluator struct {
	store   *policy.Store
	reasons []string
	risk    string
}

func (e *classifyEvaluator) Evaluate(_ context.Context, profile string) (*rank.Outcome, error) {
	p, err := e.store.Load(profile)
	if err != nil {
		return nil, err
	}

	result, err := policy.Classify(e.reasons, e.risk, p)
	if err != nil {
		return nil, err
	}

	exitCode := 0
	if result.PolicyDecision == model.GateFail {
		exitCode = 1
	}

	return &rank.Outcome{
		Decision:      result.PolicyDecision,
		ExitCode:      exitCode,
		Reasons:       result.PolicyReasons,
		MinConfidence: p.MinConfidence,
	}, nil
}

// loopEvaluator scores a profile by driving a full repair loop with that
// profile's strictness settings.
type loopEvaluator struct {
	store      *policy.Store
	controller *repair.Controller
	before     []byte
	goal       string
}

func (e *loopEvaluator) Evaluate(ctx context.Context, profile string) (*rank.Outcome, error) {
	p, err := e.store.Load(profile)
	if err != nil {
		return nil, err
	}

	cfg := repair.Config{
		Goal:                 e.goal,
		PrimaryBackend:       "heuristic",
		FallbackBackend:      "conservative",
		ConfidenceFloor:      p.MinConfidence,
		ConfidenceCeiling:    1.0,
		RetryOnFailedAttempt: true,
		MaxRetries:           1,
		RetryConfidenceFloor: p.MinConfidence,
	}

	summary, err := e.controller.Run(ctx, e.before, cfg)
	if err != nil {
		return nil, err
	}

	var selected *repair.Attempt
	for i := range summary.Attempts {
		if summary.Attempts[i].Attempt == summary.SelectedAttempt {
			selected = &summary.Attempts[i]
			break
		}
	}

	outcome := &rank.Outcome{
		Decision:      summary.After.Decision,
		Reasons:       summary.After.Reasons,
		Delta:         summary.Comparison.Delta,
		MinConfidence: p.MinConfidence,
	}
	if selected != nil {
		outcome.ExitCode = selected.ExitCode
		outcome.SafetyTriggered = len(selected.GuardrailViolations) > 0
	}

	return outcome, nil
}
