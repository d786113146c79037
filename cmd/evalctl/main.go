// Command evalctl is the CLI adapter: it calls the same operations as
// cmd/evalsrv directly against an embedded Store, with no HTTP round-trip,
// per spec.md §6. Built on cmd/tarsy/main.go's flag+getEnv bootstrap idiom
// (no cobra) with exit codes 0/1/2 per spec.md §6's CLI surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/comparator"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/orchestrator"
	"github.com/neon-eval/evalengine/pkg/runner"
	"github.com/neon-eval/evalengine/pkg/scorer"
	"github.com/neon-eval/evalengine/pkg/scorer/judge"
	"github.com/neon-eval/evalengine/pkg/store"
	"github.com/neon-eval/evalengine/pkg/suiteconfig"
	"github.com/neon-eval/evalengine/pkg/trace"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 2 {
		printUsage()
		return exitUsage
	}

	ctx := context.Background()
	pgStore, err := openStore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitFailure
	}
	defer pgStore.Close()

	group, sub := args[0], args[1]
	rest := args[2:]

	switch group {
	case "suite":
		return runSuiteCommand(ctx, pgStore, sub, rest)
	case "run":
		return runRunCommand(ctx, pgStore, sub, rest)
	case "compare":
		return runCompareCommand(ctx, pgStore, sub, rest)
	default:
		printUsage()
		return exitUsage
	}
}

func openStore(ctx context.Context) (*store.PostgresStore, error) {
	cfg := store.ConfigFromEnv(os.Getenv)
	client, err := store.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store.NewPostgresStore(client.DB()), nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: evalctl <group> <command> [args]

suite list --project <id>
suite show <suite-id>
suite create --project <id> <file.yaml>
suite validate <file.yaml>
suite delete <suite-id>
run start <suite-id> [--parallel] [--stop-on-failure]
run list <suite-id>
run show <run-id>
compare runs <baseline-run-id|latest> <candidate-run-id> [--threshold N] [--fail-on-regression]`)
}

func runSuiteCommand(ctx context.Context, st *store.PostgresStore, sub string, args []string) int {
	switch sub {
	case "validate":
		if len(args) < 1 {
			printUsage()
			return exitUsage
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		if _, err := suiteconfig.Load(data, uuid.Nil, suiteconfig.Options{}); err != nil {
			fmt.Fprintln(os.Stderr, "validation failed:", err)
			return exitFailure
		}
		fmt.Println("suite is valid")
		return exitSuccess

	case "create":
		fs := flag.NewFlagSet("suite create", flag.ContinueOnError)
		projectFlag := fs.String("project", "", "project id")
		if err := fs.Parse(args); err != nil || fs.NArg() < 1 || *projectFlag == "" {
			printUsage()
			return exitUsage
		}
		projectID, err := uuid.Parse(*projectFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid --project id")
			return exitUsage
		}
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		loaded, err := suiteconfig.Load(data, projectID, suiteconfig.Options{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		if err := st.CreateSuite(ctx, loaded.Suite); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		for _, c := range loaded.Cases {
			if err := st.CreateCase(ctx, c); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				return exitFailure
			}
		}
		fmt.Printf("created suite %s (%d cases)\n", loaded.Suite.ID, len(loaded.Cases))
		return exitSuccess

	case "show":
		if len(args) < 1 {
			printUsage()
			return exitUsage
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid suite id")
			return exitUsage
		}
		suite, err := st.GetSuite(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		return printJSON(suite)

	case "list":
		fs := flag.NewFlagSet("suite list", flag.ContinueOnError)
		projectFlag := fs.String("project", "", "project id")
		if err := fs.Parse(args); err != nil || *projectFlag == "" {
			printUsage()
			return exitUsage
		}
		projectID, err := uuid.Parse(*projectFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid --project id")
			return exitUsage
		}
		suites, err := st.ListSuites(ctx, projectID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		return printJSON(suites)

	case "delete":
		if len(args) < 1 {
			printUsage()
			return exitUsage
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid suite id")
			return exitUsage
		}
		if err := st.DeleteSuite(ctx, id); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		fmt.Println("deleted")
		return exitSuccess

	default:
		printUsage()
		return exitUsage
	}
}

func runRunCommand(ctx context.Context, st *store.PostgresStore, sub string, args []string) int {
	switch sub {
	case "start":
		fs := flag.NewFlagSet("run start", flag.ContinueOnError)
		parallel := fs.Bool("parallel", true, "run cases in parallel")
		stopOnFailure := fs.Bool("stop-on-failure", false, "stop sequential execution on first failure")
		if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
			printUsage()
			return exitUsage
		}
		suiteArg := fs.Arg(0)
		// Flags may also follow the suite id, as the usage line shows.
		if err := fs.Parse(fs.Args()[1:]); err != nil || fs.NArg() > 0 {
			printUsage()
			return exitUsage
		}
		suiteID, err := uuid.Parse(suiteArg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid suite id")
			return exitUsage
		}

		orch, run, err := startLocalRun(ctx, st, suiteID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		if err := orch.StartRun(ctx, run.ID, *parallel, *stopOnFailure); err != nil {
			fmt.Fprintln(os.Stderr, "run failed:", err)
			return exitFailure
		}
		finished, err := st.GetRun(ctx, run.ID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		return printJSON(finished)

	case "show":
		if len(args) < 1 {
			printUsage()
			return exitUsage
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid run id")
			return exitUsage
		}
		runRec, err := st.GetRun(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		results, err := st.ListResults(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		return printJSON(map[string]any{
			"run":     runRec,
			"results": results,
			"summary": orchestrator.Summarize(id, results),
		})

	case "list":
		if len(args) < 1 {
			printUsage()
			return exitUsage
		}
		suiteID, err := uuid.Parse(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid suite id")
			return exitUsage
		}
		suiteRec, err := st.GetSuite(ctx, suiteID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		runs, _, err := st.ListRuns(ctx, suiteRec.ProjectID, &suiteID, nil, 50, 0)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
		return printJSON(runs)

	default:
		printUsage()
		return exitUsage
	}
}

// startLocalRun creates a pending run and builds the local-mode Orchestrator
// (agent registry, scorers, trace client) the CLI drives synchronously,
// with no HTTP round-trip, per spec.md §6.
func startLocalRun(ctx context.Context, st *store.PostgresStore, suiteID uuid.UUID) (*orchestrator.Orchestrator, *models.Run, error) {
	suiteRec, err := st.GetSuite(ctx, suiteID)
	if err != nil {
		return nil, nil, fmt.Errorf("load suite: %w", err)
	}
	run := &models.Run{
		ID:        uuid.New(),
		ProjectID: suiteRec.ProjectID,
		SuiteID:   suiteID,
		Status:    models.RunStatusPending,
		Trigger:   models.RunTriggerManual,
	}
	if err := st.CreateRun(ctx, run); err != nil {
		return nil, nil, err
	}

	traceClient, err := trace.NewClient(ctx, trace.Config{ServiceName: "evalctl-local"})
	if err != nil {
		return nil, nil, err
	}

	scorerJudge := judge.NewHTTPJudge(getEnv("JUDGE_ENDPOINT", "http://localhost:9000/judge"))
	scorers := scorer.NewRegistry(
		scorer.NewToolSelectionScorer(),
		scorer.NewContentScorer(scorerJudge),
		scorer.NewReasoningScorer(scorerJudge),
	)

	agents := agent.NewRegistry()
	run2 := runner.New(st, scorers, traceClient)
	orch := orchestrator.New(st, agents, run2)
	orch.SourcePrefix = "neon-local"
	return orch, run, nil
}

func runCompareCommand(ctx context.Context, st *store.PostgresStore, sub string, args []string) int {
	if sub != "runs" {
		printUsage()
		return exitUsage
	}
	fs := flag.NewFlagSet("compare runs", flag.ContinueOnError)
	threshold := fs.Float64("threshold", 0.05, "regression threshold")
	failOnRegression := fs.Bool("fail-on-regression", false, "exit 1 if any regression is found")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		printUsage()
		return exitUsage
	}
	baselineArg, candidateArg := fs.Arg(0), fs.Arg(1)
	// Flags may also follow the two run ids, as the usage line shows.
	if err := fs.Parse(fs.Args()[2:]); err != nil || fs.NArg() > 0 {
		printUsage()
		return exitUsage
	}

	candidateID, err := uuid.Parse(candidateArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: invalid candidate run id")
		return exitUsage
	}

	var baselineID uuid.UUID
	if baselineArg == "latest" {
		baselineID, err = latestBaselineFor(ctx, st, candidateID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return exitFailure
		}
	} else {
		baselineID, err = uuid.Parse(baselineArg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid baseline run id")
			return exitUsage
		}
	}

	cmp := comparator.New(st)
	result, err := cmp.Compare(ctx, baselineID, candidateID, *threshold)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitFailure
	}
	if code := printJSON(result); code != exitSuccess {
		return code
	}
	if *failOnRegression && !result.Passed {
		return exitFailure
	}
	return exitSuccess
}

// latestBaselineFor resolves the 'latest' keyword to the most recently
// completed run of the candidate's suite, excluding the candidate itself.
// ListRuns returns runs newest-first (per store.PostgresStore.ListRuns).
func latestBaselineFor(ctx context.Context, st *store.PostgresStore, candidateID uuid.UUID) (uuid.UUID, error) {
	candidate, err := st.GetRun(ctx, candidateID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load candidate run: %w", err)
	}
	runs, _, err := st.ListRuns(ctx, candidate.ProjectID, &candidate.SuiteID, nil, 50, 0)
	if err != nil {
		return uuid.Nil, fmt.Errorf("list runs: %w", err)
	}
	for _, r := range runs {
		if r.ID == candidateID {
			continue
		}
		if r.Status == models.RunStatusCompleted {
			return r.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("no completed baseline run found for suite %s", candidate.SuiteID)
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitFailure
	}
	return exitSuccess
}
