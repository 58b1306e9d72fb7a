package commands

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wardengh/warden-bot/internal/core/config"
	"github.com/wardengh/warden-bot/internal/core/event"
	"github.com/wardengh/warden-bot/internal/core/pipeline"
	"github.com/wardengh/warden-bot/internal/integrations/actions"
	"github.com/wardengh/warden-bot/internal/integrations/github"
	"github.com/wardengh/warden-bot/internal/tui"
)

var (
	eventFile string
	dryRun    bool
	workflow  string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the approval reference of one pull request",
	Long: `Check runs the approval verification pipeline for the pull request in the
triggering event payload. A confirmed policy violation posts the autoclose
comment and closes the pull request; an approved, skipped, or closed outcome
exits 0, an infrastructure failure exits 1.`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runCheck())
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&eventFile, "event", "", "Path to event JSON file (default: $GITHUB_EVENT_PATH)")
	checkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log remediation instead of writing")
	checkCmd.Flags().StringVar(&workflow, "workflow", "", "Workflow preset to run (overrides config)")
}

func runCheck() int {
	// .env is for local runs; in Actions everything arrives via INPUT_* vars.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return fatalConfig(err)
	}

	pr, err := loadPullRequest()
	if err != nil {
		return fatalConfig(err)
	}

	runID := uuid.NewString()
	log.Printf("[warden] Checking PR #%d in %s/%s (run %s)", pr.Number, pr.Owner, pr.Repo, runID)

	deps := &pipeline.Dependencies{
		GitHub: github.NewClient(ctx, cfg.Token),
		DryRun: dryRun,
	}

	wf := workflow
	if wf == "" {
		wf = cfg.Workflow
	}
	stepNames := pipeline.ResolveSteps(cfg.Steps, wf)

	var result *pipeline.Result
	if actions.IsCI() {
		fmt.Println("[Warden] Running in CI mode (no TUI)")
		result = executeCheck(ctx, deps, stepNames, pr, cfg, runID, nil)
	} else {
		result = runWithTUI(ctx, deps, stepNames, pr, cfg, runID)
		if result == nil {
			return 1
		}
	}

	return reportResult(result)
}

// runWithTUI streams step progress into the bubbletea view while the
// pipeline runs on its own goroutine. Returns nil if the view failed.
func runWithTUI(ctx context.Context, deps *pipeline.Dependencies, stepNames []string, pr *pipeline.PullRequest, cfg *config.Config, runID string) *pipeline.Result {
	updates := make(chan tui.StatusMsg)
	done := make(chan tui.DoneMsg, 1)
	resultCh := make(chan *pipeline.Result, 1)

	program := tea.NewProgram(tui.NewModel(stepNames, updates, done))

	go func() {
		result := executeCheck(ctx, deps, stepNames, pr, cfg, runID, updates)
		close(updates)
		done <- tui.DoneMsg{Outcome: string(result.Outcome), Reason: result.Reason}
		resultCh <- result
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return nil
	}
	return <-resultCh
}

// loadConfig assembles the effective configuration: file (with inheritance),
// then INPUT_* overlays, then the GITHUB_TOKEN fallback, then validation.
func loadConfig(ctx context.Context) (*config.Config, error) {
	fetcher := func(ref string) ([]byte, error) {
		org, repo, branch, path, err := config.ParseExtendsRef(ref)
		if err != nil {
			return nil, err
		}
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN is required to fetch remote config %s", ref)
		}
		client := github.NewClient(ctx, token)
		return client.FileContent(ctx, org, repo, path, branch)
	}

	var cfg *config.Config
	if path := config.FindConfigPath(cfgFile); path != "" {
		loaded, err := config.LoadWithInheritance(path, fetcher)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		if verbose {
			log.Printf("[warden] Loaded config from %s", path)
		}
		cfg = loaded
	} else {
		if verbose {
			log.Printf("[warden] No configuration file found, using inputs and defaults")
		}
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}

	inputs, err := config.InputsFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if err := inputs.Apply(cfg); err != nil {
		return nil, err
	}

	if cfg.Token == "" {
		cfg.Token = os.Getenv("GITHUB_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadPullRequest reads the triggering event payload and snapshots the pull
// request under check.
func loadPullRequest() (*pipeline.PullRequest, error) {
	path := eventFile
	if path == "" {
		path = actions.EventPath()
	}
	if path == "" {
		return nil, fmt.Errorf("no event payload: pass --event or set GITHUB_EVENT_PATH")
	}

	return event.Load(path)
}

// reportResult logs the outcome, publishes Actions outputs, and maps the
// outcome to the process exit code. Closure is successful enforcement, so
// only a failed run exits non-zero.
func reportResult(result *pipeline.Result) int {
	if result.Reason != "" {
		log.Printf("[warden] PR #%d outcome: %s (%s)", result.PRNumber, result.Outcome, result.Reason)
	} else {
		log.Printf("[warden] PR #%d outcome: %s", result.PRNumber, result.Outcome)
	}

	if actions.IsCI() {
		actions.SetOutputs(map[string]string{
			"outcome": string(result.Outcome),
			"reason":  result.Reason,
			"run_id":  result.RunID,
		})
		switch result.Outcome {
		case pipeline.OutcomeFailed:
			actions.Errorf("approval check failed: %s", result.Reason)
		case pipeline.OutcomeClosed:
			actions.Noticef("pull request closed: %s", result.Reason)
		}
	}

	if result.Outcome == pipeline.OutcomeFailed {
		return 1
	}
	return 0
}

// fatalConfig reports a configuration problem that prevents any check from
// running. No remediation is attempted on this path.
func fatalConfig(err error) int {
	log.Printf("[warden] Configuration error: %v", err)
	if actions.IsCI() {
		actions.Errorf("configuration error: %v", err)
	}
	return 1
}
