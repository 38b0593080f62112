package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/puppet/internal/config"
	"github.com/roach88/puppet/internal/harness"
	"github.com/roach88/puppet/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string
	Tick     time.Duration
}

// ReplayResult holds the replay result.
type ReplayResult struct {
	Session     string   `json:"session"`
	Commands    int      `json:"commands"`
	Divergences []string `json:"divergences"`
	Consistent  bool     `json:"consistent"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-dispatch a journaled session and compare results",
		Long: `Re-dispatch the commands of one journaled session against a fresh
interpreter built from the current config, and report every command whose
result code or value differs from the journal.

Replay starts with no variables, so a session that was started with
--resume may diverge where it read restored variables.

Exit codes:
  0 - Every command reproduced its journaled result
  1 - At least one command diverged
  2 - Command error (database not found, no such session, etc.)

Examples:
  puppet replay --db ./puppet.db
  puppet replay --db ./puppet.db --session 0190a6b2-...
  puppet replay --db ./puppet.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (default: most recent)")
	cmd.Flags().DurationVar(&opts.Tick, "tick", time.Millisecond, "motion step interval during replay")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	session, err := selectSession(ctx, st, opts.Session, false)
	if err != nil {
		return err
	}
	if session == "" {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{Divergences: []string{}, Consistent: true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in database.")
		return nil
	}

	records, err := st.ReadCommands(ctx, store.CommandFilter{Session: session})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read commands", err)
	}
	if len(records) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", session))
	}

	res, err := harness.Run(replayScenario(session, cfg, records),
		harness.WithTick(opts.Tick),
		harness.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Session:     session,
		Commands:    len(res.Transcript),
		Divergences: res.Errors,
		Consistent:  res.Pass,
	}
	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result)
}

// replayScenario turns journaled commands into a scenario whose
// expectations are the journaled results.
func replayScenario(session string, cfg *config.Config, records []store.CommandRecord) *harness.Scenario {
	bounds := cfg.Stage.Bounds()
	s := &harness.Scenario{
		Name:    "replay-" + session,
		Stage:   &harness.StageSpec{X: bounds.X, Y: bounds.Y, Width: bounds.Width, Height: bounds.Height},
		Windows: cfg.Windows,
		Steps:   make([]harness.Step, 0, len(records)),
	}
	for _, rec := range records {
		expect := &harness.ExpectClause{Code: strconv.Itoa(rec.Code)}
		if rec.Value != nil {
			rendered := rec.Value.String()
			expect.Kind = rec.Value.Kind().String()
			expect.Value = &rendered
		}
		s.Steps = append(s.Steps, harness.Step{Command: rec.Line, Expect: expect})
	}
	return s
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.Consistent {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DIVERGED",
			Message: fmt.Sprintf("%d command(s) diverged from the journal", len(result.Divergences)),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.Consistent {
		return NewExitError(ExitFailure, "replay diverged from journal")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d command(s) from session %s\n", result.Commands, result.Session)
	fmt.Fprintln(w)

	if result.Consistent {
		fmt.Fprintln(w, "✓ Replay matches journal")
		return nil
	}

	for _, d := range result.Divergences {
		fmt.Fprintf(w, "✗ %s\n", d)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "✗ Replay diverged from journal")
	return NewExitError(ExitFailure, "replay diverged from journal")
}
