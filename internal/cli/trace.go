package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
}

// TraceEvent is one job lifecycle transition.
type TraceEvent struct {
	Seq        int64     `json:"seq"`
	Session    string    `json:"session"`
	JobID      string    `json:"job_id"`
	JobSeq     int64     `json:"job_seq"`
	Name       string    `json:"name"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TraceStats counts jobs by final state.
type TraceStats struct {
	Jobs      int `json:"jobs"`
	Finished  int `json:"finished"`
	Failed    int `json:"failed"`
	Abandoned int `json:"abandoned"`
}

// TraceResult holds the trace output.
type TraceResult struct {
	JobID  string       `json:"job_id,omitempty"`
	Events []TraceEvent `json:"events"`
	Stats  TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [job-id]",
		Short: "Show journaled job lifecycles",
		Long: `Show the lifecycle events (queued, started, finished, failed,
abandoned) of the jobs journaled with --db, optionally for one job.

Examples:
  puppet trace --db ./puppet.db
  puppet trace --db ./puppet.db 0190a6b2-7c1e-7d4f-9a51-3c2f8e0b1a77
  puppet trace --db ./puppet.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := ""
			if len(args) == 1 {
				jobID = args[0]
			}
			return runTrace(opts, jobID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, jobID string, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ReadJobEvents(ctx, jobID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read job events", err)
	}
	if jobID != "" && len(records) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("job not found: %s", jobID))
	}

	result := TraceResult{JobID: jobID, Events: make([]TraceEvent, 0, len(records))}
	final := make(map[string]string)
	for _, rec := range records {
		result.Events = append(result.Events, TraceEvent{
			Seq:        rec.Seq,
			Session:    rec.Session,
			JobID:      rec.JobID,
			JobSeq:     rec.JobSeq,
			Name:       rec.Name,
			State:      rec.State,
			Error:      rec.Error,
			RecordedAt: rec.RecordedAt,
		})
		final[rec.JobID] = rec.State
	}
	result.Stats.Jobs = len(final)
	for _, state := range final {
		switch state {
		case "finished":
			result.Stats.Finished++
		case "failed":
			result.Stats.Failed++
		case "abandoned":
			result.Stats.Abandoned++
		}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(w, "No job events found.")
		return nil
	}
	for _, ev := range result.Events {
		fmt.Fprintf(w, "%6d  job %-4d %-9s %-8s %s", ev.Seq, ev.JobSeq, ev.State, ev.Name, ev.JobID)
		if ev.Error != "" {
			fmt.Fprintf(w, "  (%s)", ev.Error)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Jobs: %d total, %d finished, %d failed, %d abandoned\n",
		result.Stats.Jobs, result.Stats.Finished, result.Stats.Failed, result.Stats.Abandoned)
	return nil
}

// requireFile fails with ExitCommandError when path does not exist.
func requireFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	return nil
}
