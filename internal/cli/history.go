package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/puppet/internal/command"
	"github.com/roach88/puppet/internal/store"
	"github.com/roach88/puppet/internal/value"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Session  string
	All      bool
	Limit    int
}

// HistoryEntry is one journaled command.
type HistoryEntry struct {
	Seq        int64           `json:"seq"`
	Session    string          `json:"session"`
	Line       string          `json:"line"`
	Code       int             `json:"code"`
	CodeName   string          `json:"code_name"`
	Value      json.RawMessage `json:"value,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// HistoryResult holds the history output.
type HistoryResult struct {
	Session  string         `json:"session,omitempty"`
	Commands []HistoryEntry `json:"commands"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled commands",
		Long: `List the commands journaled with --db, in the order they were dispatched.

By default only the most recent session is shown.

Examples:
  puppet history --db ./puppet.db
  puppet history --db ./puppet.db --all --limit 50
  puppet history --db ./puppet.db --session 0190a6b2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "show this session")
	cmd.Flags().BoolVar(&opts.All, "all", false, "show every session")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many commands")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	session, err := selectSession(ctx, st, opts.Session, opts.All)
	if err != nil {
		return err
	}

	records, err := st.ReadCommands(ctx, store.CommandFilter{Session: session, Limit: opts.Limit})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read commands", err)
	}

	result := HistoryResult{Session: session, Commands: make([]HistoryEntry, 0, len(records))}
	for _, rec := range records {
		entry := HistoryEntry{
			Seq:        rec.Seq,
			Session:    rec.Session,
			Line:       rec.Line,
			Code:       rec.Code,
			CodeName:   command.ErrorCode(rec.Code).Name(),
			RecordedAt: rec.RecordedAt,
		}
		if rec.Value != nil {
			if entry.Value, err = value.Marshal(rec.Value); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to encode value of command %d", rec.Seq), err)
			}
		}
		result.Commands = append(result.Commands, entry)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(w, "No commands found.")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%6d  %-18s  %s", rec.Seq, command.ErrorCode(rec.Code).Name(), rec.Line)
		if rec.Value != nil {
			fmt.Fprintf(w, "  => %s:%s", rec.Value.Kind(), rec.Value)
		}
		fmt.Fprintln(w)
		if opts.Verbose {
			fmt.Fprintf(w, "        %s  %s\n", rec.RecordedAt.Format(time.RFC3339), rec.Session)
		}
	}
	return nil
}

// openExistingStore opens a journal that must already exist; store.Open
// would otherwise create an empty one.
func openExistingStore(path string) (*store.Store, error) {
	if err := requireFile(path); err != nil {
		return nil, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// selectSession resolves the session filter: an explicit id, every session
// (""), or the most recent one.
func selectSession(ctx context.Context, st *store.Store, explicit string, all bool) (string, error) {
	if explicit != "" || all {
		return explicit, nil
	}
	session, err := st.LastSession(ctx)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to find last session", err)
	}
	return session, nil
}
