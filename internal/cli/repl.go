package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	SessionOptions
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Read commands from stdin",
		Long: `Read commands from stdin, one per line, until end of input or exit.

Each line is dispatched as it arrives. Values are printed on stdout;
failures print their diagnostic. Moves are queued and run in the
background; exit stops the current move and drops queued ones, while
end of input waits for them.

Examples:
  puppet repl
  puppet repl --db ./puppet.db --resume
  echo "show" | puppet repl --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, cmd)
		},
	}

	opts.bindJournalFlags(cmd)

	return cmd
}

func runRepl(opts *ReplOptions, cmd *cobra.Command) error {
	s, err := openSession(cmdContext(cmd), opts.RootOptions, &opts.SessionOptions, false, cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd, s.logger)
	defer cancel()

	_, serveErr := s.serve(ctx, cmd.InOrStdin(), serveMode{})
	if err := s.close(context.Background()); err != nil {
		s.logger.Error("error closing session", "error", err)
	}
	return finishServe(s, serveErr)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
