package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	SessionOptions
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <command> [args...]",
		Short: "Dispatch a single command",
		Long: `Dispatch one command line built from the arguments and wait for any
move it queued. With --db --resume the command sees the variables saved
by earlier sessions, and its own changes are saved back.

Exit codes:
  0 - The command did not fail
  1 - The command returned a failure code

Examples:
  puppet invoke getwindows
  puppet invoke --db ./puppet.db --resume get greeting
  puppet invoke --format json iswindow 0x10000`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeLine(opts, strings.Join(args, " "), cmd)
		},
	}

	opts.bindJournalFlags(cmd)
	// Everything after the command name belongs to the line, so "moveto -5 3"
	// is not read as flags.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func invokeLine(opts *InvokeOptions, line string, cmd *cobra.Command) error {
	s, err := openSession(cmdContext(cmd), opts.RootOptions, &opts.SessionOptions, false, cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd, s.logger)
	defer cancel()

	stats, serveErr := s.serve(ctx, strings.NewReader(line+"\n"), serveMode{drainOnExit: true})
	if err := s.close(context.Background()); err != nil {
		s.logger.Error("error closing session", "error", err)
	}
	if err := finishServe(s, serveErr); err != nil {
		return err
	}
	if stats.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("command failed: %s", line))
	}
	return nil
}
