package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SessionOptions

	// Strict fails the command when any line fails.
	Strict bool

	// Linger keeps a terminal stage on screen after the script ends.
	Linger time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a command script",
		Long: `Run a script of commands, one per line. Blank lines and lines starting
with # are skipped. The command waits for every queued move to finish
before it exits, including after an exit line.

Use "-" to read the script from stdin.

Exit codes:
  0 - Script completed (or any line failed without --strict)
  1 - A line failed and --strict was given
  2 - Command error (missing script, bad config, database error)

Examples:
  puppet run ./wave.pup
  puppet run ./wave.pup --stage terminal --linger 2s
  puppet run ./wave.pup --db ./puppet.db --strict`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	opts.bindJournalFlags(cmd)
	cmd.Flags().StringVar(&opts.Stage, "stage", "", "actor surface (virtual|terminal); defaults to the config")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit with status 1 if any line fails")
	cmd.Flags().DurationVar(&opts.Linger, "linger", 0, "keep the terminal stage on screen this long after the script")

	return cmd
}

func runScript(opts *RunOptions, path string, cmd *cobra.Command) error {
	var script io.Reader
	if path == "-" {
		script = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open script", err)
		}
		defer f.Close()
		script = f
	}

	s, err := openSession(cmdContext(cmd), opts.RootOptions, &opts.SessionOptions, true, cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd, s.logger)
	defer cancel()

	s.logger.Debug("running script", "path", path)
	stats, serveErr := s.serve(ctx, script, serveMode{
		script:      true,
		echo:        s.cfg.Echo,
		drainOnExit: true,
	})
	s.logger.Info("script finished", "lines", stats.Lines, "failed", stats.Failed)

	if s.terminal != nil && opts.Linger > 0 && serveErr == nil {
		select {
		case <-time.After(opts.Linger):
		case <-ctx.Done():
		}
	}

	if err := s.close(context.Background()); err != nil {
		s.logger.Error("error closing session", "error", err)
	}
	if err := finishServe(s, serveErr); err != nil {
		return err
	}

	if opts.Strict && stats.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d line(s) failed", stats.Failed, stats.Lines))
	}
	return nil
}
