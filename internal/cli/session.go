package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/puppet/internal/command"
	"github.com/roach88/puppet/internal/config"
	"github.com/roach88/puppet/internal/motion"
	"github.com/roach88/puppet/internal/scheduler"
	"github.com/roach88/puppet/internal/stage"
	"github.com/roach88/puppet/internal/vars"
	"github.com/roach88/puppet/internal/windows"
)

// SessionOptions holds the flags shared by the commands that dispatch lines.
type SessionOptions struct {
	Database string
	Resume   bool
	Stage    string // overrides stage.kind from the config when set

	// Screen replaces the terminal screen of a terminal stage (for testing).
	// It must not be initialized yet.
	Screen tcell.Screen

	// IDGenerator overrides job ids (for testing).
	// If nil, defaults to scheduler.UUIDv7Generator.
	IDGenerator scheduler.IDGenerator
}

func (so *SessionOptions) bindJournalFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&so.Database, "db", "", "journal commands and job events to this SQLite database")
	cmd.Flags().BoolVar(&so.Resume, "resume", false, "restore the variables saved in --db")
}

// session is one interpreter instance wired from config and flags.
type session struct {
	cfg        *config.Config
	logger     *slog.Logger
	vars       *vars.Store
	sched      *scheduler.Scheduler
	dispatcher *command.Dispatcher
	terminal   *stage.Terminal
	journal    *journal
	formatter  *OutputFormatter
	out        io.Writer
}

// serveMode selects how input lines are treated.
type serveMode struct {
	script      bool // skip blank lines and # comments
	echo        bool // print each line before dispatching it (text format only)
	drainOnExit bool // let queued moves finish after an exit command
}

// serveStats summarizes a serve call.
type serveStats struct {
	Lines  int
	Failed int
	Exited bool
}

func openSession(ctx context.Context, root *RootOptions, so *SessionOptions, allowTerminal bool, cmd *cobra.Command) (_ *session, err error) {
	cfg, err := config.Load(root.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if so.Resume && so.Database == "" {
		return nil, NewExitError(ExitCommandError, "--resume requires --db")
	}

	kind := cfg.Stage.Kind
	if so.Stage != "" {
		kind = so.Stage
	}
	switch {
	case kind != config.StageVirtual && kind != config.StageTerminal:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid stage %q: must be virtual or terminal", kind))
	case kind == config.StageTerminal && !allowTerminal:
		return nil, NewExitError(ExitCommandError, "the terminal stage needs the terminal; use it with run")
	}

	out := &syncWriter{w: cmd.OutOrStdout()}
	errW := &syncWriter{w: cmd.ErrOrStderr()}
	logger := newLogger(root, errW)

	s := &session{
		cfg:    cfg,
		logger: logger,
		vars:   vars.New(),
		out:    out,
		formatter: &OutputFormatter{
			Format:    root.Format,
			Writer:    out,
			ErrWriter: errW,
			Verbose:   root.Verbose,
		},
	}
	defer func() {
		if err != nil {
			_ = s.close(context.Background())
		}
	}()

	schedOpts := []scheduler.Option{scheduler.WithLogger(logger)}
	if so.IDGenerator != nil {
		schedOpts = append(schedOpts, scheduler.WithIDGenerator(so.IDGenerator))
	}

	if so.Database != "" {
		logger.Debug("opening journal", "path", so.Database)
		s.journal, err = openJournal(so.Database, logger)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		if so.Resume {
			saved, err := s.journal.st.LoadVariables(ctx)
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "failed to load variables", err)
			}
			s.vars.Load(saved)

			lastSeq, err := s.journal.st.MaxJobSeq(ctx)
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "failed to read job sequence", err)
			}
			schedOpts = append(schedOpts, scheduler.WithClock(scheduler.NewClockAt(lastSeq)))
			logger.Info("session resumed", "variables", len(saved), "job_seq", lastSeq)
		}
		schedOpts = append(schedOpts, scheduler.WithObserver(s.journal.observe))
	}
	s.sched = scheduler.New(schedOpts...)

	engine := motion.New(append(cfg.Motion.EngineOptions(), motion.WithLogger(logger))...)

	// Diagnostics share stdout with values in text mode and move to stderr
	// when stdout carries JSON or a drawn screen.
	var diag io.Writer = out
	if root.Format == "json" {
		diag = errW
	}

	dispOpts := []command.Option{
		command.WithWindows(windows.NewRegistry(cfg.Windows...)),
		command.WithLogger(logger),
		command.WithDefaultSpeed(cfg.Motion.Speed),
	}

	if kind == config.StageTerminal {
		screen := so.Screen
		if screen == nil {
			if screen, err = tcell.NewScreen(); err != nil {
				return nil, WrapExitError(ExitCommandError, "failed to open terminal", err)
			}
		}
		if err = screen.Init(); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to initialize terminal", err)
		}
		s.terminal = stage.NewTerminal(screen, cfg.Stage.Bounds(), cfg.Stage.Name,
			stage.WithCellSize(cfg.Stage.CellWidth, cfg.Stage.CellHeight))
		dispOpts = append(dispOpts, command.WithStage(s.terminal), command.WithConsole(s.terminal))
		diag = errW
	} else {
		actor := stage.NewVirtual(cfg.Stage.Bounds(), stage.WithName(cfg.Stage.Name))
		dispOpts = append(dispOpts, command.WithStage(actor))
	}

	dispOpts = append(dispOpts, command.WithOutput(diag))
	if s.journal != nil {
		dispOpts = append(dispOpts, command.WithRecorder(s.journal.record))
	}
	s.dispatcher = command.New(s.vars, s.sched, engine, dispOpts...)

	logger.Debug("session ready", "stage", kind, "windows", len(cfg.Windows), "journal", so.Database != "")
	return s, nil
}

// serve dispatches lines from r while the scheduler worker runs alongside.
// It returns once input ends (or exit is dispatched) and the queue has
// drained.
func (s *session) serve(ctx context.Context, r io.Reader, mode serveMode) (serveStats, error) {
	g, gctx := errgroup.WithContext(ctx)
	workerCtx, stopWorker := context.WithCancel(gctx)
	defer stopWorker()

	g.Go(func() error {
		if err := s.sched.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	var stats serveStats
	g.Go(func() error {
		defer stopWorker()

		var err error
		stats, err = s.readLoop(gctx, r, mode)
		if err != nil {
			return err
		}
		if !stats.Exited || mode.drainOnExit {
			if err := s.sched.Drain(gctx); err != nil {
				return err
			}
		}
		s.sched.Close()
		return nil
	})

	err := g.Wait()
	return stats, err
}

func (s *session) readLoop(ctx context.Context, r io.Reader, mode serveMode) (serveStats, error) {
	lines := make(chan string)
	readErr := make(chan error, 1)

	// The scanner may block on stdin past shutdown; it exits with the process.
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	var stats serveStats
	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return stats, fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return stats, nil
			}

			if mode.script {
				trimmed := strings.TrimSpace(line)
				if trimmed == "" || strings.HasPrefix(trimmed, "#") {
					continue
				}
			}
			if mode.echo && s.formatter.Format != "json" {
				fmt.Fprintf(s.out, "> %s\n", line)
			}

			res := s.dispatcher.Dispatch(ctx, line)
			stats.Lines++
			if res.Code.Failed() {
				stats.Failed++
			}
			if err := s.formatter.Result(res); err != nil {
				return stats, err
			}
			if res.Exit {
				stats.Exited = true
				return stats, nil
			}
		}
	}
}

// close saves variables to the journal and releases the screen and database.
func (s *session) close(ctx context.Context) error {
	var errs []error
	if s.terminal != nil {
		s.terminal.Close()
	}
	if s.journal != nil {
		if err := s.journal.st.SaveVariables(ctx, s.vars.Snapshot()); err != nil {
			errs = append(errs, err)
		}
		if err := s.journal.st.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// signalContext is cancelled on SIGINT/SIGTERM or when cmd's context ends.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// finishServe maps a serve error to the command result. Cancellation is a
// normal way to stop.
func finishServe(s *session, err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "session failed", err)
	}
	if err != nil {
		s.logger.Info("session interrupted")
	}
	return nil
}

// syncWriter serializes writes from the dispatcher, the scheduler goroutine
// and the logger onto one stream.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
