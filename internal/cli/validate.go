package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/puppet/internal/command"
	"github.com/roach88/puppet/internal/config"
)

// ValidationIssue is one problem found by validate.
type ValidationIssue struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Lines  int               `json:"lines"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [script...]",
		Short: "Check the config and scripts without running them",
		Long: `Check the --config file against the configuration schema and every
line of the given scripts for an unknown command name. Nothing is
dispatched, so argument errors are only found by running.

Exit codes:
  0 - Config and scripts are valid
  1 - Issues were found
  2 - Command error (unreadable script)

Examples:
  puppet validate --config ./puppet.cue
  puppet validate ./wave.pup ./greet.pup`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, scripts []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var result ValidationResult

	if _, err := config.Load(opts.ConfigPath); err != nil {
		issue := ValidationIssue{File: opts.ConfigPath, Code: "config", Message: err.Error()}
		var le *config.LoadError
		if errors.As(err, &le) {
			issue.Code = le.Code
			issue.Message = le.Message
			if le.Pos.IsValid() {
				issue.File = le.Pos.Filename()
				issue.Line = le.Pos.Line()
				issue.Column = le.Pos.Column()
			}
		}
		result.Issues = append(result.Issues, issue)
	} else if opts.ConfigPath != "" {
		formatter.VerboseLog("config %s is valid", opts.ConfigPath)
	}

	for _, path := range scripts {
		issues, n, err := checkScript(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read script", err)
		}
		formatter.VerboseLog("checked %d line(s) in %s", n, path)
		result.Lines += n
		result.Issues = append(result.Issues, issues...)
	}
	result.Valid = len(result.Issues) == 0

	if opts.Format == "json" {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Error("E_INVALID", fmt.Sprintf("%d issue(s) found", len(result.Issues)), result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	w := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintf(w, "✓ Valid (%d script line(s) checked)\n", result.Lines)
		return nil
	}
	for _, issue := range result.Issues {
		loc := issue.File
		if issue.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, issue.Line)
			if issue.Column > 0 {
				loc = fmt.Sprintf("%s:%d", loc, issue.Column)
			}
		}
		fmt.Fprintf(w, "✗ %s: %s: %s\n", loc, issue.Code, issue.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d issue(s) found", len(result.Issues)))
}

// checkScript runs command.Check over every script line that run would
// dispatch.
func checkScript(path string) ([]ValidationIssue, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var (
		issues []ValidationIssue
		n      int
	)
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		n++
		if code, name := command.Check(line); code != command.Success {
			issues = append(issues, ValidationIssue{
				File:    path,
				Line:    lineNo,
				Code:    code.Name(),
				Message: fmt.Sprintf("%s: %q", code, name),
			})
		}
	}
	return issues, n, sc.Err()
}
