package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/puppet/internal/config"
)

func TestValidate_Valid(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", ConfigPath: fastConfig(t, "")}
	script := writeScript(t, "# greet\nshow\n\nsay hi\nw = getwindow notepad\n")

	stdout, _, err := execute(t, NewValidateCommand(rootOpts), "", script)
	require.NoError(t, err)
	assert.Equal(t, "✓ Valid (3 script line(s) checked)\n", stdout)
}

func TestValidate_UnknownCommand(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	script := writeScript(t, "show\n# comment\nfrobnicate 1 2\n")

	stdout, _, err := execute(t, NewValidateCommand(rootOpts), "", script)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, script+":3: InvalidCommand")
	assert.Contains(t, stdout, `"frobnicate"`)
}

func TestValidate_BadConfig(t *testing.T) {
	rootOpts := &RootOptions{Format: "json", ConfigPath: fastConfig(t, "motion: max_skips: -2")}

	stdout, _, err := execute(t, NewValidateCommand(rootOpts), "")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string           `json:"code"`
			Details ValidationResult `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_INVALID", resp.Error.Code)
	assert.False(t, resp.Error.Details.Valid)
	require.Len(t, resp.Error.Details.Issues, 1)
	assert.Equal(t, config.ErrCodeConflict, resp.Error.Details.Issues[0].Code)
}

func TestValidate_MissingScript(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}

	_, _, err := execute(t, NewValidateCommand(rootOpts), "", "/nonexistent/script.pup")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
