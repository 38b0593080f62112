package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantCode int // 0 means no error
	}{
		{
			name:    "window list",
			args:    []string{"getwindows"},
			wantOut: "[",
		},
		{
			name:     "negative numbers are not flags",
			args:     []string{"moveto", "-5", "3"},
			wantOut:  "Actor has not been created",
			wantCode: ExitFailure,
		},
		{
			name:     "failure exits 1",
			args:     []string{"get", "nothing"},
			wantOut:  "Variable does not exist",
			wantCode: ExitFailure,
		},
		{
			name:     "unknown command",
			args:     []string{"dance"},
			wantOut:  `Invalid command: "dance"`,
			wantCode: ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootOpts := &RootOptions{Format: "text", ConfigPath: fastConfig(t, "")}

			stdout, _, err := execute(t, NewInvokeCommand(rootOpts), "", tt.args...)
			if tt.wantCode == 0 {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, GetExitCode(err))
			}
			assert.Contains(t, stdout, tt.wantOut)
		})
	}
}

func TestInvoke_RequiresCommand(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}

	_, _, err := execute(t, NewInvokeCommand(rootOpts), "")
	require.Error(t, err)
}

func TestInvoke_Resume(t *testing.T) {
	cfg := fastConfig(t, "")
	db := filepath.Join(t.TempDir(), "puppet.db")

	_, _, err := execute(t, NewInvokeCommand(&RootOptions{Format: "text", ConfigPath: cfg}), "",
		"--db", db, "set", "greeting", "=", "hello")
	require.NoError(t, err)

	stdout, _, err := execute(t, NewInvokeCommand(&RootOptions{Format: "text", ConfigPath: cfg}), "",
		"--db", db, "--resume", "get", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout)
}
