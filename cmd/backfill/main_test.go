package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name         string
		args         func(pkg string) []string
		expectedExit int
	}{
		{
			name:         "version",
			args:         func(string) []string { return []string{"version"} },
			expectedExit: 0,
		},
		{
			name: "successful pass-through build",
			args: func(pkg string) []string {
				return []string{"--cwd", pkg, "--mode", "PASS", "--log-level", "mute", "--", "true"}
			},
			expectedExit: 0,
		},
		{
			name: "build exit code is propagated",
			args: func(pkg string) []string {
				return []string{"--cwd", pkg, "--mode", "PASS", "--log-level", "mute", "--", "exit", "7"}
			},
			expectedExit: 7,
		},
		{
			name: "invalid mode",
			args: func(pkg string) []string {
				return []string{"--cwd", pkg, "--mode", "SOMETIMES", "--", "true"}
			},
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(pkg, "package.json"), []byte(`{"name":"app"}`), 0o600))

			assert.Equal(t, tt.expectedExit, run(tt.args(pkg)))
		})
	}
}
