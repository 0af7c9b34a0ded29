package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roach88/axiom/internal/testutil"
)

const forestSeed = `nodes:
  - key: animal
    major: 1
    type: 1
    subtype: 1
    label: animal
  - key: feline
    major: 1
    type: 1
    subtype: 2
    label: feline
  - key: canine
    major: 1
    type: 1
    subtype: 3
    label: canine
  - key: vehicle
    major: 1
    type: 2
    subtype: 1
    label: vehicle
relations:
  - from: feline
    kind: IS_A
    to: animal
  - from: canine
    kind: IS_A
    to: animal
`

// writeSeed writes content to a temp seed file and returns its path.
func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with a deterministic clock and ids.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{
		Logger: zap.NewNop(),
		Clock:  testutil.NewStepClock(),
		IDs:    testutil.NewSequenceIDs(""),
	}
	cmd := newRootCommand(opts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "axiom", cmd.Use)
	assert.Contains(t, cmd.Long, "audit chain")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"demo", "seed", "derive", "handle", "audit", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flag    string
		defVal  string
	}{
		{"demo", "scale", "1000"},
		{"demo", "rand-seed", "1"},
		{"derive", "max-distance", "-1"},
		{"handle", "strategy", ""},
		{"handle", "branches", "[]"},
		{"audit", "last", "10"},
		{"audit", "metrics", "false"},
		{"test", "update", "false"},
		{"test", "filter", ""},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.defVal, f.DefValue)
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "seed", writeSeed(t, forestSeed))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "seed", writeSeed(t, forestSeed))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), "failed to load config")
	})

	t.Run("invalid value", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "axiom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("wrapper:\n  default_major: 12\n"), 0o644))

		_, err := execute(t, "--config", path, "seed", writeSeed(t, forestSeed))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Equal(t, ErrCodeConfig, ErrorCode(err))
	})
}
