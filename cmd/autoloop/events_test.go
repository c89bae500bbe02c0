package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"
)

func readEventKinds(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var kinds []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line eventLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		assert.False(t, line.Time.IsZero())
		kinds = append(kinds, line.Kind)
	}
	require.NoError(t, sc.Err())
	return kinds
}

func TestEventLog_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	l, err := openEventLog(path)
	require.NoError(t, err)

	hooks := engine.Hooks{l.Hook()}
	ctx := context.Background()
	st := &engine.State{Cycle: 1}
	hooks.OnCycleStart(ctx, st)
	hooks.OnPluginError(ctx, st, "notes", errors.New("unreadable"))
	hooks.OnCommandResult(ctx, st, "echo", engine.Success("hi"))
	require.NoError(t, l.Close())

	assert.Equal(t, []string{"cycle_start", "plugin_error", "command_result"}, readEventKinds(t, path))
}

func TestEventLog_OpenError(t *testing.T) {
	_, err := openEventLog(filepath.Join(t.TempDir(), "missing", "events.jsonl"))
	assert.ErrorContains(t, err, "failed to open event log")
}

func TestPrepareRuntimeEnv_EventLog(t *testing.T) {
	workspace := t.TempDir()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	getenv := envMap(map[string]string{"LLM_PROVIDER": "lmstudio", "MEMORY_BACKEND": "none"})
	flags := cliFlags{Workspace: workspace, ConfigDir: t.TempDir(), EventsFile: path}
	env, err := prepareRuntimeEnv(context.Background(), flags, getenv, io.Discard)
	require.NoError(t, err)
	require.NotNil(t, env.events)

	env.Close()
	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Nil(t, env.events)
}
