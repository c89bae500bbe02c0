package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"
)

func sampleRecords() []engine.ActionRecord {
	ok := engine.Success("hello")
	failed := engine.Failure("command 'read_file' failed", os.ErrNotExist)
	return []engine.ActionRecord{
		{
			Thoughts:    engine.Thoughts{Text: "greet", Reasoning: "say hello"},
			CommandName: "echo",
			CommandArgs: engine.CommandArgs{"text": "hello"},
			Result:      &ok,
		},
		{
			Thoughts:    engine.Thoughts{Reasoning: "look at the notes"},
			CommandName: "read_file",
			CommandArgs: engine.CommandArgs{"path": "notes.txt"},
			Result:      &failed,
		},
	}
}

func TestStore(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(tmpDir)
	workspace := "/path/to/my/workspace"

	sess := New(workspace, "Entrepreneur-GPT")
	sess.Title = "Test Session"
	sess.Records = sampleRecords()
	sess.Cycles = 2

	require.NoError(t, store.Save(sess))

	hash := store.WorkspaceHash(workspace)
	expectedPath := filepath.Join(tmpDir, "sessions", hash, sess.ID+".json")
	assert.FileExists(t, expectedPath)
	assert.NoFileExists(t, expectedPath+".tmp")

	loaded, err := store.Load(sess.ID, workspace)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "Entrepreneur-GPT", loaded.AIName)
	assert.Equal(t, 2, loaded.Cycles)
	require.Len(t, loaded.Records, 2)
	assert.Equal(t, sess.Records[1].CommandArgs, loaded.Records[1].CommandArgs)
	require.NotNil(t, loaded.Records[1].Result)
	assert.Equal(t, engine.StatusError, loaded.Records[1].Result.Status)

	// the restored history renders the same digest
	assert.Equal(t, sess.History().FormatSummary(), loaded.History().FormatSummary())

	list, err := store.List(workspace)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Test Session", list[0].Title)
	assert.Equal(t, 2, list[0].Steps)
}

func TestStore_ListNewestFirstAndLatest(t *testing.T) {
	store := NewStore(t.TempDir())
	workspace := "/ws"

	older := New(workspace, "a")
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := New(workspace, "b")
	require.NoError(t, store.Save(older))
	require.NoError(t, store.Save(newer))

	list, err := store.List(workspace)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	latest, err := store.Latest(workspace)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
}

func TestStore_ScopedByWorkspace(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := New("/ws/one", "a")
	require.NoError(t, store.Save(sess))

	list, err := store.List("/ws/two")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Load(sess.ID, "/ws/two")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Latest("/ws/two")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, store.WorkspaceHash("/ws/one/"), store.WorkspaceHash("/ws/one"))
}

func TestStore_SkipsInvalidFiles(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(tmpDir)
	sess := New("/ws", "a")
	require.NoError(t, store.Save(sess))

	dir := filepath.Join(tmpDir, "sessions", store.WorkspaceHash("/ws"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	list, err := store.List("/ws")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sess.ID, list[0].ID)
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.Error(t, store.Save(&Session{Workspace: "/ws"}))
}

func TestNew_UniqueIDs(t *testing.T) {
	a := New("/ws", "x")
	b := New("/ws", "x")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 36)
}
