package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by Load and Latest when no session matches.
var ErrNotFound = errors.New("session not found")

// Store handles persistence of sessions.
type Store struct {
	basePath string
}

// NewStore creates a new session store.
// configPath is typically the config.Manager directory.
func NewStore(configPath string) *Store {
	return &Store{
		basePath: filepath.Join(configPath, "sessions"),
	}
}

// WorkspaceHash generates a consistent hash for a workspace path.
// This is used to scope sessions to a specific workspace.
func (s *Store) WorkspaceHash(workspace string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(workspace)))
	return hex.EncodeToString(hash[:])[:12]
}

// Save persists a session to disk, replacing any earlier copy.
func (s *Store) Save(session *Session) error {
	if session.ID == "" {
		return errors.New("session has no ID")
	}
	if session.WorkspaceHash == "" {
		session.WorkspaceHash = s.WorkspaceHash(session.Workspace)
	}

	dir := filepath.Join(s.basePath, session.WorkspaceHash)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// write then rename so an interrupted save never truncates the session
	filename := filepath.Join(dir, session.ID+".json")
	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load retrieves a specific session.
func (s *Store) Load(id string, workspace string) (*Session, error) {
	filename := filepath.Join(s.basePath, s.WorkspaceHash(workspace), id+".json")

	data, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// Latest loads the most recently updated session for a workspace.
func (s *Store) Latest(workspace string) (*Session, error) {
	metas, err := s.List(workspace)
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, ErrNotFound
	}
	return s.Load(metas[0].ID, workspace)
}

// List returns all sessions for a given workspace.
// Sessions are sorted by UpdatedAt (newest first).
func (s *Store) List(workspace string) ([]SessionMeta, error) {
	dir := filepath.Join(s.basePath, s.WorkspaceHash(workspace))

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []SessionMeta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list session directory: %w", err)
	}

	var sessions []SessionMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue // Skip unreadable files
		}

		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue // Skip invalid files
		}

		sessions = append(sessions, SessionMeta{
			ID:        sess.ID,
			AIName:    sess.AIName,
			Title:     sess.Title,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
			Steps:     len(sess.Records),
			Summary:   sess.Summary,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}
