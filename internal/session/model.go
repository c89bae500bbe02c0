package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"
)

// Session is one resumable agent run in a workspace.
type Session struct {
	ID            string                `json:"id"`
	Workspace     string                `json:"workspace"`
	WorkspaceHash string                `json:"workspace_hash"` // Used for directory scoping
	AIName        string                `json:"ai_name"`
	Title         string                `json:"title"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Cycles        int                   `json:"cycles"`
	Records       []engine.ActionRecord `json:"records"`
	Summary       string                `json:"summary,omitempty"`
}

// New starts an empty session with a fresh ID.
func New(workspace, aiName string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Workspace: workspace,
		AIName:    aiName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Capture copies the agent's history and cycle count into the session.
func (s *Session) Capture(a *engine.Agent) {
	s.Records = a.History().Records()
	s.Cycles = a.CycleCount()
	s.UpdatedAt = time.Now()
}

// History rebuilds the episodic history for a resumed agent.
func (s *Session) History() *engine.EpisodicActionHistory {
	return engine.NewEpisodicActionHistory(s.Records...)
}

// SessionMeta is a lightweight representation for listing.
type SessionMeta struct {
	ID        string    `json:"id"`
	AIName    string    `json:"ai_name"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Steps     int       `json:"steps"`
	Summary   string    `json:"summary,omitempty"`
}
