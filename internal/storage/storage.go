// Package storage provides persistence for profiles, agents and debate
// sessions.
package storage

import (
	"github.com/anushtup-nandy/roundtable/internal/core"
)

// Storage defines the interface for debate persistence.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// Profile operations
	CreateProfile(profile *core.Profile) error
	GetProfile(id string) (*core.Profile, error)
	GetProfileByEmail(email string) (*core.Profile, error)
	UpdateProfile(profile *core.Profile) error
	ListProfiles() ([]*core.Profile, error)

	// Agent operations
	CreateAgent(agent *core.Agent) error
	GetAgent(id string) (*core.Agent, error)
	// GetAgents returns agents in the order of the given ids.
	GetAgents(ids []string) ([]*core.Agent, error)
	UpdateAgent(agent *core.Agent) error
	DeleteAgent(id string) error
	ListAgents(profileID string, activeOnly bool) ([]*core.Agent, error)

	// Session operations
	CreateSession(session *core.Session) error
	GetSession(id string) (*core.Session, error)
	UpdateSession(session *core.Session) error
	DeleteSession(id string) error
	ListSessions(profileID string, limit, offset int) ([]*core.SessionSummary, error)

	// Turn operations
	AddTurn(turn *core.Turn) error
	GetTurns(sessionID string) ([]*core.Turn, error)
}
