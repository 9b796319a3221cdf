package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anushtup-nandy/roundtable/internal/core"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStorage) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		profile_summary TEXT NOT NULL DEFAULT '',
		expertise_areas_json TEXT NOT NULL DEFAULT '[]',
		risk_tolerance TEXT NOT NULL DEFAULT '',
		decision_style TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		prompt_raw TEXT NOT NULL,
		temperature REAL NOT NULL,
		max_tokens INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL,
		title TEXT NOT NULL,
		topic TEXT NOT NULL,
		format TEXT NOT NULL,
		agent_ids_json TEXT NOT NULL,
		max_turns INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		summary TEXT NOT NULL DEFAULT '',
		started_at DATETIME,
		completed_at DATETIME,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		turn_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_agents_profile_id ON agents(profile_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_profile_id ON sessions(profile_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_turns_session_id ON turns(session_id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateProfile creates a new profile.
func (s *SQLiteStorage) CreateProfile(profile *core.Profile) error {
	areasJSON, err := json.Marshal(profile.ExpertiseAreas)
	if err != nil {
		return fmt.Errorf("failed to marshal expertise areas: %w", err)
	}

	query := `
	INSERT INTO profiles (id, name, email, profile_summary, expertise_areas_json, risk_tolerance, decision_style, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		profile.ID,
		profile.Name,
		profile.Email,
		profile.ProfileSummary,
		string(areasJSON),
		profile.RiskTolerance,
		profile.DecisionStyle,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

// GetProfile retrieves a profile by ID.
func (s *SQLiteStorage) GetProfile(id string) (*core.Profile, error) {
	return s.getProfileWhere("id = ?", id)
}

// GetProfileByEmail retrieves a profile by email address.
func (s *SQLiteStorage) GetProfileByEmail(email string) (*core.Profile, error) {
	return s.getProfileWhere("email = ?", email)
}

func (s *SQLiteStorage) getProfileWhere(where string, arg any) (*core.Profile, error) {
	query := `
	SELECT id, name, email, profile_summary, expertise_areas_json, risk_tolerance, decision_style, created_at, updated_at
	FROM profiles
	WHERE ` + where

	var profile core.Profile
	var areasJSON string

	err := s.db.QueryRow(query, arg).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Email,
		&profile.ProfileSummary,
		&areasJSON,
		&profile.RiskTolerance,
		&profile.DecisionStyle,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if err := json.Unmarshal([]byte(areasJSON), &profile.ExpertiseAreas); err != nil {
		return nil, fmt.Errorf("failed to unmarshal expertise areas: %w", err)
	}

	return &profile, nil
}

// UpdateProfile updates an existing profile.
func (s *SQLiteStorage) UpdateProfile(profile *core.Profile) error {
	areasJSON, err := json.Marshal(profile.ExpertiseAreas)
	if err != nil {
		return fmt.Errorf("failed to marshal expertise areas: %w", err)
	}

	profile.UpdatedAt = time.Now()

	query := `
	UPDATE profiles
	SET name = ?, email = ?, profile_summary = ?, expertise_areas_json = ?, risk_tolerance = ?, decision_style = ?, updated_at = ?
	WHERE id = ?
	`

	_, err = s.db.Exec(query,
		profile.Name,
		profile.Email,
		profile.ProfileSummary,
		string(areasJSON),
		profile.RiskTolerance,
		profile.DecisionStyle,
		profile.UpdatedAt,
		profile.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

// ListProfiles returns all profiles ordered by creation time.
func (s *SQLiteStorage) ListProfiles() ([]*core.Profile, error) {
	query := `
	SELECT id, name, email, profile_summary, expertise_areas_json, risk_tolerance, decision_style, created_at, updated_at
	FROM profiles
	ORDER BY created_at ASC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*core.Profile
	for rows.Next() {
		var profile core.Profile
		var areasJSON string

		err := rows.Scan(
			&profile.ID,
			&profile.Name,
			&profile.Email,
			&profile.ProfileSummary,
			&areasJSON,
			&profile.RiskTolerance,
			&profile.DecisionStyle,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		if err := json.Unmarshal([]byte(areasJSON), &profile.ExpertiseAreas); err != nil {
			return nil, fmt.Errorf("failed to unmarshal expertise areas: %w", err)
		}

		profiles = append(profiles, &profile)
	}

	return profiles, nil
}

// CreateAgent creates a new agent.
func (s *SQLiteStorage) CreateAgent(agent *core.Agent) error {
	query := `
	INSERT INTO agents (id, profile_id, name, role, description, provider, model, prompt_raw, temperature, max_tokens, is_active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		agent.ID,
		agent.ProfileID,
		agent.Name,
		agent.Role,
		agent.Description,
		agent.Provider,
		agent.Model,
		agent.PromptRaw,
		agent.Temperature,
		agent.MaxTokens,
		agent.IsActive,
		agent.CreatedAt,
		agent.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert agent: %w", err)
	}

	return nil
}

// GetAgent retrieves an agent by ID.
func (s *SQLiteStorage) GetAgent(id string) (*core.Agent, error) {
	query := `
	SELECT id, profile_id, name, role, description, provider, model, prompt_raw, temperature, max_tokens, is_active, created_at, updated_at
	FROM agents
	WHERE id = ?
	`

	var agent core.Agent
	err := s.db.QueryRow(query, id).Scan(
		&agent.ID,
		&agent.ProfileID,
		&agent.Name,
		&agent.Role,
		&agent.Description,
		&agent.Provider,
		&agent.Model,
		&agent.PromptRaw,
		&agent.Temperature,
		&agent.MaxTokens,
		&agent.IsActive,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return &agent, nil
}

// GetAgents retrieves agents by ID, preserving the order of the given ids.
func (s *SQLiteStorage) GetAgents(ids []string) ([]*core.Agent, error) {
	agents := make([]*core.Agent, 0, len(ids))
	for _, id := range ids {
		agent, err := s.GetAgent(id)
		if err != nil {
			return nil, err
		}
		if agent == nil {
			return nil, fmt.Errorf("agent not found: %s", id)
		}
		agents = append(agents, agent)
	}
	return agents, nil
}

// UpdateAgent updates an existing agent.
func (s *SQLiteStorage) UpdateAgent(agent *core.Agent) error {
	agent.UpdatedAt = time.Now()

	query := `
	UPDATE agents
	SET name = ?, role = ?, description = ?, provider = ?, model = ?, prompt_raw = ?, temperature = ?, max_tokens = ?, is_active = ?, updated_at = ?
	WHERE id = ?
	`

	_, err := s.db.Exec(query,
		agent.Name,
		agent.Role,
		agent.Description,
		agent.Provider,
		agent.Model,
		agent.PromptRaw,
		agent.Temperature,
		agent.MaxTokens,
		agent.IsActive,
		agent.UpdatedAt,
		agent.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}

	return nil
}

// DeleteAgent deletes an agent.
func (s *SQLiteStorage) DeleteAgent(id string) error {
	_, err := s.db.Exec("DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	return nil
}

// ListAgents returns agents for a profile, optionally only active ones.
func (s *SQLiteStorage) ListAgents(profileID string, activeOnly bool) ([]*core.Agent, error) {
	query := `
	SELECT id, profile_id, name, role, description, provider, model, prompt_raw, temperature, max_tokens, is_active, created_at, updated_at
	FROM agents
	WHERE profile_id = ?
	`
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.Query(query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*core.Agent
	for rows.Next() {
		var agent core.Agent
		err := rows.Scan(
			&agent.ID,
			&agent.ProfileID,
			&agent.Name,
			&agent.Role,
			&agent.Description,
			&agent.Provider,
			&agent.Model,
			&agent.PromptRaw,
			&agent.Temperature,
			&agent.MaxTokens,
			&agent.IsActive,
			&agent.CreatedAt,
			&agent.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, &agent)
	}

	return agents, nil
}

// CreateSession creates a new session.
func (s *SQLiteStorage) CreateSession(session *core.Session) error {
	idsJSON, err := json.Marshal(session.AgentIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal agent ids: %w", err)
	}

	query := `
	INSERT INTO sessions (id, profile_id, title, topic, format, agent_ids_json, max_turns, status, summary, started_at, completed_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		session.ID,
		session.ProfileID,
		session.Title,
		session.Topic,
		session.Format,
		string(idsJSON),
		session.MaxTurns,
		session.Status,
		session.Summary,
		session.StartedAt,
		session.CompletedAt,
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStorage) GetSession(id string) (*core.Session, error) {
	query := `
	SELECT id, profile_id, title, topic, format, agent_ids_json, max_turns, status, summary, started_at, completed_at, created_at
	FROM sessions
	WHERE id = ?
	`

	var session core.Session
	var idsJSON string
	var startedAt, completedAt sql.NullTime

	err := s.db.QueryRow(query, id).Scan(
		&session.ID,
		&session.ProfileID,
		&session.Title,
		&session.Topic,
		&session.Format,
		&idsJSON,
		&session.MaxTurns,
		&session.Status,
		&session.Summary,
		&startedAt,
		&completedAt,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal([]byte(idsJSON), &session.AgentIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent ids: %w", err)
	}

	if startedAt.Valid {
		session.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}

	return &session, nil
}

// UpdateSession updates an existing session.
func (s *SQLiteStorage) UpdateSession(session *core.Session) error {
	idsJSON, err := json.Marshal(session.AgentIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal agent ids: %w", err)
	}

	query := `
	UPDATE sessions
	SET title = ?, topic = ?, format = ?, agent_ids_json = ?, max_turns = ?, status = ?, summary = ?, started_at = ?, completed_at = ?
	WHERE id = ?
	`

	_, err = s.db.Exec(query,
		session.Title,
		session.Topic,
		session.Format,
		string(idsJSON),
		session.MaxTurns,
		session.Status,
		session.Summary,
		session.StartedAt,
		session.CompletedAt,
		session.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// DeleteSession deletes a session and its turns.
func (s *SQLiteStorage) DeleteSession(id string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions returns session summaries for a profile.
func (s *SQLiteStorage) ListSessions(profileID string, limit, offset int) ([]*core.SessionSummary, error) {
	query := `
	SELECT s.id, s.title, s.topic, s.format, s.status, s.created_at,
		   (SELECT COUNT(*) FROM turns WHERE session_id = s.id) as turn_count
	FROM sessions s
	WHERE s.profile_id = ?
	ORDER BY s.created_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, profileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []*core.SessionSummary
	for rows.Next() {
		var summary core.SessionSummary
		err := rows.Scan(
			&summary.ID,
			&summary.Title,
			&summary.Topic,
			&summary.Format,
			&summary.Status,
			&summary.CreatedAt,
			&summary.TurnCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}
		summaries = append(summaries, &summary)
	}

	return summaries, nil
}

// AddTurn adds a turn to a session.
func (s *SQLiteStorage) AddTurn(turn *core.Turn) error {
	query := `
	INSERT INTO turns (id, session_id, agent_id, turn_index, content, latency_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		turn.ID,
		turn.SessionID,
		turn.AgentID,
		turn.TurnIndex,
		turn.Content,
		turn.LatencyMS,
		turn.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	return nil
}

// GetTurns returns all turns for a session in append order.
func (s *SQLiteStorage) GetTurns(sessionID string) ([]*core.Turn, error) {
	query := `
	SELECT id, session_id, agent_id, turn_index, content, latency_ms, created_at
	FROM turns
	WHERE session_id = ?
	ORDER BY turn_index ASC, rowid ASC
	`

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}
	defer rows.Close()

	var turns []*core.Turn
	for rows.Next() {
		var turn core.Turn
		err := rows.Scan(
			&turn.ID,
			&turn.SessionID,
			&turn.AgentID,
			&turn.TurnIndex,
			&turn.Content,
			&turn.LatencyMS,
			&turn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, &turn)
	}

	return turns, nil
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "roundtable.db"
	}
	return filepath.Join(home, ".roundtable", "roundtable.db")
}
