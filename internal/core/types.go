// Package core contains the core domain types for roundtable.
package core

import (
	"time"
)

// SessionStatus represents the lifecycle state of a debate session.
// Transitions are monotonic: pending -> active -> completed.
type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// DebateFormat selects how turns are scheduled. Only turn_based has its own
// behavior today; moderated and free_form fall back to round-robin scheduling.
type DebateFormat string

const (
	FormatTurnBased DebateFormat = "turn_based"
	FormatModerated DebateFormat = "moderated"
	FormatFreeForm  DebateFormat = "free_form"
)

// Valid reports whether the format is one of the known values.
func (f DebateFormat) Valid() bool {
	switch f {
	case FormatTurnBased, FormatModerated, FormatFreeForm:
		return true
	}
	return false
}

// Parameter bounds for agent generation settings.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 4000

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
	DefaultMaxTurns    = 10
	MaxMaxTurns        = 50
)

// Profile holds the user context that debates are grounded in. The summary,
// expertise areas and risk tolerance feed template variable substitution.
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfileSummary string    `json:"profile_summary,omitempty"`
	ExpertiseAreas []string  `json:"expertise_areas"`
	RiskTolerance  string    `json:"risk_tolerance"`
	DecisionStyle  string    `json:"decision_style,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Agent is a persisted agent configuration. The raw template is validated at
// definition time; the resolved participant is rebuilt fresh for every run.
type Agent struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Description string    `json:"description,omitempty"`
	Provider    string    `json:"provider"` // gemini, ollama, mock
	Model       string    `json:"model"`
	PromptRaw   string    `json:"system_prompt_raw"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session represents a debate session between multiple agents.
type Session struct {
	ID          string        `json:"id"`
	ProfileID   string        `json:"profile_id"`
	Title       string        `json:"title"`
	Topic       string        `json:"topic"`
	Format      DebateFormat  `json:"format"`
	AgentIDs    []string      `json:"agent_ids"`
	MaxTurns    int           `json:"max_turns"`
	Status      SessionStatus `json:"status"`
	Summary     string        `json:"summary,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Turn is a single agent contribution, immutable once appended.
// TurnIndex is 0-based; append order equals generation order.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	AgentID   string    `json:"agent_id"`
	TurnIndex int       `json:"turn_index"`
	Content   string    `json:"content"`
	LatencyMS int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is a lightweight representation for listing sessions.
type SessionSummary struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Topic     string        `json:"topic"`
	Format    DebateFormat  `json:"format"`
	Status    SessionStatus `json:"status"`
	TurnCount int           `json:"turn_count"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewSessionConfig holds the caller-supplied configuration for a session.
type NewSessionConfig struct {
	ProfileID string       `json:"profile_id"`
	Title     string       `json:"title"`
	Topic     string       `json:"topic"`
	Format    DebateFormat `json:"format"`
	AgentIDs  []string     `json:"agent_ids"`
	MaxTurns  int          `json:"max_turns"`
}

// ClampTemperature bounds a sampling temperature into the supported range.
func ClampTemperature(t float64) float64 {
	if t < MinTemperature {
		return MinTemperature
	}
	if t > MaxTemperature {
		return MaxTemperature
	}
	return t
}

// ClampMaxTokens bounds an output token budget into the supported range.
func ClampMaxTokens(n int) int {
	if n < MinMaxTokens {
		return MinMaxTokens
	}
	if n > MaxMaxTokens {
		return MaxMaxTokens
	}
	return n
}
