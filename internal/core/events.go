package core

import "time"

// EventType discriminates the events emitted during a debate run.
type EventType string

const (
	EventTurn     EventType = "turn"
	EventSummary  EventType = "summary"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is a single entry in the ordered stream a debate run produces.
// Exactly one of the payload groups is populated, keyed by Type.
type Event struct {
	Type EventType `json:"type"`

	// Turn payload. TurnIndex is a pointer so that turn 0 still serializes
	// as "turn": 0 while summary and complete events omit the key.
	AgentID   string    `json:"agent_id,omitempty"`
	AgentName string    `json:"agent_name,omitempty"`
	AgentRole string    `json:"agent_role,omitempty"`
	Content   string    `json:"content,omitempty"`
	TurnIndex *int       `json:"turn,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`

	// Summary payload.
	Summary *SummaryResult `json:"data,omitempty"`

	// Error payload.
	Message string `json:"message,omitempty"`
}

// SummaryResult is the outcome of post-run synthesis.
type SummaryResult struct {
	Summary          string `json:"summary"`
	MessageCount     int    `json:"message_count"`
	ParticipantCount int    `json:"agents_participated"`
}

// TurnEvent builds a turn event from a persisted turn and its agent.
func TurnEvent(turn *Turn, agent *Agent) Event {
	index := turn.TurnIndex
	at := turn.CreatedAt
	return Event{
		Type:      EventTurn,
		AgentID:   turn.AgentID,
		AgentName: agent.Name,
		AgentRole: agent.Role,
		Content:   turn.Content,
		TurnIndex: &index,
		Timestamp: &at,
	}
}
