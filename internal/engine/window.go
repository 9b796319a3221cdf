package engine

import (
	"fmt"
	"strings"

	"github.com/anushtup-nandy/roundtable/internal/core"
)

// DefaultWindowSize is the number of recent turns shown to each agent.
const DefaultWindowSize = 10

// FormatWindow renders the conversation window an agent sees before
// responding: the most recent turns, newest last, capped at size. An empty
// transcript yields an empty string so opening prompts carry no history.
func FormatWindow(turns []*core.Turn, agents map[string]*core.Agent, size int) string {
	if len(turns) == 0 {
		return ""
	}
	if size <= 0 {
		size = DefaultWindowSize
	}

	recent := turns
	if len(recent) > size {
		recent = recent[len(recent)-size:]
	}

	lines := []string{"CONVERSATION SO FAR:"}
	for _, turn := range recent {
		name := turn.AgentID
		role := "unknown"
		if agent, ok := agents[turn.AgentID]; ok {
			name = agent.Name
			role = agent.Role
		}
		lines = append(lines, fmt.Sprintf("\n%s (%s):\n%s", name, role, turn.Content))
	}

	return strings.Join(lines, "\n")
}
