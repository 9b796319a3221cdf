package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/anushtup-nandy/roundtable/internal/core"
)

// MarkdownExporter exports sessions to Markdown format.
type MarkdownExporter struct{}

// Export writes the session as Markdown.
func (e *MarkdownExporter) Export(session *core.Session, agents []*core.Agent, turns []*core.Turn, w io.Writer) error {
	var sb strings.Builder
	index := agentIndex(agents)

	// Title
	title := session.Title
	if title == "" {
		title = session.Topic
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	// Metadata
	sb.WriteString("## Session Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", session.ID))
	sb.WriteString(fmt.Sprintf("- **Topic:** %s\n", session.Topic))
	sb.WriteString(fmt.Sprintf("- **Format:** %s\n", session.Format))
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", session.Status))
	sb.WriteString(fmt.Sprintf("- **Created:** %s\n", session.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
	if session.StartedAt != nil && session.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("- **Completed:** %s\n", session.CompletedAt.Format("January 2, 2006 at 3:04 PM")))
		sb.WriteString(fmt.Sprintf("- **Duration:** %s\n", formatDuration(*session.StartedAt, *session.CompletedAt)))
	}
	sb.WriteString("\n")

	// Participants
	sb.WriteString("## Participants\n\n")
	for _, agent := range agents {
		sb.WriteString(fmt.Sprintf("### %s\n", agent.Name))
		sb.WriteString(fmt.Sprintf("- **Role:** %s\n", agent.Role))
		sb.WriteString(fmt.Sprintf("- **Provider:** %s\n", agent.Provider))
		if agent.Model != "" {
			sb.WriteString(fmt.Sprintf("- **Model:** %s\n", agent.Model))
		}
		sb.WriteString("\n")
	}

	// Discussion
	sb.WriteString("## Discussion\n\n")

	if len(turns) == 0 {
		sb.WriteString("*No turns recorded.*\n\n")
	} else {
		currentRound := -1
		for _, turn := range turns {
			if turn.TurnIndex != currentRound {
				currentRound = turn.TurnIndex
				sb.WriteString(fmt.Sprintf("### Round %d\n\n", currentRound+1))
			}

			sb.WriteString(fmt.Sprintf("#### %s\n\n", agentLabel(index, turn.AgentID)))
			sb.WriteString(fmt.Sprintf("*%s*\n\n", turn.CreatedAt.Format("3:04 PM")))
			sb.WriteString(turn.Content)
			sb.WriteString("\n\n---\n\n")
		}
	}

	// Summary
	if session.Summary != "" {
		sb.WriteString("## Summary\n\n")
		sb.WriteString(session.Summary)
		sb.WriteString("\n\n")
	}

	// Footer
	sb.WriteString("---\n\n")
	sb.WriteString("*Exported from roundtable*\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
