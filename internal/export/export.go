// Package export handles exporting debate sessions to various formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anushtup-nandy/roundtable/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Exporter defines the interface for exporting sessions.
type Exporter interface {
	Export(session *core.Session, agents []*core.Agent, turns []*core.Turn, w io.Writer) error
	FileExtension() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(session *core.Session, ext string) string {
	// Sanitize topic for filename
	topic := session.Topic
	if len(topic) > 50 {
		topic = topic[:50]
	}

	// Replace unsafe characters
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	topic = replacer.Replace(topic)

	timestamp := session.CreatedAt.Format("20060102")
	return fmt.Sprintf("debate_%s_%s.%s", timestamp, topic, ext)
}

// agentIndex maps agent IDs to their definitions for name lookup.
func agentIndex(agents []*core.Agent) map[string]*core.Agent {
	index := make(map[string]*core.Agent, len(agents))
	for _, agent := range agents {
		index[agent.ID] = agent
	}
	return index
}

func agentLabel(index map[string]*core.Agent, agentID string) string {
	if agent, ok := index[agentID]; ok {
		return fmt.Sprintf("%s (%s)", agent.Name, agent.Role)
	}
	return agentID
}

// Helper to format duration
func formatDuration(start, end time.Time) string {
	d := end.Sub(start)
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	return fmt.Sprintf("%.1f hours", d.Hours())
}
