package export

import (
	"encoding/json"
	"io"

	"github.com/anushtup-nandy/roundtable/internal/core"
)

// JSONExporter exports sessions to JSON format.
type JSONExporter struct{}

// ExportData represents the full export structure.
type ExportData struct {
	Session *core.Session `json:"session"`
	Agents  []*core.Agent `json:"agents"`
	Turns   []*core.Turn  `json:"turns"`
}

// Export writes the session as JSON.
func (e *JSONExporter) Export(session *core.Session, agents []*core.Agent, turns []*core.Turn, w io.Writer) error {
	data := ExportData{
		Session: session,
		Agents:  agents,
		Turns:   turns,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}
