package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/anushtup-nandy/roundtable/internal/core"
)

// PDFExporter exports sessions to PDF format.
type PDFExporter struct{}

// Participant header colors cycle through this palette.
var participantColors = [][3]int{
	{200, 230, 255}, // Light blue
	{200, 255, 200}, // Light green
	{255, 230, 200}, // Light orange
	{235, 215, 255}, // Light purple
}

// Export writes the session as PDF.
func (e *PDFExporter) Export(session *core.Session, agents []*core.Agent, turns []*core.Turn, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	// Title
	title := session.Title
	if title == "" {
		title = session.Topic
	}
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, e.sanitizeText(title), "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Session Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "ID:", session.ID[:8]+"...")
	e.addMetadataRow(pdf, "Topic:", e.sanitizeText(session.Topic))
	e.addMetadataRow(pdf, "Format:", string(session.Format))
	e.addMetadataRow(pdf, "Status:", string(session.Status))
	e.addMetadataRow(pdf, "Created:", session.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	if session.StartedAt != nil && session.CompletedAt != nil {
		e.addMetadataRow(pdf, "Completed:", session.CompletedAt.Format("January 2, 2006 at 3:04 PM"))
		e.addMetadataRow(pdf, "Duration:", formatDuration(*session.StartedAt, *session.CompletedAt))
	}
	pdf.Ln(5)

	// Participants section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Participants")
	pdf.Ln(8)

	colorByAgent := make(map[string][3]int, len(agents))
	for i, agent := range agents {
		color := participantColors[i%len(participantColors)]
		colorByAgent[agent.ID] = color
		e.addParticipantBox(pdf, agent, color)
		pdf.Ln(3)
	}
	pdf.Ln(5)

	// Discussion content
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Discussion")
	pdf.Ln(8)

	index := agentIndex(agents)
	if len(turns) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No turns recorded.")
		pdf.Ln(6)
	} else {
		for _, turn := range turns {
			// Check if we need a new page
			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			color, ok := colorByAgent[turn.AgentID]
			if !ok {
				color = [3]int{230, 230, 230}
			}
			pdf.SetFillColor(color[0], color[1], color[2])

			pdf.SetFont("Arial", "B", 10)
			header := fmt.Sprintf("Round %d - %s (%s)", turn.TurnIndex+1, agentLabel(index, turn.AgentID), turn.CreatedAt.Format("3:04 PM"))
			pdf.CellFormat(0, 7, e.sanitizeText(header), "", 1, "", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			pdf.SetFillColor(255, 255, 255)
			pdf.MultiCell(0, 5, e.sanitizeText(turn.Content), "", "", false)
			pdf.Ln(5)
		}
	}

	// Summary
	if session.Summary != "" {
		if pdf.GetY() > 230 {
			pdf.AddPage()
		}

		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Summary")
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, e.sanitizeText(session.Summary), "", "", false)
		pdf.Ln(3)
	}

	// Footer
	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Exported from roundtable", "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// Helper to add a metadata row
func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, value)
	pdf.Ln(5)
}

// Helper to add a participant box
func (e *PDFExporter) addParticipantBox(pdf *gofpdf.Fpdf, agent *core.Agent, color [3]int) {
	pdf.SetFillColor(color[0], color[1], color[2])
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, e.sanitizeText(agent.Name), "", 1, "", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(255, 255, 255)
	pdf.Cell(25, 5, "Role:")
	pdf.Cell(0, 5, e.sanitizeText(agent.Role))
	pdf.Ln(5)
	pdf.Cell(25, 5, "Provider:")
	pdf.Cell(0, 5, agent.Provider)
	pdf.Ln(5)
	if agent.Model != "" {
		pdf.Cell(25, 5, "Model:")
		pdf.Cell(0, 5, agent.Model)
		pdf.Ln(5)
	}
}

// Sanitize text for PDF (remove problematic characters)
func (e *PDFExporter) sanitizeText(text string) string {
	// gofpdf uses Windows-1252 encoding by default
	// Replace common Unicode characters that might cause issues
	replacer := strings.NewReplacer(
		"‘", "'", // Left single quote
		"’", "'", // Right single quote
		"“", "\"", // Left double quote
		"”", "\"", // Right double quote
		"–", "-", // En dash
		"—", "--", // Em dash
		"…", "...", // Ellipsis
		"•", "*", // Bullet
		" ", " ", // Non-breaking space
	)
	return replacer.Replace(text)
}
