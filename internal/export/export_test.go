package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/anushtup-nandy/roundtable/internal/core"
)

func testFixture() (*core.Session, []*core.Agent, []*core.Turn) {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	started := created.Add(time.Minute)
	completed := started.Add(90 * time.Second)

	session := &core.Session{
		ID:          "session-12345678",
		ProfileID:   "profile-1",
		Title:       "Migration debate",
		Topic:       "Should we migrate to the new platform?",
		Format:      core.FormatTurnBased,
		AgentIDs:    []string{"agent-a", "agent-b"},
		MaxTurns:    2,
		Status:      core.StatusCompleted,
		Summary:     "The group leaned toward migrating in stages.",
		StartedAt:   &started,
		CompletedAt: &completed,
		CreatedAt:   created,
	}

	agents := []*core.Agent{
		{ID: "agent-a", Name: "Advocate", Role: "advocate", Provider: "gemini", Model: "gemini-2.5-flash"},
		{ID: "agent-b", Name: "Skeptic", Role: "critic", Provider: "ollama", Model: "llama2"},
	}

	turns := []*core.Turn{
		{ID: "t1", SessionID: session.ID, AgentID: "agent-a", TurnIndex: 0, Content: "We should migrate.", CreatedAt: started},
		{ID: "t2", SessionID: session.ID, AgentID: "agent-b", TurnIndex: 0, Content: "What about the cost?", CreatedAt: started.Add(time.Second)},
		{ID: "t3", SessionID: session.ID, AgentID: "agent-a", TurnIndex: 1, Content: "Staged rollout limits the risk.", CreatedAt: started.Add(2 * time.Second)},
	}

	return session, agents, turns
}

func TestGetExporter(t *testing.T) {
	for _, format := range []Format{FormatMarkdown, FormatPDF, FormatJSON} {
		exporter, err := GetExporter(format)
		if err != nil {
			t.Errorf("GetExporter(%s) failed: %v", format, err)
		}
		if exporter == nil {
			t.Errorf("GetExporter(%s) returned nil", format)
		}
	}

	if _, err := GetExporter("docx"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestMarkdownExport(t *testing.T) {
	session, agents, turns := testFixture()
	var buf bytes.Buffer

	exporter := &MarkdownExporter{}
	if err := exporter.Export(session, agents, turns, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Migration debate",
		"**Topic:** Should we migrate to the new platform?",
		"### Advocate",
		"### Skeptic",
		"### Round 1",
		"### Round 2",
		"#### Advocate (advocate)",
		"We should migrate.",
		"## Summary",
		"The group leaned toward migrating in stages.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}

	if exporter.FileExtension() != "md" {
		t.Errorf("wrong extension: %s", exporter.FileExtension())
	}
}

func TestMarkdownExportEmptyTranscript(t *testing.T) {
	session, agents, _ := testFixture()
	var buf bytes.Buffer

	if err := (&MarkdownExporter{}).Export(session, agents, nil, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(buf.String(), "*No turns recorded.*") {
		t.Error("missing empty transcript marker")
	}
}

func TestJSONExport(t *testing.T) {
	session, agents, turns := testFixture()
	var buf bytes.Buffer

	exporter := &JSONExporter{}
	if err := exporter.Export(session, agents, turns, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if data.Session == nil || data.Session.ID != session.ID {
		t.Error("session not exported")
	}
	if len(data.Agents) != 2 {
		t.Errorf("wrong number of agents: got %d", len(data.Agents))
	}
	if len(data.Turns) != 3 {
		t.Errorf("wrong number of turns: got %d", len(data.Turns))
	}
}

func TestPDFExport(t *testing.T) {
	session, agents, turns := testFixture()
	var buf bytes.Buffer

	exporter := &PDFExporter{}
	if err := exporter.Export(session, agents, turns, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
	if exporter.FileExtension() != "pdf" {
		t.Errorf("wrong extension: %s", exporter.FileExtension())
	}
}

func TestGenerateFilename(t *testing.T) {
	session, _, _ := testFixture()
	got := GenerateFilename(session, "md")
	want := "debate_20260314_Should_we_migrate_to_the_new_platform.md"
	if got != want {
		t.Errorf("wrong filename: got %s, want %s", got, want)
	}
}
