package template

import (
	"strings"
	"testing"
)

const validTemplate = `agent:
  name: "Market Analyst"
  role: "analyst"
  model_preference: "gemini"
  system_prompt: |
    <persona>
      You are a careful market analyst.
    </persona>
    <context>
      User Profile: {{user_profile_summary}}
      Topic: {{decision_topic}}
    </context>
  temperature: 0.5
  max_tokens: 800
`

func TestParse(t *testing.T) {
	t.Run("ValidTemplate", func(t *testing.T) {
		p, err := Parse(validTemplate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.AgentName != "Market Analyst" {
			t.Errorf("wrong agent name: got %q", p.AgentName)
		}
		if p.Role != "analyst" {
			t.Errorf("wrong role: got %q", p.Role)
		}
		if p.ModelPreference != "gemini" {
			t.Errorf("wrong model preference: got %q", p.ModelPreference)
		}
		if p.Temperature == nil || *p.Temperature != 0.5 {
			t.Errorf("wrong temperature: got %v", p.Temperature)
		}
		if p.MaxTokens == nil || *p.MaxTokens != 800 {
			t.Errorf("wrong max tokens: got %v", p.MaxTokens)
		}
		if p.FullText != p.SystemPrompt {
			t.Error("full text should retain the unmodified system prompt")
		}
	})

	t.Run("NotAMapping", func(t *testing.T) {
		if _, err := Parse("just a plain string"); err == nil {
			t.Error("expected error for non-mapping template")
		}
	})

	t.Run("MissingAgent", func(t *testing.T) {
		_, err := Parse("other: value")
		if err == nil {
			t.Fatal("expected error for missing agent section")
		}
		if !strings.Contains(err.Error(), "agent") {
			t.Errorf("error should name the agent section: %v", err)
		}
	})

	t.Run("MissingRole", func(t *testing.T) {
		raw := "agent:\n  name: Test\n  system_prompt: hello\n"
		_, err := Parse(raw)
		if err == nil {
			t.Fatal("expected error for missing role")
		}
		if !strings.Contains(err.Error(), "agent.role") {
			t.Errorf("error should name the missing field: %v", err)
		}
	})

	t.Run("EmptyRoleRejected", func(t *testing.T) {
		raw := "agent:\n  name: Test\n  role: \"\"\n  system_prompt: hello\n"
		_, err := Parse(raw)
		if err == nil {
			t.Fatal("expected error for empty role")
		}
		if !strings.Contains(err.Error(), "agent.role") {
			t.Errorf("error should name the empty field: %v", err)
		}
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		if _, err := Parse("agent:\n  name: [unclosed"); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("ExtraKeysCarried", func(t *testing.T) {
		raw := "agent:\n  name: Test\n  role: tester\n  system_prompt: hello\n  custom_field: kept\n"
		p, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Extra["custom_field"] != "kept" {
			t.Errorf("extra key not carried: got %v", p.Extra)
		}
	})

	t.Run("DefaultTemplateParses", func(t *testing.T) {
		if _, err := Parse(DefaultAgentTemplate); err != nil {
			t.Errorf("default template should parse: %v", err)
		}
	})
}

func TestSectionExtraction(t *testing.T) {
	t.Run("RecognizedTags", func(t *testing.T) {
		p, err := Parse(validTemplate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := p.Sections["persona"]; !ok {
			t.Error("persona section not extracted")
		}
		if _, ok := p.Sections["context"]; !ok {
			t.Error("context section not extracted")
		}
		if _, ok := p.Sections["behavior"]; ok {
			t.Error("absent behavior section should not be present")
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		raw := "agent:\n  name: Test\n  role: tester\n  system_prompt: \"<PERSONA>upper case</PERSONA>\"\n"
		p, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Sections["persona"] != "upper case" {
			t.Errorf("case-insensitive match failed: got %v", p.Sections)
		}
	})

	t.Run("FirstOccurrenceWins", func(t *testing.T) {
		raw := "agent:\n  name: Test\n  role: tester\n  system_prompt: \"<persona>first</persona><persona>second</persona>\"\n"
		p, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Sections["persona"] != "first" {
			t.Errorf("first occurrence should win: got %q", p.Sections["persona"])
		}
	})

	t.Run("NoTags", func(t *testing.T) {
		raw := "agent:\n  name: Test\n  role: tester\n  system_prompt: plain instructions\n"
		p, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(p.Sections) != 0 {
			t.Errorf("expected no sections: got %v", p.Sections)
		}
		if p.FullText != "plain instructions" {
			t.Errorf("full text fallback wrong: got %q", p.FullText)
		}
	})
}

func TestExtractVariables(t *testing.T) {
	vars := ExtractVariables("Hello {{name}}, risk={{user_risk_tolerance}}")
	if len(vars) != 2 || vars[0] != "name" || vars[1] != "user_risk_tolerance" {
		t.Errorf("wrong variables: got %v", vars)
	}

	t.Run("DuplicatesPreserved", func(t *testing.T) {
		vars := ExtractVariables("{{a}} {{b}} {{a}}")
		if len(vars) != 3 || vars[0] != "a" || vars[1] != "b" || vars[2] != "a" {
			t.Errorf("duplicates should be preserved in order: got %v", vars)
		}
	})

	t.Run("InvalidIdentifiersIgnored", func(t *testing.T) {
		vars := ExtractVariables("{{9bad}} {{good_one}}")
		if len(vars) != 1 || vars[0] != "good_one" {
			t.Errorf("wrong variables: got %v", vars)
		}
	})
}

func TestSubstitute(t *testing.T) {
	p, err := Parse(validTemplate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vars := map[string]string{
		"user_profile_summary": "Experienced investor",
		"decision_topic":       "Buy or rent",
	}

	t.Run("ReplacesKnownVariables", func(t *testing.T) {
		sub := Substitute(p, vars)
		if !strings.Contains(sub.Sections["context"], "Experienced investor") {
			t.Errorf("variable not substituted: %q", sub.Sections["context"])
		}
		if !strings.Contains(sub.SystemPrompt, "Buy or rent") {
			t.Errorf("variable not substituted in system prompt: %q", sub.SystemPrompt)
		}
	})

	t.Run("OriginalUnmodified", func(t *testing.T) {
		Substitute(p, vars)
		if !strings.Contains(p.SystemPrompt, "{{decision_topic}}") {
			t.Error("substitute should not mutate its input")
		}
	})

	t.Run("UnknownVariablesLeftVerbatim", func(t *testing.T) {
		sub := Substitute(p, map[string]string{})
		if !strings.Contains(sub.SystemPrompt, "{{user_profile_summary}}") {
			t.Errorf("unknown variables should stay verbatim: %q", sub.SystemPrompt)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := Substitute(p, vars)
		twice := Substitute(once, vars)
		if once.SystemPrompt != twice.SystemPrompt {
			t.Error("re-substitution should be stable")
		}
		if FormatSystemPrompt(once) != FormatSystemPrompt(twice) {
			t.Error("formatted output should be stable across re-substitution")
		}
	})
}

func TestFormatSystemPrompt(t *testing.T) {
	t.Run("PersonaOnly", func(t *testing.T) {
		raw := "agent:\n  name: Test\n  role: tester\n  system_prompt: \"<persona>helpful assistant</persona>\"\n"
		p, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := FormatSystemPrompt(p)
		want := "PERSONA:\nhelpful assistant"
		if got != want {
			t.Errorf("wrong output: got %q, want %q", got, want)
		}
	})

	t.Run("FixedSectionOrder", func(t *testing.T) {
		raw := "agent:\n  name: Test\n  role: tester\n  system_prompt: \"<format>short</format><persona>helper</persona>\"\n"
		p, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := FormatSystemPrompt(p)
		if !strings.HasPrefix(got, "PERSONA:") {
			t.Errorf("persona should come first regardless of source order: %q", got)
		}
		if !strings.Contains(got, "RESPONSE FORMAT:\nshort") {
			t.Errorf("format section missing or unheadered: %q", got)
		}
	})

	t.Run("NoSectionsReturnsRaw", func(t *testing.T) {
		raw := "agent:\n  name: Test\n  role: tester\n  system_prompt: plain instructions\n"
		p, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := FormatSystemPrompt(p); got != "plain instructions" {
			t.Errorf("expected raw passthrough: got %q", got)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		ok, msg := Validate(validTemplate)
		if !ok {
			t.Errorf("expected valid, got message %q", msg)
		}
	})

	t.Run("MissingRoleMessage", func(t *testing.T) {
		ok, msg := Validate("agent:\n  name: Test\n  system_prompt: hello\n")
		if ok {
			t.Fatal("expected invalid")
		}
		if !strings.Contains(msg, "agent.role") {
			t.Errorf("message should name the missing field: %q", msg)
		}
	})
}
