// Package template parses agent prompt templates and performs variable
// substitution. Templates are YAML documents with a top-level agent mapping;
// the system prompt may carry XML-style sections and {{variable}}
// placeholders.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// SectionTags is the fixed vocabulary of recognized system prompt sections.
var SectionTags = []string{"persona", "context", "behavior", "constraints", "examples", "format"}

var (
	variablePattern = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)

	sectionPatterns = buildSectionPatterns()
)

func buildSectionPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(SectionTags))
	for _, tag := range SectionTags {
		// Case-insensitive, non-greedy, spans newlines. First match wins.
		patterns[tag] = regexp.MustCompile(`(?is)<` + tag + `>(.*?)</` + tag + `>`)
	}
	return patterns
}

// ParseError indicates a malformed or incomplete template.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template parse error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("template parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parsed is the structured form of an agent template.
type Parsed struct {
	AgentName       string
	Role            string
	SystemPrompt    string
	ModelPreference string
	Temperature     *float64
	MaxTokens       *int

	// Sections holds the recognized tagged sections found in the system
	// prompt; unmatched tags are simply absent. FullText always retains the
	// unmodified system prompt as a fallback.
	Sections map[string]string
	FullText string

	// Extra carries unrecognized agent keys for forward compatibility.
	Extra map[string]any
}

// Parse parses a raw YAML template. The document must be a mapping with an
// agent key holding name, role and system_prompt; anything else fails with a
// ParseError. The three required fields must be non-empty strings: an empty
// value is rejected the same as a missing key, since a blank name or role
// would flow verbatim into the formatted system prompt.
func Parse(raw string) (*Parsed, error) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, &ParseError{Message: "invalid YAML", Err: err}
	}
	if doc == nil {
		return nil, &ParseError{Message: "template must be a YAML mapping"}
	}

	agentRaw, ok := doc["agent"]
	if !ok {
		return nil, &ParseError{Message: "missing required 'agent' section"}
	}
	agent, ok := agentRaw.(map[string]any)
	if !ok {
		return nil, &ParseError{Message: "'agent' must be a mapping"}
	}

	p := &Parsed{}
	for _, field := range []string{"name", "role", "system_prompt"} {
		val, ok := agent[field].(string)
		if !ok || val == "" {
			return nil, &ParseError{Message: fmt.Sprintf("missing required field: agent.%s", field)}
		}
		switch field {
		case "name":
			p.AgentName = val
		case "role":
			p.Role = val
		case "system_prompt":
			p.SystemPrompt = val
		}
	}

	if v, ok := agent["model_preference"].(string); ok {
		p.ModelPreference = v
	}
	if v, ok := toFloat(agent["temperature"]); ok {
		p.Temperature = &v
	}
	if v, ok := toInt(agent["max_tokens"]); ok {
		p.MaxTokens = &v
	}

	p.Sections, p.FullText = extractSections(p.SystemPrompt)

	known := map[string]bool{
		"name": true, "role": true, "system_prompt": true,
		"model_preference": true, "temperature": true, "max_tokens": true,
	}
	for k, v := range agent {
		if known[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}

	return p, nil
}

// Validate checks a raw template without propagating the failure. It returns
// false plus the parse error message when the template is invalid.
func Validate(raw string) (bool, string) {
	if _, err := Parse(raw); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// ExtractVariables returns all {{variable}} placeholder names found in the
// raw template, in occurrence order, duplicates preserved.
func ExtractVariables(raw string) []string {
	matches := variablePattern.FindAllStringSubmatch(raw, -1)
	vars := make([]string, 0, len(matches))
	for _, m := range matches {
		vars = append(vars, m[1])
	}
	return vars
}

// Substitute returns a deep copy of the parsed template with every
// {{variable}} occurrence in string leaves replaced from vars. Unknown
// variables are left verbatim, never an error.
func Substitute(p *Parsed, vars map[string]string) *Parsed {
	out := &Parsed{
		AgentName:       substituteString(p.AgentName, vars),
		Role:            substituteString(p.Role, vars),
		SystemPrompt:    substituteString(p.SystemPrompt, vars),
		ModelPreference: substituteString(p.ModelPreference, vars),
		FullText:        substituteString(p.FullText, vars),
	}
	if p.Temperature != nil {
		t := *p.Temperature
		out.Temperature = &t
	}
	if p.MaxTokens != nil {
		n := *p.MaxTokens
		out.MaxTokens = &n
	}
	if p.Sections != nil {
		out.Sections = make(map[string]string, len(p.Sections))
		for k, v := range p.Sections {
			out.Sections[k] = substituteString(v, vars)
		}
	}
	if p.Extra != nil {
		out.Extra = substituteValue(p.Extra, vars).(map[string]any)
	}
	return out
}

// FormatSystemPrompt renders the final system prompt. When recognized
// sections exist they are concatenated in a fixed order under uppercase
// headers; otherwise the raw system prompt text is returned unmodified.
func FormatSystemPrompt(p *Parsed) string {
	if len(p.Sections) == 0 {
		return p.SystemPrompt
	}

	headers := []struct {
		tag    string
		header string
	}{
		{"persona", "PERSONA:"},
		{"context", "\nCONTEXT:"},
		{"behavior", "\nBEHAVIOR GUIDELINES:"},
		{"constraints", "\nCONSTRAINTS:"},
		{"examples", "\nEXAMPLES:"},
		{"format", "\nRESPONSE FORMAT:"},
	}

	var parts []string
	for _, h := range headers {
		if content, ok := p.Sections[h.tag]; ok {
			parts = append(parts, h.header+"\n"+content)
		}
	}
	if len(parts) == 0 {
		return p.SystemPrompt
	}
	return strings.Join(parts, "\n")
}

// extractSections scans the system prompt for the recognized tags. The full
// unmodified text is always returned alongside.
func extractSections(text string) (map[string]string, string) {
	var sections map[string]string
	for _, tag := range SectionTags {
		m := sectionPatterns[tag].FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if sections == nil {
			sections = make(map[string]string)
		}
		sections[tag] = strings.TrimSpace(m[1])
	}
	return sections, text
}

func substituteString(text string, vars map[string]string) string {
	return variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-2]
		if val, ok := vars[name]; ok {
			return val
		}
		return match
	})
}

// substituteValue walks nested maps and slices, substituting string leaves.
func substituteValue(v any, vars map[string]string) any {
	switch val := v.(type) {
	case string:
		return substituteString(val, vars)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = substituteValue(item, vars)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = substituteValue(item, vars)
		}
		return out
	default:
		return val
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
