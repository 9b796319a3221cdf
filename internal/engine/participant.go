package engine

import (
	"fmt"
	"strings"

	"github.com/anushtup-nandy/roundtable/internal/core"
	"github.com/anushtup-nandy/roundtable/internal/provider"
	"github.com/anushtup-nandy/roundtable/internal/template"
)

// Participant is an agent resolved for a single run: template parsed,
// variables substituted, generation parameters clamped and a provider client
// bound. Participants are rebuilt fresh for every run so profile edits take
// effect on the next debate.
type Participant struct {
	Agent        *core.Agent
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Client       provider.Client
}

// SubstitutionContext builds the template variables for a debate run from the
// owning profile and the session topic.
func SubstitutionContext(profile *core.Profile, topic string) map[string]string {
	summary := profile.ProfileSummary
	if summary == "" {
		summary = "No profile available"
	}
	risk := profile.RiskTolerance
	if risk == "" {
		risk = "moderate"
	}
	return map[string]string{
		"user_profile_summary": summary,
		"decision_topic":       topic,
		"user_expertise_areas": strings.Join(profile.ExpertiseAreas, ", "),
		"user_risk_tolerance":  risk,
	}
}

// ResolveParticipant prepares an agent for a run. Template overrides for
// model, temperature and max tokens win over the stored agent settings.
func ResolveParticipant(agent *core.Agent, factory provider.Factory, vars map[string]string) (*Participant, error) {
	parsed, err := template.Parse(agent.PromptRaw)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", agent.Name, err)
	}

	substituted := template.Substitute(parsed, vars)
	systemPrompt := template.FormatSystemPrompt(substituted)

	temperature := agent.Temperature
	if substituted.Temperature != nil {
		temperature = *substituted.Temperature
	}
	temperature = core.ClampTemperature(temperature)

	maxTokens := agent.MaxTokens
	if substituted.MaxTokens != nil {
		maxTokens = *substituted.MaxTokens
	}
	maxTokens = core.ClampMaxTokens(maxTokens)

	model := agent.Model
	if substituted.ModelPreference != "" {
		model = substituted.ModelPreference
	}

	client, err := factory.Create(agent.Provider, model)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", agent.Name, err)
	}

	return &Participant{
		Agent:        agent,
		SystemPrompt: systemPrompt,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		Client:       client,
	}, nil
}
