package template

// DefaultAgentTemplate is the starting template offered when defining a new
// agent.
const DefaultAgentTemplate = `agent:
  name: "Agent Name"
  role: "agent role"
  model_preference: "gemini"  # or "ollama"

  system_prompt: |
    <persona>
      Define the agent's personality and approach here.
    </persona>

    <context>
      User Profile: {{user_profile_summary}}
      Current Decision: {{decision_topic}}
    </context>

    <behavior>
      - Behavior guideline 1
      - Behavior guideline 2
      - Behavior guideline 3
    </behavior>

    <constraints>
      - Keep responses under 200 words
      - Focus on {{user_expertise_areas}}
      - Consider user's {{user_risk_tolerance}} risk tolerance
    </constraints>

  temperature: 0.7
  max_tokens: 500
`
