package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anushtup-nandy/roundtable/internal/core"
	"github.com/anushtup-nandy/roundtable/internal/provider"
)

// Generation settings for post-run synthesis. Lower temperature keeps the
// analysis grounded in the transcript.
const (
	summaryTemperature = 0.3
	summaryMaxTokens   = 600
)

const emptySummaryText = "No discussion took place."

const summaryPromptFormat = `Analyze the following decision-making discussion and provide:
1. A concise summary of the main decision or conclusion (2-3 sentences)
2. 3-5 key insights or important points raised
3. Any areas of agreement or disagreement

Discussion Topic: %s

Conversation:
%s

Provide your analysis:`

// GenerateSummary produces an analysis of a completed session's transcript
// and persists it on the session. An empty transcript short-circuits to a
// canned summary without any generation call.
func (e *Engine) GenerateSummary(ctx context.Context, sessionID string) (*core.SummaryResult, error) {
	session, turns, err := e.GetSessionWithTurns(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	agents := make(map[string]*core.Agent)
	for _, turn := range turns {
		if _, ok := agents[turn.AgentID]; ok {
			continue
		}
		agent, err := e.storage.GetAgent(turn.AgentID)
		if err != nil {
			return nil, err
		}
		if agent != nil {
			agents[turn.AgentID] = agent
		}
	}

	result, err := e.synthesize(ctx, session, turns, agents)
	if err != nil {
		return nil, err
	}

	session.Summary = result.Summary
	if err := e.storage.UpdateSession(session); err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}
	return result, nil
}

func (e *Engine) synthesize(ctx context.Context, session *core.Session, turns []*core.Turn, agents map[string]*core.Agent) (*core.SummaryResult, error) {
	if len(turns) == 0 {
		return &core.SummaryResult{Summary: emptySummaryText}, nil
	}

	entries := make([]string, 0, len(turns))
	participated := make(map[string]bool)
	for _, turn := range turns {
		name := turn.AgentID
		if agent, ok := agents[turn.AgentID]; ok {
			name = agent.Name
		}
		entries = append(entries, fmt.Sprintf("%s: %s", name, turn.Content))
		participated[turn.AgentID] = true
	}

	client, err := e.factory.Create(e.summaryProvider, e.summaryModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create summary client: %w", err)
	}

	prompt := fmt.Sprintf(summaryPromptFormat, session.Topic, strings.Join(entries, "\n\n"))
	response, err := client.Generate(ctx, provider.Request{
		Prompt:      prompt,
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &core.SummaryResult{
		Summary:          strings.TrimSpace(response),
		MessageCount:     len(turns),
		ParticipantCount: len(participated),
	}, nil
}
