// Package engine orchestrates debate sessions between AI agents.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anushtup-nandy/roundtable/internal/core"
	"github.com/anushtup-nandy/roundtable/internal/provider"
	"github.com/anushtup-nandy/roundtable/internal/storage"
	"github.com/anushtup-nandy/roundtable/internal/template"
)

// Precondition failures surfaced before a run changes any state.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrTooFewParticipants = errors.New("at least 2 agents required for a debate")
	ErrSessionNotPending  = errors.New("session has already been started")
)

const contextMessageFormat = `You are participating in a collaborative decision-making discussion about:

TOPIC: %s

Your goal is to provide thoughtful input based on your role and perspective. Listen to other participants and build on their ideas while maintaining your unique viewpoint.

The discussion will proceed in turns. Share your insights, ask questions, and help arrive at a well-reasoned decision.`

const (
	openingPrompt      = "Please share your initial thoughts on this topic."
	joinPrompt         = "The discussion has begun. Please share your perspective."
	continuationPrompt = "Based on the discussion so far, what are your thoughts? Do you have any questions or additional insights?"
)

// Engine orchestrates debate sessions.
type Engine struct {
	storage storage.Storage
	factory provider.Factory

	windowSize      int
	turnDelay       time.Duration
	summaryProvider string
	summaryModel    string
}

// Option customizes engine behavior.
type Option func(*Engine)

// WithWindowSize sets how many recent turns each agent sees.
func WithWindowSize(n int) Option {
	return func(e *Engine) { e.windowSize = n }
}

// WithTurnDelay sets the pause between agent responses.
func WithTurnDelay(d time.Duration) Option {
	return func(e *Engine) { e.turnDelay = d }
}

// WithSummaryProvider sets the provider and model used for post-run synthesis.
func WithSummaryProvider(providerName, model string) Option {
	return func(e *Engine) {
		e.summaryProvider = providerName
		e.summaryModel = model
	}
}

// New creates a new debate engine.
func New(store storage.Storage, factory provider.Factory, opts ...Option) *Engine {
	e := &Engine{
		storage:         store,
		factory:         factory,
		windowSize:      DefaultWindowSize,
		turnDelay:       500 * time.Millisecond,
		summaryProvider: "gemini",
		summaryModel:    provider.DefaultGeminiModel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateAgent validates an agent's template and persists it.
func (e *Engine) CreateAgent(agent *core.Agent) (*core.Agent, error) {
	if agent.ProfileID == "" {
		return nil, fmt.Errorf("profile id is required")
	}
	profile, err := e.storage.GetProfile(agent.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	parsed, err := template.Parse(agent.PromptRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid agent template: %w", err)
	}
	if agent.Name == "" {
		agent.Name = parsed.AgentName
	}
	if agent.Role == "" {
		agent.Role = parsed.Role
	}
	if agent.Model == "" {
		agent.Model = parsed.ModelPreference
	}

	if agent.Temperature == 0 {
		agent.Temperature = core.DefaultTemperature
	}
	agent.Temperature = core.ClampTemperature(agent.Temperature)
	if agent.MaxTokens == 0 {
		agent.MaxTokens = core.DefaultMaxTokens
	}
	agent.MaxTokens = core.ClampMaxTokens(agent.MaxTokens)

	now := time.Now()
	agent.ID = core.GenerateID()
	agent.IsActive = true
	agent.CreatedAt = now
	agent.UpdatedAt = now

	if err := e.storage.CreateAgent(agent); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return agent, nil
}

// CreateSession creates a new debate session in the pending state.
func (e *Engine) CreateSession(config core.NewSessionConfig) (*core.Session, error) {
	slog.Debug("Creating new session", "topic", config.Topic, "agents", len(config.AgentIDs))

	profile, err := e.storage.GetProfile(config.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	if len(config.AgentIDs) < 2 {
		return nil, ErrTooFewParticipants
	}
	if _, err := e.storage.GetAgents(config.AgentIDs); err != nil {
		return nil, err
	}

	format := config.Format
	if format == "" {
		format = core.FormatTurnBased
	}
	if !format.Valid() {
		return nil, fmt.Errorf("invalid debate format: %s", format)
	}

	maxTurns := config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = core.DefaultMaxTurns
	}
	if maxTurns > core.MaxMaxTurns {
		maxTurns = core.MaxMaxTurns
	}

	session := &core.Session{
		ID:        core.GenerateID(),
		ProfileID: config.ProfileID,
		Title:     config.Title,
		Topic:     config.Topic,
		Format:    format,
		AgentIDs:  config.AgentIDs,
		MaxTurns:  maxTurns,
		Status:    core.StatusPending,
		CreatedAt: time.Now(),
	}

	if err := e.storage.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (e *Engine) GetSession(id string) (*core.Session, error) {
	return e.storage.GetSession(id)
}

// GetSessionWithTurns retrieves a session with its full transcript.
func (e *Engine) GetSessionWithTurns(id string) (*core.Session, []*core.Turn, error) {
	session, err := e.storage.GetSession(id)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, nil
	}

	turns, err := e.storage.GetTurns(id)
	if err != nil {
		return nil, nil, err
	}

	return session, turns, nil
}

// ListSessions returns session summaries for a profile.
func (e *Engine) ListSessions(profileID string, limit, offset int) ([]*core.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	return e.storage.ListSessions(profileID, limit, offset)
}

// DeleteSession deletes a session and its turns.
func (e *Engine) DeleteSession(id string) error {
	return e.storage.DeleteSession(id)
}

// EmitFunc receives events in generation order during a run.
type EmitFunc func(core.Event)

// Run executes a debate from start to finish, emitting events as they occur.
// Precondition failures are returned before any state changes; per-agent
// generation failures are reported as error events and skip that agent's
// turn without stopping the run.
func (e *Engine) Run(ctx context.Context, sessionID string, emit EmitFunc) error {
	session, participants, err := e.prepare(sessionID)
	if err != nil {
		return err
	}
	if emit == nil {
		emit = func(core.Event) {}
	}

	now := time.Now()
	session.Status = core.StatusActive
	session.StartedAt = &now
	if err := e.storage.UpdateSession(session); err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	slog.Info("Debate started", "session_id", session.ID, "topic", session.Topic, "agents", len(participants), "max_turns", session.MaxTurns)
	if session.Format != core.FormatTurnBased {
		slog.Info("Falling back to turn-based scheduling", "session_id", session.ID, "format", session.Format)
	}

	agents := make(map[string]*core.Agent, len(participants))
	for _, p := range participants {
		agents[p.Agent.ID] = p.Agent
	}

	contextMessage := fmt.Sprintf(contextMessageFormat, session.Topic)
	var transcript []*core.Turn

	for turn := 0; turn < session.MaxTurns; turn++ {
		for idx, p := range participants {
			if err := ctx.Err(); err != nil {
				return err
			}

			var prompt string
			switch {
			case turn == 0 && idx == 0:
				prompt = contextMessage + "\n\n" + openingPrompt
			case turn == 0:
				prompt = contextMessage + "\n\n" + joinPrompt
			default:
				prompt = continuationPrompt
			}

			if window := FormatWindow(transcript, agents, e.windowSize); window != "" {
				prompt = window + "\n\n" + prompt
			}

			start := time.Now()
			content, err := p.Client.Generate(ctx, provider.Request{
				Prompt:       prompt,
				SystemPrompt: p.SystemPrompt,
				Temperature:  p.Temperature,
				MaxTokens:    p.MaxTokens,
			})
			if err != nil {
				slog.Error("Agent generation failed", "session_id", session.ID, "agent", p.Agent.Name, "turn", turn, "error", err)
				index := turn
				emit(core.Event{
					Type:      core.EventError,
					AgentID:   p.Agent.ID,
					AgentName: p.Agent.Name,
					TurnIndex: &index,
					Message:   fmt.Sprintf("agent %s failed to respond: %v", p.Agent.Name, err),
				})
				continue
			}

			record := &core.Turn{
				ID:        core.GenerateID(),
				SessionID: session.ID,
				AgentID:   p.Agent.ID,
				TurnIndex: turn,
				Content:   content,
				LatencyMS: time.Since(start).Milliseconds(),
				CreatedAt: time.Now(),
			}
			if err := e.storage.AddTurn(record); err != nil {
				return fmt.Errorf("failed to save turn: %w", err)
			}
			transcript = append(transcript, record)

			emit(core.TurnEvent(record, p.Agent))

			// Pacing between responses
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.turnDelay):
			}
		}
	}

	result, err := e.synthesize(ctx, session, transcript, agents)
	if err != nil {
		slog.Error("Failed to generate summary", "session_id", session.ID, "error", err)
		emit(core.Event{Type: core.EventError, Message: fmt.Sprintf("failed to generate summary: %v", err)})
	} else {
		session.Summary = result.Summary
		emit(core.Event{Type: core.EventSummary, Summary: result})
	}

	done := time.Now()
	session.Status = core.StatusCompleted
	session.CompletedAt = &done
	if err := e.storage.UpdateSession(session); err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	emit(core.Event{Type: core.EventComplete})
	slog.Info("Debate completed", "session_id", session.ID, "turns", len(transcript))
	return nil
}

// Stream validates preconditions synchronously, then runs the debate in the
// background and delivers events on the returned channel. The channel is
// closed when the run finishes.
func (e *Engine) Stream(ctx context.Context, sessionID string) (<-chan core.Event, error) {
	if _, _, err := e.prepare(sessionID); err != nil {
		return nil, err
	}

	events := make(chan core.Event, 16)
	go func() {
		defer close(events)
		err := e.Run(ctx, sessionID, func(ev core.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			select {
			case events <- core.Event{Type: core.EventError, Message: err.Error()}:
			case <-ctx.Done():
			}
		}
	}()
	return events, nil
}

// prepare loads and validates everything a run needs without mutating state.
func (e *Engine) prepare(sessionID string) (*core.Session, []*Participant, error) {
	session, err := e.storage.GetSession(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}
	if session.Status != core.StatusPending {
		return nil, nil, ErrSessionNotPending
	}

	profile, err := e.storage.GetProfile(session.ProfileID)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, ErrProfileNotFound
	}

	agents, err := e.storage.GetAgents(session.AgentIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(agents) < 2 {
		return nil, nil, ErrTooFewParticipants
	}

	vars := SubstitutionContext(profile, session.Topic)
	participants := make([]*Participant, 0, len(agents))
	for _, agent := range agents {
		p, err := ResolveParticipant(agent, e.factory, vars)
		if err != nil {
			return nil, nil, err
		}
		participants = append(participants, p)
	}

	return session, participants, nil
}
