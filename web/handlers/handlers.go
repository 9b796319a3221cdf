// Package handlers provides the HTTP API for roundtable.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anushtup-nandy/roundtable/internal/core"
	"github.com/anushtup-nandy/roundtable/internal/engine"
	"github.com/anushtup-nandy/roundtable/internal/export"
	"github.com/anushtup-nandy/roundtable/internal/storage"
	"github.com/anushtup-nandy/roundtable/internal/template"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine  *engine.Engine
	storage storage.Storage
}

// New creates a new Handler.
func New(store storage.Storage, eng *engine.Engine) *Handler {
	return &Handler{
		engine:  eng,
		storage: store,
	}
}

// Router builds the HTTP router with all API routes registered.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/validate-prompt", h.handleValidatePrompt)
		r.Get("/prompt-template", h.handlePromptTemplate)

		r.Post("/profiles", h.handleCreateProfile)
		r.Get("/profiles", h.handleListProfiles)
		r.Get("/profiles/by-email/{email}", h.handleGetProfileByEmail)
		r.Get("/profiles/{id}", h.handleGetProfile)
		r.Put("/profiles/{id}", h.handleUpdateProfile)

		r.Post("/profiles/{id}/agents", h.handleCreateAgent)
		r.Get("/profiles/{id}/agents", h.handleListAgents)
		r.Get("/agents/{id}", h.handleGetAgent)
		r.Patch("/agents/{id}", h.handleUpdateAgent)
		r.Delete("/agents/{id}", h.handleDeleteAgent)

		r.Post("/profiles/{id}/debates", h.handleCreateSession)
		r.Get("/profiles/{id}/debates", h.handleListSessions)
		r.Get("/debates/{id}", h.handleGetSession)
		r.Delete("/debates/{id}", h.handleDeleteSession)
		r.Get("/debates/{id}/start", h.handleStartDebate)
		r.Get("/debates/{id}/export/{format}", h.handleExportSession)
	})

	return r
}

// Utility endpoints

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.json(w, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (h *Handler) handleValidatePrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RawPrompt string `json:"raw_prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	valid, errMessage := template.Validate(req.RawPrompt)
	h.json(w, map[string]any{
		"is_valid":      valid,
		"variables":     template.ExtractVariables(req.RawPrompt),
		"error_message": errMessage,
	})
}

func (h *Handler) handlePromptTemplate(w http.ResponseWriter, r *http.Request) {
	h.json(w, map[string]string{"template": template.DefaultAgentTemplate})
}

// Profile endpoints

type profileRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	ProfileSummary string   `json:"profile_summary"`
	ExpertiseAreas []string `json:"expertise_areas"`
	RiskTolerance  string   `json:"risk_tolerance"`
	DecisionStyle  string   `json:"decision_style"`
}

func (h *Handler) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" {
		h.jsonError(w, "name and email are required", http.StatusBadRequest)
		return
	}

	existing, err := h.storage.GetProfileByEmail(req.Email)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if existing != nil {
		h.jsonError(w, "profile with this email already exists", http.StatusConflict)
		return
	}

	now := time.Now()
	profile := &core.Profile{
		ID:             core.GenerateID(),
		Name:           req.Name,
		Email:          req.Email,
		ProfileSummary: req.ProfileSummary,
		ExpertiseAreas: req.ExpertiseAreas,
		RiskTolerance:  req.RiskTolerance,
		DecisionStyle:  req.DecisionStyle,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if profile.ExpertiseAreas == nil {
		profile.ExpertiseAreas = []string{}
	}

	if err := h.storage.CreateProfile(profile); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Profile created", "profile_id", profile.ID, "email", profile.Email)
	h.jsonStatus(w, http.StatusCreated, profile)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.storage.GetProfile(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if profile == nil {
		h.jsonError(w, "profile not found", http.StatusNotFound)
		return
	}
	h.json(w, profile)
}

func (h *Handler) handleGetProfileByEmail(w http.ResponseWriter, r *http.Request) {
	profile, err := h.storage.GetProfileByEmail(chi.URLParam(r, "email"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if profile == nil {
		h.jsonError(w, "profile not found", http.StatusNotFound)
		return
	}
	h.json(w, profile)
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.storage.ListProfiles()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if profiles == nil {
		profiles = []*core.Profile{}
	}
	h.json(w, profiles)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.storage.GetProfile(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if profile == nil {
		h.jsonError(w, "profile not found", http.StatusNotFound)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Name != "" {
		profile.Name = req.Name
	}
	if req.Email != "" {
		profile.Email = req.Email
	}
	if req.ProfileSummary != "" {
		profile.ProfileSummary = req.ProfileSummary
	}
	if req.ExpertiseAreas != nil {
		profile.ExpertiseAreas = req.ExpertiseAreas
	}
	if req.RiskTolerance != "" {
		profile.RiskTolerance = req.RiskTolerance
	}
	if req.DecisionStyle != "" {
		profile.DecisionStyle = req.DecisionStyle
	}

	if err := h.storage.UpdateProfile(profile); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.json(w, profile)
}

// Agent endpoints

type agentRequest struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Description string   `json:"description"`
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	PromptRaw   string   `json:"system_prompt_raw"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
	IsActive    *bool    `json:"is_active"`
}

func (h *Handler) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PromptRaw == "" {
		h.jsonError(w, "system_prompt_raw is required", http.StatusBadRequest)
		return
	}

	agent := &core.Agent{
		ProfileID:   chi.URLParam(r, "id"),
		Name:        req.Name,
		Role:        req.Role,
		Description: req.Description,
		Provider:    req.Provider,
		Model:       req.Model,
		PromptRaw:   req.PromptRaw,
	}
	if req.Temperature != nil {
		agent.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		agent.MaxTokens = *req.MaxTokens
	}

	created, err := h.engine.CreateAgent(agent)
	if err != nil {
		if errors.Is(err, engine.ErrProfileNotFound) {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Info("Agent created", "agent_id", created.ID, "name", created.Name, "provider", created.Provider)
	h.jsonStatus(w, http.StatusCreated, created)
}

func (h *Handler) handleListAgents(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") == "true"
	agents, err := h.storage.ListAgents(chi.URLParam(r, "id"), activeOnly)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if agents == nil {
		agents = []*core.Agent{}
	}
	h.json(w, agents)
}

func (h *Handler) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.storage.GetAgent(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if agent == nil {
		h.jsonError(w, "agent not found", http.StatusNotFound)
		return
	}
	h.json(w, agent)
}

func (h *Handler) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.storage.GetAgent(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if agent == nil {
		h.jsonError(w, "agent not found", http.StatusNotFound)
		return
	}

	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.PromptRaw != "" {
		if valid, errMessage := template.Validate(req.PromptRaw); !valid {
			h.jsonError(w, errMessage, http.StatusBadRequest)
			return
		}
		agent.PromptRaw = req.PromptRaw
	}
	if req.Name != "" {
		agent.Name = req.Name
	}
	if req.Role != "" {
		agent.Role = req.Role
	}
	if req.Description != "" {
		agent.Description = req.Description
	}
	if req.Provider != "" {
		agent.Provider = req.Provider
	}
	if req.Model != "" {
		agent.Model = req.Model
	}
	if req.Temperature != nil {
		agent.Temperature = core.ClampTemperature(*req.Temperature)
	}
	if req.MaxTokens != nil {
		agent.MaxTokens = core.ClampMaxTokens(*req.MaxTokens)
	}
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}

	if err := h.storage.UpdateAgent(agent); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.json(w, agent)
}

func (h *Handler) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.DeleteAgent(chi.URLParam(r, "id")); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session endpoints

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string   `json:"title"`
		Topic    string   `json:"topic"`
		Format   string   `json:"debate_format"`
		AgentIDs []string `json:"agent_ids"`
		MaxTurns int      `json:"max_turns"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Topic == "" {
		h.jsonError(w, "topic is required", http.StatusBadRequest)
		return
	}

	session, err := h.engine.CreateSession(core.NewSessionConfig{
		ProfileID: chi.URLParam(r, "id"),
		Title:     req.Title,
		Topic:     req.Topic,
		Format:    core.DebateFormat(req.Format),
		AgentIDs:  req.AgentIDs,
		MaxTurns:  req.MaxTurns,
	})
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrProfileNotFound):
			h.jsonError(w, err.Error(), http.StatusNotFound)
		default:
			h.jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	slog.Info("Session created", "session_id", session.ID, "topic", session.Topic)
	h.jsonStatus(w, http.StatusCreated, session)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sessions, err := h.engine.ListSessions(chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []*core.SessionSummary{}
	}
	h.json(w, sessions)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, turns, err := h.engine.GetSessionWithTurns(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if session == nil {
		h.jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	if turns == nil {
		turns = []*core.Turn{}
	}
	h.json(w, map[string]any{
		"session": session,
		"turns":   turns,
	})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSession(chi.URLParam(r, "id")); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")

	session, turns, err := h.engine.GetSessionWithTurns(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if session == nil {
		h.jsonError(w, "session not found", http.StatusNotFound)
		return
	}

	agents, err := h.storage.GetAgents(session.AgentIDs)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	exporter, err := export.GetExporter(export.Format(format))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := export.GenerateFilename(session, exporter.FileExtension())

	switch format {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/markdown")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	if err := exporter.Export(session, agents, turns, w); err != nil {
		slog.Error("Export failed", "session_id", id, "format", format, "error", err)
		http.Error(w, "Export failed", http.StatusInternalServerError)
	}
}

// JSON helpers

func (h *Handler) json(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
