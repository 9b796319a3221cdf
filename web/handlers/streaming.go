package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anushtup-nandy/roundtable/internal/core"
	"github.com/anushtup-nandy/roundtable/internal/engine"
)

// streamTimeout bounds how long a single debate run may stream.
const streamTimeout = 30 * time.Minute

// handleStartDebate runs a pending session and streams its events using
// Server-Sent Events. Precondition failures are reported as plain JSON
// errors before any streaming begins.
func (h *Handler) handleStartDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("New debate stream connection", "session_id", id, "remote_addr", r.RemoteAddr)

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), streamTimeout)
	defer cancel()

	events, err := h.engine.Stream(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrSessionNotFound):
			h.jsonError(w, "session not found", http.StatusNotFound)
		case errors.Is(err, engine.ErrSessionNotPending):
			h.jsonError(w, "session already started or completed", http.StatusBadRequest)
		default:
			h.jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	for event := range events {
		h.sendSSEEvent(w, flusher, event)
	}
}

// sendSSEEvent writes a single event in SSE framing.
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event core.Event) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		slog.Error("Failed to write SSE data", "error", err)
		return
	}
	flusher.Flush()
}
