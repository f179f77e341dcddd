package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/models"
	"github.com/ternarybob/trammate/internal/services/answer"
)

// AskHandler handles question answering HTTP requests
type AskHandler struct {
	orchestrator *answer.Orchestrator
	logger       arbor.ILogger
	upgrader     websocket.Upgrader
}

// NewAskHandler creates a new ask handler
func NewAskHandler(orchestrator *answer.Orchestrator, logger arbor.ILogger) *AskHandler {
	return &AskHandler{
		orchestrator: orchestrator,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// AskHandler handles POST /api/ask requests
func (h *AskHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode ask request")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Question field is required",
		})
		return
	}

	h.logger.Info().
		Int("question_length", len(req.Question)).
		Int("filters", len(req.Filters)).
		Msg("Processing ask request")

	ans := h.orchestrator.Ask(r.Context(), &req, nil)
	if ans.State == models.StateFailed {
		h.logger.Error().Err(ans.Err).Str("request_id", ans.RequestID).Msg("Ask request failed")
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"success":    false,
			"state":      ans.State,
			"request_id": ans.RequestID,
			"error":      ans.Err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"answer":     ans.Text,
		"state":      ans.State,
		"source":     ans.Source,
		"chunks":     ans.Chunks,
		"request_id": ans.RequestID,
	})
}

// streamFrame is one websocket message on the ask stream. Type is
// "token", "done", or "error".
type streamFrame struct {
	Type      string              `json:"type"`
	Token     string              `json:"token,omitempty"`
	State     models.AnswerState  `json:"state,omitempty"`
	Source    models.AnswerSource `json:"source,omitempty"`
	Chunks    []models.Chunk      `json:"chunks,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// StreamHandler handles GET /api/ask/stream websocket requests. The
// client sends one AskRequest JSON message, receives token frames as the
// answer streams, and finally a done or error frame.
func (h *AskHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req models.AskRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read ask request from websocket")
		conn.WriteJSON(streamFrame{Type: "error", Error: "Invalid request message"})
		return
	}
	if req.Question == "" {
		conn.WriteJSON(streamFrame{Type: "error", Error: "Question field is required"})
		return
	}

	ans := h.orchestrator.Ask(r.Context(), &req, func(token string) error {
		return conn.WriteJSON(streamFrame{Type: "token", Token: token})
	})

	if ans.State == models.StateFailed {
		h.logger.Error().Err(ans.Err).Str("request_id", ans.RequestID).Msg("Streamed ask request failed")
		conn.WriteJSON(streamFrame{
			Type:      "error",
			State:     ans.State,
			RequestID: ans.RequestID,
			Error:     ans.Err.Error(),
		})
		return
	}

	conn.WriteJSON(streamFrame{
		Type:      "done",
		State:     ans.State,
		Source:    ans.Source,
		Chunks:    ans.Chunks,
		RequestID: ans.RequestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
