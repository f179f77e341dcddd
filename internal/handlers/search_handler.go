package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/interfaces"
	"github.com/ternarybob/trammate/internal/models"
)

// SearchHandler exposes the retrieval pipeline without generation, for
// inspecting what the answer would be grounded on.
type SearchHandler struct {
	retriever interfaces.RetrieverService
	logger    arbor.ILogger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(retriever interfaces.RetrieverService, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		retriever: retriever,
		logger:    logger,
	}
}

type searchRequest struct {
	Query   string               `json:"query"`
	TopK    int                  `json:"top_k,omitempty"`
	FetchK  int                  `json:"fetch_k,omitempty"`
	Lambda  *float32             `json:"mmr_lambda,omitempty"`
	Filters []models.FieldFilter `json:"filters,omitempty"`
}

// SearchHandler handles POST /api/search requests
func (h *SearchHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode search request")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Query field is required",
		})
		return
	}

	chunks, err := h.retriever.Retrieve(r.Context(), req.Query, interfaces.RetrievalParams{
		TopK:    req.TopK,
		FetchK:  req.FetchK,
		Lambda:  req.Lambda,
		Filters: req.Filters,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Search retrieval failed")
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(chunks),
		"chunks":  chunks,
	})
}
