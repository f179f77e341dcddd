package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/interfaces"
)

// StatusHandler reports service health and index state
type StatusHandler struct {
	storage   interfaces.IndexStorage
	llm       interfaces.LLMService
	indexName string
	logger    arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(storage interfaces.IndexStorage, llm interfaces.LLMService,
	indexName string, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		storage:   storage,
		llm:       llm,
		indexName: indexName,
		logger:    logger,
	}
}

// StatusHandler handles GET /api/status requests
func (h *StatusHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := map[string]interface{}{
		"service": "trammate",
		"version": common.GetVersion(),
	}

	manifest, err := h.storage.Manifest(h.indexName)
	if err != nil {
		body["index"] = map[string]interface{}{
			"name":  h.indexName,
			"ready": false,
			"error": err.Error(),
		}
	} else {
		body["index"] = map[string]interface{}{
			"name":      manifest.Name,
			"ready":     true,
			"model":     manifest.Model,
			"dimension": manifest.Dimension,
			"vectors":   manifest.Count,
			"built_at":  manifest.BuiltAt,
		}
	}

	if err := h.llm.HealthCheck(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("LLM health check failed")
		body["llm"] = map[string]interface{}{"healthy": false, "error": err.Error()}
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["llm"] = map[string]interface{}{"healthy": true, "embed_model": h.llm.EmbeddingModel()}

	writeJSON(w, http.StatusOK, body)
}
