package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/models"
)

func TestSearchHandlerReturnsChunks(t *testing.T) {
	h := NewSearchHandler(&fixedRetriever{chunks: retrievedChunks()}, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"route 96","top_k":3}`))
	rec := httptest.NewRecorder()
	h.SearchHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
}

func TestSearchHandlerValidation(t *testing.T) {
	h := NewSearchHandler(&fixedRetriever{}, common.GetLogger())

	rec := httptest.NewRecorder()
	h.SearchHandler(rec, httptest.NewRequest(http.MethodGet, "/api/search", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.SearchHandler(rec, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandlerRetrievalError(t *testing.T) {
	h := NewSearchHandler(&fixedRetriever{err: models.ErrIndexNotFound}, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"route 96"}`))
	rec := httptest.NewRecorder()
	h.SearchHandler(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
