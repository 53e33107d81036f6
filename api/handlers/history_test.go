package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 HistoryHandler 测试
// =============================================================================

func TestHistoryHandler_GetAndClear(t *testing.T) {
	nav := newTestNavigator(t)
	nav.Query(context.Background(), "what is gdpr?")

	h := NewHistoryHandler(nav, zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	h.HandleHistory(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), data["count"])

	records, ok := data["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 2)
	first, ok := records[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "what is gdpr?", first["content"])

	// 清空
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodDelete, "/api/v1/history", nil)
	h.HandleHistory(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	h.HandleHistory(w, r)
	resp = decodeEnvelope(t, w)
	data, ok = resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), data["count"])
}

func TestHistoryHandler_MethodNotAllowed(t *testing.T) {
	h := NewHistoryHandler(newTestNavigator(t), zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/history", nil)
	h.HandleHistory(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
