package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/policynav/policynav/navigator"
	"github.com/policynav/policynav/types"
)

// =============================================================================
// 🗂️ 会话历史 Handler
// =============================================================================

// HistoryHandler 会话历史处理器
type HistoryHandler struct {
	nav    *navigator.Navigator
	logger *zap.Logger
}

// NewHistoryHandler 创建会话历史处理器
func NewHistoryHandler(nav *navigator.Navigator, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		nav:    nav,
		logger: logger,
	}
}

// HandleHistory 处理会话历史的查询与清空
// @Summary 会话历史
// @Description GET 返回完整会话历史，DELETE 清空
// @Tags 历史
// @Produce json
// @Success 200 {object} Response "历史记录"
// @Security ApiKeyAuth
// @Router /api/v1/history [get]
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		records := h.nav.History()
		WriteSuccess(w, r, map[string]any{
			"records": records,
			"count":   len(records),
		})

	case http.MethodDelete:
		h.nav.ClearHistory()
		h.logger.Info("conversation history cleared")
		WriteSuccess(w, r, map[string]bool{"cleared": true})

	default:
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
	}
}
