package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/policynav/policynav/api"
	"github.com/policynav/policynav/navigator"
	"github.com/policynav/policynav/types"
)

// =============================================================================
// 💬 问答查询 Handler
// =============================================================================

// QueryHandler 政策问答处理器
type QueryHandler struct {
	nav    *navigator.Navigator
	logger *zap.Logger
}

// NewQueryHandler 创建问答处理器
func NewQueryHandler(nav *navigator.Navigator, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		nav:    nav,
		logger: logger,
	}
}

// HandleQuery 处理政策问答请求
// @Summary 政策问答
// @Description 对一条自然语言政策问题执行分类 → 检索 → API 调用 → 合成管线
// @Tags 问答
// @Accept json
// @Produce json
// @Param request body api.QueryRequest true "问答请求"
// @Success 200 {object} Response "合成回答"
// @Failure 400 {object} Response "无效请求"
// @Security ApiKeyAuth
// @Router /api/v1/query [post]
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.QueryRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "query is required", h.logger)
		return
	}

	start := time.Now()
	resp := h.nav.Query(r.Context(), req.Query)

	h.logger.Info("query answered",
		zap.String("intent", string(resp.Metadata.Intent)),
		zap.Int("documents", resp.Metadata.RetrievedDocsCount),
		zap.Float64("confidence", resp.Confidence),
		zap.Duration("duration", time.Since(start)),
	)

	WriteSuccess(w, r, resp)
}
