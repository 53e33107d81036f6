package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/policynav/policynav/types"
)

// =============================================================================
// ⚖️ 判例检索直通 Handler
// =============================================================================

// CaseSearcher 判例检索协作方（CourtListener 客户端实现）
type CaseSearcher interface {
	SearchCases(ctx context.Context, query string, limit int) ([]types.CaseItem, *types.Error)
}

// CasesHandler CourtListener 直通处理器
type CasesHandler struct {
	searcher CaseSearcher
	logger   *zap.Logger
}

// NewCasesHandler 创建判例检索处理器
func NewCasesHandler(searcher CaseSearcher, logger *zap.Logger) *CasesHandler {
	return &CasesHandler{
		searcher: searcher,
		logger:   logger,
	}
}

// HandleSearch 处理判例检索
// @Summary 判例检索
// @Description 绕过问答管线直接检索 CourtListener 判例
// @Tags 判例
// @Produce json
// @Param q query string true "检索词"
// @Param limit query int false "返回条数（默认 5）"
// @Success 200 {object} Response "判例列表"
// @Failure 400 {object} Response "无效请求"
// @Security ApiKeyAuth
// @Router /api/v1/cases/search [get]
func (h *CasesHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if h.searcher == nil {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrConfig, "case-law API not configured", h.logger)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "q is required", h.logger)
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "limit must be a positive integer", h.logger)
			return
		}
		limit = parsed
	}

	cases, apiErr := h.searcher.SearchCases(r.Context(), query, limit)

	// 降级时 cases 已携带内置回退集：照常返回，附带 degraded 标记
	resp := map[string]any{
		"cases":    cases,
		"count":    len(cases),
		"degraded": apiErr != nil,
	}
	if apiErr != nil {
		h.logger.Warn("case-law search degraded",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message))
	}

	WriteSuccess(w, r, resp)
}
