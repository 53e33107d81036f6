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
// 🏛️ 政策状态直通 Handler
// =============================================================================

// PolicyDirectory 政策状态协作方（Federal Register 客户端实现）
type PolicyDirectory interface {
	CheckStatus(ctx context.Context, identifier string) types.PolicyStatus
	RecentDocuments(ctx context.Context, days, perPage int) ([]types.PolicyDocSummary, error)
}

// PolicyHandler Federal Register 直通处理器
type PolicyHandler struct {
	directory PolicyDirectory
	logger    *zap.Logger
}

// NewPolicyHandler 创建政策状态处理器
func NewPolicyHandler(directory PolicyDirectory, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{
		directory: directory,
		logger:    logger,
	}
}

// HandleStatus 处理政策状态直查
// @Summary 政策状态
// @Description 绕过问答管线直接查询 Federal Register 文档状态
// @Tags 政策
// @Produce json
// @Param identifier query string true "政策标识（文号或名称）"
// @Success 200 {object} Response "政策状态"
// @Failure 400 {object} Response "无效请求"
// @Security ApiKeyAuth
// @Router /api/v1/policy/status [get]
func (h *PolicyHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if h.directory == nil {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrConfig, "policy-status API not configured", h.logger)
		return
	}

	identifier := strings.TrimSpace(r.URL.Query().Get("identifier"))
	if identifier == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "identifier is required", h.logger)
		return
	}

	status := h.directory.CheckStatus(r.Context(), identifier)
	WriteSuccess(w, r, status)
}

// HandleRecent 处理近期政策文档列表
// @Summary 近期政策文档
// @Description 列出最近 N 天内发布的 Federal Register 文档
// @Tags 政策
// @Produce json
// @Param days query int false "回溯天数（默认 7）"
// @Success 200 {object} Response "文档列表"
// @Security ApiKeyAuth
// @Router /api/v1/policy/recent [get]
func (h *PolicyHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if h.directory == nil {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrConfig, "policy-status API not configured", h.logger)
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "days must be a positive integer", h.logger)
			return
		}
		days = parsed
	}

	docs, err := h.directory.RecentDocuments(r.Context(), days, 20)
	if err != nil {
		apiErr := types.NewError(types.ErrAPIError, "failed to fetch recent documents").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	WriteSuccess(w, r, map[string]any{
		"days":      days,
		"documents": docs,
		"count":     len(docs),
	})
}
