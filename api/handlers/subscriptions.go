package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/policynav/policynav/api"
	"github.com/policynav/policynav/notify"
	"github.com/policynav/policynav/types"
)

// =============================================================================
// 🔔 政策订阅 Handler
// =============================================================================

// SubscriptionsHandler 政策订阅处理器
type SubscriptionsHandler struct {
	actions *notify.ActionAgent
	logger  *zap.Logger
}

// NewSubscriptionsHandler 创建订阅处理器
func NewSubscriptionsHandler(actions *notify.ActionAgent, logger *zap.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{
		actions: actions,
		logger:  logger,
	}
}

func (h *SubscriptionsHandler) unavailable(w http.ResponseWriter) bool {
	if h.actions == nil || !h.actions.Store().Persistent() {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrDatabase,
			"subscriptions require a configured database", h.logger)
		return true
	}
	return false
}

// HandleSubscriptions 处理订阅的创建与列表
// @Summary 政策订阅
// @Description POST 创建订阅（并向频道发确认消息），GET 列出活跃订阅
// @Tags 订阅
// @Accept json
// @Produce json
// @Param request body api.SubscriptionRequest true "订阅请求"
// @Success 200 {object} Response "订阅"
// @Failure 400 {object} Response "无效请求"
// @Failure 503 {object} Response "未配置数据库"
// @Security ApiKeyAuth
// @Router /api/v1/subscriptions [post]
func (h *SubscriptionsHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
	}
}

func (h *SubscriptionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.SubscriptionRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.PolicyID) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "policy_id is required", h.logger)
		return
	}

	sub, ok := h.actions.CreateSubscription(r.Context(), req.PolicyID, req.Email, req.Channel, req.Frequency)
	if !ok {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrDatabase, "failed to persist subscription", h.logger)
		return
	}

	h.logger.Info("subscription created",
		zap.Uint("id", sub.ID),
		zap.String("policy_id", sub.PolicyID))
	WriteSuccess(w, r, sub)
}

func (h *SubscriptionsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	subs, err := h.actions.Store().ListSubscriptions(r.Context(), true)
	if err != nil {
		apiErr := types.NewError(types.ErrDatabase, "failed to list subscriptions").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	WriteSuccess(w, r, map[string]any{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

// HandleDeactivate 处理订阅退订
// @Summary 订阅退订
// @Description 按 ID 停用一条订阅（软删除）
// @Tags 订阅
// @Produce json
// @Param id path int true "订阅 ID"
// @Success 200 {object} Response "退订结果"
// @Failure 400 {object} Response "无效请求"
// @Failure 404 {object} Response "订阅不存在"
// @Security ApiKeyAuth
// @Router /api/v1/subscriptions/{id} [delete]
func (h *SubscriptionsHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if h.unavailable(w) {
		return
	}

	id, ok := extractSubscriptionID(r)
	if !ok {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "invalid subscription ID", h.logger)
		return
	}

	if err := h.actions.Store().DeactivateSubscription(r.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteErrorMessage(w, http.StatusNotFound, types.ErrNotFound, "subscription not found", h.logger)
			return
		}
		apiErr := types.NewError(types.ErrDatabase, "failed to deactivate subscription").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	h.logger.Info("subscription deactivated", zap.Uint("id", id))
	WriteSuccess(w, r, map[string]any{"id": id, "active": false})
}

// extractSubscriptionID 从请求中提取订阅 ID（Go 1.22+ PathValue 优先，回退到路径解析）
func extractSubscriptionID(r *http.Request) (uint, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/subscriptions/")
		if path == "" || path == r.URL.Path || strings.Contains(path, "/") {
			return 0, false
		}
		idStr = path
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
