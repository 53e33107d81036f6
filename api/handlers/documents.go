package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/policynav/policynav/api"
	"github.com/policynav/policynav/navigator"
	"github.com/policynav/policynav/rag"
	"github.com/policynav/policynav/types"
)

// =============================================================================
// 📄 文档管理 Handler
// =============================================================================

// DocumentsHandler 政策文档管理处理器
type DocumentsHandler struct {
	nav    *navigator.Navigator
	logger *zap.Logger
}

// NewDocumentsHandler 创建文档管理处理器
func NewDocumentsHandler(nav *navigator.Navigator, logger *zap.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		nav:    nav,
		logger: logger,
	}
}

// HandleAdd 处理单篇文档入库
// @Summary 文档入库
// @Description 向向量库写入一篇政策文档（缺省 ID 生成 doc-<uuid>）
// @Tags 文档
// @Accept json
// @Produce json
// @Param request body api.DocumentRequest true "文档"
// @Success 200 {object} Response "入库结果"
// @Failure 400 {object} Response "无效请求"
// @Security ApiKeyAuth
// @Router /api/v1/documents [post]
func (h *DocumentsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.DocumentRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "content is required", h.logger)
		return
	}

	id := req.ID
	if id == "" {
		id = "doc-" + uuid.NewString()
	}

	if err := h.nav.AddDocument(r.Context(), id, req.Content, req.Metadata); err != nil {
		apiErr := types.NewError(types.ErrVectorStore, "failed to index document").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	h.logger.Info("document indexed", zap.String("id", id))
	WriteSuccess(w, r, api.DocumentResponse{ID: id})
}

// HandleAddBatch 处理批量文档入库
// @Summary 批量文档入库
// @Description 批量写入政策文档，返回实际入库条数
// @Tags 文档
// @Accept json
// @Produce json
// @Param request body api.BatchDocumentsRequest true "文档列表"
// @Success 200 {object} Response "入库条数"
// @Failure 400 {object} Response "无效请求"
// @Security ApiKeyAuth
// @Router /api/v1/documents/batch [post]
func (h *DocumentsHandler) HandleAddBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.BatchDocumentsRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if len(req.Documents) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "documents is required", h.logger)
		return
	}

	docs := make([]rag.Document, 0, len(req.Documents))
	for i, d := range req.Documents {
		if strings.TrimSpace(d.Content) == "" {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
				"documents["+strconv.Itoa(i)+"]: content is required", h.logger)
			return
		}
		id := d.ID
		if id == "" {
			id = "doc-" + uuid.NewString()
		}
		docs = append(docs, rag.Document{ID: id, Content: d.Content, Metadata: d.Metadata})
	}

	count, err := h.nav.AddDocuments(r.Context(), docs)
	if err != nil {
		apiErr := types.NewError(types.ErrVectorStore, "failed to index documents").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	h.logger.Info("documents indexed", zap.Int("input", len(docs)), zap.Int("stored", count))
	WriteSuccess(w, r, api.BatchDocumentsResponse{Stored: count})
}

// HandleDelete 处理文档删除
// @Summary 文档删除
// @Description 按 ID 删除向量库中的文档
// @Tags 文档
// @Produce json
// @Param id path string true "文档 ID"
// @Success 200 {object} Response "删除结果"
// @Failure 400 {object} Response "无效请求"
// @Security ApiKeyAuth
// @Router /api/v1/documents/{id} [delete]
func (h *DocumentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	id := extractDocumentID(r)
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "document id is required", h.logger)
		return
	}

	if err := h.nav.DeleteDocument(r.Context(), id); err != nil {
		apiErr := types.NewError(types.ErrVectorStore, "failed to delete document").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	h.logger.Info("document deleted", zap.String("id", id))
	WriteSuccess(w, r, api.DocumentResponse{ID: id})
}

// HandleStats 处理向量库统计查询
// @Summary 向量库统计
// @Description 返回已入库文档数与向量维度
// @Tags 文档
// @Produce json
// @Success 200 {object} Response "统计信息"
// @Security ApiKeyAuth
// @Router /api/v1/documents/stats [get]
func (h *DocumentsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	stats, err := h.nav.Stats(r.Context())
	if err != nil {
		apiErr := types.NewError(types.ErrVectorStore, "failed to read stats").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	WriteSuccess(w, r, api.StatsResponse{
		DocumentCount:      stats.Count,
		EmbeddingDimension: stats.Dimension,
	})
}

// extractDocumentID 从请求中提取文档 ID（Go 1.22+ PathValue 优先，回退到路径解析）
func extractDocumentID(r *http.Request) string {
	if id := r.PathValue("id"); id != "" {
		return id
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/documents/")
	if path != "" && path != r.URL.Path && !strings.Contains(path, "/") {
		return path
	}
	return ""
}
