package api

// =============================================================================
// 问答查询类型
// =============================================================================

// QueryRequest 代表一次政策问答请求。
// @Description 政策问答请求结构
type QueryRequest struct {
	// 自然语言政策问题
	Query string `json:"query" example:"Is Executive Order 14067 still in effect?" binding:"required"`
}

// =============================================================================
// 文档管理类型
// =============================================================================

// DocumentRequest 代表一篇待入库的政策文档。
// @Description 文档入库请求结构
type DocumentRequest struct {
	// 文档 ID，缺省时生成 doc-<uuid>
	ID string `json:"id,omitempty" example:"doc-section-230"`
	// 文档正文
	Content string `json:"content" binding:"required"`
	// 文档元数据（title、source 等）
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DocumentResponse 文档入库结果。
type DocumentResponse struct {
	// 实际入库的文档 ID
	ID string `json:"id"`
}

// BatchDocumentsRequest 批量文档入库请求。
// @Description 批量文档入库请求结构
type BatchDocumentsRequest struct {
	// 待入库文档列表
	Documents []DocumentRequest `json:"documents" binding:"required"`
}

// BatchDocumentsResponse 批量入库结果。
type BatchDocumentsResponse struct {
	// 实际入库条数（分块后可能多于输入条数）
	Stored int `json:"stored"`
}

// StatsResponse 向量库统计。
type StatsResponse struct {
	// 已入库文档（块）数
	DocumentCount int `json:"document_count"`
	// 向量维度
	EmbeddingDimension int `json:"embedding_dimension"`
}

// =============================================================================
// 订阅类型
// =============================================================================

// SubscriptionRequest 代表一次政策订阅请求。
// @Description 政策订阅请求结构
type SubscriptionRequest struct {
	// 订阅的政策标识（文号或名称）
	PolicyID string `json:"policy_id" example:"Executive Order 14067" binding:"required"`
	// 通知邮箱
	Email string `json:"email,omitempty" example:"legal@example.com"`
	// Slack 频道
	Channel string `json:"channel,omitempty" example:"#gov-affairs"`
	// 更新频率（daily/weekly/monthly），缺省 weekly
	Frequency string `json:"frequency,omitempty" example:"weekly"`
}
