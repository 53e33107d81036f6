package navigator

import "time"

// SourceType 回答来源类型。
type SourceType string

const (
	SourceDocument   SourceType = "document"   // 向量库文档
	SourceGovernment SourceType = "government" // 政府 API 主链接
	SourceCaseLaw    SourceType = "case_law"   // 判例
)

// Source 回答引用的一条来源。Origin 标注来源系统
// （"Vector DB"、"Federal Register API"、"CourtListener API"）。
type Source struct {
	Type   SourceType `json:"type"`
	ID     string     `json:"id,omitempty"`
	Title  string     `json:"title"`
	URL    string     `json:"url,omitempty"`
	Origin string     `json:"source,omitempty"`
}

// ResponseMetadata 回答元信息。
type ResponseMetadata struct {
	Timestamp          time.Time `json:"timestamp"`
	Intent             Intent    `json:"intent,omitempty"`
	RetrievedDocsCount int       `json:"retrieved_docs_count"`
	IncludesAPIResults bool      `json:"includes_api_results"`
}

// Response 合成后的最终回答。Query 永远回显原始查询，
// Confidence ∈ [0,1]；部分失败表现为降级答案与低置信度，字段从不缺失。
// Error 仅在致命路径（非可吸收错误）时携带错误信息。
type Response struct {
	Query      string           `json:"query"`
	Answer     string           `json:"answer"`
	Sources    []Source         `json:"sources"`
	Confidence float64          `json:"confidence"`
	Metadata   ResponseMetadata `json:"metadata"`
	Error      string           `json:"error,omitempty"`
}
