package rag

import (
	"fmt"
	"strings"
)

// Document 政策文档的统一表示。
// Metadata 可携带 title、category、source 等任意键值；
// Embedding 由 Embedder 生成后随文档一起写入向量存储。
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float64      `json:"embedding,omitempty"`
}

// GetMetadataString 从元数据中提取字符串值，缺失时返回空串。
func GetMetadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	if val, ok := metadata[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", val)
	}
	return ""
}

// TruncateText 截断文本到指定长度，在词边界处截断。
func TruncateText(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	// 在词边界处截断
	truncated := s[:maxLen]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen/2 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}
