package navigator

import (
	"sync"
	"time"
)

// Role 会话记录的角色。
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// HistoryRecord 一条会话记录。用户侧存原始查询，代理侧存回答文本。
type HistoryRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
}

// ConversationHistory 追加式会话历史。进程生命周期内有效，
// 只能由调用方显式清空。所有操作持锁：多个调用方共享同一
// Navigator 时追加不会竞争。
type ConversationHistory struct {
	mu      sync.Mutex
	records []HistoryRecord
	maxLen  int
}

// NewConversationHistory 创建会话历史。maxLen <= 0 表示不设上限；
// 超限时丢弃最旧的记录。
func NewConversationHistory(maxLen int) *ConversationHistory {
	return &ConversationHistory{maxLen: maxLen}
}

// Append 追加一条记录。
func (h *ConversationHistory) Append(role Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, HistoryRecord{
		Timestamp: time.Now().UTC(),
		Role:      role,
		Content:   content,
	})
	if h.maxLen > 0 && len(h.records) > h.maxLen {
		// 重新分配而非切片偏移，避免老底层数组一直被引用
		overflow := len(h.records) - h.maxLen
		trimmed := make([]HistoryRecord, h.maxLen)
		copy(trimmed, h.records[overflow:])
		h.records = trimmed
	}
}

// Records 返回历史快照（拷贝，调用方可安全持有）。
func (h *ConversationHistory) Records() []HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]HistoryRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Len 返回记录条数。
func (h *ConversationHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Clear 清空历史。
func (h *ConversationHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}
