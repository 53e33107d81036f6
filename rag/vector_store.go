package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// VectorStore 向量存储接口
type VectorStore interface {
	// 添加文档（相同 ID 原地替换）
	AddDocuments(ctx context.Context, docs []Document) error

	// 搜索相似文档
	Search(ctx context.Context, queryEmbedding []float64, topK int) ([]SearchResult, error)

	// 删除文档
	DeleteDocuments(ctx context.Context, ids []string) error

	// 获取文档数量
	Count(ctx context.Context) (int, error)
}

// Clearable is an optional interface for VectorStore implementations that support
// clearing all stored data. Use type assertion to check support:
//
//	if c, ok := store.(Clearable); ok { c.ClearAll(ctx) }
type Clearable interface {
	ClearAll(ctx context.Context) error
}

// DocumentLister is an optional interface for VectorStore implementations that
// support listing document IDs with pagination. A limit <= 0 means no limit.
// Use type assertion to check support:
//
//	if l, ok := store.(DocumentLister); ok { l.ListDocumentIDs(ctx, 100, 0) }
type DocumentLister interface {
	ListDocumentIDs(ctx context.Context, limit int, offset int) ([]string, error)
}

// SearchResult 向量搜索结果
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
	Distance float64  `json:"distance"`
}

// ====== 内存向量存储（用于测试和单机部署）======

// InMemoryVectorStore 内存向量存储
type InMemoryVectorStore struct {
	documents []Document
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewInMemoryVectorStore 创建内存向量存储
func NewInMemoryVectorStore(logger *zap.Logger) *InMemoryVectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryVectorStore{
		documents: make([]Document, 0),
		logger:    logger,
	}
}

// AddDocuments 添加文档；已存在的 ID 原地替换
func (s *InMemoryVectorStore) AddDocuments(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if doc.Embedding == nil {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}
		if idx := s.indexOf(doc.ID); idx >= 0 {
			s.documents[idx] = doc
			continue
		}
		s.documents = append(s.documents, doc)
	}

	s.logger.Info("documents added to vector store",
		zap.Int("count", len(docs)),
		zap.Int("total", len(s.documents)))

	return nil
}

// Search 搜索相似文档
func (s *InMemoryVectorStore) Search(ctx context.Context, queryEmbedding []float64, topK int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.documents) == 0 {
		return []SearchResult{}, nil
	}

	// 计算所有文档的相似度
	results := make([]SearchResult, 0, len(s.documents))

	for _, doc := range s.documents {
		if doc.Embedding == nil {
			continue
		}

		// 余弦相似度；距离取 1 - 相似度
		similarity := cosineSimilarity(queryEmbedding, doc.Embedding)
		distance := 1.0 - similarity

		results = append(results, SearchResult{
			Document: doc,
			Score:    similarity,
			Distance: distance,
		})
	}

	// 按相似度排序
	sortByScore(results)

	// 返回 Top-K
	if topK > len(results) {
		topK = len(results)
	}

	return results[:topK], nil
}

// DeleteDocuments 删除文档
func (s *InMemoryVectorStore) DeleteDocuments(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idSet := make(map[string]bool)
	for _, id := range ids {
		idSet[id] = true
	}

	filtered := make([]Document, 0)
	for _, doc := range s.documents {
		if !idSet[doc.ID] {
			filtered = append(filtered, doc)
		}
	}

	deleted := len(s.documents) - len(filtered)
	s.documents = filtered

	s.logger.Info("documents deleted from vector store",
		zap.Int("deleted", deleted),
		zap.Int("remaining", len(s.documents)))

	return nil
}

// Count 返回文档数量
func (s *InMemoryVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// ClearAll removes all documents from the in-memory store.
func (s *InMemoryVectorStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make([]Document, 0)
	s.logger.Info("all documents cleared from vector store")
	return nil
}

// ListDocumentIDs returns a paginated list of document IDs.
func (s *InMemoryVectorStore) ListDocumentIDs(ctx context.Context, limit int, offset int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.documents) {
		return []string{}, nil
	}

	end := len(s.documents)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	ids := make([]string, 0, end-offset)
	for _, doc := range s.documents[offset:end] {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// indexOf 返回 ID 对应的下标；未找到返回 -1。调用方须持有锁。
func (s *InMemoryVectorStore) indexOf(id string) int {
	for i := range s.documents {
		if s.documents[i].ID == id {
			return i
		}
	}
	return -1
}

// 工具函数

// cosineSimilarity 计算余弦相似度
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sortByScore 按分数降序排序
func sortByScore(results []SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
