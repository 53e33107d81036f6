package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// IndexStats 索引统计信息。
type IndexStats struct {
	Count     int `json:"count"`
	Dimension int `json:"dimension"`
}

// Index 组合 Embedder、VectorStore 与 Chunker 的高层检索入口。
// 所有写入路径统一经过向量化；超长文档先分块再入库。
type Index struct {
	embedder Embedder
	store    VectorStore
	chunker  *DocumentChunker
	logger   *zap.Logger
}

// NewIndex 创建检索索引。chunker 为 nil 时禁用分块。
func NewIndex(embedder Embedder, store VectorStore, chunker *DocumentChunker, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		embedder: embedder,
		store:    store,
		chunker:  chunker,
		logger:   logger.With(zap.String("component", "rag_index")),
	}
}

// Store 返回底层向量存储（供可选接口断言使用）。
func (idx *Index) Store() VectorStore {
	return idx.store
}

// Search 向量化查询文本并检索 Top-K。
// 空索引返回空切片而非错误。
func (idx *Index) Search(ctx context.Context, queryText string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return []SearchResult{}, nil
	}

	embedding, err := idx.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := idx.store.Search(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

// Add 添加单个文档。
func (idx *Index) Add(ctx context.Context, id, content string, metadata map[string]any) error {
	_, err := idx.AddBatch(ctx, []Document{{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}})
	return err
}

// AddBatch 批量添加文档，返回实际入库条数（分块后可能多于输入条数）。
// 分块产生的子文档 ID 形如 <id>-c<序号>，并携带 parent_id / chunk_index 元数据。
func (idx *Index) AddBatch(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	for i := range docs {
		if docs[i].ID == "" {
			return 0, fmt.Errorf("document[%d] has empty id", i)
		}
	}

	expanded := idx.expandChunks(docs)

	// 批量向量化（已带向量的文档跳过）
	var missing []int
	var contents []string
	for i := range expanded {
		if len(expanded[i].Embedding) == 0 {
			missing = append(missing, i)
			contents = append(contents, expanded[i].Content)
		}
	}
	if len(missing) > 0 {
		embeddings, err := idx.embedder.EmbedDocuments(ctx, contents)
		if err != nil {
			return 0, fmt.Errorf("embed documents: %w", err)
		}
		for j, i := range missing {
			expanded[i].Embedding = embeddings[j]
		}
	}

	if err := idx.store.AddDocuments(ctx, expanded); err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}

	idx.logger.Info("documents indexed",
		zap.Int("input", len(docs)),
		zap.Int("stored", len(expanded)))

	return len(expanded), nil
}

// Delete 按 ID 删除文档。
func (idx *Index) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	return idx.store.DeleteDocuments(ctx, []string{id})
}

// Stats 返回索引统计。
func (idx *Index) Stats(ctx context.Context) (IndexStats, error) {
	count, err := idx.store.Count(ctx)
	if err != nil {
		return IndexStats{}, fmt.Errorf("count documents: %w", err)
	}
	return IndexStats{
		Count:     count,
		Dimension: idx.embedder.Dimension(),
	}, nil
}

// expandChunks 将超长文档展开为块级子文档；短文档原样保留。
func (idx *Index) expandChunks(docs []Document) []Document {
	if idx.chunker == nil {
		return docs
	}

	expanded := make([]Document, 0, len(docs))
	for _, doc := range docs {
		chunks := idx.chunker.ChunkDocument(doc)
		if len(chunks) <= 1 {
			expanded = append(expanded, doc)
			continue
		}

		for i, chunk := range chunks {
			metadata := map[string]any{
				"parent_id":   doc.ID,
				"chunk_index": i,
			}
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			expanded = append(expanded, Document{
				ID:       fmt.Sprintf("%s-c%d", doc.ID, i),
				Content:  chunk.Content,
				Metadata: metadata,
			})
		}

		idx.logger.Debug("document chunked",
			zap.String("id", doc.ID),
			zap.Int("chunks", len(chunks)))
	}
	return expanded
}
