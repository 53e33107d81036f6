// Config → RAG 桥接层。
//
// 提供工厂函数，将全局 config.Config 转换为 rag 包的运行时实例，
// 消除 config 包和 rag 包之间的手动配置映射。
package rag

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/policynav/policynav/config"
	"github.com/policynav/policynav/types"
)

// VectorStoreType 标识要创建的向量存储后端。
type VectorStoreType string

const (
	VectorStoreMemory VectorStoreType = "memory"
	VectorStoreChroma VectorStoreType = "chroma"
)

// NewVectorStoreFromConfig 根据全局配置创建 VectorStore。
// 类型为空字符串时默认使用 InMemory 后端。
func NewVectorStoreFromConfig(cfg *config.Config, logger *zap.Logger) (VectorStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch VectorStoreType(cfg.VectorStore.Type) {
	case VectorStoreMemory, "":
		return NewInMemoryVectorStore(logger), nil

	case VectorStoreChroma:
		return NewChromaStore(mapChromaConfig(&cfg.VectorStore), logger), nil

	default:
		return nil, types.NewError(types.ErrConfig,
			fmt.Sprintf("unsupported vector store type: %s", cfg.VectorStore.Type))
	}
}

// EmbedderType 标识要创建的向量化器。
type EmbedderType string

const (
	EmbedderLocal  EmbedderType = "local"
	EmbedderOpenAI EmbedderType = "openai"
)

// NewEmbedderFromConfig 根据全局配置创建 Embedder。
// 提供方为空字符串时默认使用本地哈希向量化器。
func NewEmbedderFromConfig(cfg *config.Config) (Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	switch EmbedderType(cfg.Embedding.Provider) {
	case EmbedderLocal, "":
		return NewHashEmbedder(cfg.Embedding.Dimension), nil

	case EmbedderOpenAI:
		return NewOpenAIEmbedder(OpenAIEmbedderConfig{
			BaseURL:    cfg.Embedding.BaseURL,
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimension,
			Timeout:    cfg.Embedding.Timeout,
		}), nil

	default:
		return nil, types.NewError(types.ErrConfig,
			fmt.Sprintf("unsupported embedding provider: %s", cfg.Embedding.Provider))
	}
}

// NewChunkerFromConfig 根据全局配置创建文档分块器。
// 未配置 tokenizer 模型时使用 CJK 感知的字符估算器。
func NewChunkerFromConfig(cfg *config.Config, logger *zap.Logger) *DocumentChunker {
	chunkCfg := DefaultChunkingConfig()
	if cfg.Chunking.ChunkSize > 0 {
		chunkCfg.ChunkSize = cfg.Chunking.ChunkSize
	}
	if cfg.Chunking.ChunkOverlap > 0 {
		chunkCfg.ChunkOverlap = cfg.Chunking.ChunkOverlap
	}
	if cfg.Chunking.MinChunkSize > 0 {
		chunkCfg.MinChunkSize = cfg.Chunking.MinChunkSize
	}

	var tokenizer Tokenizer
	if cfg.Chunking.TokenizerModel != "" {
		tokenizer = NewTiktokenTokenizer(cfg.Chunking.TokenizerModel, logger)
	} else {
		tokenizer = NewEstimatorTokenizer()
	}

	return NewDocumentChunker(chunkCfg, tokenizer, logger)
}

// NewIndexFromConfig 一键创建完整索引（向量化器 + 向量存储 + 分块器）。
func NewIndexFromConfig(cfg *config.Config, logger *zap.Logger) (*Index, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	embedder, err := NewEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	store, err := NewVectorStoreFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}

	chunker := NewChunkerFromConfig(cfg, logger)

	return NewIndex(embedder, store, chunker, logger), nil
}

// --- 内部配置映射函数 ---

func mapChromaConfig(c *config.VectorStoreConfig) ChromaConfig {
	return ChromaConfig{
		BaseURL:    c.BaseURL,
		APIKey:     c.APIKey,
		Collection: c.Collection,
		Dimension:  c.Dimension,
		Timeout:    c.Timeout,
	}
}
