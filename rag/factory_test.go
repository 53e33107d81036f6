package rag

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/policynav/policynav/config"
	"github.com/policynav/policynav/types"
)

// ---------------------------------------------------------------------------
// NewVectorStoreFromConfig
// ---------------------------------------------------------------------------

func TestNewVectorStoreFromConfig(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name      string
		storeType string
		wantType  string
		wantErr   bool
		errMsg    string
	}{
		{
			name:      "empty type defaults to InMemory",
			storeType: "",
			wantType:  "*rag.InMemoryVectorStore",
		},
		{
			name:      "explicit memory type",
			storeType: string(VectorStoreMemory),
			wantType:  "*rag.InMemoryVectorStore",
		},
		{
			name:      "chroma type",
			storeType: string(VectorStoreChroma),
			wantType:  "*rag.ChromaStore",
		},
		{
			name:      "unsupported type returns error",
			storeType: "redis",
			wantErr:   true,
			errMsg:    "unsupported vector store type: redis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.VectorStore.Type = tt.storeType

			store, err := NewVectorStoreFromConfig(cfg, logger)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Equal(t, types.ErrConfig, types.GetErrorCode(err))
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, store)
			assert.Equal(t, tt.wantType, typeName(store))
		})
	}
}

func TestNewVectorStoreFromConfig_NilConfig(t *testing.T) {
	_, err := NewVectorStoreFromConfig(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is nil")
}

func TestNewVectorStoreFromConfig_NilLogger(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VectorStore.Type = string(VectorStoreMemory)

	store, err := NewVectorStoreFromConfig(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, store)
}

// ---------------------------------------------------------------------------
// NewEmbedderFromConfig
// ---------------------------------------------------------------------------

func TestNewEmbedderFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantType string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "empty provider defaults to hash embedder",
			provider: "",
			wantType: "*rag.HashEmbedder",
		},
		{
			name:     "local provider",
			provider: string(EmbedderLocal),
			wantType: "*rag.HashEmbedder",
		},
		{
			name:     "openai provider",
			provider: string(EmbedderOpenAI),
			wantType: "*rag.OpenAIEmbedder",
		},
		{
			name:     "unsupported provider returns error",
			provider: "cohere",
			wantErr:  true,
			errMsg:   "unsupported embedding provider: cohere",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Embedding.Provider = tt.provider

			embedder, err := NewEmbedderFromConfig(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Equal(t, types.ErrConfig, types.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, embedder)
			assert.Equal(t, tt.wantType, typeName(embedder))
			assert.Equal(t, cfg.Embedding.Dimension, embedder.Dimension())
		})
	}
}

func TestNewEmbedderFromConfig_NilConfig(t *testing.T) {
	_, err := NewEmbedderFromConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is nil")
}

// ---------------------------------------------------------------------------
// NewChunkerFromConfig
// ---------------------------------------------------------------------------

func TestNewChunkerFromConfig_Defaults(t *testing.T) {
	cfg := config.DefaultConfig()

	chunker := NewChunkerFromConfig(cfg, zap.NewNop())
	require.NotNil(t, chunker)
	assert.Equal(t, 512, chunker.config.ChunkSize)
	assert.Equal(t, 50, chunker.config.ChunkOverlap)
	assert.Equal(t, 25, chunker.config.MinChunkSize)

	// 未配置 tokenizer 模型时使用估算器
	assert.Equal(t, "*rag.EstimatorTokenizer", typeName(chunker.tokenizer))
}

func TestNewChunkerFromConfig_Overrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Chunking.ChunkSize = 256
	cfg.Chunking.ChunkOverlap = 32
	cfg.Chunking.MinChunkSize = 16
	cfg.Chunking.TokenizerModel = "gpt-4o"

	chunker := NewChunkerFromConfig(cfg, zap.NewNop())
	require.NotNil(t, chunker)
	assert.Equal(t, 256, chunker.config.ChunkSize)
	assert.Equal(t, 32, chunker.config.ChunkOverlap)
	assert.Equal(t, 16, chunker.config.MinChunkSize)
	assert.Equal(t, "*rag.TiktokenTokenizer", typeName(chunker.tokenizer))
}

// ---------------------------------------------------------------------------
// NewIndexFromConfig
// ---------------------------------------------------------------------------

func TestNewIndexFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	idx, err := NewIndexFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, "*rag.InMemoryVectorStore", typeName(idx.Store()))
}

func TestNewIndexFromConfig_NilConfig(t *testing.T) {
	_, err := NewIndexFromConfig(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is nil")
}

func TestNewIndexFromConfig_PropagatesErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "bogus"

	_, err := NewIndexFromConfig(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create embedder")

	cfg = config.DefaultConfig()
	cfg.VectorStore.Type = "bogus"

	_, err = NewIndexFromConfig(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create vector store")
}

// ---------------------------------------------------------------------------
// Config mapping correctness
// ---------------------------------------------------------------------------

func TestMapChromaConfig(t *testing.T) {
	src := &config.VectorStoreConfig{
		Type:       "chroma",
		BaseURL:    "http://chroma:8000",
		APIKey:     "test-key",
		Collection: "policies",
		Dimension:  768,
	}
	got := mapChromaConfig(src)
	assert.Equal(t, "http://chroma:8000", got.BaseURL)
	assert.Equal(t, "test-key", got.APIKey)
	assert.Equal(t, "policies", got.Collection)
	assert.Equal(t, 768, got.Dimension)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
