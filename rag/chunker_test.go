package rag

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

// mockTokenizer 用于测试的分词器
type mockTokenizer struct{}

func (m *mockTokenizer) CountTokens(text string) int {
	// 简单近似：~4 字符/token
	return len(text) / 4
}

func (m *mockTokenizer) Encode(text string) []int {
	tokens := make([]int, m.CountTokens(text))
	for i := range tokens {
		tokens[i] = i
	}
	return tokens
}

func TestDefaultChunkingConfig(t *testing.T) {
	config := DefaultChunkingConfig()

	if config.Strategy != ChunkingRecursive {
		t.Errorf("expected strategy to be recursive, got %s", config.Strategy)
	}

	if config.ChunkSize != 512 {
		t.Errorf("expected chunk size to be 512, got %d", config.ChunkSize)
	}

	if config.ChunkOverlap != 50 {
		t.Errorf("expected chunk overlap to be 50, got %d", config.ChunkOverlap)
	}

	if config.MinChunkSize != 25 {
		t.Errorf("expected min chunk size to be 25, got %d", config.MinChunkSize)
	}
}

func TestNewDocumentChunker(t *testing.T) {
	config := DefaultChunkingConfig()
	tokenizer := &mockTokenizer{}
	logger := zap.NewNop()

	chunker := NewDocumentChunker(config, tokenizer, logger)

	if chunker == nil {
		t.Fatal("expected chunker to be created")
	}

	if chunker.config.Strategy != ChunkingRecursive {
		t.Errorf("expected strategy to be recursive, got %s", chunker.config.Strategy)
	}
}

func TestNewDocumentChunker_NilDependencies(t *testing.T) {
	chunker := NewDocumentChunker(DefaultChunkingConfig(), nil, nil)

	if chunker == nil {
		t.Fatal("expected chunker to be created")
	}

	// nil 依赖不应 panic
	chunks := chunker.ChunkDocument(Document{ID: "d", Content: "Some short policy text."})
	if chunks == nil {
		t.Fatal("expected chunks slice")
	}
}

func TestDocumentChunker_FixedSizeChunking(t *testing.T) {
	config := ChunkingConfig{
		Strategy:     ChunkingFixed,
		ChunkSize:    100,
		ChunkOverlap: 20,
		MinChunkSize: 10,
	}
	tokenizer := &mockTokenizer{}
	logger := zap.NewNop()

	chunker := NewDocumentChunker(config, tokenizer, logger)

	doc := Document{
		ID: "test-doc",
		Content: "This regulation establishes the notification requirements for covered entities. " +
			"Each covered entity must designate a compliance officer within ninety days. " +
			"The compliance officer is responsible for annual risk assessments and staff training. " +
			"Violations are subject to civil penalties as described in the enforcement section.",
	}

	chunks := chunker.ChunkDocument(doc)

	if len(chunks) == 0 {
		t.Error("expected at least one chunk")
	}

	// 校验块有内容
	for i, chunk := range chunks {
		if chunk.Content == "" {
			t.Errorf("chunk %d has empty content", i)
		}
		if chunk.EndPos <= chunk.StartPos {
			t.Errorf("chunk %d has invalid position range: [%d, %d]", i, chunk.StartPos, chunk.EndPos)
		}
	}
}

func TestDocumentChunker_FixedSizeChunking_CoversFullText(t *testing.T) {
	config := ChunkingConfig{
		Strategy:     ChunkingFixed,
		ChunkSize:    50, // 200 字符/块
		ChunkOverlap: 0,
		MinChunkSize: 1,
	}
	chunker := NewDocumentChunker(config, &mockTokenizer{}, zap.NewNop())

	content := strings.Repeat("abcdefghij", 50) // 500 字符
	chunks := chunker.ChunkDocument(Document{ID: "d", Content: content})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks for 500 chars at 200 chars/chunk, got %d", len(chunks))
	}

	total := 0
	for _, chunk := range chunks {
		total += len(chunk.Content)
	}
	if total != len(content) {
		t.Errorf("expected chunks to cover %d chars without overlap, covered %d", len(content), total)
	}
}

func TestDocumentChunker_RecursiveChunking(t *testing.T) {
	config := ChunkingConfig{
		Strategy:     ChunkingRecursive,
		ChunkSize:    100,
		ChunkOverlap: 20,
		MinChunkSize: 10,
	}
	tokenizer := &mockTokenizer{}
	logger := zap.NewNop()

	chunker := NewDocumentChunker(config, tokenizer, logger)

	doc := Document{
		ID: "test-doc",
		Content: `The first section describes the scope of the data protection rule.

The second section lists the obligations of processors and controllers.

The third section explains the supervisory authority complaint procedure.

The fourth section covers cross-border transfers and adequacy decisions in detail.`,
	}

	chunks := chunker.ChunkDocument(doc)

	if len(chunks) == 0 {
		t.Error("expected at least one chunk")
	}

	// 校验块保持结构
	for i, chunk := range chunks {
		if chunk.Content == "" {
			t.Errorf("chunk %d has empty content", i)
		}
		if chunk.StartPos < 0 {
			t.Errorf("chunk %d has invalid start position: %d", i, chunk.StartPos)
		}
	}
}

func TestDocumentChunker_UnknownStrategyFallsBackToRecursive(t *testing.T) {
	config := ChunkingConfig{
		Strategy:     ChunkingStrategy("semantic"),
		ChunkSize:    100,
		ChunkOverlap: 0,
		MinChunkSize: 1,
	}
	chunker := NewDocumentChunker(config, &mockTokenizer{}, zap.NewNop())

	chunks := chunker.ChunkDocument(Document{ID: "d", Content: "A sentence. Another sentence."})
	if len(chunks) == 0 {
		t.Error("expected fallback chunking to produce output")
	}
}

func TestDocumentChunker_EmptyDocument(t *testing.T) {
	config := DefaultChunkingConfig()
	tokenizer := &mockTokenizer{}
	logger := zap.NewNop()

	chunker := NewDocumentChunker(config, tokenizer, logger)

	doc := Document{
		ID:      "empty-doc",
		Content: "",
	}

	chunks := chunker.ChunkDocument(doc)

	// 空文档应返回空或单个空块
	if len(chunks) > 1 {
		t.Errorf("expected at most 1 chunk for empty document, got %d", len(chunks))
	}
}

func TestDocumentChunker_SmallDocument(t *testing.T) {
	config := ChunkingConfig{
		Strategy:     ChunkingRecursive,
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunkSize: 50,
	}
	tokenizer := &mockTokenizer{}
	logger := zap.NewNop()

	chunker := NewDocumentChunker(config, tokenizer, logger)

	doc := Document{
		ID:      "small-doc",
		Content: "This is a small document.",
	}

	chunks := chunker.ChunkDocument(doc)

	// 小于 MinChunkSize 的文档可能产生 0 或 1 个块
	if len(chunks) > 1 {
		t.Errorf("expected at most 1 chunk for small document, got %d", len(chunks))
	}

	if len(chunks) == 1 && chunks[0].Content != doc.Content {
		t.Errorf("expected chunk content to match document content")
	}
}

func TestDocumentChunker_Overlap(t *testing.T) {
	paragraph := strings.Repeat("Each agency shall publish the proposed rule. ", 8)
	content := paragraph + "\n\n" + paragraph + "\n\n" + paragraph

	base := ChunkingConfig{
		Strategy:     ChunkingRecursive,
		ChunkSize:    80,
		ChunkOverlap: 0,
		MinChunkSize: 1,
	}
	withOverlap := base
	withOverlap.ChunkOverlap = 10

	plain := NewDocumentChunker(base, &mockTokenizer{}, zap.NewNop()).
		ChunkDocument(Document{ID: "d", Content: content})
	overlapped := NewDocumentChunker(withOverlap, &mockTokenizer{}, zap.NewNop()).
		ChunkDocument(Document{ID: "d", Content: content})

	if len(plain) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(plain))
	}
	if len(overlapped) != len(plain) {
		t.Fatalf("overlap should not change chunk count: %d vs %d", len(overlapped), len(plain))
	}

	// 除首块外，重叠块应不短于无重叠版本
	for i := 1; i < len(plain); i++ {
		if len(overlapped[i].Content) < len(plain[i].Content) {
			t.Errorf("chunk %d: expected overlapped content to be at least as long (%d < %d)",
				i, len(overlapped[i].Content), len(plain[i].Content))
		}
	}
}

func TestChunk_Metadata(t *testing.T) {
	chunk := Chunk{
		Content:    "Test content",
		StartPos:   0,
		EndPos:     12,
		TokenCount: 3,
		Metadata: map[string]any{
			"source": "test",
			"index":  0,
		},
	}

	if chunk.Metadata["source"] != "test" {
		t.Error("expected metadata source to be 'test'")
	}

	if chunk.Metadata["index"] != 0 {
		t.Error("expected metadata index to be 0")
	}
}

func TestSimpleTokenizer(t *testing.T) {
	tok := &SimpleTokenizer{}

	if got := tok.CountTokens("abcdefgh"); got != 2 {
		t.Errorf("expected 2 tokens for 8 chars, got %d", got)
	}
	if got := len(tok.Encode("abcdefgh")); got != 2 {
		t.Errorf("expected 2 token ids, got %d", got)
	}
}

func BenchmarkDocumentChunker_RecursiveChunking(b *testing.B) {
	config := DefaultChunkingConfig()
	tokenizer := &mockTokenizer{}
	logger := zap.NewNop()

	chunker := NewDocumentChunker(config, tokenizer, logger)

	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString("The agency published a final rule describing the compliance schedule. ")
	}

	doc := Document{
		ID:      "benchmark-doc",
		Content: sb.String(),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		chunker.ChunkDocument(doc)
	}
}
