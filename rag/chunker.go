package rag

import (
	"strings"

	"go.uber.org/zap"
)

// ChunkingStrategy 分块策略
type ChunkingStrategy string

const (
	ChunkingFixed     ChunkingStrategy = "fixed"     // 固定大小
	ChunkingRecursive ChunkingStrategy = "recursive" // 递归分块
)

// ChunkingConfig 分块配置
type ChunkingConfig struct {
	Strategy     ChunkingStrategy `json:"strategy"`       // 分块策略
	ChunkSize    int              `json:"chunk_size"`     // 块大小（tokens）
	ChunkOverlap int              `json:"chunk_overlap"`  // 重叠大小（tokens）
	MinChunkSize int              `json:"min_chunk_size"` // 最小块大小
}

// DefaultChunkingConfig 默认分块配置
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		Strategy:     ChunkingRecursive,
		ChunkSize:    512,
		ChunkOverlap: 50,
		MinChunkSize: 25,
	}
}

// Chunk 文档块
type Chunk struct {
	Content    string         `json:"content"`
	StartPos   int            `json:"start_pos"`
	EndPos     int            `json:"end_pos"`
	Metadata   map[string]any `json:"metadata"`
	TokenCount int            `json:"token_count"`
}

// DocumentChunker 文档分块器
type DocumentChunker struct {
	config    ChunkingConfig
	tokenizer Tokenizer
	logger    *zap.Logger
}

// NewDocumentChunker 创建文档分块器
func NewDocumentChunker(config ChunkingConfig, tokenizer Tokenizer, logger *zap.Logger) *DocumentChunker {
	if tokenizer == nil {
		tokenizer = &SimpleTokenizer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentChunker{
		config:    config,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// ChunkDocument 分块文档
func (c *DocumentChunker) ChunkDocument(doc Document) []Chunk {
	switch c.config.Strategy {
	case ChunkingFixed:
		return c.fixedSizeChunking(doc)
	case ChunkingRecursive:
		return c.recursiveChunking(doc)
	default:
		return c.recursiveChunking(doc)
	}
}

// recursiveChunking 递归分块（推荐用于生产环境）
// 在段落/句子边界分割，保持语义完整性
func (c *DocumentChunker) recursiveChunking(doc Document) []Chunk {
	content := doc.Content

	// 分隔符优先级：段落 > 行 > 句子 > 单词
	separators := []string{"\n\n", "\n", ". ", "。", "! ", "！", "? ", "？", " "}

	chunks := c.recursiveSplit(content, separators, 0, 0)

	// 添加重叠
	if c.config.ChunkOverlap > 0 {
		chunks = c.addOverlap(chunks, content)
	}

	c.logger.Info("recursive chunking completed",
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", c.config.ChunkSize),
		zap.Int("overlap", c.config.ChunkOverlap))

	return chunks
}

// recursiveSplit 递归分割
func (c *DocumentChunker) recursiveSplit(text string, separators []string, startPos int, depth int) []Chunk {
	if len(separators) == 0 {
		// 最后一级：按字符分割（句子边界感知）
		return c.splitByCharactersWithBoundary(text, startPos)
	}

	separator := separators[0]
	parts := strings.Split(text, separator)

	chunks := []Chunk{}
	currentChunk := ""
	currentStart := startPos

	for i, part := range parts {
		// 恢复分隔符（除了最后一个）
		if i < len(parts)-1 {
			part += separator
		}

		testChunk := currentChunk + part
		tokenCount := c.tokenizer.CountTokens(testChunk)

		if tokenCount <= c.config.ChunkSize {
			currentChunk = testChunk
		} else {
			// 当前块已满
			if currentChunk != "" {
				// 句子边界检测：确保不在句子中间分割
				finalChunk := c.adjustToSentenceBoundary(currentChunk)
				chunks = append(chunks, Chunk{
					Content:    strings.TrimSpace(finalChunk),
					StartPos:   currentStart,
					EndPos:     currentStart + len(finalChunk),
					TokenCount: c.tokenizer.CountTokens(finalChunk),
				})
				currentStart += len(finalChunk)

				// 将剩余部分添加到下一个块
				remainder := currentChunk[len(finalChunk):]
				currentChunk = remainder + part
			}

			// 如果单个 part 超过限制，递归使用下一级分隔符
			if c.tokenizer.CountTokens(part) > c.config.ChunkSize {
				subChunks := c.recursiveSplit(part, separators[1:], currentStart, depth+1)
				chunks = append(chunks, subChunks...)
				currentStart += len(part)
				currentChunk = ""
			} else if currentChunk == "" {
				currentChunk = part
			}
		}
	}

	// 添加最后一个块
	if currentChunk != "" && c.tokenizer.CountTokens(currentChunk) >= c.config.MinChunkSize {
		chunks = append(chunks, Chunk{
			Content:    strings.TrimSpace(currentChunk),
			StartPos:   currentStart,
			EndPos:     currentStart + len(currentChunk),
			TokenCount: c.tokenizer.CountTokens(currentChunk),
		})
	}

	return chunks
}

// splitByCharactersWithBoundary 按字符分割（句子边界感知）
func (c *DocumentChunker) splitByCharactersWithBoundary(text string, startPos int) []Chunk {
	chunks := []Chunk{}
	runes := []rune(text)

	// 估算每个 token 约 4 个字符
	charsPerChunk := c.config.ChunkSize * 4

	for i := 0; i < len(runes); i += charsPerChunk {
		end := i + charsPerChunk
		if end > len(runes) {
			end = len(runes)
		}

		// 调整到句子边界
		chunkText := string(runes[i:end])
		adjustedText := c.adjustToSentenceBoundary(chunkText)

		chunks = append(chunks, Chunk{
			Content:    adjustedText,
			StartPos:   startPos + i,
			EndPos:     startPos + i + len([]rune(adjustedText)),
			TokenCount: c.tokenizer.CountTokens(adjustedText),
		})
	}

	return chunks
}

// adjustToSentenceBoundary 调整到句子边界（避免在句子中间分割）
func (c *DocumentChunker) adjustToSentenceBoundary(text string) string {
	if len(text) == 0 {
		return text
	}

	// 句子结束标记
	sentenceEnders := []rune{'.', '。', '!', '！', '?', '？', '\n'}

	// 从后往前查找最近的句子边界
	runes := []rune(text)
	for i := len(runes) - 1; i >= len(runes)/2; i-- { // 只在后半部分查找
		for _, ender := range sentenceEnders {
			if runes[i] == ender {
				// 找到句子边界，包含标点符号
				return string(runes[:i+1])
			}
		}
	}

	// 如果找不到句子边界，查找空格
	for i := len(runes) - 1; i >= len(runes)/2; i-- {
		if runes[i] == ' ' || runes[i] == '\t' {
			return string(runes[:i])
		}
	}

	// 实在找不到，返回原文
	return text
}

// addOverlap 添加重叠
func (c *DocumentChunker) addOverlap(chunks []Chunk, fullText string) []Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	overlapped := make([]Chunk, len(chunks))
	overlapChars := c.config.ChunkOverlap * 4 // 估算字符数

	for i := range chunks {
		chunk := chunks[i]

		// 从前一个块获取重叠内容
		if i > 0 {
			prevChunk := chunks[i-1]
			overlapStart := prevChunk.EndPos - overlapChars
			if overlapStart < prevChunk.StartPos {
				overlapStart = prevChunk.StartPos
			}

			if overlapStart < chunk.StartPos {
				overlapText := fullText[overlapStart:chunk.StartPos]
				chunk.Content = overlapText + chunk.Content
				chunk.StartPos = overlapStart
			}
		}

		overlapped[i] = chunk
	}

	return overlapped
}

// fixedSizeChunking 固定大小分块
func (c *DocumentChunker) fixedSizeChunking(doc Document) []Chunk {
	content := doc.Content
	chunks := []Chunk{}

	charsPerChunk := c.config.ChunkSize * 4
	overlapChars := c.config.ChunkOverlap * 4

	for i := 0; i < len(content); i += (charsPerChunk - overlapChars) {
		end := i + charsPerChunk
		if end > len(content) {
			end = len(content)
		}

		chunkText := content[i:end]
		chunks = append(chunks, Chunk{
			Content:    chunkText,
			StartPos:   i,
			EndPos:     end,
			TokenCount: c.tokenizer.CountTokens(chunkText),
		})

		if end >= len(content) {
			break
		}
	}

	return chunks
}

// SimpleTokenizer 简单分词器（用于测试）
type SimpleTokenizer struct{}

func (t *SimpleTokenizer) CountTokens(text string) int {
	// 简化估算：1 token ≈ 4 字符
	return len(text) / 4
}

func (t *SimpleTokenizer) Encode(text string) []int {
	// 简化实现
	tokens := make([]int, len(text)/4)
	for i := range tokens {
		tokens[i] = i
	}
	return tokens
}
