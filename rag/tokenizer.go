package rag

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// Tokenizer 分块专用分词器接口。
// 实现在内部处理失败（记录日志并回退到估算），调用方无需感知错误。
type Tokenizer interface {
	// CountTokens 返回文本的 token 数
	CountTokens(text string) int

	// Encode 将文本转换为 token ID 列表
	Encode(text string) []int
}

// modelEncodings 将模型名称映射到 tiktoken 编码。
var modelEncodings = map[string]string{
	"gpt-4o":                 "o200k_base",
	"gpt-4o-mini":            "o200k_base",
	"gpt-4-turbo":            "cl100k_base",
	"gpt-4":                  "cl100k_base",
	"gpt-3.5-turbo":          "cl100k_base",
	"text-embedding-3-large": "cl100k_base",
	"text-embedding-3-small": "cl100k_base",
}

// TiktokenTokenizer 基于 tiktoken 的精确分词器。
// 编码数据在首次使用时懒加载（可能触发下载），
// 初始化失败时回退到字符估算并记录警告。
type TiktokenTokenizer struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
	logger   *zap.Logger
}

// NewTiktokenTokenizer 创建 tiktoken 分词器。
// model 指定模型名（如 "gpt-4o"、"text-embedding-3-small"），
// 未知模型默认使用 cl100k_base 编码。
func NewTiktokenTokenizer(model string, logger *zap.Logger) *TiktokenTokenizer {
	if logger == nil {
		logger = zap.NewNop()
	}

	encoding, ok := modelEncodings[model]
	if !ok {
		// 尝试前缀匹配（取最长前缀，gpt-4o-* 不落入 gpt-4）
		best := 0
		for prefix, enc := range modelEncodings {
			if len(model) >= len(prefix) && model[:len(prefix)] == prefix && len(prefix) > best {
				encoding = enc
				best = len(prefix)
				ok = true
			}
		}
	}
	if !ok {
		encoding = "cl100k_base"
	}

	return &TiktokenTokenizer{
		model:    model,
		encoding: encoding,
		logger:   logger,
	}
}

// init 懒初始化 tiktoken 编码（首次使用时可能下载编码数据）。
func (t *TiktokenTokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// CountTokens 返回文本的 token 数；初始化失败时回退到 len/4 估算。
func (t *TiktokenTokenizer) CountTokens(text string) int {
	if err := t.init(); err != nil {
		t.logger.Warn("tiktoken init failed, falling back to estimate",
			zap.Error(err))
		return len(text) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Encode 将文本转换为 token ID 列表；初始化失败时返回伪 token 序列。
func (t *TiktokenTokenizer) Encode(text string) []int {
	if err := t.init(); err != nil {
		t.logger.Warn("tiktoken init failed, falling back to estimate",
			zap.Error(err))
		result := make([]int, len(text)/4)
		for i := range result {
			result[i] = i
		}
		return result
	}
	return t.enc.Encode(text, nil, nil)
}

// Name 返回分词器标识。
func (t *TiktokenTokenizer) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}

// EstimatorTokenizer is a character-count-based token estimator.
// It distinguishes CJK and ASCII characters for better accuracy
// compared to a naive len/4 approach, and needs no encoding download.
type EstimatorTokenizer struct{}

// NewEstimatorTokenizer creates a CJK-aware estimator.
func NewEstimatorTokenizer() *EstimatorTokenizer {
	return &EstimatorTokenizer{}
}

func (e *EstimatorTokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	totalChars := utf8.RuneCountInString(text)
	cjkCount := 0
	for _, r := range text {
		if isCJK(r) {
			cjkCount++
		}
	}

	// CJK characters ~1.5 chars/token, ASCII ~4 chars/token.
	cjkTokens := float64(cjkCount) / 1.5
	asciiTokens := float64(totalChars-cjkCount) / 4.0
	estimated := int(cjkTokens + asciiTokens)

	if estimated == 0 {
		estimated = 1
	}
	return estimated
}

func (e *EstimatorTokenizer) Encode(text string) []int {
	// The estimator cannot truly encode; return pseudo token IDs.
	count := e.CountTokens(text)
	tokens := make([]int, count)
	for i := range tokens {
		tokens[i] = i
	}
	return tokens
}

func (e *EstimatorTokenizer) Name() string {
	return "estimator"
}

// isCJK returns true if the rune is a CJK character.
func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified Ideographs
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Extension A
		(r >= 0x20000 && r <= 0x2A6DF) || // CJK Extension B
		(r >= 0xF900 && r <= 0xFAFF) || // CJK Compatibility Ideographs
		(r >= 0x3000 && r <= 0x303F) || // CJK Symbols and Punctuation
		(r >= 0xFF00 && r <= 0xFFEF) // Halfwidth and Fullwidth Forms
}
