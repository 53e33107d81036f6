package rag

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder 向量化接口
type Embedder interface {
	// EmbedQuery 向量化单个查询
	EmbedQuery(ctx context.Context, text string) ([]float64, error)

	// EmbedDocuments 批量向量化文档
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension 返回向量维度
	Dimension() int
}

// HashEmbedder 确定性本地向量化器。
// 将分词后的词袋经 FNV 哈希散列到固定维度并做 L2 归一化，
// 不依赖外部模型服务，同一文本恒产生同一向量，适用于测试与离线部署。
// 共享词汇多的文本相似度高；不捕捉同义词。
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder 创建哈希向量化器；dimension <= 0 时使用默认 384。
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashEmbedder{dimension: dimension}
}

// EmbedQuery 向量化单个查询
func (e *HashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

// EmbedDocuments 批量向量化文档
func (e *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	result := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result[i] = e.embed(text)
	}
	return result, nil
}

// Dimension 返回向量维度
func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

// embed 词袋哈希 + L2 归一化
func (e *HashEmbedder) embed(text string) []float64 {
	vec := make([]float64, e.dimension)

	for _, token := range tokenizeWords(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		idx := int(h.Sum32() % uint32(e.dimension))
		vec[idx]++
	}

	// L2 归一化
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec
}

// tokenizeWords 小写化并按非字母数字切分
func tokenizeWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
