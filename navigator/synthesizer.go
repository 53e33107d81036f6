package navigator

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/policynav/policynav/internal/pool"
	"github.com/policynav/policynav/rag"
	"github.com/policynav/policynav/types"
)

// 回答拼装常量
const (
	answerPreviewLen  = 200 // 单篇文档预览长度（字符）
	answerMaxPreviews = 3   // 回答中最多展示的预览篇数
)

// 置信度公式权重。这个公式是兼容性契约，不能改：
// 检索相似度 × 0.6 + （ACTIVE 政策 0.3 | 存在 API 结果 0.1），截断到 [0,1]。
const (
	confidenceDocWeight    = 0.6
	confidenceActiveBonus  = 0.3
	confidencePresentBonus = 0.1
	missingDistance        = 0.5 // 距离缺省值（负值视为缺失）
)

// Synthesizer 把查询、检索结果与 API 结果合成为最终回答。
// 实现不允许失败：内部出错也要返回 answer 注明合成失败、confidence 0 的响应。
// 模板实现是纯字符串拼接；模型后端可以换实现接入，契约不变。
type Synthesizer interface {
	Synthesize(query string, docs []rag.SearchResult, api *types.APIResult) Response
}

// TemplateSynthesizer 启发式合成器：模板拼接 + 置信度公式，无模型调用。
type TemplateSynthesizer struct {
	logger *zap.Logger
}

var _ Synthesizer = (*TemplateSynthesizer)(nil)

// NewTemplateSynthesizer 创建模板合成器。
func NewTemplateSynthesizer(logger *zap.Logger) *TemplateSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateSynthesizer{
		logger: logger.With(zap.String("component", "synthesizer")),
	}
}

// Synthesize 合成回答。纯函数，不访问网络或状态。
func (s *TemplateSynthesizer) Synthesize(query string, docs []rag.SearchResult, api *types.APIResult) Response {
	resp := Response{
		Query:      query,
		Answer:     composeAnswer(query, docs, api),
		Sources:    extractSources(docs, api),
		Confidence: Confidence(docs, api),
		Metadata: ResponseMetadata{
			Timestamp:          time.Now().UTC(),
			RetrievedDocsCount: len(docs),
			IncludesAPIResults: api != nil,
		},
	}
	s.logger.Debug("response synthesized",
		zap.Int("documents", len(docs)),
		zap.Bool("api_result", api != nil),
		zap.Float64("confidence", resp.Confidence))
	return resp
}

// composeAnswer 拼装回答文本：查询回显、最多三篇文档预览、API 状态行。
// 各段以换行 join，段内保留原有的尾随换行以形成空行分隔。
func composeAnswer(query string, docs []rag.SearchResult, api *types.APIResult) string {
	parts := pool.GlobalStringSlice.Get()
	defer func() { pool.GlobalStringSlice.Put(parts) }()

	parts = append(parts, "Query: "+query+"\n")

	if len(docs) > 0 {
		parts = append(parts, "Found "+strconv.Itoa(len(docs))+" relevant documents:\n")
		for i, doc := range docs {
			if i >= answerMaxPreviews {
				break
			}
			parts = append(parts, strconv.Itoa(i+1)+". "+preview(doc.Document.Content)+"...")
		}
	}

	if api != nil {
		if api.ActivePolicy() {
			parts = append(parts, "\nPolicy Status: ACTIVE")
			parts = append(parts, "Last Updated: "+orDefault(api.Policy.PublicationDate, "N/A"))
		}
		if len(api.Cases) > 0 {
			parts = append(parts, "\nRelated Cases: "+strconv.Itoa(len(api.Cases)))
		}
	}

	return strings.Join(parts, "\n")
}

// extractSources 提取来源列表：每篇文档一条，API 主链接一条，每个判例一条。
func extractSources(docs []rag.SearchResult, api *types.APIResult) []Source {
	sources := make([]Source, 0, len(docs)+1)

	for _, d := range docs {
		sources = append(sources, Source{
			Type:   SourceDocument,
			ID:     d.Document.ID,
			Title:  orDefault(rag.GetMetadataString(d.Document.Metadata, "title"), "Untitled"),
			Origin: orDefault(rag.GetMetadataString(d.Document.Metadata, "source"), "Vector DB"),
		})
	}

	if api == nil {
		return sources
	}
	if api.Policy != nil && api.Policy.HTMLURL != "" {
		sources = append(sources, Source{
			Type:   SourceGovernment,
			Title:  orDefault(api.Policy.Title, "Federal Register"),
			URL:    api.Policy.HTMLURL,
			Origin: "Federal Register API",
		})
	}
	for _, c := range api.Cases {
		sources = append(sources, Source{
			Type:   SourceCaseLaw,
			Title:  c.Name,
			URL:    c.URL,
			Origin: "CourtListener API",
		})
	}
	return sources
}

// Confidence 计算回答置信度：文档项为 (1 − min(平均距离, 1.0)) × 0.6，
// 距离为负视为缺失、按 0.5 计；API 项为 ACTIVE 政策 +0.3、
// 否则只要有 API 结果就 +0.1；总分截断到 [0,1]。
// 空文档且无 API 结果时恒为 0。
func Confidence(docs []rag.SearchResult, api *types.APIResult) float64 {
	var confidence float64

	if len(docs) > 0 {
		var sum float64
		for _, d := range docs {
			dist := d.Distance
			if dist < 0 {
				dist = missingDistance
			}
			sum += dist
		}
		avg := sum / float64(len(docs))
		confidence += (1.0 - math.Min(avg, 1.0)) * confidenceDocWeight
	}

	if api != nil {
		if api.ActivePolicy() {
			confidence += confidenceActiveBonus
		} else {
			confidence += confidencePresentBonus
		}
	}

	if confidence < 0 {
		return 0
	}
	return math.Min(confidence, 1.0)
}

// preview 按字符截取文档前缀（完整多字节字符，不截断 UTF-8 序列）。
func preview(content string) string {
	r := []rune(content)
	if len(r) > answerPreviewLen {
		r = r[:answerPreviewLen]
	}
	return string(r)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
