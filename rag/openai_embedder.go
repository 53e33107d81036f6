package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/policynav/policynav/types"
)

// OpenAIEmbedderConfig OpenAI 兼容 embedding 服务配置。
type OpenAIEmbedderConfig struct {
	BaseURL    string        // 默认 https://api.openai.com
	APIKey     string        // Bearer 令牌
	Model      string        // 默认 text-embedding-3-small
	Dimensions int           // 默认 1536
	Timeout    time.Duration // 默认 30s
}

// OpenAIEmbedder 调用 OpenAI 兼容 /v1/embeddings 接口的向量化器。
// 任何实现该线协议的服务（OpenAI、Azure、本地推理网关）均可对接。
type OpenAIEmbedder struct {
	client *http.Client
	cfg    OpenAIEmbedderConfig
}

// NewOpenAIEmbedder 创建 OpenAI embedding 客户端。
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) *OpenAIEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &OpenAIEmbedder{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

type openAIEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedQuery 向量化单个查询
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	embeddings, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, types.NewError(types.ErrEmbedding, "no embeddings returned").
			WithSource("openai-embedding")
	}
	return embeddings[0], nil
}

// EmbedDocuments 批量向量化文档
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	return e.embed(ctx, texts)
}

// Dimension 返回向量维度
func (e *OpenAIEmbedder) Dimension() int {
	return e.cfg.Dimensions
}

// embed 请求 /v1/embeddings 并按 Index 排列结果。
func (e *OpenAIEmbedder) embed(ctx context.Context, input []string) ([][]float64, error) {
	body := openAIEmbedRequest{
		Input:      input,
		Model:      e.cfg.Model,
		Dimensions: e.cfg.Dimensions,
	}

	respBody, err := e.doRequest(ctx, "/v1/embeddings", body)
	if err != nil {
		return nil, err
	}

	var oaResp openAIEmbedResponse
	if err := json.Unmarshal(respBody, &oaResp); err != nil {
		return nil, types.NewError(types.ErrEmbedding, "decode embeddings response").
			WithCause(err).WithSource("openai-embedding")
	}

	result := make([][]float64, len(input))
	for _, d := range oaResp.Data {
		if d.Index < 0 || d.Index >= len(result) {
			return nil, types.NewError(types.ErrEmbedding,
				fmt.Sprintf("embedding index %d out of range", d.Index)).
				WithSource("openai-embedding")
		}
		result[d.Index] = d.Embedding
	}
	return result, nil
}

// doRequest 执行 HTTP 请求并做统一错误映射。
func (e *OpenAIEmbedder) doRequest(ctx context.Context, endpoint string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrNetwork, err.Error()).
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithSource("openai-embedding")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, mapEmbeddingHTTPError(resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// mapEmbeddingHTTPError 将 HTTP 状态映射为 types.Error。
func mapEmbeddingHTTPError(status int, msg string) *types.Error {
	code := types.ErrEmbedding
	retryable := status >= 500

	switch status {
	case http.StatusUnauthorized:
		code = types.ErrUnauthorized
	case http.StatusForbidden:
		code = types.ErrForbidden
	case http.StatusTooManyRequests:
		code = types.ErrRateLimited
		retryable = true
	case http.StatusBadRequest:
		code = types.ErrInvalidRequest
	}

	return types.NewError(code, TruncateText(msg, 300)).
		WithHTTPStatus(status).
		WithRetryable(retryable).
		WithSource("openai-embedding")
}
