// Package federalregister 封装 Federal Register 公文检索 API。
package federalregister

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/policynav/policynav/internal/cache"
	"github.com/policynav/policynav/providers/govapi"
	"github.com/policynav/policynav/types"
)

// Source 是写入 PolicyStatus.Source 的上游名称。
const Source = "Federal Register"

const defaultBaseURL = "https://www.federalregister.gov/api/v1"

// 行政命令编号为五位数字（如 14067）。
var eoNumberRe = regexp.MustCompile(`(\d{5})`)

// Config 持有 Federal Register 客户端配置。
type Config struct {
	BaseURL      string
	APIKey       string // 公共接口无需鉴权，保留给代理场景
	Timeout      time.Duration
	RateLimitRPS float64
	CacheTTL     time.Duration
}

// Client 查询 Federal Register 的 documents 接口。
// 该 API 无鉴权、纯 GET，响应适合按 TTL 缓存。
type Client struct {
	base    *govapi.BaseClient
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// New 创建 Federal Register 客户端。cacheMgr 可以为 nil。
func New(cfg Config, cacheMgr *cache.Manager, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		base: govapi.NewBaseClient(Source, govapi.Options{
			Timeout:      cfg.Timeout,
			RateLimitRPS: cfg.RateLimitRPS,
			CacheTTL:     cfg.CacheTTL,
		}, cacheMgr, logger),
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// documents.json 响应结构（只取用到的字段）
type document struct {
	Title           string `json:"title"`
	DocumentNumber  string `json:"document_number"`
	PublicationDate string `json:"publication_date"`
	Type            string `json:"type"`
	Abstract        string `json:"abstract"`
	HTMLURL         string `json:"html_url"`
	PDFURL          string `json:"pdf_url"`
}

type documentsResponse struct {
	Count   int        `json:"count"`
	Results []document `json:"results"`
}

// CheckStatus 查询一项政策的当前状态。
// 约定：永远不返回 Go error——上游失败降级为 Status=ERROR，
// 查无结果降级为 Status=NOT_FOUND，两者都带 LastChecked 时间戳，
// 由编排层决定如何呈现。
func (c *Client) CheckStatus(ctx context.Context, identifier string) types.PolicyStatus {
	term := searchTerm(identifier)
	c.logger.Info("checking policy status",
		zap.String("identifier", identifier),
		zap.String("term", term))

	query := url.Values{}
	query.Set("conditions[term]", term)
	query.Set("per_page", "5")
	query.Set("order", "newest")

	now := time.Now().UTC().Format(time.RFC3339)

	var resp documentsResponse
	if apiErr := c.base.DoRequest(ctx, http.MethodGet, c.baseURL+"/documents.json", query, c.headers(), &resp); apiErr != nil {
		c.logger.Warn("federal register lookup failed",
			zap.String("identifier", identifier),
			zap.String("code", string(apiErr.Code)),
			zap.Error(apiErr))
		return types.PolicyStatus{
			Status:      types.PolicyStatusError,
			Message:     "API error: " + apiErr.Message,
			LastChecked: now,
			Source:      Source,
		}
	}

	if len(resp.Results) == 0 {
		return types.PolicyStatus{
			Status:      types.PolicyStatusNotFound,
			Message:     "no results found for " + identifier,
			LastChecked: now,
			Source:      Source,
		}
	}

	// order=newest，首条即最新公文
	latest := resp.Results[0]
	return types.PolicyStatus{
		Status:          types.PolicyStatusActive,
		Title:           latest.Title,
		DocumentNumber:  latest.DocumentNumber,
		PublicationDate: latest.PublicationDate,
		DocumentType:    latest.Type,
		Abstract:        latest.Abstract,
		HTMLURL:         latest.HTMLURL,
		PDFURL:          latest.PDFURL,
		LastChecked:     now,
		Source:          Source,
	}
}

// RecentDocuments 拉取最近 days 天发布的公文摘要，最新在前。
func (c *Client) RecentDocuments(ctx context.Context, days, perPage int) ([]types.PolicyDocSummary, error) {
	if days <= 0 {
		days = 30
	}
	if perPage <= 0 {
		perPage = 20
	}

	since := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	query := url.Values{}
	query.Set("conditions[publication_date][gte]", since)
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("order", "newest")

	var resp documentsResponse
	if apiErr := c.base.DoRequest(ctx, http.MethodGet, c.baseURL+"/documents.json", query, c.headers(), &resp); apiErr != nil {
		return nil, apiErr
	}

	docs := make([]types.PolicyDocSummary, 0, len(resp.Results))
	for _, d := range resp.Results {
		docs = append(docs, types.PolicyDocSummary{
			Title:           d.Title,
			DocumentNumber:  d.DocumentNumber,
			PublicationDate: d.PublicationDate,
			DocumentType:    d.Type,
			HTMLURL:         d.HTMLURL,
		})
	}

	c.logger.Info("fetched recent documents",
		zap.Int("days", days),
		zap.Int("count", len(docs)))
	return docs, nil
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"X-Api-Key": c.apiKey}
}

// searchTerm 把包含行政命令编号的标识符改写成
// "executive order NNNNN"，否则原样作为全文检索词。
func searchTerm(identifier string) string {
	if m := eoNumberRe.FindStringSubmatch(identifier); m != nil {
		return "executive order " + m[1]
	}
	return identifier
}
