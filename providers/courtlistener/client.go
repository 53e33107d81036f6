// Package courtlistener 封装 CourtListener 判例检索 API。
package courtlistener

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/policynav/policynav/internal/cache"
	"github.com/policynav/policynav/providers/govapi"
	"github.com/policynav/policynav/types"
)

// Source 是降级标记与日志里的上游名称。
const Source = "CourtListener"

const defaultBaseURL = "https://www.courtlistener.com/api/rest/v3"

// DefaultLimit 是未指定时返回的判例数上限。
const DefaultLimit = 5

// Config 持有 CourtListener 客户端配置。
type Config struct {
	BaseURL      string
	APIKey       string // 匿名也可用，带 Token 配额更高
	Timeout      time.Duration
	RateLimitRPS float64
	CacheTTL     time.Duration
}

// Client 查询 CourtListener 的意见书检索接口。
// 上游不可用时回退到内置判例集，保证检索流水线永远拿得到结果。
type Client struct {
	base    *govapi.BaseClient
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// New 创建 CourtListener 客户端。cacheMgr 可以为 nil。
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

// search 响应结构（v3 /search/，只取用到的字段）
type searchResult struct {
	CaseName    string `json:"caseName"`
	Court       string `json:"court"`
	DateFiled   string `json:"dateFiled"`
	Citation    any    `json:"citation"` // 字符串或字符串数组，上游不稳定
	Snippet     string `json:"snippet"`
	AbsoluteURL string `json:"absolute_url"`
}

type searchResponse struct {
	Count   int            `json:"count"`
	Results []searchResult `json:"results"`
}

// SearchCases 检索与 query 相关的判例意见书，按相关度排序。
// 约定：上游失败时返回内置判例集而不是空结果，同时带上
// 非 nil 的 *types.Error 供编排层标记降级；检索成功但
// 零命中返回空切片和 nil 错误。
func (c *Client) SearchCases(ctx context.Context, query string, limit int) ([]types.CaseItem, *types.Error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	c.logger.Info("searching cases",
		zap.String("query", query),
		zap.Int("limit", limit))

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "o") // 只要意见书
	params.Set("order_by", "score desc")
	params.Set("page_size", strconv.Itoa(limit))

	var resp searchResponse
	if apiErr := c.base.DoRequest(ctx, http.MethodGet, c.baseURL+"/search/", params, c.headers(), &resp); apiErr != nil {
		c.logger.Warn("courtlistener search failed, using built-in case set",
			zap.String("query", query),
			zap.String("code", string(apiErr.Code)),
			zap.Error(apiErr))
		return FallbackCases(query, limit), apiErr
	}

	cases := make([]types.CaseItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(cases) >= limit {
			break
		}
		cases = append(cases, types.CaseItem{
			Name:     defaultIfEmpty(r.CaseName, "Unknown Case"),
			Court:    defaultIfEmpty(r.Court, "N/A"),
			Year:     yearOf(r.DateFiled),
			Citation: firstCitation(r.Citation),
			Summary:  defaultIfEmpty(r.Snippet, "No summary available"),
			URL:      defaultIfEmpty(r.AbsoluteURL, "N/A"),
		})
	}

	c.logger.Info("case search complete",
		zap.String("query", query),
		zap.Int("found", len(cases)))
	return cases, nil
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Token " + c.apiKey}
}

// yearOf 取 dateFiled（YYYY-MM-DD）的年份部分。
func yearOf(dateFiled string) string {
	if len(dateFiled) >= 4 {
		return dateFiled[:4]
	}
	return "N/A"
}

// firstCitation 规整 citation 字段：取字符串本身或数组首个元素。
func firstCitation(v any) string {
	switch c := v.(type) {
	case string:
		if c != "" {
			return c
		}
	case []any:
		if len(c) > 0 {
			if s, ok := c[0].(string); ok && s != "" {
				return s
			}
		}
	}
	return "N/A"
}

func defaultIfEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// 内置判例集：按 key 出现在查询里的先后匹配（有序，不能用 map，
// 多个 key 同时命中时取最先声明的）。
var fallbackSet = []struct {
	key   string
	cases []types.CaseItem
}{
	{
		key: "section 230",
		cases: []types.CaseItem{
			{
				Name:     "Fair Housing Council v. Roommates.com",
				Court:    "9th Circuit Court of Appeals",
				Year:     "2008",
				Citation: "521 F.3d 1157",
				Summary:  "Clarified limits on Section 230 platform immunity. Court held that websites that contribute to illegal content development are not protected.",
				URL:      "https://www.courtlistener.com/opinion/171033/",
			},
			{
				Name:     "Gonzalez v. Google LLC",
				Court:    "Supreme Court of the United States",
				Year:     "2023",
				Citation: "598 U.S. 617",
				Summary:  "Examined whether algorithmic recommendations are protected by Section 230. Court narrowly construed Section 230 protections.",
				URL:      "https://www.supremecourt.gov/opinions/22pdf/21-1333_6j7a.pdf",
			},
		},
	},
	{
		key: "gdpr",
		cases: []types.CaseItem{
			{
				Name:     "Google LLC v. CNIL",
				Court:    "Court of Justice of the European Union",
				Year:     "2019",
				Citation: "Case C-507/17",
				Summary:  "Addressed the territorial scope of the right to be forgotten under GDPR Article 17.",
				URL:      "https://curia.europa.eu/juris/document/document.jsf?docid=218105",
			},
		},
	},
	{
		key: "hipaa",
		cases: []types.CaseItem{
			{
				Name:     "Ciox Health, LLC v. Azar",
				Court:    "District Court, District of Columbia",
				Year:     "2020",
				Citation: "435 F. Supp. 3d 30",
				Summary:  "Vacated portions of the HHS fee limitation and third-party directive rules for patient records under HIPAA.",
				URL:      "https://www.courtlistener.com/docket/6213428/ciox-health-llc-v-azar/",
			},
		},
	},
	{
		key: "executive order 14067",
		cases: []types.CaseItem{
			{
				Name:     "Van Loon v. Department of the Treasury",
				Court:    "5th Circuit Court of Appeals",
				Year:     "2024",
				Citation: "122 F.4th 549",
				Summary:  "Held that immutable smart contracts are not sanctionable property, shaping the digital-asset policy landscape surrounding Executive Order 14067.",
				URL:      "https://www.courtlistener.com/opinion/10171581/van-loon-v-department-of-the-treasury/",
			},
		},
	},
}

// genericFallback 在没有任何 key 命中时返回。
var genericFallback = types.CaseItem{
	Name:     "Marbury v. Madison",
	Court:    "Supreme Court of the United States",
	Year:     "1803",
	Citation: "5 U.S. 137",
	Summary:  "Established judicial review: federal courts may invalidate statutes and executive actions that conflict with the Constitution.",
	URL:      "https://www.courtlistener.com/",
}

// FallbackCases 返回查询对应的内置判例，最多 limit 条。
// 结果是拷贝，调用方可以安全修改。
func FallbackCases(query string, limit int) []types.CaseItem {
	if limit <= 0 {
		limit = DefaultLimit
	}
	lower := strings.ToLower(query)
	for _, entry := range fallbackSet {
		if strings.Contains(lower, entry.key) {
			n := len(entry.cases)
			if n > limit {
				n = limit
			}
			out := make([]types.CaseItem, n)
			copy(out, entry.cases[:n])
			return out
		}
	}
	return []types.CaseItem{genericFallback}
}
