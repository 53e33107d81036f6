// Package govapi 为政府公开 API 客户端提供共享的 HTTP 基础设施。
package govapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/policynav/policynav/internal/cache"
	"github.com/policynav/policynav/internal/pool"
	"github.com/policynav/policynav/internal/tlsutil"
	"github.com/policynav/policynav/types"
)

// BaseClient为政府公开API客户端提供了共同的功能：
// 安全传输、出站限流、GET 响应缓存与统一错误映射。
type BaseClient struct {
	source   string
	client   *http.Client
	limiter  *rate.Limiter
	cache    *cache.Manager
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Options持有基础客户端的共同配置。
type Options struct {
	Timeout      time.Duration // HTTP 超时，默认 10s
	RateLimitRPS float64       // 出站限流（请求/秒），0 表示不限流
	CacheTTL     time.Duration // GET 响应缓存 TTL，0 表示不缓存
}

// NewBaseClient 创建一个新的基础客户端。cacheMgr 可以为 nil（不缓存）。
func NewBaseClient(source string, opts Options, cacheMgr *cache.Manager, logger *zap.Logger) *BaseClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		burst := int(opts.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}
	return &BaseClient{
		source:   source,
		client:   tlsutil.SecureHTTPClient(timeout),
		limiter:  limiter,
		cache:    cacheMgr,
		cacheTTL: opts.CacheTTL,
		logger:   logger,
	}
}

// Source 返回客户端对应的上游名称。
func (c *BaseClient) Source() string { return c.source }

// DoRequest 执行 HTTP 请求并把 JSON 响应解码到 out，并进行常见错误处理。
// 配置了 CacheTTL 的 GET 请求先查缓存；命中时不消耗限流令牌。
// 返回值是具体类型 *types.Error：调用方直接与 nil 比较，
// 不要先赋给 error 接口再判空。
func (c *BaseClient) DoRequest(ctx context.Context, method, rawURL string, query url.Values, headers map[string]string, out any) *types.Error {
	fullURL := rawURL
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	useCache := method == http.MethodGet && c.cache != nil && c.cacheTTL > 0
	var cacheKey string
	if useCache {
		cacheKey = c.requestKey(fullURL)
		if raw, err := c.cache.Get(ctx, cacheKey); err == nil {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal([]byte(raw), out); err == nil {
				c.logger.Debug("gov api cache hit",
					zap.String("source", c.source),
					zap.String("url", rawURL))
				return nil
			}
			// 缓存内容损坏时按未命中处理，继续真实请求
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return types.NewError(types.ErrTimeout, "rate limit wait: "+err.Error()).
				WithCause(err).
				WithSource(c.source)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return types.NewError(types.ErrInvalidRequest, "create request: "+err.Error()).
			WithCause(err).
			WithSource(c.source)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		code := types.ErrNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			code = types.ErrTimeout
		}
		return types.NewError(code, err.Error()).
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithSource(c.source)
	}
	defer resp.Body.Close()

	buf := pool.ByteBufferPool.Get()
	defer pool.ByteBufferPool.Put(buf)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return types.NewError(types.ErrNetwork, "read response: "+err.Error()).
			WithCause(err).
			WithRetryable(true).
			WithSource(c.source)
	}
	body := buf.Bytes()

	if resp.StatusCode >= 400 {
		return MapHTTPError(resp.StatusCode, truncate(string(body), errBodyLimit), c.source)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return types.NewError(types.ErrAPIError, "decode response: "+err.Error()).
				WithCause(err).
				WithHTTPStatus(resp.StatusCode).
				WithSource(c.source)
		}
	}

	if useCache {
		if err := c.cache.Set(ctx, cacheKey, string(body), c.cacheTTL); err != nil {
			c.logger.Warn("gov api cache store failed",
				zap.String("source", c.source),
				zap.Error(err))
		}
	}

	return nil
}

// requestKey 由完整请求 URL 派生稳定的缓存键。
func (c *BaseClient) requestKey(fullURL string) string {
	sum := sha256.Sum256([]byte(fullURL))
	return c.cache.Key("govapi", slug(c.source), hex.EncodeToString(sum[:8]))
}

// errBodyLimit 限制携带进错误信息的响应体长度。
const errBodyLimit = 300

// 映射 HTTP 状态到 types.Error。
func MapHTTPError(status int, msg, source string) *types.Error {
	code := types.ErrAPIError
	retryable := status >= 500

	switch status {
	case http.StatusUnauthorized:
		code = types.ErrUnauthorized
	case http.StatusForbidden:
		code = types.ErrForbidden
	case http.StatusNotFound:
		code = types.ErrNotFound
	case http.StatusTooManyRequests:
		code = types.ErrRateLimited
		retryable = true
	case http.StatusBadRequest:
		code = types.ErrInvalidRequest
	}

	return types.NewError(code, msg).
		WithHTTPStatus(status).
		WithRetryable(retryable).
		WithSource(source)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "_"))
}
