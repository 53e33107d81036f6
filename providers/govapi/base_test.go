package govapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/policynav/policynav/internal/cache"
	"github.com/policynav/policynav/types"
)

// TestMapHTTPError_StatusCodes tests that all HTTP status codes are correctly
// mapped to types.ErrorCode values.
func TestMapHTTPError_StatusCodes(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		msg            string
		source         string
		expectedCode   types.ErrorCode
		expectedRetry  bool
		expectedStatus int
	}{
		{
			name:           "401 Unauthorized",
			status:         http.StatusUnauthorized,
			msg:            "Invalid API key",
			source:         "Federal Register",
			expectedCode:   types.ErrUnauthorized,
			expectedRetry:  false,
			expectedStatus: 401,
		},
		{
			name:           "403 Forbidden",
			status:         http.StatusForbidden,
			msg:            "Access denied",
			source:         "Federal Register",
			expectedCode:   types.ErrForbidden,
			expectedRetry:  false,
			expectedStatus: 403,
		},
		{
			name:           "404 Not Found",
			status:         http.StatusNotFound,
			msg:            "No such document",
			source:         "Federal Register",
			expectedCode:   types.ErrNotFound,
			expectedRetry:  false,
			expectedStatus: 404,
		},
		{
			name:           "429 Rate Limited",
			status:         http.StatusTooManyRequests,
			msg:            "Rate limit exceeded",
			source:         "CourtListener",
			expectedCode:   types.ErrRateLimited,
			expectedRetry:  true,
			expectedStatus: 429,
		},
		{
			name:           "400 Bad Request",
			status:         http.StatusBadRequest,
			msg:            "Invalid parameter",
			source:         "CourtListener",
			expectedCode:   types.ErrInvalidRequest,
			expectedRetry:  false,
			expectedStatus: 400,
		},
		{
			name:           "500 Internal Server Error",
			status:         http.StatusInternalServerError,
			msg:            "Internal server error",
			source:         "Federal Register",
			expectedCode:   types.ErrAPIError,
			expectedRetry:  true,
			expectedStatus: 500,
		},
		{
			name:           "502 Bad Gateway",
			status:         http.StatusBadGateway,
			msg:            "Bad gateway",
			source:         "Federal Register",
			expectedCode:   types.ErrAPIError,
			expectedRetry:  true,
			expectedStatus: 502,
		},
		{
			name:           "503 Service Unavailable",
			status:         http.StatusServiceUnavailable,
			msg:            "Service temporarily unavailable",
			source:         "CourtListener",
			expectedCode:   types.ErrAPIError,
			expectedRetry:  true,
			expectedStatus: 503,
		},
		{
			name:           "504 Gateway Timeout",
			status:         http.StatusGatewayTimeout,
			msg:            "Gateway timeout",
			source:         "Federal Register",
			expectedCode:   types.ErrAPIError,
			expectedRetry:  true,
			expectedStatus: 504,
		},
		{
			name:           "599 Custom 5xx Error",
			status:         599,
			msg:            "Custom server error",
			source:         "Federal Register",
			expectedCode:   types.ErrAPIError,
			expectedRetry:  true,
			expectedStatus: 599,
		},
		{
			name:           "418 I'm a teapot (4xx non-retryable)",
			status:         418,
			msg:            "I'm a teapot",
			source:         "Federal Register",
			expectedCode:   types.ErrAPIError,
			expectedRetry:  false,
			expectedStatus: 418,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(tt.status, tt.msg, tt.source)

			assert.NotNil(t, err, "Error should not be nil")
			assert.Equal(t, tt.expectedCode, err.Code, "Error code mismatch")
			assert.Equal(t, tt.msg, err.Message, "Error message mismatch")
			assert.Equal(t, tt.expectedStatus, err.HTTPStatus, "HTTP status mismatch")
			assert.Equal(t, tt.expectedRetry, err.Retryable, "Retryable flag mismatch")
			assert.Equal(t, tt.source, err.Source, "Source name mismatch")
		})
	}
}

// TestMapHTTPError_SourceIncluded tests that the upstream source name is
// included in all error values.
func TestMapHTTPError_SourceIncluded(t *testing.T) {
	sources := []string{"Federal Register", "CourtListener"}
	statuses := []int{401, 403, 404, 429, 400, 500, 502, 503, 504}

	for _, source := range sources {
		for _, status := range statuses {
			t.Run(source+"_"+http.StatusText(status), func(t *testing.T) {
				err := MapHTTPError(status, "test error", source)
				assert.Equal(t, source, err.Source, "Source name should be included in error")
			})
		}
	}
}

func TestNewBaseClient_Defaults(t *testing.T) {
	c := NewBaseClient("Federal Register", Options{}, nil, nil)

	require.NotNil(t, c)
	assert.Equal(t, "Federal Register", c.Source())
	assert.Nil(t, c.limiter, "RPS 0 should disable the limiter")
	assert.Equal(t, 10*time.Second, c.client.Timeout)
	assert.NotNil(t, c.logger)
}

func TestNewBaseClient_RateLimiter(t *testing.T) {
	c := NewBaseClient("CourtListener", Options{RateLimitRPS: 2}, nil, zap.NewNop())
	require.NotNil(t, c.limiter)
	assert.Equal(t, 2, c.limiter.Burst())

	// 小数 RPS 的突发量至少为 1
	c = NewBaseClient("CourtListener", Options{RateLimitRPS: 0.5}, nil, zap.NewNop())
	require.NotNil(t, c.limiter)
	assert.Equal(t, 1, c.limiter.Burst())
}

func TestBaseClient_DoRequest_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "policy", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count": 2, "name": "ok"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewBaseClient("Federal Register", Options{Timeout: 5 * time.Second}, nil, zap.NewNop())

	var out struct {
		Count int    `json:"count"`
		Name  string `json:"name"`
	}
	query := url.Values{}
	query.Set("q", "policy")
	headers := map[string]string{"Authorization": "Token secret"}

	apiErr := c.DoRequest(context.Background(), http.MethodGet, srv.URL+"/search", query, headers, &out)

	require.Nil(t, apiErr)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "ok", out.Name)
}

func TestBaseClient_DoRequest_NilOut(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ignored": true}`))
	}))
	t.Cleanup(srv.Close)

	c := NewBaseClient("Federal Register", Options{}, nil, zap.NewNop())
	apiErr := c.DoRequest(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)
	assert.Nil(t, apiErr)
}

func TestBaseClient_DoRequest_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	c := NewBaseClient("CourtListener", Options{}, nil, zap.NewNop())
	apiErr := c.DoRequest(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)

	require.NotNil(t, apiErr)
	assert.Equal(t, types.ErrRateLimited, apiErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatus)
	assert.True(t, apiErr.Retryable)
	assert.Equal(t, "CourtListener", apiErr.Source)
	assert.Contains(t, apiErr.Message, "too many requests")
}

func TestBaseClient_DoRequest_ErrorBodyTruncated(t *testing.T) {
	t.Parallel()

	longBody := strings.Repeat("x", 2000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(longBody))
	}))
	t.Cleanup(srv.Close)

	c := NewBaseClient("Federal Register", Options{}, nil, zap.NewNop())
	apiErr := c.DoRequest(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)

	require.NotNil(t, apiErr)
	assert.LessOrEqual(t, len(apiErr.Message), errBodyLimit+3)
	assert.True(t, strings.HasSuffix(apiErr.Message, "..."))
}

func TestBaseClient_DoRequest_NetworkError(t *testing.T) {
	t.Parallel()

	c := NewBaseClient("Federal Register", Options{Timeout: time.Second}, nil, zap.NewNop())
	// 未监听的端口
	apiErr := c.DoRequest(context.Background(), http.MethodGet, "http://127.0.0.1:1/documents.json", nil, nil, nil)

	require.NotNil(t, apiErr)
	assert.Equal(t, types.ErrNetwork, apiErr.Code)
	assert.True(t, apiErr.Retryable)
	assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus)
}

func TestBaseClient_DoRequest_DecodeError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	t.Cleanup(srv.Close)

	c := NewBaseClient("Federal Register", Options{}, nil, zap.NewNop())
	var out map[string]any
	apiErr := c.DoRequest(context.Background(), http.MethodGet, srv.URL, nil, nil, &out)

	require.NotNil(t, apiErr)
	assert.Equal(t, types.ErrAPIError, apiErr.Code)
	assert.Contains(t, apiErr.Message, "decode response")
}

func TestBaseClient_DoRequest_CachesGETResponses(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	mgr, err := cache.NewManager(cache.Config{
		Addr:       mr.Addr(),
		KeyPrefix:  "test",
		DefaultTTL: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"count": 7}`))
	}))
	t.Cleanup(srv.Close)

	c := NewBaseClient("Federal Register", Options{CacheTTL: time.Minute}, mgr, zap.NewNop())

	ctx := context.Background()
	query := url.Values{}
	query.Set("conditions[term]", "privacy")

	var first, second struct {
		Count int `json:"count"`
	}
	require.Nil(t, c.DoRequest(ctx, http.MethodGet, srv.URL+"/documents.json", query, nil, &first))
	require.Nil(t, c.DoRequest(ctx, http.MethodGet, srv.URL+"/documents.json", query, nil, &second))

	assert.Equal(t, int64(1), hits.Load(), "second GET should be served from cache")
	assert.Equal(t, first.Count, second.Count)

	// 不同的查询参数使用不同的缓存键
	query.Set("conditions[term]", "labor")
	var third struct {
		Count int `json:"count"`
	}
	require.Nil(t, c.DoRequest(ctx, http.MethodGet, srv.URL+"/documents.json", query, nil, &third))
	assert.Equal(t, int64(2), hits.Load())
}

func TestBaseClient_DoRequest_CacheDisabledWithoutTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	mgr, err := cache.NewManager(cache.Config{
		Addr:       mr.Addr(),
		KeyPrefix:  "test",
		DefaultTTL: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	// CacheTTL 为 0：有 cacheMgr 也不缓存
	c := NewBaseClient("Federal Register", Options{}, mgr, zap.NewNop())

	require.Nil(t, c.DoRequest(context.Background(), http.MethodGet, srv.URL, nil, nil, nil))
	require.Nil(t, c.DoRequest(context.Background(), http.MethodGet, srv.URL, nil, nil, nil))
	assert.Equal(t, int64(2), hits.Load())
}

func TestBaseClient_DoRequest_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	t.Cleanup(srv.Close)

	c := NewBaseClient("Federal Register", Options{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	apiErr := c.DoRequest(ctx, http.MethodGet, srv.URL, nil, nil, nil)
	require.NotNil(t, apiErr)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abcd", 2))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "federal_register", slug("Federal Register"))
	assert.Equal(t, "courtlistener", slug("CourtListener"))
}
