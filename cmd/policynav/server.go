package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/policynav/policynav/api/handlers"
	"github.com/policynav/policynav/config"
	"github.com/policynav/policynav/internal/cache"
	"github.com/policynav/policynav/internal/database"
	"github.com/policynav/policynav/internal/metrics"
	"github.com/policynav/policynav/internal/server"
	"github.com/policynav/policynav/internal/telemetry"
	"github.com/policynav/policynav/navigator"
	"github.com/policynav/policynav/notify"
	"github.com/policynav/policynav/providers/courtlistener"
	"github.com/policynav/policynav/providers/federalregister"
	"github.com/policynav/policynav/rag"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 Policy Navigator 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   *telemetry.Providers
	db     *gorm.DB

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 协作方
	cacheManager *cache.Manager
	poolManager  *database.PoolManager
	policyAPI    *federalregister.Client
	nav          *navigator.Navigator
	actionAgent  *notify.ActionAgent

	// Handlers
	healthHandler        *handlers.HealthHandler
	queryHandler         *handlers.QueryHandler
	documentsHandler     *handlers.DocumentsHandler
	historyHandler       *handlers.HistoryHandler
	policyHandler        *handlers.PolicyHandler
	casesHandler         *handlers.CasesHandler
	subscriptionsHandler *handlers.SubscriptionsHandler

	// 指标收集器
	metricsCollector *metrics.Collector

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc

	wg sync.WaitGroup
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers, db *gorm.DB) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		otel:   otel,
		db:     db,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector("policynav", s.logger)

	// 2. 初始化协作方（缓存、索引、政府 API、通知、编排器）
	if err := s.initCollaborators(); err != nil {
		return fmt.Errorf("failed to init collaborators: %w", err)
	}

	// 3. 初始化 Handlers
	s.initHandlers()

	// 4. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 5. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("cache_enabled", s.cacheManager != nil),
		zap.Bool("subscriptions_enabled", s.db != nil),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initCollaborators 构建问答管线的全部协作方。
// 缓存和数据库缺失时降级运行，向量索引缺失则启动失败。
func (s *Server) initCollaborators() error {
	// Redis 缓存（政府 API 响应缓存，失败时降级为直连）
	if s.cfg.Redis.Enabled {
		mgr, err := cache.NewManager(cache.Config{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			KeyPrefix:    "policynav",
			DefaultTTL:   s.cfg.Redis.DefaultTTL,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
		}, s.logger)
		if err != nil {
			s.logger.Warn("Redis not available, API responses will not be cached", zap.Error(err))
		} else {
			s.cacheManager = mgr
		}
	}

	// 数据库连接池参数
	if s.db != nil {
		poolCfg := database.DefaultPoolConfig()
		if s.cfg.Database.MaxOpenConns > 0 {
			poolCfg.MaxOpenConns = s.cfg.Database.MaxOpenConns
		}
		if s.cfg.Database.MaxIdleConns > 0 {
			poolCfg.MaxIdleConns = s.cfg.Database.MaxIdleConns
		}
		if s.cfg.Database.ConnMaxLifetime > 0 {
			poolCfg.ConnMaxLifetime = s.cfg.Database.ConnMaxLifetime
		}
		if s.cfg.Database.ConnMaxIdleTime > 0 {
			poolCfg.ConnMaxIdleTime = s.cfg.Database.ConnMaxIdleTime
		}
		poolCfg.StatsReporter = func(open, idle int) {
			s.metricsCollector.RecordDBConnections(s.cfg.Database.Driver, open, idle)
		}
		pm, err := database.NewPoolManager(s.db, poolCfg, s.logger)
		if err != nil {
			s.logger.Warn("Failed to configure database pool", zap.Error(err))
		} else {
			s.poolManager = pm
		}
	}

	// 向量索引（向量化器 + 向量存储 + 分块器）
	index, err := rag.NewIndexFromConfig(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	// 政府 API 客户端
	s.policyAPI = federalregister.New(federalregister.Config{
		BaseURL:      s.cfg.FederalRegister.BaseURL,
		APIKey:       s.cfg.FederalRegister.APIKey,
		Timeout:      s.cfg.FederalRegister.Timeout,
		RateLimitRPS: s.cfg.FederalRegister.RateLimitRPS,
		CacheTTL:     s.cfg.FederalRegister.CacheTTL,
	}, s.cacheManager, s.logger)

	caseAPI := courtlistener.New(courtlistener.Config{
		BaseURL:      s.cfg.CourtListener.BaseURL,
		APIKey:       s.cfg.CourtListener.APIKey,
		Timeout:      s.cfg.CourtListener.Timeout,
		RateLimitRPS: s.cfg.CourtListener.RateLimitRPS,
		CacheTTL:     s.cfg.CourtListener.CacheTTL,
	}, s.cacheManager, s.logger)

	// Slack 通知与订阅动作
	slackCfg := notify.SlackConfig{
		WebhookURL:      s.cfg.Slack.WebhookURL,
		Channel:         s.cfg.Slack.Channel,
		WorkflowWebhook: s.cfg.Slack.WorkflowWebhookURL,
		Timeout:         s.cfg.Slack.Timeout,
	}
	notifier := notify.NewSlackNotifier(slackCfg, s.logger)
	store := notify.NewStore(s.db, s.logger)
	s.actionAgent = notify.NewActionAgent(notifier, store, slackCfg, s.logger)

	// 编排器
	nav, err := navigator.New(navigator.Config{
		TopK:         s.cfg.Pipeline.TopK,
		CaseLawLimit: s.cfg.Pipeline.CaseLawLimit,
		MaxHistory:   s.cfg.Pipeline.MaxHistory,
	}, index, navigator.Deps{
		PolicyAPI:   s.policyAPI,
		CaseLawAPI:  caseAPI,
		Checklist:   s.actionAgent,
		Synthesizer: navigator.NewTemplateSynthesizer(s.logger),
		Metrics:     s.metricsCollector,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create navigator: %w", err)
	}
	s.nav = nav

	s.logger.Info("Collaborators initialized")
	return nil
}

// initHandlers 初始化所有 handlers 并注册就绪检查
func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.queryHandler = handlers.NewQueryHandler(s.nav, s.logger)
	s.documentsHandler = handlers.NewDocumentsHandler(s.nav, s.logger)
	s.historyHandler = handlers.NewHistoryHandler(s.nav, s.logger)
	s.casesHandler = handlers.NewCasesHandler(s.nav, s.logger)
	s.subscriptionsHandler = handlers.NewSubscriptionsHandler(s.actionAgent, s.logger)

	// policy handler 直接持有 Federal Register 客户端（状态查询 + 最近文档）
	s.policyHandler = handlers.NewPolicyHandler(s.policyAPI, s.logger)

	// 就绪检查：向量索引永远检查，Redis 和数据库按接入情况注册
	s.healthHandler.RegisterCheck(handlers.NewVectorStoreHealthCheck("vector_store", func(ctx context.Context) error {
		_, err := s.nav.Stats(ctx)
		return err
	}))
	if s.cacheManager != nil {
		s.healthHandler.RegisterCheck(handlers.NewRedisHealthCheck("redis", s.cacheManager.Ping))
	}
	if s.poolManager != nil {
		s.healthHandler.RegisterCheck(handlers.NewDatabaseHealthCheck("database", s.poolManager.Ping))
	}

	s.logger.Info("Handlers initialized")
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)

	// 版本信息端点
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// API 路由
	// ========================================
	mux.HandleFunc("/api/v1/query", s.queryHandler.HandleQuery)

	mux.HandleFunc("/api/v1/documents", s.documentsHandler.HandleAdd)
	mux.HandleFunc("/api/v1/documents/batch", s.documentsHandler.HandleAddBatch)
	mux.HandleFunc("/api/v1/documents/stats", s.documentsHandler.HandleStats)
	mux.HandleFunc("/api/v1/documents/", s.documentsHandler.HandleDelete)

	mux.HandleFunc("/api/v1/history", s.historyHandler.HandleHistory)

	mux.HandleFunc("/api/v1/policy/status", s.policyHandler.HandleStatus)
	mux.HandleFunc("/api/v1/policy/recent", s.policyHandler.HandleRecent)

	mux.HandleFunc("/api/v1/cases/search", s.casesHandler.HandleSearch)

	mux.HandleFunc("/api/v1/subscriptions", s.subscriptionsHandler.HandleSubscriptions)
	mux.HandleFunc("/api/v1/subscriptions/", s.subscriptionsHandler.HandleDeactivate)

	// ========================================
	// 构建中间件链
	// ========================================
	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
	}
	if s.cfg.Telemetry.Enabled {
		middlewares = append(middlewares, OTelTracing())
	}
	middlewares = append(middlewares,
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
	)
	if s.cfg.Server.JWT.Enabled {
		middlewares = append(middlewares, JWTAuth(s.cfg.Server.JWT, skipAuthPaths, s.logger))
	} else {
		middlewares = append(middlewares, APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.cfg.Server.AllowQueryAPIKey, s.logger))
	}

	handler := Chain(mux, middlewares...)

	// ========================================
	// 使用 internal/server.Manager
	// ========================================
	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout, // 2x ReadTimeout
		MaxHeaderBytes:  1 << 20,                      // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	// 使用 httpManager 的 WaitForShutdown（它会监听信号）
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	// 执行清理
	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 0. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 1. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 3. 等待后台提醒投递完成
	if s.actionAgent != nil {
		s.actionAgent.Close()
	}

	// 4. 关闭缓存连接
	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("Cache shutdown error", zap.Error(err))
		}
	}

	// 5. 关闭数据库连接池
	if s.poolManager != nil {
		if err := s.poolManager.Close(); err != nil {
			s.logger.Error("Database shutdown error", zap.Error(err))
		}
	}

	// 6. 刷出遥测数据
	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	// 7. 等待所有 goroutine 完成
	s.wg.Wait()

	s.logger.Info("Graceful shutdown completed")
}
