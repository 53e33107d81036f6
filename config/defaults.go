// =============================================================================
// 📦 Policy Navigator 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:          DefaultServerConfig(),
		Log:             DefaultLogConfig(),
		Database:        DefaultDatabaseConfig(),
		Redis:           DefaultRedisConfig(),
		VectorStore:     DefaultVectorStoreConfig(),
		Embedding:       DefaultEmbeddingConfig(),
		Chunking:        DefaultChunkingConfig(),
		Pipeline:        DefaultPipelineConfig(),
		FederalRegister: DefaultFederalRegisterConfig(),
		CourtListener:   DefaultCourtListenerConfig(),
		Slack:           DefaultSlackConfig(),
		Telemetry:       DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
// Driver 默认为空：未显式配置数据库时，订阅/提醒功能降级为仅日志
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "",
		Host:            "localhost",
		Port:            5432,
		User:            "policynav",
		Password:        "",
		Name:            "policynav",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DefaultTTL:   15 * time.Minute,
	}
}

// DefaultVectorStoreConfig 返回默认向量存储配置
func DefaultVectorStoreConfig() VectorStoreConfig {
	return VectorStoreConfig{
		Type:       "memory",
		BaseURL:    "http://localhost:8000",
		Collection: "policy_documents",
		Dimension:  384,
		Timeout:    30 * time.Second,
	}
}

// DefaultEmbeddingConfig 返回默认向量化配置
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:  "local",
		BaseURL:   "https://api.openai.com",
		Model:     "text-embedding-3-small",
		Dimension: 384,
		Timeout:   30 * time.Second,
	}
}

// DefaultChunkingConfig 返回默认分块配置
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkSize:    512,
		ChunkOverlap: 50,
		MinChunkSize: 25,
	}
}

// DefaultPipelineConfig 返回默认管线配置
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TopK:         5,
		CaseLawLimit: 5,
		MaxHistory:   0,
	}
}

// DefaultFederalRegisterConfig 返回默认政策状态 API 配置
func DefaultFederalRegisterConfig() FederalRegisterConfig {
	return FederalRegisterConfig{
		BaseURL:      "https://www.federalregister.gov/api/v1",
		Timeout:      10 * time.Second,
		RateLimitRPS: 2,
		CacheTTL:     15 * time.Minute,
	}
}

// DefaultCourtListenerConfig 返回默认判例检索 API 配置
func DefaultCourtListenerConfig() CourtListenerConfig {
	return CourtListenerConfig{
		BaseURL:      "https://www.courtlistener.com/api/rest/v3",
		Timeout:      10 * time.Second,
		RateLimitRPS: 2,
		CacheTTL:     30 * time.Minute,
	}
}

// DefaultSlackConfig 返回默认 Slack 配置
func DefaultSlackConfig() SlackConfig {
	return SlackConfig{
		WebhookURL: "",
		Channel:    "",
		Timeout:    5 * time.Second,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "policynav",
		SampleRate:   0.1,
	}
}
