// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	LINE          LINEConfig          `yaml:"line" mapstructure:"line"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Embedding     EmbeddingConfig     `yaml:"embedding" mapstructure:"embedding"`
	Index         IndexConfig         `yaml:"index" mapstructure:"index"`
	Indexer       IndexerConfig       `yaml:"indexer" mapstructure:"indexer"`
	Retrieval     RetrievalConfig     `yaml:"retrieval" mapstructure:"retrieval"`
	Vector        VectorConfig        `yaml:"vector" mapstructure:"vector"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Speech        SpeechConfig        `yaml:"speech" mapstructure:"speech"`
	Clinic        ClinicConfig        `yaml:"clinic" mapstructure:"clinic"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LINEConfig LINE Messaging API 配置
type LINEConfig struct {
	ChannelSecret      string `yaml:"channel_secret" mapstructure:"channel_secret"`
	ChannelAccessToken string `yaml:"channel_access_token" mapstructure:"channel_access_token"`
	// APIEndpoint 为空时使用 SDK 默认地址，测试时可指向本地服务
	APIEndpoint string `yaml:"api_endpoint" mapstructure:"api_endpoint"`
	// DataEndpoint 消息内容（语音等）下载地址
	DataEndpoint string `yaml:"data_endpoint" mapstructure:"data_endpoint"`
	// AsyncEvents 先回 200 再在后台处理事件
	AsyncEvents  bool          `yaml:"async_events" mapstructure:"async_events"`
	EventTimeout time.Duration `yaml:"event_timeout" mapstructure:"event_timeout"`
	DedupTTL     time.Duration `yaml:"dedup_ttl" mapstructure:"dedup_ttl"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider" mapstructure:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
}

// ProviderConfig LLM 提供商配置
type ProviderConfig struct {
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// EmbeddingConfig Embedding 配置
type EmbeddingConfig struct {
	Provider string        `yaml:"provider" mapstructure:"provider"`
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// BatchSize 仅 http 提供商使用
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	// CacheTTL 查询向量缓存时长，0 表示不缓存
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// IndexConfig 索引产物位置
type IndexConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	IndexFile    string `yaml:"index_file" mapstructure:"index_file"`
	MetadataFile string `yaml:"metadata_file" mapstructure:"metadata_file"`
}

// IndexerConfig 离线索引构建配置
type IndexerConfig struct {
	SourceDir   string `yaml:"source_dir" mapstructure:"source_dir"`
	ChunkSize   int    `yaml:"chunk_size" mapstructure:"chunk_size"`
	MinDocChars int    `yaml:"min_doc_chars" mapstructure:"min_doc_chars"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	TopK int `yaml:"top_k" mapstructure:"top_k"`
}

// VectorConfig 向量后端配置
type VectorConfig struct {
	// Backend flat 或 milvus
	Backend string       `yaml:"backend" mapstructure:"backend"`
	Milvus  MilvusConfig `yaml:"milvus" mapstructure:"milvus"`
}

// MilvusConfig Milvus 配置
type MilvusConfig struct {
	Host             string `yaml:"host" mapstructure:"host"`
	Port             int    `yaml:"port" mapstructure:"port"`
	User             string `yaml:"user" mapstructure:"user"`
	Password         string `yaml:"password" mapstructure:"password"`
	CollectionPrefix string `yaml:"collection_prefix" mapstructure:"collection_prefix"`
	InsertBatchSize  int    `yaml:"insert_batch_size" mapstructure:"insert_batch_size"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	KeyPrefix    string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// SpeechConfig 语音转写配置
type SpeechConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Language string        `yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ClinicConfig 附近诊所查询配置
type ClinicConfig struct {
	SearchKeyword string `yaml:"search_keyword" mapstructure:"search_keyword"`
	MapsBaseURL   string `yaml:"maps_base_url" mapstructure:"maps_base_url"`
	Zoom          int    `yaml:"zoom" mapstructure:"zoom"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// RequestsPerSecond 调试接口按 IP 限流
	RequestsPerSecond int `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// PerUserPerMinute 单个 LINE 用户每分钟可触发的问答次数
	PerUserPerMinute int `yaml:"per_user_per_minute" mapstructure:"per_user_per_minute"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

// DefaultProviderConfig 返回默认 LLM 提供商配置
func (c *LLMConfig) DefaultProviderConfig() (ProviderConfig, bool) {
	p, ok := c.Providers[c.DefaultProvider]
	return p, ok
}
