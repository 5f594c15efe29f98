// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

const defaultConfigDir = "configs"

// envPattern 匹配 ${VAR} 或 ${VAR:default}
var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		dir = defaultConfigDir
	}
	return LoadFrom(dir)
}

// LoadFrom 从指定目录加载配置；config.yaml 缺失时仅使用默认值与环境变量
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), true); err != nil {
		return nil, err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadConfigFile 读取文件，执行环境变量替换，并合并到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		v.SetConfigFile(path)
		return nil
	}
	if err := v.MergeConfig(reader); err != nil {
		return fmt.Errorf("failed to merge processed config %s: %w", path, err)
	}
	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符，未定义且无默认值的变量保留原样
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := envPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		if sub[2] != "" {
			return sub[3]
		}
		return match
	})
}

// Validate 校验跨字段约束
func (c *Config) Validate() error {
	switch c.Vector.Backend {
	case "flat", "milvus":
	default:
		return fmt.Errorf("unsupported vector backend %q", c.Vector.Backend)
	}
	if c.Indexer.ChunkSize <= 0 {
		return fmt.Errorf("indexer.chunk_size must be positive")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if _, ok := c.LLM.DefaultProviderConfig(); !ok {
		return fmt.Errorf("llm provider %q not found in llm.providers", c.LLM.DefaultProvider)
	}
	return nil
}

// IndexPaths 返回索引文件与元数据文件的完整路径
func (c *Config) IndexPaths() (indexPath, metadataPath string) {
	return filepath.Join(c.Index.Dir, c.Index.IndexFile), filepath.Join(c.Index.Dir, c.Index.MetadataFile)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "symptom-advisor-bot")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "60s")
	v.SetDefault("server.http.idle_timeout", "120s")
	v.SetDefault("server.http.shutdown_timeout", "30s")

	v.SetDefault("line.async_events", true)
	v.SetDefault("line.event_timeout", "60s")
	v.SetDefault("line.dedup_ttl", "10m")

	// LLM 默认值（与原问答机器人保持一致）
	v.SetDefault("llm.default_provider", "openai")
	v.SetDefault("llm.providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.providers.openai.model", "gpt-3.5-turbo")
	v.SetDefault("llm.providers.openai.max_tokens", 500)
	v.SetDefault("llm.providers.openai.temperature", 0.7)
	v.SetDefault("llm.providers.openai.timeout", "60s")

	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.endpoint", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-ada-002")
	v.SetDefault("embedding.timeout", "30s")
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("embedding.cache_ttl", "24h")

	v.SetDefault("index.dir", "data/index")
	v.SetDefault("index.index_file", "disease_index.gob")
	v.SetDefault("index.metadata_file", "disease_metadata.json")

	v.SetDefault("indexer.source_dir", "disease_intro_md")
	v.SetDefault("indexer.chunk_size", 300)
	v.SetDefault("indexer.min_doc_chars", 50)
	v.SetDefault("indexer.concurrency", 4)

	v.SetDefault("retrieval.top_k", 3)

	v.SetDefault("vector.backend", "flat")
	v.SetDefault("vector.milvus.host", "localhost")
	v.SetDefault("vector.milvus.port", 19530)
	v.SetDefault("vector.milvus.collection_prefix", "symptom_bot")
	v.SetDefault("vector.milvus.insert_batch_size", 256)

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 20)
	v.SetDefault("cache.redis.min_idle_conns", 2)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")
	v.SetDefault("cache.redis.key_prefix", "symptom_bot")

	v.SetDefault("speech.enabled", true)
	v.SetDefault("speech.model", "whisper-1")
	v.SetDefault("speech.language", "zh")
	v.SetDefault("speech.timeout", "60s")

	v.SetDefault("clinic.search_keyword", "診所")
	v.SetDefault("clinic.maps_base_url", "https://www.google.com/maps/search/")
	v.SetDefault("clinic.zoom", 15)

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests_per_second", 5)
	v.SetDefault("security.rate_limit.per_user_per_minute", 20)
}
