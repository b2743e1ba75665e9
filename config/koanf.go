package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar 指定配置文件路径的环境变量。
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix 是环境变量前缀。
const EnvPrefix = "MOODKIT_"

// DefaultConfigPaths 未设置 CONFIG_PATH 时依次查找的配置文件。
var DefaultConfigPaths = []string{
	"moodkit.yaml",
	"moodkit.yml",
	"/etc/moodkit/moodkit.yaml",
}

// Load 按默认路径查找配置文件并加载配置。
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile 加载指定配置文件（path 为空时只使用默认值与环境变量）。
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Logging.Output = os.Stderr

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// 环境变量中以逗号分隔的切片字段。
var sliceConfigPaths = []string{
	"moods",
	"server.cors_origins",
	"model.hugot.labels",
	"discovery.fixtures",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings 把去掉前缀的小写环境变量名映射到配置路径。
// 配置键本身含下划线，因此不能简单地把 _ 替换为 .。
var envMappings = map[string]string{
	"moods": "moods",

	"scoring_min_reviews":             "scoring.min_reviews",
	"scoring_confidence_threshold":    "scoring.confidence_threshold",
	"scoring_min_reviews_for_ranking": "scoring.min_reviews_for_ranking",
	"scoring_require_confident":       "scoring.require_confident",
	"scoring_max_concurrent_scoring":  "scoring.max_concurrent_scoring",
	"scoring_filter_expr":             "scoring.filter_expr",

	"inference_max_input_chars": "inference.max_input_chars",
	"inference_max_batch_size":  "inference.max_batch_size",
	"inference_max_concurrent":  "inference.max_concurrent",

	"model_backend":             "model.backend",
	"model_hugot_model_path":    "model.hugot.model_path",
	"model_hugot_hf_repo":       "model.hugot.hf_repo",
	"model_hugot_cache_dir":     "model.hugot.cache_dir",
	"model_hugot_onnx_filename": "model.hugot.onnx_filename",
	"model_hugot_labels":        "model.hugot.labels",
	"model_service_endpoint":    "model.service.endpoint",
	"model_service_model_name":  "model.service.model_name",
	"model_service_version":     "model.service.model_version",
	"model_service_timeout":     "model.service.timeout",
	"model_service_auth_type":   "model.service.auth.type",
	"model_service_auth_token":  "model.service.auth.token",
	"model_service_api_key":     "model.service.auth.api_key",

	"places_api_key":        "places.api_key",
	"google_places_api_key": "places.api_key",
	"places_base_url":       "places.base_url",
	"places_timeout":        "places.timeout",
	"places_rate_limit":     "places.rate_limit",
	"places_max_candidates": "places.max_candidates",
	"places_pages":          "places.pages",

	"discovery_fixtures":       "discovery.fixtures",
	"discovery_source_timeout": "discovery.source_timeout",

	"store_backend":        "store.backend",
	"store_size":           "store.size",
	"store_ttl":            "store.ttl",
	"store_redis_addr":     "store.redis.addr",
	"store_redis_password": "store.redis.password",
	"store_redis_db":       "store.redis.db",

	"server_addr":             "server.addr",
	"server_request_timeout":  "server.request_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"server_cors_origins":     "server.cors_origins",
	"server_rate_limit":       "server.rate_limit_requests",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
