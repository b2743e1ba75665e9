// Package store 是 core.Store 的实现：进程内 LRU 与 Redis。
//
// 接口定义在 core 包：
//
//	var s core.Store = store.NewMemoryStore(1024)
package store

import "github.com/rushteam/moodkit/core"

// Config 选择并配置结果缓存后端。
type Config struct {
	// Backend 缓存后端：memory、redis 或 none
	Backend string `koanf:"backend" validate:"omitempty,oneof=memory redis none"`

	// Size 进程内缓存的最大条目数
	Size int `koanf:"size" validate:"gte=0"`

	// TTL 缓存有效期（秒）
	TTL int `koanf:"ttl" validate:"gte=0"`

	Redis RedisConfig `koanf:"redis"`
}

// DefaultConfig 返回默认配置：进程内缓存 10 分钟。
func DefaultConfig() Config {
	return Config{
		Backend: "memory",
		Size:    DefaultMemorySize,
		TTL:     600,
		Redis:   RedisConfig{Addr: "localhost:6379", KeyPrefix: "moodkit:"},
	}
}

// New 根据配置创建 Store。Backend 为 none 时返回 (nil, nil)。
func New(cfg Config) (core.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.Size), nil
	case "redis":
		s, err := NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, core.NewInvalidInputError(core.ModuleStore, "unknown store backend %q", cfg.Backend)
	}
}
