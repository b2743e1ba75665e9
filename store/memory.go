package store

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rushteam/moodkit/core"
)

// DefaultMemorySize 是 MemoryStore 的默认容量。
const DefaultMemorySize = 1024

// MemoryStore 是进程内的 LRU Store，支持按条目设置 TTL，进程重启后数据丢失。
// 过期条目在读取时惰性删除；容量满时淘汰最久未使用的条目。
type MemoryStore struct {
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

type entry struct {
	value    []byte
	expireAt time.Time // 零值表示不过期
}

// NewMemoryStore 创建容量为 size 的 MemoryStore（size <= 0 时使用默认容量）。
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultMemorySize
	}
	// size > 0 时 lru.New 不会返回错误
	cache, _ := lru.New[string, entry](size)
	return &MemoryStore{cache: cache, now: time.Now}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.cache.Get(key)
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	if !e.expireAt.IsZero() && m.now().After(e.expireAt) {
		m.cache.Remove(key)
		return nil, core.ErrStoreNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	e := entry{value: append([]byte(nil), value...)}
	if len(ttl) > 0 && ttl[0] > 0 {
		e.expireAt = m.now().Add(time.Duration(ttl[0]) * time.Second)
	}
	m.cache.Add(key, e)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}

// Len 返回当前条目数（含尚未惰性删除的过期条目）。
func (m *MemoryStore) Len() int { return m.cache.Len() }

func (m *MemoryStore) Close() error {
	m.cache.Purge()
	return nil
}

var _ core.Store = (*MemoryStore)(nil)
