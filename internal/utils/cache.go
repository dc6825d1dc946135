package utils

import (
	"sync"
	"time"

	"eventboard/internal/logger"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// GlobalCache 进程内 LRU 缓存。只用于缓存不可变内容的派生结果（如评论正文的 HTML），
// 不缓存任何会随数据库变化的页面数据。
type GlobalCache struct {
	lruCache *lru.Cache[string, CacheItem]
}

var (
	cacheInstance *GlobalCache
	cacheOnce     sync.Once
)

// GetCache 获取单例缓存实例
func GetCache() *GlobalCache {
	cacheOnce.Do(func() {
		c, err := NewCache(2000)
		if err != nil {
			logger.Error.Fatalf("Failed to create LRU cache: %v", err)
		}
		cacheInstance = c
	})
	return cacheInstance
}

// NewCache 创建指定容量的缓存
func NewCache(size int) (*GlobalCache, error) {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		return nil, err
	}
	return &GlobalCache{lruCache: l}, nil
}

// Set 设置缓存，ttl <= 0 表示永不过期（仍受 LRU 容量淘汰）
func (c *GlobalCache) Set(key string, data interface{}, ttl time.Duration) {
	item := CacheItem{Data: data}
	if ttl > 0 {
		item.ExpiresAt = time.Now().Add(ttl)
	}
	c.lruCache.Add(key, item)
}

// Get 获取缓存，若不存在或已过期则返回 nil
func (c *GlobalCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	if !val.ExpiresAt.IsZero() && time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// Delete 删除指定缓存
func (c *GlobalCache) Delete(key string) {
	c.lruCache.Remove(key)
}

// Len 当前缓存条目数
func (c *GlobalCache) Len() int {
	return c.lruCache.Len()
}
