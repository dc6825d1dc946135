package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"eventboard/internal/logger"
)

// Provider 一个外部数据源：按 slug 拉取事件快照并投影为可存储的 JSON
type Provider interface {
	Name() string
	Fetch(ctx context.Context, slug string) ([]byte, error)
}

// ProviderRegistry 数据源名称到实现的映射，启动时注册
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewProviderRegistry(providers ...Provider) *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register 注册数据源，同名覆盖
func (r *ProviderRegistry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(p.Name())] = p
}

// Lookup 按名称查找数据源
func (r *ProviderRegistry) Lookup(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names 已注册的数据源名称（排序）
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch 通过指定数据源拉取快照。未知数据源、网络、超时、状态码或解析失败一律只记日志，
// 返回 (nil, false)，页面据此提示“无法获取最新数据”。
func (r *ProviderRegistry) Fetch(ctx context.Context, providerName, slug string) ([]byte, bool) {
	p, ok := r.Lookup(providerName)
	if !ok {
		logger.Warn.Printf("[%s] 未注册的数据源，slug=%s", providerName, slug)
		return nil, false
	}

	payload, err := p.Fetch(ctx, slug)
	if err != nil {
		logger.Warn.Printf("[%s] 获取事件失败，slug=%s: %v", p.Name(), slug, err)
		return nil, false
	}
	return payload, true
}
