package services

import (
	"bytes"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// 视图类型，模板据此选择对应的片段
const (
	ViewPolymarket = "polymarket"
	ViewFeed       = "rss"
	ViewRaw        = "raw"
	ViewEmpty      = "empty"
)

// EventView 渲染器输出，Data 的具体类型由 Kind 决定
type EventView struct {
	Kind    string
	Heading string
	Data    interface{}
}

// Renderer 把存储的快照转换为可展示的视图
type Renderer interface {
	Render(payload []byte) (*EventView, error)
}

// RendererRegistry 数据源名称到渲染器的映射，未知数据源使用原始 JSON 渲染
type RendererRegistry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
	fallback  Renderer
}

func NewRendererRegistry() *RendererRegistry {
	return &RendererRegistry{
		renderers: make(map[string]Renderer),
		fallback:  RawRenderer{},
	}
}

// DefaultRenderers 已知数据源的渲染器
func DefaultRenderers() *RendererRegistry {
	r := NewRendererRegistry()
	r.Register(PolymarketName, PolymarketRenderer{})
	r.Register(RSSName, RSSRenderer{})
	return r
}

func (r *RendererRegistry) Register(source string, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[strings.ToLower(source)] = renderer
}

// Lookup 查找数据源的渲染器，找不到时返回默认渲染器
func (r *RendererRegistry) Lookup(source string) Renderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if renderer, ok := r.renderers[strings.ToLower(strings.TrimSpace(source))]; ok {
		return renderer
	}
	return r.fallback
}

// Render 按数据源渲染快照。从未刷新过的事件得到空视图。
func (r *RendererRegistry) Render(source string, payload []byte) (*EventView, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return &EventView{Kind: ViewEmpty, Heading: "暂无数据"}, nil
	}
	return r.Lookup(source).Render(payload)
}

// decodeObject 快照必须是 JSON 对象
func decodeObject(payload []byte, v interface{}) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrMalformedPayload
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return ErrMalformedPayload
	}
	return nil
}

// RawRenderer 以缩进 JSON 展示原始数据
type RawRenderer struct{}

func (RawRenderer) Render(payload []byte) (*EventView, error) {
	var obj map[string]interface{}
	if err := decodeObject(payload, &obj); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(payload), "", "  "); err != nil {
		return nil, ErrMalformedPayload
	}
	return &EventView{Kind: ViewRaw, Heading: "未知数据源（默认渲染）", Data: buf.String()}, nil
}
