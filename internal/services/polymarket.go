package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	PolymarketName       = "polymarket"
	PolymarketDefaultURL = "https://gamma-api.polymarket.com"
	fetchUserAgent       = "MultiSourceEventBrowser/1.0"
	maxUpstreamBody      = 8 << 20
)

// Number 上游数值字段：可能是数字、数字字符串或 null，缺失与无法解析时均为 0
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		data = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// Float 转为 float64
func (n Number) Float() float64 { return float64(n) }

// PolymarketMarket 事件下的子市场
type PolymarketMarket struct {
	Icon           string        `json:"icon"`
	Volume         Number        `json:"volume"`
	Liquidity      Number        `json:"liquidity"`
	BestBid        Number        `json:"bestBid"`
	BestAsk        Number        `json:"bestAsk"`
	LastTradePrice Number        `json:"lastTradePrice"`
	Closed         bool          `json:"closed"`
	OutcomePrices  OutcomePrices `json:"outcomePrices"`
	GroupItemTitle string        `json:"groupItemTitle"`
	Volume24hr     Number        `json:"volume24hr"`
	Volume1wk      Number        `json:"volume1wk"`
	Volume1mo      Number        `json:"volume1mo"`
	Volume1yr      Number        `json:"volume1yr"`
}

// PolymarketEvent 存入数据库的事件快照（上游字段的最小子集）
type PolymarketEvent struct {
	Slug        string             `json:"slug"`
	Icon        string             `json:"icon"`
	Description string             `json:"description"`
	Closed      bool               `json:"closed"`
	StartDate   string             `json:"startDate"`
	EndDate     string             `json:"endDate"`
	Volume      Number             `json:"volume"`
	Liquidity   Number             `json:"liquidity"`
	Volume24hr  Number             `json:"volume24hr"`
	Volume1wk   Number             `json:"volume1wk"`
	Volume1mo   Number             `json:"volume1mo"`
	Volume1yr   Number             `json:"volume1yr"`
	Title       string             `json:"title"`
	Markets     []PolymarketMarket `json:"markets"`
}

// PolymarketProvider 通过 gamma API 按 slug 查询事件
type PolymarketProvider struct {
	baseURL string
	client  *http.Client
}

func NewPolymarketProvider(baseURL string, timeout time.Duration) *PolymarketProvider {
	if baseURL == "" {
		baseURL = PolymarketDefaultURL
	}
	return &PolymarketProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *PolymarketProvider) Name() string { return PolymarketName }

// Fetch 请求 /events?slug=，取返回数组的第一个元素并投影
func (p *PolymarketProvider) Fetch(ctx context.Context, slug string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/events?slug=%s", p.baseURL, url.QueryEscape(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, upstreamErr("创建请求失败: %v", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, upstreamErr("网络请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamErr("请求失败，状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, upstreamErr("读取响应失败: %v", err)
	}

	var events []PolymarketEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, upstreamErr("响应内容不是有效的 JSON: %v", err)
	}
	if len(events) == 0 {
		return nil, upstreamErr("未找到事件数据，slug=%s", slug)
	}

	event := events[0]
	if event.Markets == nil {
		event.Markets = []PolymarketMarket{}
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, upstreamErr("编码事件失败: %v", err)
	}
	return payload, nil
}

// OutcomePrices 上游以 JSON 字符串承载的二元价格数组，如 "[\"0.6\", \"0.4\"]"。
// 若上游直接给出数组，则保留其 JSON 文本；null 或缺失为空串。
type OutcomePrices string

func (o *OutcomePrices) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*o = ""
			return nil
		}
		*o = OutcomePrices(s)
		return nil
	}
	*o = OutcomePrices(data)
	return nil
}

// Probabilities 解析出 (是, 否) 概率，缺少的一侧为 0；无法解析或数组为空时 ok 为 false
func (o OutcomePrices) Probabilities() (yes, no float64, ok bool) {
	if o == "" {
		return 0, 0, false
	}
	var prices []Number
	if err := json.Unmarshal([]byte(o), &prices); err != nil || len(prices) == 0 {
		return 0, 0, false
	}
	yes = prices[0].Float()
	if len(prices) > 1 {
		no = prices[1].Float()
	}
	return yes, no, true
}
