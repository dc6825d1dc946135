package services

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"eventboard/internal/utils"
)

// VolumeBar 时间段成交量柱，Width 为相对最大值的百分比
type VolumeBar struct {
	Label   string
	Value   float64
	Display string
	Width   int
}

// MarketView 单个子市场
type MarketView struct {
	Label      string
	Icon       string
	Closed     bool
	StatusIcon string
	LastPrice  string
	Volume     string
	Liquidity  string
	BestBid    string
	BestAsk    string
	YesPercent float64
	NoPercent  float64
	VolumeBars []VolumeBar
}

// PolymarketView 事件详情
type PolymarketView struct {
	Slug          string
	Icon          string
	Closed        bool
	StatusIcon    string
	StatusText    string
	StartDate     string
	EndDate       string
	Volume        string
	Liquidity     string
	VolumeBars    []VolumeBar
	ActiveMarkets []MarketView
	ClosedMarkets []MarketView
	Description   template.HTML
}

// PolymarketRenderer 渲染 polymarket 快照
type PolymarketRenderer struct{}

func (PolymarketRenderer) Render(payload []byte) (*EventView, error) {
	var event PolymarketEvent
	if err := decodeObject(payload, &event); err != nil {
		return nil, err
	}

	view := &PolymarketView{
		Slug:       event.Slug,
		Icon:       event.Icon,
		Closed:     event.Closed,
		StatusIcon: statusIcon(event.Closed),
		StatusText: "进行中",
		StartDate:  FormatDate(event.StartDate),
		EndDate:    FormatDate(event.EndDate),
		Volume:     FormatNumber(event.Volume.Float()),
		Liquidity:  FormatNumber(event.Liquidity.Float()),
		VolumeBars: volumeBars(event.Volume24hr, event.Volume1wk, event.Volume1mo, event.Volume1yr),
	}
	if event.Closed {
		view.StatusText = "已关闭"
	}

	description := strings.TrimSpace(event.Description)
	if description == "" {
		description = "暂无描述"
	}
	view.Description = utils.RenderMarkdown(description)

	for _, m := range event.Markets {
		if m.Closed {
			view.ClosedMarkets = append(view.ClosedMarkets, marketView(m, len(view.ClosedMarkets)+1))
		} else {
			view.ActiveMarkets = append(view.ActiveMarkets, marketView(m, len(view.ActiveMarkets)+1))
		}
	}

	return &EventView{Kind: ViewPolymarket, Heading: "Polymarket", Data: view}, nil
}

func marketView(m PolymarketMarket, position int) MarketView {
	label := strings.TrimSpace(m.GroupItemTitle)
	if label == "" {
		label = fmt.Sprintf("未知市场 %d", position)
	}
	yes, no, _ := m.OutcomePrices.Probabilities()
	return MarketView{
		Label:      label,
		Icon:       m.Icon,
		Closed:     m.Closed,
		StatusIcon: statusIcon(m.Closed),
		LastPrice:  fmt.Sprintf("$%.2f", m.LastTradePrice.Float()),
		Volume:     FormatNumber(m.Volume.Float()),
		Liquidity:  FormatNumber(m.Liquidity.Float()),
		BestBid:    fmt.Sprintf("$%.2f", m.BestBid.Float()),
		BestAsk:    fmt.Sprintf("$%.2f", m.BestAsk.Float()),
		YesPercent: yes * 100,
		NoPercent:  no * 100,
		VolumeBars: volumeBars(m.Volume24hr, m.Volume1wk, m.Volume1mo, m.Volume1yr),
	}
}

func statusIcon(closed bool) string {
	if closed {
		return "🔴"
	}
	return "🟢"
}

func volumeBars(day, week, month, year Number) []VolumeBar {
	bars := []VolumeBar{
		{Label: "24小时", Value: day.Float()},
		{Label: "1周", Value: week.Float()},
		{Label: "1月", Value: month.Float()},
		{Label: "1年", Value: year.Float()},
	}
	peak := 0.0
	for _, b := range bars {
		peak = math.Max(peak, b.Value)
	}
	for i := range bars {
		bars[i].Display = FormatNumber(bars[i].Value)
		if peak > 0 && bars[i].Value > 0 {
			bars[i].Width = int(math.Round(bars[i].Value / peak * 100))
		}
	}
	return bars
}

// FormatNumber 金额按 K/M/B 缩写，保留一位小数；不足 1000 时取整
func FormatNumber(value float64) string {
	switch {
	case value >= 1e9:
		return fmt.Sprintf("$%.1fB", value/1e9)
	case value >= 1e6:
		return fmt.Sprintf("$%.1fM", value/1e6)
	case value >= 1e3:
		return fmt.Sprintf("$%.1fK", value/1e3)
	default:
		return fmt.Sprintf("$%.0f", value)
	}
}

// FormatDate ISO-8601 时间格式化为 "2006-01-02 15:04:05"；空值为“未知”，无法解析时原样返回
func FormatDate(raw string) string {
	if raw == "" {
		return "未知"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return raw
}
