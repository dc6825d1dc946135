package services

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/gofeed"
)

const (
	RSSName      = "rss"
	rssItemLimit = 10
)

// FeedItem 订阅源中的一条
type FeedItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
}

// FeedSnapshot 存入数据库的订阅源快照
type FeedSnapshot struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
	Updated     string     `json:"updated"`
	Items       []FeedItem `json:"items"`
}

// RSSProvider 以事件 slug 作为订阅源地址，抓取最新条目
type RSSProvider struct {
	parser *gofeed.Parser
}

func NewRSSProvider(timeout time.Duration) *RSSProvider {
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}

	parser := gofeed.NewParser()
	parser.Client = httpClient
	return &RSSProvider{parser: parser}
}

func (p *RSSProvider) Name() string { return RSSName }

// normalizeFeedURL rsshub:// 前缀替换为 RSSHub 实例地址
func normalizeFeedURL(feedURL string) string {
	if !strings.HasPrefix(feedURL, "rsshub://") {
		return feedURL
	}
	instance := os.Getenv("RSSHUB_INSTANCE_URL")
	if instance == "" {
		instance = "https://rsshub.app"
	}
	return strings.TrimSuffix(instance, "/") + "/" + strings.TrimPrefix(feedURL, "rsshub://")
}

func (p *RSSProvider) Fetch(ctx context.Context, slug string) ([]byte, error) {
	feed, err := p.parser.ParseURLWithContext(normalizeFeedURL(slug), ctx)
	if err != nil {
		return nil, upstreamErr("解析 RSS 失败: %v", err)
	}

	snapshot := FeedSnapshot{
		Title:       feed.Title,
		Description: feed.Description,
		Link:        feed.Link,
		Items:       make([]FeedItem, 0, rssItemLimit),
	}
	if feed.UpdatedParsed != nil {
		snapshot.Updated = feed.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	for _, item := range feed.Items {
		if len(snapshot.Items) >= rssItemLimit {
			break
		}
		fi := FeedItem{Title: item.Title, Link: item.Link}
		switch {
		case item.PublishedParsed != nil:
			fi.Published = item.PublishedParsed.UTC().Format(time.RFC3339)
		case item.UpdatedParsed != nil:
			fi.Published = item.UpdatedParsed.UTC().Format(time.RFC3339)
		}
		snapshot.Items = append(snapshot.Items, fi)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, upstreamErr("编码订阅源失败: %v", err)
	}
	return payload, nil
}
