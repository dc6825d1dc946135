package services

// FeedView 订阅源视图
type FeedView struct {
	Title       string
	Description string
	Link        string
	Updated     string
	Items       []FeedItemView
}

type FeedItemView struct {
	Title     string
	Link      string
	Published string
}

// RSSRenderer 渲染 rss 快照
type RSSRenderer struct{}

func (RSSRenderer) Render(payload []byte) (*EventView, error) {
	var snapshot FeedSnapshot
	if err := decodeObject(payload, &snapshot); err != nil {
		return nil, err
	}

	view := &FeedView{
		Title:       snapshot.Title,
		Description: snapshot.Description,
		Link:        snapshot.Link,
		Updated:     FormatDate(snapshot.Updated),
		Items:       make([]FeedItemView, 0, len(snapshot.Items)),
	}
	for _, item := range snapshot.Items {
		title := item.Title
		if title == "" {
			title = item.Link
		}
		view.Items = append(view.Items, FeedItemView{
			Title:     title,
			Link:      item.Link,
			Published: FormatDate(item.Published),
		})
	}
	return &EventView{Kind: ViewFeed, Heading: "RSS", Data: view}, nil
}
