package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventboard/internal/logger"
	"eventboard/internal/middleware"
	"eventboard/internal/models"
	"eventboard/internal/services"

	"github.com/gin-gonic/gin"
)

// EventCard 首页上一个事件的全部展示数据
type EventCard struct {
	Event         models.Event
	View          *services.EventView
	RenderError   string
	Fresh         bool
	LastUpdated   string
	CanRefresh    bool
	Comments      []*services.CommentNode
	CommentsError string
}

type EventHandler struct {
	events    *services.EventRepository
	providers *services.ProviderRegistry
	renderers *services.RendererRegistry
	comments  *services.CommentService
	now       func() time.Time
}

func NewEventHandler(events *services.EventRepository, providers *services.ProviderRegistry,
	renderers *services.RendererRegistry, comments *services.CommentService) *EventHandler {
	return &EventHandler{
		events:    events,
		providers: providers,
		renderers: renderers,
		comments:  comments,
		now:       time.Now,
	}
}

// Index 分类标签页 + 子分类标签页 + 事件列表
func (h *EventHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	session := middleware.CurrentSession(c)

	categories, err := h.events.ListCategories(ctx)
	if err != nil {
		logger.Error.Printf("加载分类失败: %v", err)
		RenderError(c, http.StatusInternalServerError, services.Message(err))
		return
	}
	if len(categories) == 0 {
		Render(c, http.StatusOK, "event/index.html", gin.H{"Title": "多源事件数据浏览器", "Empty": true})
		return
	}

	selected := categories[0]
	if name := c.Query("category"); name != "" {
		for _, cat := range categories {
			if cat.Name == name {
				selected = cat
				break
			}
		}
	}

	var subCategory *string
	if sub := c.Query("sub"); sub != "" {
		for _, s := range selected.SubCategories {
			if s == sub {
				subCategory = &s
				break
			}
		}
	}

	events, err := h.events.ListEvents(ctx, selected.Name, subCategory)
	if err != nil {
		logger.Error.Printf("加载分类 %s 下的事件失败: %v", selected.Name, err)
		RenderError(c, http.StatusInternalServerError, services.Message(err))
		return
	}

	now := h.now()
	cards := make([]EventCard, 0, len(events))
	for _, event := range events {
		cards = append(cards, h.buildCard(c, session, event, now))
	}

	activeSub := ""
	if subCategory != nil {
		activeSub = *subCategory
	}
	Render(c, http.StatusOK, "event/index.html", gin.H{
		"Title":          "多源事件数据浏览器",
		"Categories":     categories,
		"ActiveCategory": selected.Name,
		"SubCategories":  selected.SubCategories,
		"ActiveSub":      activeSub,
		"Cards":          cards,
	})
}

// buildCard 单个事件的渲染或评论加载失败只影响该事件，页面其余部分照常展示
func (h *EventHandler) buildCard(c *gin.Context, session services.Session, event models.Event, now time.Time) EventCard {
	card := EventCard{
		Event:      event,
		Fresh:      services.IsFresh(event.UpdatedTime, now),
		CanRefresh: session.IsAdmin() && event.Source != "",
	}
	if event.UpdatedTime != nil {
		card.LastUpdated = event.UpdatedTime.Local().Format("2006-01-02 15:04")
	}

	view, err := h.renderers.Render(event.Source, []byte(event.Payload))
	if err != nil {
		logger.Warn.Printf("渲染事件 %s 失败: %v", event.Slug, err)
		card.RenderError = services.Message(err)
	} else {
		card.View = view
	}

	forest, err := h.comments.ListThreaded(c.Request.Context(), event.Slug)
	if err != nil {
		logger.Error.Printf("加载评论失败 (%s): %v", event.Slug, err)
		card.CommentsError = "加载评论失败"
	} else {
		card.Comments = forest.Flatten()
	}
	return card
}

// Refresh 管理员手动刷新事件快照。6 小时内刷新过的事件不再请求数据源。
func (h *EventHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	event, err := loadEvent(c, h.events)
	if err != nil {
		if !errors.Is(err, services.ErrEventNotFound) {
			logger.Error.Printf("读取事件 %s 失败: %v", c.Param("id"), err)
		}
		flash(c, flashWarning, "⚠️ "+services.Message(err))
		redirect(c, backURL(c, nil))
		return
	}
	slug := event.Slug
	back := backURL(c, event)

	if event.Source == "" {
		flash(c, flashWarning, "⚠️ 当前数据源暂不支持刷新")
		redirect(c, back)
		return
	}

	if services.IsFresh(event.UpdatedTime, h.now()) {
		flash(c, flashWarning, "🕒 数据已于 "+event.UpdatedTime.Local().Format("2006-01-02 15:04")+" 更新，6 小时内无需刷新")
		redirect(c, back)
		return
	}

	payload, ok := h.providers.Fetch(ctx, event.Source, slug)
	if !ok {
		flash(c, flashWarning, "⚠️ 无法获取最新数据")
		redirect(c, back)
		return
	}

	if err := h.events.ReplacePayload(ctx, slug, payload, h.now()); err != nil {
		logger.Error.Printf("保存事件 %s 失败: %v", slug, err)
		flash(c, flashWarning, "⚠️ "+services.Message(err))
		redirect(c, back)
		return
	}

	logger.Info.Printf("事件 %s 已由 %s 刷新", slug, middleware.CurrentSession(c).Username)
	flash(c, flashSuccess, "✅ 已更新事件数据")
	redirect(c, back)
}

// loadEvent 按路由中的数字 ID 读取事件
func loadEvent(c *gin.Context, events *services.EventRepository) (*models.Event, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return nil, services.ErrEventNotFound
	}
	return events.GetByID(c.Request.Context(), uint(id))
}

// backURL 操作完成后回到原来的分类标签页，并定位到该事件
func backURL(c *gin.Context, event *models.Event) string {
	q := url.Values{}
	if category := strings.TrimSpace(c.PostForm("category")); category != "" {
		q.Set("category", category)
	}
	if sub := strings.TrimSpace(c.PostForm("sub")); sub != "" {
		q.Set("sub", sub)
	}
	path := "/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	if event != nil {
		path += fmt.Sprintf("#event-%d", event.ID)
	}
	return path
}
