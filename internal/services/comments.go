package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"eventboard/internal/models"
	"eventboard/internal/utils"

	"gorm.io/gorm"
)

// CommentRow 评论树查询的一行
type CommentRow struct {
	ID        uint
	UserID    uint
	Username  string
	Content   string
	ParentID  *uint
	EventKey  string
	Likes     int
	CreatedAt time.Time
	Depth     int
}

// CommentNode 评论树节点，Replies 按时间先后排列
type CommentNode struct {
	ID          uint          `json:"id"`
	UserID      uint          `json:"user_id"`
	Username    string        `json:"username"`
	Content     string        `json:"content"`
	ContentHTML template.HTML `json:"-"`
	ParentID    *uint         `json:"parent_id"`
	Likes       int           `json:"likes"`
	CreatedAt   time.Time     `json:"created_at"`
	Depth       int           `json:"depth"`
	Replies     []uint        `json:"replies"`
}

// Forest 一个事件下的全部评论：多个顶层评论各自带着回复
type Forest struct {
	Nodes map[uint]*CommentNode `json:"nodes"`
	Roots []uint                `json:"roots"`
}

// BuildForest 由按创建时间升序的扁平列表重建父子关系。
// 子评论按其在列表中的顺序追加到父节点，因此回复天然按时间排列。
func BuildForest(rows []CommentRow) *Forest {
	f := &Forest{
		Nodes: make(map[uint]*CommentNode, len(rows)),
		Roots: []uint{},
	}
	for _, r := range rows {
		f.Nodes[r.ID] = &CommentNode{
			ID:        r.ID,
			UserID:    r.UserID,
			Username:  r.Username,
			Content:   r.Content,
			ParentID:  r.ParentID,
			Likes:     r.Likes,
			CreatedAt: r.CreatedAt,
			Depth:     r.Depth,
			Replies:   []uint{},
		}
	}
	for _, r := range rows {
		if r.ParentID == nil {
			f.Roots = append(f.Roots, r.ID)
			continue
		}
		if parent, ok := f.Nodes[*r.ParentID]; ok {
			parent.Replies = append(parent.Replies, r.ID)
		}
	}
	return f
}

// Len 评论总数
func (f *Forest) Len() int {
	return len(f.Nodes)
}

// Flatten 按深度优先顺序展开：先输出节点，再依次输出其回复。节点的 Depth 即缩进层级。
func (f *Forest) Flatten() []*CommentNode {
	out := make([]*CommentNode, 0, len(f.Nodes))
	var walk func(ids []uint)
	walk = func(ids []uint) {
		for _, id := range ids {
			node, ok := f.Nodes[id]
			if !ok {
				continue
			}
			out = append(out, node)
			walk(node.Replies)
		}
	}
	walk(f.Roots)
	return out
}

// CommentService 评论的创建、点赞与树形读取
type CommentService struct {
	db    *gorm.DB
	cache *utils.GlobalCache
	now   func() time.Time
}

func NewCommentService(db *gorm.DB, cache *utils.GlobalCache) *CommentService {
	return &CommentService{db: db, cache: cache, now: time.Now}
}

// Create 发表评论或回复，返回新评论 ID。事件必须存在，回复的评论必须属于同一事件。
// 回复他人评论时在同一事务内给被回复者写一条通知。
func (s *CommentService) Create(ctx context.Context, authorID uint, eventKey, body string, parentID *uint) (uint, error) {
	if authorID == 0 {
		return 0, ErrNotAuthenticated
	}
	if strings.TrimSpace(body) == "" {
		return 0, ErrEmptyBody
	}
	eventKey = strings.TrimSpace(eventKey)
	if eventKey == "" {
		return 0, ErrEventNotFound
	}

	comment := models.Comment{
		UserID:    authorID,
		ParentID:  parentID,
		EventKey:  eventKey,
		Content:   body,
		CreatedAt: s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Select("id", "slug", "title").Where("slug = ?", eventKey).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var parent models.Comment
		if parentID != nil {
			if err := tx.Select("id", "user_id", "event_key").First(&parent, *parentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCommentNotFound
				}
				return err
			}
			if parent.EventKey != eventKey {
				return ErrParentMismatch
			}
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		// 不通知自己
		if parentID == nil || parent.UserID == authorID {
			return nil
		}
		notification := models.Notification{
			UserID:    parent.UserID,
			ActorID:   &authorID,
			Type:      models.NotificationTypeReplyComment,
			EventID:   event.ID,
			EventKey:  eventKey,
			CommentID: &comment.ID,
			Reason:    fmt.Sprintf("在事件《%s》中回复了您的评论", event.DisplayTitle()),
			CreatedAt: comment.CreatedAt,
		}
		return tx.Create(&notification).Error
	})

	switch {
	case err == nil:
		return comment.ID, nil
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrCommentNotFound), errors.Is(err, ErrParentMismatch):
		return 0, err
	default:
		return 0, storeErr("create comment", err)
	}
}

// Like 点赞数原子加一并返回新的点赞数
func (s *CommentService) Like(ctx context.Context, id uint) (int, error) {
	var likes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCommentNotFound
		}
		var comment models.Comment
		if err := tx.Select("id", "likes").First(&comment, id).Error; err != nil {
			return err
		}
		likes = comment.Likes
		return nil
	})

	switch {
	case err == nil:
		return likes, nil
	case errors.Is(err, ErrCommentNotFound):
		return 0, err
	default:
		return 0, storeErr("like comment", err)
	}
}

const threadQuery = `
WITH RECURSIVE comment_tree(id, depth) AS (
	SELECT id, 0 FROM comments WHERE event_key = ? AND parent_id IS NULL
	UNION ALL
	SELECT c.id, ct.depth + 1 FROM comments c JOIN comment_tree ct ON c.parent_id = ct.id
)
SELECT c.id, c.user_id, u.username, c.content, c.parent_id, c.event_key, c.likes, c.created_at, ct.depth
FROM comment_tree ct
JOIN comments c ON c.id = ct.id
JOIN users u ON u.id = c.user_id
ORDER BY c.created_at ASC, c.id ASC`

// ListThreaded 一次查询取出事件的全部评论（顶层及所有后代），在内存中重建评论树
func (s *CommentService) ListThreaded(ctx context.Context, eventKey string) (*Forest, error) {
	var rows []CommentRow
	if err := s.db.WithContext(ctx).Raw(threadQuery, eventKey).Scan(&rows).Error; err != nil {
		return nil, storeErr("list comments", err)
	}

	forest := BuildForest(rows)
	for _, node := range forest.Nodes {
		node.ContentHTML = s.renderContent(node.ID, node.Content)
	}
	return forest, nil
}

// renderContent 评论正文不可编辑，渲染结果按评论 ID 缓存
func (s *CommentService) renderContent(id uint, content string) template.HTML {
	if s.cache == nil {
		return utils.RenderMarkdown(content)
	}
	key := fmt.Sprintf("comment:html:%d", id)
	if cached, ok := s.cache.Get(key).(template.HTML); ok {
		return cached
	}
	html := utils.RenderMarkdown(content)
	s.cache.Set(key, html, 0)
	return html
}
