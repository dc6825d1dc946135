package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventboard/internal/models"
	"eventboard/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentService(t *testing.T) (*CommentService, *models.User, *models.User) {
	t.Helper()
	conn := newTestDB(t)
	alice := createUser(t, conn, "alice", models.RoleUser)
	bob := createUser(t, conn, "bob", models.RoleUser)
	createEvent(t, conn, "fed-rate", "美联储利率", "经济", "")

	cache, err := utils.NewCache(100)
	require.NoError(t, err)
	svc := NewCommentService(conn, cache)
	svc.now = clock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	return svc, alice, bob
}

func uintPtr(v uint) *uint { return &v }

func ids(nodes []*CommentNode) []uint {
	out := make([]uint, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestListThreadedBuildsForest(t *testing.T) {
	svc, alice, bob := newCommentService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, alice.ID, "fed-rate", "A", nil)
	require.NoError(t, err)
	b, err := svc.Create(ctx, bob.ID, "fed-rate", "B", uintPtr(a))
	require.NoError(t, err)
	c, err := svc.Create(ctx, alice.ID, "fed-rate", "C", uintPtr(b))
	require.NoError(t, err)
	d, err := svc.Create(ctx, bob.ID, "fed-rate", "D", nil)
	require.NoError(t, err)
	e, err := svc.Create(ctx, bob.ID, "fed-rate", "E", uintPtr(a))
	require.NoError(t, err)

	forest, err := svc.ListThreaded(ctx, "fed-rate")
	require.NoError(t, err)
	assert.Equal(t, 5, forest.Len())
	assert.Equal(t, []uint{a, d}, forest.Roots)
	assert.Equal(t, []uint{b, e}, forest.Nodes[a].Replies)
	assert.Equal(t, []uint{c}, forest.Nodes[b].Replies)
	assert.Empty(t, forest.Nodes[d].Replies)

	flat := forest.Flatten()
	assert.Equal(t, []uint{a, b, c, e, d}, ids(flat))
	assert.Equal(t, 0, forest.Nodes[a].Depth)
	assert.Equal(t, 1, forest.Nodes[b].Depth)
	assert.Equal(t, 2, forest.Nodes[c].Depth)
	assert.Equal(t, "bob", forest.Nodes[b].Username)
	assert.Contains(t, string(forest.Nodes[c].ContentHTML), "C")
}

func TestListThreadedSeparatesEvents(t *testing.T) {
	svc, alice, _ := newCommentService(t)
	ctx := context.Background()

	createEvent(t, svc.db, "other-event", "其他事件", "经济", "")

	_, err := svc.Create(ctx, alice.ID, "fed-rate", "here", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, "other-event", "there", nil)
	require.NoError(t, err)

	forest, err := svc.ListThreaded(ctx, "fed-rate")
	require.NoError(t, err)
	require.Len(t, forest.Roots, 1)
	assert.Equal(t, "here", forest.Nodes[forest.Roots[0]].Content)

	empty, err := svc.ListThreaded(ctx, "nobody-commented")
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
	assert.Empty(t, empty.Flatten())
}

func TestBuildForestKeepsFlatOrder(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []CommentRow{
		{ID: 1, Content: "root", CreatedAt: base},
		{ID: 3, ParentID: uintPtr(1), Content: "late id, early time", CreatedAt: base.Add(time.Minute)},
		{ID: 2, ParentID: uintPtr(1), Content: "early id, late time", CreatedAt: base.Add(2 * time.Minute)},
		{ID: 9, ParentID: uintPtr(42), Content: "orphan"},
	}
	forest := BuildForest(rows)
	assert.Equal(t, []uint{1}, forest.Roots)
	assert.Equal(t, []uint{3, 2}, forest.Nodes[1].Replies)
	assert.Equal(t, []uint{1, 3, 2}, ids(forest.Flatten()))
}

func TestCreateValidation(t *testing.T) {
	svc, alice, _ := newCommentService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 0, "fed-rate", "hello", nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.Create(ctx, alice.ID, "fed-rate", "   \n", nil)
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = svc.Create(ctx, alice.ID, "fed-rate", "reply", uintPtr(999))
	assert.ErrorIs(t, err, ErrCommentNotFound)

	_, err = svc.Create(ctx, alice.ID, "no-such-event", "orphan", nil)
	assert.ErrorIs(t, err, ErrEventNotFound)

	createEvent(t, svc.db, "other-event", "其他事件", "经济", "")
	other, err := svc.Create(ctx, alice.ID, "other-event", "elsewhere", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, "fed-rate", "cross", uintPtr(other))
	assert.ErrorIs(t, err, ErrParentMismatch)

	var count int64
	svc.db.Model(&models.Comment{}).Where("event_key IN ?", []string{"fed-rate", "no-such-event"}).Count(&count)
	assert.Zero(t, count, "失败的创建不能留下记录")
}

func TestLike(t *testing.T) {
	svc, alice, _ := newCommentService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, alice.ID, "fed-rate", "like me", nil)
	require.NoError(t, err)
	bystander, err := svc.Create(ctx, alice.ID, "fed-rate", "leave me alone", nil)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		likes, err := svc.Like(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i, likes)
	}

	likesOf := func() map[uint]int {
		var comments []models.Comment
		require.NoError(t, svc.db.Select("id", "likes").Find(&comments).Error)
		out := make(map[uint]int, len(comments))
		for _, c := range comments {
			out[c.ID] = c.Likes
		}
		return out
	}
	before := likesOf()
	assert.Equal(t, map[uint]int{id: 3, bystander: 0}, before)

	_, err = svc.Like(ctx, bystander+100)
	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.Equal(t, before, likesOf(), "不存在的评论点赞不能改动任何记录")
}

func TestLikeConcurrent(t *testing.T) {
	svc, alice, _ := newCommentService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, alice.ID, "fed-rate", "popular", nil)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Like(ctx, id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var comment models.Comment
	require.NoError(t, svc.db.First(&comment, id).Error)
	assert.Equal(t, n, comment.Likes)
}

func TestReplyCreatesNotification(t *testing.T) {
	svc, alice, bob := newCommentService(t)
	ctx := context.Background()
	notifications := NewNotificationService(svc.db)

	root, err := svc.Create(ctx, alice.ID, "fed-rate", "root", nil)
	require.NoError(t, err)
	reply, err := svc.Create(ctx, bob.ID, "fed-rate", "reply", uintPtr(root))
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, "fed-rate", "self reply", uintPtr(root))
	require.NoError(t, err)

	list, err := notifications.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationTypeReplyComment, list[0].Type)
	assert.Equal(t, reply, *list[0].CommentID)
	assert.Equal(t, "bob", list[0].Actor.Username)
	assert.Contains(t, list[0].Reason, "美联储利率")
	event, err := NewEventRepository(svc.db).GetBySlug(ctx, "fed-rate")
	require.NoError(t, err)
	assert.Equal(t, event.ID, list[0].EventID)

	unread, err := notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, notifications.MarkRead(ctx, alice.ID, list[0].ID))
	unread, err = notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	assert.ErrorIs(t, notifications.MarkRead(ctx, bob.ID, list[0].ID), ErrNotFound)

	bobList, err := notifications.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobList)
}

func TestMarkAllRead(t *testing.T) {
	svc, alice, bob := newCommentService(t)
	ctx := context.Background()
	notifications := NewNotificationService(svc.db)

	root, err := svc.Create(ctx, alice.ID, "fed-rate", "root", nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, bob.ID, "fed-rate", "reply", uintPtr(root))
		require.NoError(t, err)
	}

	unread, err := notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	require.NoError(t, notifications.MarkAllRead(ctx, alice.ID))
	unread, err = notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
