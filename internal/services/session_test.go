package services

import (
	"context"
	"testing"

	"eventboard/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSessionRestore(t *testing.T) {
	conn := newTestDB(t)
	admin := createUser(t, conn, "admin", models.RoleAdmin)
	manager := NewSessionManager(conn)
	ctx := context.Background()

	s := manager.Restore(ctx, Token{UserID: admin.ID, Username: "admin"})
	assert.True(t, s.LoggedIn)
	assert.True(t, s.IsAdmin())
	assert.Equal(t, admin.ID, s.UserID)

	// 用户名与 ID 不一致时不能恢复
	s = manager.Restore(ctx, Token{UserID: admin.ID, Username: "mallory"})
	assert.False(t, s.LoggedIn)

	s = manager.Restore(ctx, Token{UserID: admin.ID + 100, Username: "admin"})
	assert.Equal(t, Anonymous(), s)

	assert.Equal(t, Anonymous(), manager.Restore(ctx, Token{}))
}

func TestSessionRoleReloaded(t *testing.T) {
	conn := newTestDB(t)
	user := createUser(t, conn, "bob", models.RoleAdmin)
	manager := NewSessionManager(conn)
	ctx := context.Background()

	token := manager.TokenFor(manager.Establish(user))
	conn.Model(&models.User{}).Where("id = ?", user.ID).Update("role", models.RoleUser)

	s := manager.Restore(ctx, token)
	assert.True(t, s.LoggedIn)
	assert.False(t, s.IsAdmin())
}

func TestSessionDestroy(t *testing.T) {
	manager := NewSessionManager(nil)
	s := manager.Establish(&models.User{ID: 7, Username: "eve", Role: models.RoleUser})
	assert.Equal(t, Token{UserID: 7, Username: "eve"}, manager.TokenFor(s))

	manager.Destroy(&s)
	assert.False(t, s.LoggedIn)
	assert.Zero(t, s.UserID)
	assert.Empty(t, s.Username)
	assert.Equal(t, Token{}, manager.TokenFor(s))
}
