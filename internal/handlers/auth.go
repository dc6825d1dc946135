package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"eventboard/internal/logger"
	"eventboard/internal/middleware"
	"eventboard/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	credentials *services.CredentialStore
	sessions    *services.SessionManager
}

func NewAuthHandler(credentials *services.CredentialStore, sessions *services.SessionManager) *AuthHandler {
	return &AuthHandler{credentials: credentials, sessions: sessions}
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if middleware.CurrentSession(c).LoggedIn {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Title": "登录"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if username == "" || password == "" {
		Render(c, http.StatusBadRequest, "auth/login.html", gin.H{"Title": "登录", "Error": services.Message(services.ErrEmptyCredentials), "Username": username})
		return
	}

	user, err := h.credentials.Verify(c.Request.Context(), username, password)
	if err != nil {
		// 不区分用户不存在和密码错误，避免泄露用户名是否已注册
		if errors.Is(err, services.ErrAuth) {
			Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{"Title": "登录", "Error": "用户名或密码错误", "Username": username})
			return
		}
		logger.Error.Printf("登录失败 (%s): %v", username, err)
		Render(c, http.StatusInternalServerError, "auth/login.html", gin.H{"Title": "登录", "Error": services.Message(err), "Username": username})
		return
	}

	session := h.sessions.Establish(user)
	if err := middleware.SaveToken(c, h.sessions.TokenFor(session)); err != nil {
		logger.Error.Printf("保存会话失败 (%s): %v", username, err)
		Render(c, http.StatusInternalServerError, "auth/login.html", gin.H{"Title": "登录", "Error": "登录失败，请重试"})
		return
	}

	flash(c, flashSuccess, fmt.Sprintf("欢迎回来，%s！", user.Username))
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	if middleware.CurrentSession(c).LoggedIn {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/register.html", gin.H{"Title": "注册"})
}

func (h *AuthHandler) Register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	confirm := c.PostForm("confirm_password")

	fail := func(code int, message string) {
		Render(c, code, "auth/register.html", gin.H{"Title": "注册", "Error": message, "Username": username})
	}

	if username == "" || password == "" {
		fail(http.StatusBadRequest, services.Message(services.ErrEmptyCredentials))
		return
	}
	if password != confirm {
		fail(http.StatusBadRequest, "两次输入的密码不一致")
		return
	}

	if _, err := h.credentials.Register(c.Request.Context(), username, password); err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateUsername):
			fail(http.StatusConflict, services.Message(err))
		case errors.Is(err, services.ErrValidation):
			fail(http.StatusBadRequest, services.Message(err))
		default:
			logger.Error.Printf("注册失败 (%s): %v", username, err)
			fail(http.StatusInternalServerError, services.Message(err))
		}
		return
	}

	logger.Info.Printf("新用户注册: %s", username)
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Title": "登录", "Success": "✅ 注册成功，请登录", "Username": username})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := middleware.CurrentSession(c)
	h.sessions.Destroy(&session)
	c.Set(middleware.SessionKey, session)

	store := sessions.Default(c)
	store.Clear()
	store.AddFlash("您已成功登出", flashSuccess)
	store.Save()
	c.Redirect(http.StatusFound, "/login")
}
