package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recipebook/internal/db"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
	loginPath          = "/admin/login"
	adminHomePath      = "/admin/pages"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "Admin login",
	})
}

// Login 校验用户名和密码并写入会话
func (a *API) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	var user db.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			a.internalError(c, "load admin user", err)
		}
		a.rejectLogin(c)
		return
	}

	if !user.CheckPassword(password) {
		a.rejectLogin(c)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		a.internalError(c, "save session", err)
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"title": "Admin login",
			"error": "Could not start a session",
		})
		return
	}

	a.logger.Info("admin logged in", zap.String("username", user.Username))
	c.Redirect(http.StatusFound, adminHomePath)
}

func (a *API) rejectLogin(c *gin.Context) {
	c.HTML(http.StatusUnauthorized, "login.html", gin.H{
		"title": "Admin login",
		"error": "Invalid username or password",
	})
}

// Logout 清除会话并返回登录页
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	c.Redirect(http.StatusFound, loginPath)
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) == nil {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
				respondError(c, http.StatusUnauthorized, "login required")
				c.Abort()
				return
			}
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
