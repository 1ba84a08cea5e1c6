package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/recipebook/internal/config"
	"github.com/recipebook/internal/handler"
	"github.com/recipebook/internal/view"
)

const sessionName = "recipebook_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg config.AppConfig, logger *zap.Logger) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	tmpl, err := view.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// 上传的图片
	if cfg.UploadDir != "" && cfg.UploadURLPath != "" {
		r.Static(cfg.UploadURLPath, cfg.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("", func(c *gin.Context) {
				c.Redirect(http.StatusFound, "/admin/pages")
			})

			auth.GET("/pages", api.ShowPageList)
			auth.GET("/pages/new", api.ShowPageNew)
			auth.POST("/pages", api.CreatePage)
			auth.GET("/pages/:id/edit", api.ShowPageEdit)
			auth.POST("/pages/:id", api.UpdatePage)
			auth.POST("/pages/:id/delete", api.DeletePage)

			// 菜谱表格编辑器
			auth.GET("/pages/:id/recipes/new", api.ShowRecipeNew)
			auth.POST("/pages/:id/recipes", api.CreateRecipe)
			auth.GET("/recipes/:id/edit", api.ShowRecipeEdit)
			auth.POST("/recipes/:id", api.UpdateRecipe)
			auth.POST("/recipes/:id/delete", api.DeleteRecipe)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/pages/:id/recipes", api.ListPageRecipes)
				apiGroup.GET("/recipes/:id", api.GetRecipe)
				apiGroup.PUT("/recipes/:id", api.UpdateRecipeJSON)
				apiGroup.DELETE("/recipes/:id", api.DeleteRecipeJSON)
			}
		}
	}

	// 其余路径交给页面树解析
	r.NoRoute(api.ServePage)

	return r, nil
}
