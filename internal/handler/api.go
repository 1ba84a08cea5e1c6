package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recipebook/internal/db"
	"github.com/recipebook/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	pages       *service.PageService
	recipes     *service.RecipeService
	images      *service.ImageService
	logger      *zap.Logger
	controllers map[string]pageController
}

// NewAPI constructs a handler set with shared services. store receives
// uploaded images.
func NewAPI(gdb *gorm.DB, store service.ImageStore, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}

	pages := service.NewPageService(gdb)
	a := &API{
		db:      gdb,
		pages:   pages,
		recipes: service.NewRecipeService(gdb, pages),
		images:  service.NewImageService(gdb, store),
		logger:  logger,
	}

	a.controllers = map[string]pageController{
		db.PageTypeDefault: {index: a.showPage},
		db.PageTypeRecipes: {
			index: a.showRecipesPage,
			actions: map[string]pageAction{
				service.RecipeShowAction: a.ShowRecipe,
			},
		},
	}
	return a
}

// Pages exposes the page service for wiring and tests.
func (a *API) Pages() *service.PageService {
	return a.pages
}

// Recipes exposes the recipe service for wiring and tests.
func (a *API) Recipes() *service.RecipeService {
	return a.recipes
}

func (a *API) internalError(c *gin.Context, msg string, err error) {
	a.logger.Error(msg,
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
	c.Error(err)
}
