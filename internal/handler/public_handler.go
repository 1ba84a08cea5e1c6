package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/recipebook/internal/db"
	"github.com/recipebook/internal/richtext"
	"github.com/recipebook/internal/service"
)

const (
	messagePageNotFound   = "Page not found"
	messageRecipeNotFound = "No such recipe"
	recipeSummaryLength   = 160
)

// pageAction handles a request for a resolved page. params holds the URL
// segments that follow the action name.
type pageAction func(c *gin.Context, page *db.Page, params []string)

// pageController routes requests for one page type. Only actions listed in
// actions are reachable; index handles the bare page URL.
type pageController struct {
	index   pageAction
	actions map[string]pageAction
}

// recipeCard is a recipe as listed on its recipes page.
type recipeCard struct {
	ID       uint
	Title    string
	Link     string
	ImageURL string
	Summary  string
}

// ServePage resolves the request path against the page tree and dispatches
// to the controller of the matched page type.
func (a *API) ServePage(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		renderError(c, http.StatusNotFound, messagePageNotFound)
		return
	}

	segments := strings.Split(strings.Trim(c.Request.URL.Path, "/"), "/")
	page, rest, err := a.pages.ResolvePath(segments)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			renderError(c, http.StatusNotFound, messagePageNotFound)
			return
		}
		a.internalError(c, "resolve page path", err)
		renderError(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	controller, ok := a.controllers[page.PageType]
	if !ok {
		controller = a.controllers[db.PageTypeDefault]
	}

	if len(rest) == 0 {
		controller.index(c, page, nil)
		return
	}

	action, allowed := controller.actions[strings.ToLower(rest[0])]
	if !allowed {
		renderError(c, http.StatusNotFound, messagePageNotFound)
		return
	}
	action(c, page, rest[1:])
}

// ShowRecipe renders a single recipe looked up by the ID that follows the
// show action. Unknown or malformed IDs and trailing segments produce a 404.
func (a *API) ShowRecipe(c *gin.Context, page *db.Page, params []string) {
	if len(params) != 1 {
		renderError(c, http.StatusNotFound, messageRecipeNotFound)
		return
	}

	id, err := parseUint(params[0], "id")
	if err != nil {
		renderError(c, http.StatusNotFound, messageRecipeNotFound)
		return
	}

	recipe, err := a.recipes.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			renderError(c, http.StatusNotFound, messageRecipeNotFound)
			return
		}
		a.internalError(c, "load recipe", err)
		renderError(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	content, err := richtext.Render(recipe.Content)
	if err != nil {
		a.internalError(c, "render recipe content", err)
		renderError(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	pageLink, err := a.pages.BaseLink(page.ID)
	if err != nil {
		c.Error(err)
	}

	c.HTML(http.StatusOK, "recipe_show.html", gin.H{
		"Recipe":   recipe,
		"title":    recipe.Title,
		"page":     page,
		"pageLink": pageLink,
		"content":  content,
	})
}

func (a *API) showPage(c *gin.Context, page *db.Page, _ []string) {
	content, err := richtext.Render(page.Content)
	if err != nil {
		a.internalError(c, "render page content", err)
		renderError(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	c.HTML(http.StatusOK, "page.html", gin.H{
		"title":   page.Title,
		"page":    page,
		"content": content,
	})
}

func (a *API) showRecipesPage(c *gin.Context, page *db.Page, _ []string) {
	content, err := richtext.Render(page.Content)
	if err != nil {
		a.internalError(c, "render page content", err)
		renderError(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	recipes, err := a.recipes.ListByPage(page.ID)
	if err != nil {
		a.internalError(c, "list recipes", err)
		renderError(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	cards := make([]recipeCard, 0, len(recipes))
	for i := range recipes {
		link, err := a.recipes.Link(&recipes[i])
		if err != nil {
			c.Error(err)
			continue
		}
		cards = append(cards, recipeCard{
			ID:       recipes[i].ID,
			Title:    recipes[i].Title,
			Link:     link,
			ImageURL: recipes[i].ImageURL,
			Summary:  richtext.Summary(recipes[i].Content, recipeSummaryLength),
		})
	}

	c.HTML(http.StatusOK, "recipes_page.html", gin.H{
		"title":   page.Title,
		"page":    page,
		"content": content,
		"recipes": cards,
	})
}
