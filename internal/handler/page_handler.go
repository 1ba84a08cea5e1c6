package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/recipebook/internal/db"
	"github.com/recipebook/internal/form"
	"github.com/recipebook/internal/service"
)

// adminPageRow is a row of the admin page list.
type adminPageRow struct {
	ID        uint
	Title     string
	PageType  string
	Link      string
	UpdatedAt time.Time
}

// adminRecipeRow is a row of the recipes grid on a recipes page.
type adminRecipeRow struct {
	ID       uint
	Title    string
	ImageURL string
	Link     string
}

// ShowPageList renders all pages.
func (a *API) ShowPageList(c *gin.Context) {
	pages, err := a.pages.List()
	if err != nil {
		a.internalError(c, "list pages", err)
		c.HTML(http.StatusInternalServerError, "page_list.html", gin.H{
			"title": "Pages",
			"error": "Could not load pages",
		})
		return
	}

	rows := make([]adminPageRow, 0, len(pages))
	for _, page := range pages {
		link, err := a.pages.BaseLink(page.ID)
		if err != nil {
			c.Error(err)
		}
		rows = append(rows, adminPageRow{
			ID:        page.ID,
			Title:     page.Title,
			PageType:  page.PageType,
			Link:      link,
			UpdatedAt: page.UpdatedAt,
		})
	}

	c.HTML(http.StatusOK, "page_list.html", gin.H{
		"title": "Pages",
		"pages": rows,
	})
}

// ShowPageNew renders an empty page form. ?type=RecipesPage selects the page type.
func (a *API) ShowPageNew(c *gin.Context) {
	pageType := c.DefaultQuery("type", db.PageTypeDefault)
	if pageType != db.PageTypeRecipes {
		pageType = db.PageTypeDefault
	}
	a.renderPageEdit(c, http.StatusOK, nil, service.PageInput{PageType: pageType}, "")
}

// CreatePage handles the new page form.
func (a *API) CreatePage(c *gin.Context) {
	input, err := pageInputFromForm(c)
	if err != nil {
		a.renderPageEdit(c, http.StatusBadRequest, nil, input, err.Error())
		return
	}

	page, err := a.pages.Create(input)
	if err != nil {
		status, message := a.pageErrorMessage(c, err)
		a.renderPageEdit(c, status, nil, input, message)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/admin/pages/%d/edit", page.ID))
}

// ShowPageEdit renders the edit form of a page, including the recipes grid for
// recipes pages.
func (a *API) ShowPageEdit(c *gin.Context) {
	page, ok := a.loadPageParam(c)
	if !ok {
		return
	}

	a.renderPageEdit(c, http.StatusOK, page, service.PageInput{
		Title:      page.Title,
		URLSegment: page.URLSegment,
		PageType:   page.PageType,
		Content:    page.Content,
		ParentID:   page.ParentID,
		SortOrder:  page.SortOrder,
	}, "")
}

// UpdatePage handles the edit page form.
func (a *API) UpdatePage(c *gin.Context) {
	page, ok := a.loadPageParam(c)
	if !ok {
		return
	}

	input, err := pageInputFromForm(c)
	if err != nil {
		a.renderPageEdit(c, http.StatusBadRequest, page, input, err.Error())
		return
	}
	// the page type is fixed once created
	input.PageType = page.PageType

	updated, err := a.pages.Update(page.ID, input)
	if err != nil {
		status, message := a.pageErrorMessage(c, err)
		a.renderPageEdit(c, status, page, input, message)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/admin/pages/%d/edit", updated.ID))
}

// DeletePage removes a page. Its recipes are kept.
func (a *API) DeletePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.String(http.StatusBadRequest, "invalid page id")
		return
	}

	if err := a.pages.Delete(id); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			c.String(http.StatusNotFound, "page not found")
			return
		}
		a.internalError(c, "delete page", err)
		c.String(http.StatusInternalServerError, "could not delete page")
		return
	}

	c.Redirect(http.StatusFound, adminHomePath)
}

func (a *API) loadPageParam(c *gin.Context) (*db.Page, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.String(http.StatusBadRequest, "invalid page id")
		return nil, false
	}

	page, err := a.pages.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			c.String(http.StatusNotFound, "page not found")
			return nil, false
		}
		a.internalError(c, "load page", err)
		c.String(http.StatusInternalServerError, "could not load page")
		return nil, false
	}
	return page, true
}

func (a *API) renderPageEdit(c *gin.Context, status int, page *db.Page, input service.PageInput, message string) {
	pageType := input.PageType
	if page != nil {
		pageType = page.PageType
	}

	title := "New page"
	action := "/admin/pages"
	var link string
	var recipes []adminRecipeRow
	if page != nil {
		title = page.Title
		action = fmt.Sprintf("/admin/pages/%d", page.ID)
		if base, err := a.pages.BaseLink(page.ID); err == nil {
			link = base
		}
		if pageType == db.PageTypeRecipes {
			recipes = a.recipeRows(c, page.ID)
		}
	}

	parents, err := a.pages.List()
	if err != nil {
		c.Error(err)
	}
	options := make([]db.Page, 0, len(parents))
	for _, candidate := range parents {
		if page != nil && candidate.ID == page.ID {
			continue
		}
		options = append(options, candidate)
	}

	var parentID uint
	if input.ParentID != nil {
		parentID = *input.ParentID
	}

	c.HTML(status, "page_edit.html", gin.H{
		"title":    title,
		"action":   action,
		"page":     page,
		"link":     link,
		"pageType": pageType,
		"form":     form.PageForm(pageType),
		"values": map[string]string{
			"Title":      input.Title,
			"URLSegment": input.URLSegment,
			"Content":    input.Content,
		},
		"parentOptions": options,
		"parentID":      parentID,
		"recipes":       recipes,
		"error":         message,
	})
}

func (a *API) recipeRows(c *gin.Context, pageID uint) []adminRecipeRow {
	recipes, err := a.recipes.ListByPage(pageID)
	if err != nil {
		a.internalError(c, "list recipes", err)
		return nil
	}

	rows := make([]adminRecipeRow, 0, len(recipes))
	for i := range recipes {
		link, err := a.recipes.Link(&recipes[i])
		if err != nil {
			c.Error(err)
		}
		rows = append(rows, adminRecipeRow{
			ID:       recipes[i].ID,
			Title:    recipes[i].Title,
			ImageURL: recipes[i].ImageURL,
			Link:     link,
		})
	}
	return rows
}

func (a *API) pageErrorMessage(c *gin.Context, err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrPageTitleMissing):
		return http.StatusBadRequest, "Please enter a page name"
	case errors.Is(err, service.ErrPageTypeInvalid):
		return http.StatusBadRequest, "Unknown page type"
	case errors.Is(err, service.ErrPageParentInvalid):
		return http.StatusBadRequest, "Invalid parent page"
	case errors.Is(err, service.ErrPageNotFound):
		return http.StatusNotFound, "Page not found"
	default:
		a.internalError(c, "save page", err)
		return http.StatusInternalServerError, "Could not save the page, please try again"
	}
}

func pageInputFromForm(c *gin.Context) (service.PageInput, error) {
	input := service.PageInput{
		Title:      c.PostForm("Title"),
		URLSegment: c.PostForm("URLSegment"),
		PageType:   c.PostForm("PageType"),
		Content:    c.PostForm("Content"),
	}

	parentID, err := parseOptionalUint(c.PostForm("ParentID"), "parent page")
	if err != nil {
		return input, err
	}
	input.ParentID = parentID
	return input, nil
}
