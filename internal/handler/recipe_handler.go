package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/recipebook/internal/db"
	"github.com/recipebook/internal/form"
	"github.com/recipebook/internal/service"
)

const (
	recipeImageField           = "Image"
	messageRecipeParentInvalid = "Recipes can only be added to a recipes page"
)

// recipeJSON is the API representation of a recipe.
type recipeJSON struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImageID   *uint  `json:"image_id,omitempty"`
	ImageURL  string `json:"image_url"`
	PageID    *uint  `json:"page_id,omitempty"`
	Link      string `json:"link,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type recipeUpdateRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	ImageID    *uint  `json:"image_id"`
	ClearImage bool   `json:"clear_image"`
}

// ShowRecipeNew renders an empty recipe form for a recipes page. Nothing is
// stored until the form is submitted.
func (a *API) ShowRecipeNew(c *gin.Context) {
	page, ok := a.loadPageParam(c)
	if !ok {
		return
	}
	if page.PageType != db.PageTypeRecipes {
		c.String(http.StatusBadRequest, "page does not hold recipes")
		return
	}

	a.renderRecipeNew(c, http.StatusOK, page, map[string]string{}, "")
}

// CreateRecipe handles the multipart recipe form of the grid editor.
func (a *API) CreateRecipe(c *gin.Context) {
	page, ok := a.loadPageParam(c)
	if !ok {
		return
	}

	values := map[string]string{
		"Title":   c.PostForm("Title"),
		"Content": c.PostForm("Content"),
	}

	// 先校验页面类型，避免为无法保存的菜谱写入图片
	if page.PageType != db.PageTypeRecipes {
		a.renderRecipeNew(c, http.StatusBadRequest, page, values, messageRecipeParentInvalid)
		return
	}

	input := service.RecipeInput{Title: values["Title"], Content: values["Content"]}
	img, status, message := a.uploadRecipeImage(c)
	if message != "" {
		a.renderRecipeNew(c, status, page, values, message)
		return
	}
	input.ImageID = imageIDOf(img)

	recipe, err := a.recipes.Create(page.ID, input)
	if err != nil {
		a.discardImage(c, img)
		status, message := a.recipeErrorMessage(c, err)
		a.renderRecipeNew(c, status, page, values, message)
		return
	}

	a.logger.Info("recipe created", zap.Uint("recipe_id", recipe.ID), zap.Uint("page_id", page.ID))
	c.Redirect(http.StatusFound, fmt.Sprintf("/admin/pages/%d/edit", page.ID))
}

// ShowRecipeEdit renders the edit form of a recipe.
func (a *API) ShowRecipeEdit(c *gin.Context) {
	recipe, ok := a.loadRecipeParam(c)
	if !ok {
		return
	}

	a.renderRecipeEdit(c, http.StatusOK, recipe, recipeValues(recipe), "")
}

// UpdateRecipe handles the multipart edit form of a recipe.
func (a *API) UpdateRecipe(c *gin.Context) {
	recipe, ok := a.loadRecipeParam(c)
	if !ok {
		return
	}

	values := recipeValues(recipe)
	values["Title"] = c.PostForm("Title")
	values["Content"] = c.PostForm("Content")

	input := service.RecipeInput{
		Title:      values["Title"],
		Content:    values["Content"],
		ClearImage: c.PostForm("Remove"+recipeImageField) != "",
	}
	img, status, message := a.uploadRecipeImage(c)
	if message != "" {
		a.renderRecipeEdit(c, status, recipe, values, message)
		return
	}
	input.ImageID = imageIDOf(img)

	updated, err := a.recipes.Update(recipe.ID, input)
	if err != nil {
		a.discardImage(c, img)
		status, message := a.recipeErrorMessage(c, err)
		a.renderRecipeEdit(c, status, recipe, values, message)
		return
	}

	c.Redirect(http.StatusFound, recipeBackLink(updated))
}

// DeleteRecipe removes a recipe and returns to its page.
func (a *API) DeleteRecipe(c *gin.Context) {
	recipe, ok := a.loadRecipeParam(c)
	if !ok {
		return
	}

	if err := a.recipes.Delete(recipe.ID); err != nil {
		a.internalError(c, "delete recipe", err)
		c.String(http.StatusInternalServerError, "could not delete recipe")
		return
	}

	c.Redirect(http.StatusFound, recipeBackLink(recipe))
}

// ListPageRecipes 返回某个页面下的全部菜谱
func (a *API) ListPageRecipes(c *gin.Context) {
	pageID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid page id")
		return
	}
	if _, err := a.pages.Get(pageID); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, "page not found")
			return
		}
		a.internalError(c, "load page", err)
		respondError(c, http.StatusInternalServerError, "failed to load page")
		return
	}

	recipes, err := a.recipes.ListByPage(pageID)
	if err != nil {
		a.internalError(c, "list recipes", err)
		respondError(c, http.StatusInternalServerError, "failed to list recipes")
		return
	}

	items := make([]recipeJSON, 0, len(recipes))
	for i := range recipes {
		items = append(items, a.recipeToJSON(&recipes[i]))
	}
	c.JSON(http.StatusOK, gin.H{"recipes": items})
}

// GetRecipe 返回单个菜谱
func (a *API) GetRecipe(c *gin.Context) {
	recipe, ok := a.loadRecipeJSON(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.recipeToJSON(recipe))
}

// UpdateRecipeJSON 更新菜谱
func (a *API) UpdateRecipeJSON(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid recipe id")
		return
	}

	var req recipeUpdateRequest
	if !bindJSON(c, &req, "invalid recipe payload") {
		return
	}

	recipe, err := a.recipes.Update(id, service.RecipeInput{
		Title:      req.Title,
		Content:    req.Content,
		ImageID:    req.ImageID,
		ClearImage: req.ClearImage,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			respondError(c, http.StatusNotFound, "recipe not found")
		case errors.Is(err, service.ErrImageNotFound):
			respondError(c, http.StatusBadRequest, "image not found")
		default:
			a.internalError(c, "update recipe", err)
			respondError(c, http.StatusInternalServerError, "failed to update recipe")
		}
		return
	}

	c.JSON(http.StatusOK, a.recipeToJSON(recipe))
}

// DeleteRecipeJSON 删除菜谱
func (a *API) DeleteRecipeJSON(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if err := a.recipes.Delete(id); err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			respondError(c, http.StatusNotFound, "recipe not found")
			return
		}
		a.internalError(c, "delete recipe", err)
		respondError(c, http.StatusInternalServerError, "failed to delete recipe")
		return
	}

	c.Status(http.StatusNoContent)
}

// uploadRecipeImage stores the optional image of the recipe form. A non-empty
// message reports a rejected upload together with its status.
func (a *API) uploadRecipeImage(c *gin.Context) (*db.Image, int, string) {
	header, err := c.FormFile(recipeImageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, 0, ""
		}
		return nil, http.StatusBadRequest, "Could not read the uploaded file"
	}

	recipeForm := form.RecipeForm()
	field, _ := recipeForm.Field(recipeImageField)
	if err := recipeForm.ValidateUpload(recipeImageField, header.Filename); err != nil {
		return nil, http.StatusBadRequest, fmt.Sprintf("Only %s files are allowed", field.Accept())
	}

	file, err := header.Open()
	if err != nil {
		a.internalError(c, "open uploaded image", err)
		return nil, http.StatusInternalServerError, "Could not read the uploaded file"
	}
	defer file.Close()

	image, err := a.images.Upload(field.Folder, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageExtensionNotAllowed),
			errors.Is(err, service.ErrImageInvalid),
			errors.Is(err, service.ErrImageFormatMismatch):
			return nil, http.StatusBadRequest, "The uploaded file is not a valid image"
		default:
			a.internalError(c, "store uploaded image", err)
			return nil, http.StatusInternalServerError, "Could not store the uploaded image"
		}
	}

	return image, 0, ""
}

// discardImage removes an image stored for a recipe that was not saved.
func (a *API) discardImage(c *gin.Context, img *db.Image) {
	if err := a.images.Discard(img); err != nil {
		a.internalError(c, "discard unused image", err)
	}
}

func imageIDOf(img *db.Image) *uint {
	if img == nil {
		return nil
	}
	id := img.ID
	return &id
}

func (a *API) loadRecipeParam(c *gin.Context) (*db.Recipe, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.String(http.StatusBadRequest, "invalid recipe id")
		return nil, false
	}

	recipe, err := a.recipes.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			c.String(http.StatusNotFound, "recipe not found")
			return nil, false
		}
		a.internalError(c, "load recipe", err)
		c.String(http.StatusInternalServerError, "could not load recipe")
		return nil, false
	}
	return recipe, true
}

func (a *API) loadRecipeJSON(c *gin.Context) (*db.Recipe, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid recipe id")
		return nil, false
	}

	recipe, err := a.recipes.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			respondError(c, http.StatusNotFound, "recipe not found")
			return nil, false
		}
		a.internalError(c, "load recipe", err)
		respondError(c, http.StatusInternalServerError, "failed to load recipe")
		return nil, false
	}
	return recipe, true
}

func (a *API) renderRecipeNew(c *gin.Context, status int, page *db.Page, values map[string]string, message string) {
	c.HTML(status, "recipe_edit.html", gin.H{
		"title":    "New recipe",
		"action":   fmt.Sprintf("/admin/pages/%d/recipes", page.ID),
		"backLink": fmt.Sprintf("/admin/pages/%d/edit", page.ID),
		"form":     form.RecipeForm(),
		"values":   values,
		"error":    message,
	})
}

func (a *API) renderRecipeEdit(c *gin.Context, status int, recipe *db.Recipe, values map[string]string, message string) {
	c.HTML(status, "recipe_edit.html", gin.H{
		"title":    recipe.Title,
		"action":   fmt.Sprintf("/admin/recipes/%d", recipe.ID),
		"backLink": recipeBackLink(recipe),
		"form":     form.RecipeForm(),
		"values":   values,
		"error":    message,
	})
}

func (a *API) recipeErrorMessage(c *gin.Context, err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrRecipeParentInvalid):
		return http.StatusBadRequest, messageRecipeParentInvalid
	case errors.Is(err, service.ErrPageNotFound):
		return http.StatusNotFound, "Page not found"
	case errors.Is(err, service.ErrRecipeNotFound):
		return http.StatusNotFound, "Recipe not found"
	case errors.Is(err, service.ErrImageNotFound):
		return http.StatusBadRequest, "Image not found"
	default:
		a.internalError(c, "save recipe", err)
		return http.StatusInternalServerError, "Could not save the recipe, please try again"
	}
}

func (a *API) recipeToJSON(recipe *db.Recipe) recipeJSON {
	// orphaned recipes have no public link
	link, _ := a.recipes.Link(recipe)
	return recipeJSON{
		ID:        recipe.ID,
		Title:     recipe.Title,
		Content:   recipe.Content,
		ImageID:   recipe.ImageID,
		ImageURL:  recipe.ImageURL,
		PageID:    recipe.PageID,
		Link:      link,
		CreatedAt: recipe.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: recipe.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func recipeValues(recipe *db.Recipe) map[string]string {
	values := map[string]string{
		"Title":   recipe.Title,
		"Content": recipe.Content,
	}
	values[recipeImageField+"URL"] = recipe.ImageURL
	return values
}

func recipeBackLink(recipe *db.Recipe) string {
	if recipe.PageID == nil {
		return adminHomePath
	}
	return fmt.Sprintf("/admin/pages/%d/edit", *recipe.PageID)
}
