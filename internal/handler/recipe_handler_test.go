package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/recipebook/internal/db"
	"github.com/recipebook/internal/form"
	"github.com/recipebook/internal/service"
)

func TestShowRecipeNewPersistsNothing(t *testing.T) {
	env := setupHandlerTest(t)
	cookies := env.login(t)
	page := env.mustCreateRecipesPage(t, "Recipes")

	rr := env.get(fmt.Sprintf("/admin/pages/%d/recipes/new", page.ID), cookies)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `accept=".jpg,.jpeg,.png"`) {
		t.Fatalf("expected image whitelist on the upload field, got %q", body)
	}
	if !strings.Contains(body, `data-editor="richtext"`) {
		t.Fatalf("expected rich text editor, got %q", body)
	}
	if env.countRecipes(t) != 0 {
		t.Fatal("expected no recipe rows after opening the form")
	}
}

func TestShowRecipeNewRejectsPlainPage(t *testing.T) {
	env := setupHandlerTest(t)
	cookies := env.login(t)
	page, err := env.api.Pages().Create(service.PageInput{Title: "About"})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	rr := env.get(fmt.Sprintf("/admin/pages/%d/recipes/new", page.ID), cookies)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestCreateRecipeWithImage(t *testing.T) {
	env := setupHandlerTest(t)
	cookies := env.login(t)
	page := env.mustCreateRecipesPage(t, "Recipes")

	req := multipartRequest(t, fmt.Sprintf("/admin/pages/%d/recipes", page.ID), map[string]string{
		"Title":   "Pancakes",
		"Content": "Whisk flour and milk.",
	}, "pancakes.PNG", pngBytes(t))
	rr := env.serve(req, cookies)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d: %s", http.StatusFound, rr.Code, rr.Body.String())
	}

	recipes, err := env.api.Recipes().ListByPage(page.ID)
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("expected one recipe, got %d", len(recipes))
	}
	recipe := recipes[0]
	if recipe.Title != "Pancakes" || recipe.ImageID == nil {
		t.Fatalf("unexpected recipe: %+v", recipe)
	}
	prefix := "/static/uploads/" + form.RecipeImageFolder + "/"
	if !strings.HasPrefix(recipe.ImageURL, prefix) {
		t.Fatalf("expected image url under %q, got %q", prefix, recipe.ImageURL)
	}

	stored := filepath.Join(env.uploadDir, form.RecipeImageFolder, strings.TrimPrefix(recipe.ImageURL, prefix))
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("expected stored image at %s: %v", stored, err)
	}
}

func TestCreateRecipeWithoutImage(t *testing.T) {
	env := setupHandlerTest(t)
	cookies := env.login(t)
	page := env.mustCreateRecipesPage(t, "Recipes")

	req := multipartRequest(t, fmt.Sprintf("/admin/pages/%d/recipes", page.ID), map[string]string{
		"Title": "Toast",
	}, "", nil)
	rr := env.serve(req, cookies)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d: %s", http.StatusFound, rr.Code, rr.Body.String())
	}
	if env.countRecipes(t) != 1 {
		t.Fatal("expected recipe to be stored")
	}
}

func TestCreateRecipeRejectsUploads(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     func(t *testing.T) []byte
		message  string
	}{
		{
			name:     "extension outside whitelist",
			filename: "cake.gif",
			data:     func(*testing.T) []byte { return []byte("GIF89a") },
			message:  "Only .jpg,.jpeg,.png files are allowed",
		},
		{
			name:     "no extension",
			filename: "cake",
			data:     pngBytes,
			message:  "Only .jpg,.jpeg,.png files are allowed",
		},
		{
			name:     "not an image",
			filename: "cake.jpg",
			data:     func(*testing.T) []byte { return []byte("plain text") },
			message:  "The uploaded file is not a valid image",
		},
		{
			name:     "png bytes with jpg extension",
			filename: "cake.jpg",
			data:     pngBytes,
			message:  "The uploaded file is not a valid image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupHandlerTest(t)
			cookies := env.login(t)
			page := env.mustCreateRecipesPage(t, "Recipes")

			req := multipartRequest(t, fmt.Sprintf("/admin/pages/%d/recipes", page.ID), map[string]string{
				"Title": "Cake",
			}, tt.filename, tt.data(t))
			rr := env.serve(req, cookies)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.message) {
				t.Fatalf("expected message %q, got %q", tt.message, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), `value="Cake"`) {
				t.Fatalf("expected form to be re-rendered with input, got %q", rr.Body.String())
			}
			if env.countRecipes(t) != 0 {
				t.Fatal("expected no recipe to be written")
			}
		})
	}
}

func TestCreateRecipeOnPlainPageStoresNoImage(t *testing.T) {
	env := setupHandlerTest(t)
	cookies := env.login(t)
	page, err := env.api.Pages().Create(service.PageInput{Title: "About"})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	req := multipartRequest(t, fmt.Sprintf("/admin/pages/%d/recipes", page.ID), map[string]string{
		"Title": "Pancakes",
	}, "pancakes.png", pngBytes(t))
	rr := env.serve(req, cookies)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Recipes can only be added to a recipes page") {
		t.Fatalf("expected page type message, got %q", rr.Body.String())
	}

	var images int64
	if err := env.gdb.Model(&db.Image{}).Count(&images).Error; err != nil {
		t.Fatalf("count images: %v", err)
	}
	if images != 0 {
		t.Fatalf("expected no image rows, got %d", images)
	}
	if env.countRecipes(t) != 0 {
		t.Fatal("expected no recipe to be written")
	}
	if _, err := os.Stat(filepath.Join(env.uploadDir, form.RecipeImageFolder)); !os.IsNotExist(err) {
		t.Fatalf("expected no upload folder, got %v", err)
	}
}

func TestUpdateRecipeRemovesImage(t *testing.T) {
	env := setupHandlerTest(t)
	cookies := env.login(t)
	page := env.mustCreateRecipesPage(t, "Recipes")

	req := multipartRequest(t, fmt.Sprintf("/admin/pages/%d/recipes", page.ID), map[string]string{
		"Title": "Pancakes",
	}, "pancakes.png", pngBytes(t))
	if rr := env.serve(req, cookies); rr.Code != http.StatusFound {
		t.Fatalf("create: expected status %d, got %d", http.StatusFound, rr.Code)
	}
	recipes, _ := env.api.Recipes().ListByPage(page.ID)
	if len(recipes) != 1 {
		t.Fatalf("expected one recipe, got %d", len(recipes))
	}
	recipe := recipes[0]

	rr := env.get(fmt.Sprintf("/admin/recipes/%d/edit", recipe.ID), cookies)
	if !strings.Contains(rr.Body.String(), `name="RemoveImage"`) {
		t.Fatalf("expected remove checkbox for the current image, got %q", rr.Body.String())
	}

	req = multipartRequest(t, fmt.Sprintf("/admin/recipes/%d", recipe.ID), map[string]string{
		"Title":       "Fluffy Pancakes",
		"RemoveImage": "1",
	}, "", nil)
	rr = env.serve(req, cookies)
	if rr.Code != http.StatusFound {
		t.Fatalf("update: expected status %d, got %d: %s", http.StatusFound, rr.Code, rr.Body.String())
	}
	if location := rr.Header().Get("Location"); location != fmt.Sprintf("/admin/pages/%d/edit", page.ID) {
		t.Fatalf("unexpected redirect %q", location)
	}

	updated, err := env.api.Recipes().Get(recipe.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if updated.Title != "Fluffy Pancakes" || updated.ImageID != nil || updated.ImageURL != "" {
		t.Fatalf("unexpected recipe after update: %+v", updated)
	}
}

func TestDeleteRecipeFromGrid(t *testing.T) {
	env := setupHandlerTest(t)
	cookies := env.login(t)
	page := env.mustCreateRecipesPage(t, "Recipes")
	recipe := env.mustCreateRecipe(t, page.ID, "Pancakes", "")

	rr := env.serve(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/recipes/%d/delete", recipe.ID), nil), cookies)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d", http.StatusFound, rr.Code)
	}
	if env.countRecipes(t) != 0 {
		t.Fatal("expected recipe to be deleted")
	}
}

func TestRecipeJSONAPI(t *testing.T) {
	env := setupHandlerTest(t)
	cookies := env.login(t)
	page := env.mustCreateRecipesPage(t, "Recipes")
	recipe := env.mustCreateRecipe(t, page.ID, "Pancakes", "")

	rr := env.get(fmt.Sprintf("/admin/api/pages/%d/recipes", page.ID), cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var listed struct {
		Recipes []recipeJSON `json:"recipes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Recipes) != 1 || listed.Recipes[0].ID != recipe.ID {
		t.Fatalf("unexpected list response: %+v", listed)
	}

	body, _ := json.Marshal(map[string]interface{}{"title": "Crepes", "content": "Thin."})
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/admin/api/recipes/%d", recipe.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr = env.serve(req, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var updated recipeJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Title != "Crepes" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if want := fmt.Sprintf("/recipes/show/%d", recipe.ID); updated.Link != want {
		t.Fatalf("expected link %q, got %q", want, updated.Link)
	}

	body, _ = json.Marshal(map[string]interface{}{"title": "Crepes", "image_id": 999})
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/admin/api/recipes/%d", recipe.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr = env.serve(req, cookies)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown image: expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/admin/api/recipes/%d", recipe.ID), nil)
	rr = env.serve(req, cookies)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status %d, got %d", http.StatusNoContent, rr.Code)
	}

	rr = env.get(fmt.Sprintf("/admin/api/recipes/%d", recipe.ID), cookies)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
