package handler

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/recipebook/internal/db"
	"github.com/recipebook/internal/logging"
	"github.com/recipebook/internal/service"
	"github.com/recipebook/internal/view"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "s3cret-pass"
)

type handlerTestEnv struct {
	api       *API
	gdb       *gorm.DB
	router    *gin.Engine
	uploadDir string
}

func setupHandlerTest(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	if err := db.EnsureUser(gdb, testAdminUser, testAdminPassword); err != nil {
		t.Fatalf("failed to create admin user: %v", err)
	}

	uploadDir := t.TempDir()
	api := NewAPI(gdb, service.NewLocalImageStore(uploadDir, "/static/uploads"), logging.NewNop())

	tmpl, err := view.Load()
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(sessions.Sessions("recipebook_session", cookie.NewStore([]byte("test-secret"))))

	admin := r.Group("/admin")
	admin.GET("/login", api.ShowLoginPage)
	admin.POST("/login", api.Login)
	admin.GET("/logout", api.Logout)

	auth := admin.Group("")
	auth.Use(AuthRequired())
	auth.GET("/pages", api.ShowPageList)
	auth.GET("/pages/new", api.ShowPageNew)
	auth.POST("/pages", api.CreatePage)
	auth.GET("/pages/:id/edit", api.ShowPageEdit)
	auth.POST("/pages/:id", api.UpdatePage)
	auth.POST("/pages/:id/delete", api.DeletePage)
	auth.GET("/pages/:id/recipes/new", api.ShowRecipeNew)
	auth.POST("/pages/:id/recipes", api.CreateRecipe)
	auth.GET("/recipes/:id/edit", api.ShowRecipeEdit)
	auth.POST("/recipes/:id", api.UpdateRecipe)
	auth.POST("/recipes/:id/delete", api.DeleteRecipe)
	auth.GET("/api/pages/:id/recipes", api.ListPageRecipes)
	auth.GET("/api/recipes/:id", api.GetRecipe)
	auth.PUT("/api/recipes/:id", api.UpdateRecipeJSON)
	auth.DELETE("/api/recipes/:id", api.DeleteRecipeJSON)

	r.NoRoute(api.ServePage)

	return &handlerTestEnv{api: api, gdb: gdb, router: r, uploadDir: uploadDir}
}

func (e *handlerTestEnv) serve(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *handlerTestEnv) get(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	return e.serve(httptest.NewRequest(http.MethodGet, path, nil), cookies)
}

func (e *handlerTestEnv) postForm(path string, values url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.serve(req, cookies)
}

// login returns the session cookies of a logged in admin.
func (e *handlerTestEnv) login(t *testing.T) []*http.Cookie {
	t.Helper()

	rr := e.postForm("/admin/login", url.Values{
		"username": {testAdminUser},
		"password": {testAdminPassword},
	}, nil)
	if rr.Code != http.StatusFound {
		t.Fatalf("login: expected status %d, got %d", http.StatusFound, rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login: expected a session cookie")
	}
	return cookies
}

func (e *handlerTestEnv) mustCreateRecipesPage(t *testing.T, title string) *db.Page {
	t.Helper()

	page, err := e.api.Pages().Create(service.PageInput{Title: title, PageType: db.PageTypeRecipes})
	if err != nil {
		t.Fatalf("failed to create recipes page: %v", err)
	}
	return page
}

func (e *handlerTestEnv) mustCreateRecipe(t *testing.T, pageID uint, title, content string) *db.Recipe {
	t.Helper()

	recipe, err := e.api.Recipes().Create(pageID, service.RecipeInput{Title: title, Content: content})
	if err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return recipe
}

func (e *handlerTestEnv) countRecipes(t *testing.T) int64 {
	t.Helper()

	var count int64
	if err := e.gdb.Model(&db.Recipe{}).Count(&count).Error; err != nil {
		t.Fatalf("count recipes: %v", err)
	}
	return count
}

// multipartRequest builds a recipe form post. An empty filename omits the file part.
func multipartRequest(t *testing.T, path string, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile(recipeImageField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 200, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
