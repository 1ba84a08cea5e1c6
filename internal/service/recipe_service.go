package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/recipebook/internal/db"
	"gorm.io/gorm"
)

var (
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrRecipeNoParent      = errors.New("recipe has no parent page")
	ErrRecipeParentInvalid = errors.New("recipe parent must be a recipes page")
)

// RecipeShowAction is the controller action that renders a single recipe.
const RecipeShowAction = "show"

// RecipeInput represents fields accepted when creating or updating a recipe.
// A nil ImageID keeps the current image unless ClearImage is set.
type RecipeInput struct {
	Title      string
	Content    string
	ImageID    *uint
	ClearImage bool
}

// RecipeService provides typed CRUD for recipes owned by recipes pages.
type RecipeService struct {
	db    *gorm.DB
	links PageLinkResolver
}

// NewRecipeService creates a RecipeService instance.
func NewRecipeService(gdb *gorm.DB, links PageLinkResolver) *RecipeService {
	return &RecipeService{db: gdb, links: links}
}

// Get fetches a recipe by primary key. Orphaned recipes are still returned.
func (s *RecipeService) Get(id uint) (*db.Recipe, error) {
	var recipe db.Recipe
	if err := s.db.First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListByPage returns the recipes owned by a page in creation order.
func (s *RecipeService) ListByPage(pageID uint) ([]db.Recipe, error) {
	var recipes []db.Recipe
	if err := s.db.Where("page_id = ?", pageID).Order("id asc").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Create inserts a recipe under the given recipes page.
func (s *RecipeService) Create(pageID uint, input RecipeInput) (*db.Recipe, error) {
	if err := s.ensureRecipesPage(pageID); err != nil {
		return nil, err
	}

	recipe := db.Recipe{
		Title:   strings.TrimSpace(input.Title),
		Content: strings.TrimSpace(input.Content),
		PageID:  &pageID,
	}
	if err := s.applyImage(&recipe, input); err != nil {
		return nil, err
	}

	if err := s.db.Create(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Update modifies an existing recipe. The parent page is not changed.
func (s *RecipeService) Update(id uint, input RecipeInput) (*db.Recipe, error) {
	recipe, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	recipe.Title = strings.TrimSpace(input.Title)
	recipe.Content = strings.TrimSpace(input.Content)
	if err := s.applyImage(recipe, input); err != nil {
		return nil, err
	}

	if err := s.db.Save(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes a recipe. The attached image asset is kept.
func (s *RecipeService) Delete(id uint) error {
	recipe, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.db.Delete(recipe).Error
}

// Link returns the public detail URL of a recipe: the parent page's base
// link followed by "show/<id>".
func (s *RecipeService) Link(recipe *db.Recipe) (string, error) {
	if recipe == nil || recipe.PageID == nil {
		return "", ErrRecipeNoParent
	}

	action := RecipeShowAction + "/" + strconv.FormatUint(uint64(recipe.ID), 10)
	link, err := s.links.ActionLink(*recipe.PageID, action)
	if err != nil {
		return "", fmt.Errorf("recipe %d: %w", recipe.ID, err)
	}
	return link, nil
}

func (s *RecipeService) ensureRecipesPage(pageID uint) error {
	var page db.Page
	if err := s.db.First(&page, pageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPageNotFound
		}
		return err
	}
	if page.PageType != db.PageTypeRecipes {
		return ErrRecipeParentInvalid
	}
	return nil
}

// applyImage keeps ImageURL in sync with the attached image asset.
func (s *RecipeService) applyImage(recipe *db.Recipe, input RecipeInput) error {
	switch {
	case input.ImageID != nil:
		var image db.Image
		if err := s.db.First(&image, *input.ImageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrImageNotFound
			}
			return err
		}
		imageID := image.ID
		recipe.ImageID = &imageID
		recipe.ImageURL = image.URL
	case input.ClearImage:
		recipe.ImageID = nil
		recipe.ImageURL = ""
	}
	return nil
}
