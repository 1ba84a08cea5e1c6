package db

import "gorm.io/gorm"

const (
	PageTypeDefault = "Page"
	PageTypeRecipes = "RecipesPage"
)

// Page represents a content page in the site tree. ParentID is nil for
// top-level pages.
type Page struct {
	gorm.Model
	Title      string `gorm:"not null"`
	URLSegment string `gorm:"index:idx_pages_parent_segment;not null"`
	ParentID   *uint  `gorm:"index:idx_pages_parent_segment"`
	PageType   string `gorm:"not null;default:Page"`
	Content    string `gorm:"type:text"`
	SortOrder  int    `gorm:"default:0"`
}
