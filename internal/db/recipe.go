package db

import "gorm.io/gorm"

// Recipe is a single record owned by a recipes page.
type Recipe struct {
	gorm.Model
	Title    string `gorm:"type:text"`
	Content  string `gorm:"type:text"`
	ImageURL string `gorm:"type:text"`
	ImageID  *uint
	PageID   *uint `gorm:"index"`
}
