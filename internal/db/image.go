package db

import "gorm.io/gorm"

// Image 记录已上传的图片资源
type Image struct {
	gorm.Model
	Filename    string `gorm:"not null"`
	Folder      string `gorm:"index"`
	URL         string `gorm:"not null"`
	ContentType string
	Width       int
	Height      int
	Size        int64
}
