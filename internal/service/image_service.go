package service

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/recipebook/internal/db"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

var (
	ErrImageNotFound            = errors.New("image not found")
	ErrImageExtensionNotAllowed = errors.New("image extension is not allowed")
	ErrImageInvalid             = errors.New("image could not be decoded")
	ErrImageFormatMismatch      = errors.New("image content does not match its extension")
)

// formatsByExtension lists the accepted extensions and the decoder format
// their bytes must carry.
var formatsByExtension = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
}

// ImageService validates uploads and records image assets.
type ImageService struct {
	db    *gorm.DB
	store ImageStore
}

// NewImageService creates an ImageService instance.
func NewImageService(gdb *gorm.DB, store ImageStore) *ImageService {
	return &ImageService{db: gdb, store: store}
}

// Get fetches an image asset by id.
func (s *ImageService) Get(id uint) (*db.Image, error) {
	var img db.Image
	if err := s.db.First(&img, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &img, nil
}

// Upload checks that filename has an accepted extension and that src really
// holds an image of that format, then stores it under folder.
func (s *ImageService) Upload(folder, filename string, src io.ReadSeeker) (*db.Image, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	wantFormat, ok := formatsByExtension[ext]
	if !ok {
		return nil, ErrImageExtensionNotAllowed
	}

	cfg, format, err := image.DecodeConfig(src)
	if err != nil {
		return nil, ErrImageInvalid
	}
	if format != wantFormat {
		return nil, fmt.Errorf("%w: %s file holds %s data", ErrImageFormatMismatch, ext, format)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	stored, err := s.store.Save(folder, ext, src)
	if err != nil {
		return nil, err
	}

	img := db.Image{
		Filename:    stored.Name,
		Folder:      folder,
		URL:         stored.URL,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        stored.Size,
	}
	if err := s.db.Create(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// Discard removes an uploaded image that ended up unused, both its row and
// its stored file.
func (s *ImageService) Discard(img *db.Image) error {
	if img == nil {
		return nil
	}
	if err := s.db.Unscoped().Delete(&db.Image{}, img.ID).Error; err != nil {
		return err
	}
	return s.store.Remove(img.Folder, img.Filename)
}
