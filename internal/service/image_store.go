package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrImageFolderInvalid = errors.New("image folder is invalid")

// StoredFile describes a file written by an ImageStore.
type StoredFile struct {
	Name string
	URL  string
	Size int64
}

// ImageStore persists uploaded image bytes and returns their public URL.
type ImageStore interface {
	Save(folder, ext string, src io.Reader) (StoredFile, error)
	Remove(folder, name string) error
}

// LocalImageStore writes uploads below a directory served as static files.
type LocalImageStore struct {
	root      string
	urlPrefix string
	now       func() time.Time
}

// NewLocalImageStore creates a store rooted at dir whose files are reachable
// below urlPrefix.
func NewLocalImageStore(dir, urlPrefix string) *LocalImageStore {
	return &LocalImageStore{
		root:      dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		now:       time.Now,
	}
}

// Save writes src to <root>/<folder>/<yyyymmdd>-<uuid><ext>.
func (s *LocalImageStore) Save(folder, ext string, src io.Reader) (StoredFile, error) {
	folder, err := cleanFolder(folder)
	if err != nil {
		return StoredFile{}, err
	}

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", s.now().Format("20060102"), uuid.New().String(), strings.ToLower(ext))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return StoredFile{}, fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return StoredFile{}, fmt.Errorf("write upload file: %w", err)
	}

	return StoredFile{
		Name: name,
		URL:  path.Join(s.urlPrefix, folder, name),
		Size: size,
	}, nil
}

// Remove deletes a file written by Save. A file that is already gone is not
// an error.
func (s *LocalImageStore) Remove(folder, name string) error {
	folder, err := cleanFolder(folder)
	if err != nil {
		return err
	}
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return ErrImageFolderInvalid
	}

	if err := os.Remove(filepath.Join(s.root, folder, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}

func cleanFolder(folder string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" || strings.Contains(folder, "..") || strings.ContainsAny(folder, `\/`) {
		return "", ErrImageFolderInvalid
	}
	return folder, nil
}
