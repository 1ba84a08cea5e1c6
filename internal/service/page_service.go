package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/recipebook/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound      = errors.New("page not found")
	ErrPageTitleMissing  = errors.New("page title is required")
	ErrPageTypeInvalid   = errors.New("page type is invalid")
	ErrPageParentInvalid = errors.New("page parent is invalid")
)

const (
	homeSegment     = "home"
	maxPageDepth    = 32
	fallbackSegment = "page"
)

var segmentCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// PageLinkResolver resolves public URLs of page actions.
type PageLinkResolver interface {
	ActionLink(pageID uint, action string) (string, error)
}

// PageInput represents fields accepted when creating or updating a page.
type PageInput struct {
	Title      string
	URLSegment string
	PageType   string
	Content    string
	ParentID   *uint
	SortOrder  int
}

// PageService manages the site tree.
type PageService struct {
	db *gorm.DB
}

var _ PageLinkResolver = (*PageService)(nil)

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// Get fetches a live page by id.
func (s *PageService) Get(id uint) (*db.Page, error) {
	var page db.Page
	if err := s.db.First(&page, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// List returns all live pages ordered for display in the admin tree.
func (s *PageService) List() ([]db.Page, error) {
	var pages []db.Page
	if err := s.db.Order("sort_order asc").Order("id asc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Create inserts a new page.
func (s *PageService) Create(input PageInput) (*db.Page, error) {
	pageType, err := s.validate(0, input)
	if err != nil {
		return nil, err
	}

	segment, err := s.uniqueSegment(0, input.ParentID, input.URLSegment, input.Title)
	if err != nil {
		return nil, err
	}

	page := db.Page{
		Title:      strings.TrimSpace(input.Title),
		URLSegment: segment,
		ParentID:   input.ParentID,
		PageType:   pageType,
		Content:    strings.TrimSpace(input.Content),
		SortOrder:  input.SortOrder,
	}
	if err := s.db.Create(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// Update modifies an existing page.
func (s *PageService) Update(id uint, input PageInput) (*db.Page, error) {
	page, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	pageType, err := s.validate(id, input)
	if err != nil {
		return nil, err
	}

	segment, err := s.uniqueSegment(id, input.ParentID, input.URLSegment, input.Title)
	if err != nil {
		return nil, err
	}

	page.Title = strings.TrimSpace(input.Title)
	page.URLSegment = segment
	page.ParentID = input.ParentID
	page.PageType = pageType
	page.Content = strings.TrimSpace(input.Content)
	page.SortOrder = input.SortOrder

	if err := s.db.Save(page).Error; err != nil {
		return nil, err
	}
	return page, nil
}

// Delete soft-deletes a page. Records that reference the page are left in
// place and become orphans.
func (s *PageService) Delete(id uint) error {
	page, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.db.Delete(page).Error
}

// ResolvePath walks URL segments down the site tree. It returns the deepest
// matching page together with the segments that were not consumed, which the
// page controller interprets as an action and its parameters.
func (s *PageService) ResolvePath(segments []string) (*db.Page, []string, error) {
	cleaned := make([]string, 0, len(segments))
	for _, segment := range segments {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	if len(cleaned) == 0 {
		page, err := s.child(nil, homeSegment)
		if err != nil {
			return nil, nil, err
		}
		return page, nil, nil
	}

	var current *db.Page
	for i, segment := range cleaned {
		var parentID *uint
		if current != nil {
			parentID = &current.ID
		}

		next, err := s.child(parentID, strings.ToLower(segment))
		if err != nil {
			if errors.Is(err, ErrPageNotFound) && current != nil {
				return current, cleaned[i:], nil
			}
			return nil, nil, err
		}
		current = next
	}

	return current, nil, nil
}

// BaseLink returns the public URL of a page, always with a trailing slash.
// The root page with the "home" segment links to "/".
func (s *PageService) BaseLink(pageID uint) (string, error) {
	page, err := s.Get(pageID)
	if err != nil {
		return "", err
	}

	if page.ParentID == nil && page.URLSegment == homeSegment {
		return "/", nil
	}

	segments := []string{page.URLSegment}
	for depth := 0; page.ParentID != nil; depth++ {
		if depth >= maxPageDepth {
			return "", fmt.Errorf("page %d: %w", pageID, ErrPageParentInvalid)
		}
		page, err = s.Get(*page.ParentID)
		if err != nil {
			return "", err
		}
		segments = append(segments, page.URLSegment)
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return "/" + strings.Join(segments, "/") + "/", nil
}

// ActionLink returns the URL of an action on a page, e.g. "show/7". The root
// home page links to "/" on its own but keeps its segment once an action
// follows, so "/home/show/7" resolves back to it.
func (s *PageService) ActionLink(pageID uint, action string) (string, error) {
	base, err := s.BaseLink(pageID)
	if err != nil {
		return "", err
	}

	action = strings.Trim(action, "/")
	if action == "" {
		return base, nil
	}
	if base == "/" {
		base = "/" + homeSegment + "/"
	}
	return base + action, nil
}

func (s *PageService) child(parentID *uint, segment string) (*db.Page, error) {
	var page db.Page
	query := s.db.Where("url_segment = ?", segment)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	if err := query.Order("id asc").First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

func (s *PageService) validate(id uint, input PageInput) (string, error) {
	if strings.TrimSpace(input.Title) == "" {
		return "", ErrPageTitleMissing
	}

	pageType := normalizePageType(input.PageType)
	if pageType != db.PageTypeDefault && pageType != db.PageTypeRecipes {
		return "", ErrPageTypeInvalid
	}

	if input.ParentID == nil {
		return pageType, nil
	}

	// walk up from the new parent; reaching id would create a cycle
	parentID := *input.ParentID
	for depth := 0; ; depth++ {
		if depth >= maxPageDepth || (id != 0 && parentID == id) {
			return "", ErrPageParentInvalid
		}
		parent, err := s.Get(parentID)
		if err != nil {
			if errors.Is(err, ErrPageNotFound) {
				return "", ErrPageParentInvalid
			}
			return "", err
		}
		if parent.ParentID == nil {
			break
		}
		parentID = *parent.ParentID
	}

	return pageType, nil
}

// uniqueSegment normalises the requested segment (falling back to the title)
// and appends a numeric suffix while a live sibling already uses it.
func (s *PageService) uniqueSegment(id uint, parentID *uint, requested, title string) (string, error) {
	base := NormalizeSegment(requested)
	if base == "" {
		base = NormalizeSegment(title)
	}
	if base == "" {
		base = fallbackSegment
	}

	candidate := base
	for suffix := 2; ; suffix++ {
		existing, err := s.child(parentID, candidate)
		if errors.Is(err, ErrPageNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if existing.ID == id {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}

// NormalizeSegment lowercases value and collapses anything that is not a
// letter or digit into single dashes.
func NormalizeSegment(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	return strings.Trim(segmentCleaner.ReplaceAllString(lowered, "-"), "-")
}

func normalizePageType(pageType string) string {
	trimmed := strings.TrimSpace(pageType)
	if trimmed == "" {
		return db.PageTypeDefault
	}
	return trimmed
}
