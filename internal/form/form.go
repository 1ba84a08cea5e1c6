// Package form describes the admin editing surface of each content type.
// Descriptors only reference field names; they never touch the persistence
// structs, so the domain model stays free of UI metadata.
package form

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/recipebook/internal/db"
)

// Editor identifies the admin widget used for a field.
type Editor string

const (
	EditorText     Editor = "text"
	EditorUpload   Editor = "upload"
	EditorRichText Editor = "richtext"
	EditorGrid     Editor = "grid"
)

const RecipeImageFolder = "RecipeImages"

var ErrExtensionNotAllowed = errors.New("file extension is not allowed")

// Field is a single entry of an admin form.
type Field struct {
	Name              string
	Label             string
	Editor            Editor
	AllowedExtensions []string
	Folder            string
}

// Form is an ordered list of fields.
type Form struct {
	Fields []Field
}

// Field looks a field up by name.
func (f Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// ValidateUpload checks filename against the whitelist of the named upload
// field.
func (f Form) ValidateUpload(name, filename string) error {
	field, ok := f.Field(name)
	if !ok || field.Editor != EditorUpload {
		return fmt.Errorf("form: %q is not an upload field", name)
	}
	return field.ValidateUpload(filename)
}

// ValidateUpload reports ErrExtensionNotAllowed when filename does not end in
// one of the field's allowed extensions. Fields without a whitelist accept
// any file.
func (f Field) ValidateUpload(filename string) error {
	if len(f.AllowedExtensions) == 0 {
		return nil
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(filename))), ".")
	if ext == "" || !slices.Contains(f.AllowedExtensions, ext) {
		return fmt.Errorf("%w: %q (allowed: %s)", ErrExtensionNotAllowed, filename, strings.Join(f.AllowedExtensions, ", "))
	}
	return nil
}

// Accept renders the whitelist for an <input type="file" accept="..."> attribute.
func (f Field) Accept() string {
	exts := make([]string, 0, len(f.AllowedExtensions))
	for _, ext := range f.AllowedExtensions {
		exts = append(exts, "."+ext)
	}
	return strings.Join(exts, ",")
}

// RecipeForm returns the fields editable on a recipe.
func RecipeForm() Form {
	return Form{Fields: []Field{
		{Name: "Title", Label: "Title", Editor: EditorText},
		{
			Name:              "Image",
			Label:             "Image",
			Editor:            EditorUpload,
			AllowedExtensions: []string{"jpg", "jpeg", "png"},
			Folder:            RecipeImageFolder,
		},
		{Name: "Content", Label: "Content", Editor: EditorRichText},
	}}
}

// PageForm returns the fields editable on a page of the given type. Recipes
// pages append a grid for their recipes after the base page fields.
func PageForm(pageType string) Form {
	fields := []Field{
		{Name: "Title", Label: "Page name", Editor: EditorText},
		{Name: "URLSegment", Label: "URL segment", Editor: EditorText},
		{Name: "Content", Label: "Content", Editor: EditorRichText},
	}
	if pageType == db.PageTypeRecipes {
		fields = append(fields, Field{Name: "Recipes", Label: "Recipes", Editor: EditorGrid})
	}
	return Form{Fields: fields}
}
