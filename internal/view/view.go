package view

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*/*.html
var templateFS embed.FS

// FuncMap 模板中可用的辅助函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(pairs ...interface{}) (map[string]interface{}, error) {
			if len(pairs)%2 != 0 {
				return nil, errors.New("dict expects key/value pairs")
			}
			values := make(map[string]interface{}, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
				}
				values[key] = pairs[i+1]
			}
			return values, nil
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(time.Local).Format("2006-01-02 15:04")
		},
	}
}

// Load parses the embedded public and admin templates. Templates are
// addressed by file name, e.g. "recipe_show.html".
func Load() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*/*.html")
}
