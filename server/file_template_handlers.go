package server

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).ParseFS(TemplateFilesFS(), "layout.html", name)
}

func parseTemplates(names ...string) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, err
		}
		templates[name] = tmpl
	}
	return templates, nil
}
