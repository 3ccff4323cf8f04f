package server

import (
	"embed"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed static/*
var staticFiles embed.FS

// assets serves the stylesheets and scripts embedded under static/.
type assets struct {
	files fs.FS
}

func newAssets() (*assets, error) {
	files, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	return &assets{files: files}, nil
}

func contentTypeFor(name string, data []byte) string {
	ctype := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(ctype, "charset=") {
		ctype += "; charset=utf-8"
	}
	return ctype
}

// ServeHTTP writes the asset named by the {file} path segment.
func (a *assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if !fs.ValidPath(name) || name == "." {
		http.NotFound(w, r)
		return
	}

	data, err := fs.ReadFile(a.files, name)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Static file not found")
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(name, data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Str("file", name).Msg("Failed to write static file")
	}
}
