// Package web embeds the chat page and its assets.
package web

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"path"
	"time"
)

//go:embed dist
var distFS embed.FS

// assetMaxAge is how long browsers may reuse app.js and style.css.
const assetMaxAge = "public, max-age=3600"

// ChatPage serves the chat page at "/" and the files it loads. There are no
// client-side routes, so any other path is 404.
func ChatPage() http.Handler {
	assets, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: embedded dist missing: " + err.Error())
	}
	page, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		panic("web: embedded index.html missing: " + err.Error())
	}
	built := time.Now()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := path.Clean(r.URL.Path)
		if name == "/" || name == "/index.html" {
			w.Header().Set("Cache-Control", "no-cache")
			http.ServeContent(w, r, "index.html", built, bytes.NewReader(page))
			return
		}

		name = name[1:]
		if info, err := fs.Stat(assets, name); err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", assetMaxAge)
		http.ServeFileFS(w, r, assets, name)
	})
}
