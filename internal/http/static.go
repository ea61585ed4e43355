package httpx

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const indexFile = "index.html"

// SPAHandler serves an exported frontend build. A request resolves to the
// file itself, then "<path>.html", then "<path>/index.html"; anything else
// falls back to the root index.html so client-side routing takes over.
func SPAHandler(root fs.FS) http.Handler {
	files := http.FileServerFS(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

		resolved, ok := resolveAsset(root, name)
		if !ok {
			http.ServeFileFS(w, r, root, indexFile)
			return
		}
		if resolved == name && name != "" {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFileFS(w, r, root, resolved)
	})
}

func resolveAsset(root fs.FS, name string) (string, bool) {
	if name == "" {
		return indexFile, isFile(root, indexFile)
	}
	for _, candidate := range []string{name, name + ".html", path.Join(name, indexFile)} {
		if isFile(root, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isFile(root fs.FS, name string) bool {
	info, err := fs.Stat(root, name)
	return err == nil && !info.IsDir()
}
