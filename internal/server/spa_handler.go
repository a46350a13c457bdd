package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// passthroughPrefixes are never answered with the client bundle.
var passthroughPrefixes = []string{"/api/", "/files/"}

// SPAMiddleware wraps an http.Handler to serve a Single Page Application
// from staticPath. API, upload, health and metrics requests go to next;
// everything else is a static file or, failing that, index.html so the
// client router can handle it. Without an index.html in staticPath all
// requests go to next.
func SPAMiddleware(next http.Handler, staticPath string) http.Handler {
	indexPath := filepath.Join(staticPath, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		return next
	}
	files := http.FileServer(http.Dir(staticPath))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if passthrough(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if r.URL.Path == "/" {
			http.ServeFile(w, r, indexPath)
			return
		}

		// Check if static file exists
		name := filepath.Join(staticPath, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err != nil || info.IsDir() {
			http.ServeFile(w, r, indexPath)
			return
		}

		files.ServeHTTP(w, r)
	})
}

func passthrough(p string) bool {
	if p == "/healthz" || p == "/metrics" {
		return true
	}
	for _, prefix := range passthroughPrefixes {
		if strings.HasPrefix(p, prefix) || p == strings.TrimSuffix(prefix, "/") {
			return true
		}
	}
	return false
}
