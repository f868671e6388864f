package web

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	propsumweb "github.com/roasbeef/propsum/web"
)

// FrontendHandler returns an http.Handler serving the frontend from
// staticDir, or the embedded landing page when staticDir is empty. Paths
// that do not name a file fall back to index.html for SPA routing.
func FrontendHandler(staticDir string) (http.Handler, error) {
	var (
		distFS fs.FS
		err    error
	)
	if staticDir != "" {
		info, statErr := os.Stat(staticDir)
		switch {
		case statErr != nil:
			return nil, fmt.Errorf("static dir: %w", statErr)
		case !info.IsDir():
			return nil, fmt.Errorf("static dir %s is not a directory",
				staticDir)
		}
		distFS = os.DirFS(staticDir)
	} else {
		distFS, err = propsumweb.GetDistFS()
		if err != nil {
			return nil, err
		}
	}

	fileServer := http.FileServer(http.FS(distFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// API routes are handled elsewhere.
		if isAPIPath(path) {
			http.NotFound(w, r)
			return
		}

		if path != "/" {
			f, err := distFS.Open(strings.TrimPrefix(path, "/"))
			if err == nil {
				f.Close()
				if strings.HasPrefix(path, "/assets/") {
					w.Header().Set("Cache-Control",
						"public, max-age=31536000, immutable")
				}
				fileServer.ServeHTTP(w, r)
				return
			}
		}

		// SPA fallback.
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	}), nil
}
