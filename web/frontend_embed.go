// Package web provides the embedded fallback frontend filesystem.
package web

import (
	"embed"
	"io/fs"
)

// StaticFS embeds the minimal landing page served when no frontend build
// directory is configured.
//
//go:embed static
var StaticFS embed.FS

// GetDistFS returns the static subdirectory as a filesystem for serving.
func GetDistFS() (fs.FS, error) {
	return fs.Sub(StaticFS, "static")
}
