// Package site embeds the templates, message catalogs, content and public
// assets so the binary can serve the site without a checkout next to it.
package site

import (
	"embed"
	"io/fs"
	"os"
	"strings"
)

//go:embed all:templates all:locales all:content all:public
var files embed.FS

// Sub returns the embedded tree rooted at dir ("templates", "locales", "content" or "public").
func Sub(dir string) (fs.FS, error) {
	return fs.Sub(files, dir)
}

// Open returns dir from disk when override is set, otherwise the embedded tree.
func Open(dir, override string) (fs.FS, error) {
	if strings.TrimSpace(override) != "" {
		return os.DirFS(override), nil
	}
	return Sub(dir)
}
