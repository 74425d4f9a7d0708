// Package assets embeds the default cursor models.
package assets

import (
	"embed"
	"io/fs"
)

// Model paths, relative to FS.
const (
	CursorOpened = "models/opened.obj"
	CursorClosed = "models/closed.obj"
)

//go:embed models/*.obj
var files embed.FS

// FS returns the embedded asset tree.
func FS() fs.FS {
	return files
}
