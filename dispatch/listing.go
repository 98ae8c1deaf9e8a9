package dispatch

import (
	"fmt"
	"path"
	"strings"

	"github.com/Paranoid-AF/webterm"
)

const (
	glyphDirectory = "📂"
	glyphDefault   = "📎"
)

var glyphs = map[string]string{
	"txt":  "📄",
	"md":   "📝",
	"json": "📋",
	"js":   "📜",
	"ts":   "📜",
	"css":  "🎨",
	"scss": "🎨",
	"html": "🌐",
	"vue":  "🌐",
	"jpg":  "🖼️",
	"jpeg": "🖼️",
	"png":  "🖼️",
	"gif":  "🖼️",
	"mp3":  "🎵",
	"wav":  "🎵",
	"mp4":  "🎬",
	"avi":  "🎬",
	"zip":  "📦",
	"rar":  "📦",
	"7z":   "📦",
	"pdf":  "📑",
}

// Glyph returns the listing glyph for an entry name.
func Glyph(name string, isDirectory bool) string {
	if isDirectory {
		return glyphDirectory
	}
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return glyphDefault
	}
	if g, ok := glyphs[strings.ToLower(name[i+1:])]; ok {
		return g
	}
	return glyphDefault
}

// FormatListing renders ls entries one per line. Permissions and timestamps
// are shown exactly as the service sent them.
func FormatListing(entries []webterm.Entry) string {
	if len(entries) == 0 {
		return "(empty)"
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		name := path.Base(strings.TrimSuffix(e.Name, "/"))
		if name == "." || name == "/" {
			name = e.Name
		}
		size := "0"
		if e.IsDirectory {
			size = "<DIR>"
		}
		lines[i] = fmt.Sprintf("%s %s %s %8s %s", Glyph(name, e.IsDirectory), e.Permissions, e.UpdatedAt, size, name)
	}
	return strings.Join(lines, "\n")
}
