package screen

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

var fontExts = []string{".ttf", ".ttc", ".otf"}

// findFont resolves the font_file setting. It may name a font or a directory
// of fonts. When it is empty or unusable the ./fonts directory is searched,
// then the system candidates in order.
func findFont(fontFile string, system []string) string {
	if fontFile != "" {
		if p := fontIn(fontFile); p != "" {
			return p
		}
	}
	if p := fontIn("fonts"); p != "" {
		return p
	}
	for _, p := range system {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// fontIn returns path when it is a font file, or the first font by name in
// path when it is a directory.
func fontIn(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return ""
	}
	if !fi.IsDir() {
		if isFont(path) {
			return path
		}
		return ""
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && isFont(e.Name()) {
			return filepath.Join(path, e.Name())
		}
	}
	return ""
}

func isFont(name string) bool {
	return slices.Contains(fontExts, strings.ToLower(filepath.Ext(name)))
}

func systemFonts() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{`C:\Windows\Fonts\arial.ttf`}
	case "darwin":
		return []string{"/System/Library/Fonts/Helvetica.ttc"}
	}
	return []string{
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}
}
