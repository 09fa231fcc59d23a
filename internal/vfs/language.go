package vfs

import (
	"path/filepath"
	"strings"
)

// LanguageForFilename maps a file name to the language tag the editor
// surface expects, keyed on the extension.
func LanguageForFilename(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "ts", "tsx":
		return "typescript"
	case "js", "jsx":
		return "javascript"
	case "css":
		return "css"
	case "html":
		return "html"
	case "json":
		return "json"
	case "md":
		return "markdown"
	case "py":
		return "python"
	case "java":
		return "java"
	default:
		return "plaintext"
	}
}
