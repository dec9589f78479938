// Package language maps files onto editor languages and tree icons.
// Dispatch is a static lookup table keyed by normalized extension with an
// explicit default, plus a content-based fallback for unknown extensions.
package language

import (
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// Info describes how a file type is presented.
type Info struct {
	Language string
	Icon     string
}

// defaultInfo is the explicit fallback for unknown file types.
var defaultInfo = Info{Language: "plaintext", Icon: "📄"}

var byExtension = map[string]Info{
	".go":    {Language: "go", Icon: "🐹"},
	".py":    {Language: "python", Icon: "🐍"},
	".js":    {Language: "javascript", Icon: "📜"},
	".jsx":   {Language: "javascript", Icon: "📜"},
	".ts":    {Language: "typescript", Icon: "📜"},
	".tsx":   {Language: "typescript", Icon: "📜"},
	".rs":    {Language: "rust", Icon: "🦀"},
	".c":     {Language: "c", Icon: "⚙️"},
	".h":     {Language: "c", Icon: "⚙️"},
	".cpp":   {Language: "cpp", Icon: "⚙️"},
	".java":  {Language: "java", Icon: "☕"},
	".rb":    {Language: "ruby", Icon: "💎"},
	".sh":    {Language: "bash", Icon: "🖥️"},
	".sql":   {Language: "sql", Icon: "🗃️"},
	".json":  {Language: "json", Icon: "🧾"},
	".yaml":  {Language: "yaml", Icon: "🧾"},
	".yml":   {Language: "yaml", Icon: "🧾"},
	".toml":  {Language: "toml", Icon: "🧾"},
	".md":    {Language: "markdown", Icon: "📝"},
	".html":  {Language: "html", Icon: "🌐"},
	".htm":   {Language: "html", Icon: "🌐"},
	".css":   {Language: "css", Icon: "🎨"},
	".svg":   {Language: "svg", Icon: "🖼️"},
	".xml":   {Language: "xml", Icon: "🧾"},
	".txt":   {Language: "plaintext", Icon: "📄"},
	".proto": {Language: "protobuf", Icon: "🧾"},
}

// markupLanguages can be rendered in the preview sandbox instead of being
// dispatched to remote execution.
var markupLanguages = map[string]bool{
	"html":     true,
	"markdown": true,
	"svg":      true,
}

// Detect returns the editor language for a file. The extension table wins;
// unknown extensions fall back to chroma's lexer match on the file name and
// finally to content analysis.
func Detect(filePath, content string) string {
	if info, ok := byExtension[normalizeExt(filePath)]; ok {
		return info.Language
	}
	if lexer := lexers.Match(path.Base(filePath)); lexer != nil {
		return strings.ToLower(lexer.Config().Name)
	}
	if content != "" {
		if lexer := lexers.Analyse(content); lexer != nil {
			return strings.ToLower(lexer.Config().Name)
		}
	}
	return defaultInfo.Language
}

// Icon returns the tree icon for a file path.
func Icon(filePath string, isDirectory bool) string {
	if isDirectory {
		return "📁"
	}
	if info, ok := byExtension[normalizeExt(filePath)]; ok {
		return info.Icon
	}
	return defaultInfo.Icon
}

// IsMarkup reports whether a language renders in the preview sandbox.
func IsMarkup(lang string) bool {
	return markupLanguages[strings.ToLower(lang)]
}

func normalizeExt(filePath string) string {
	return strings.ToLower(path.Ext(filePath))
}
