package csi

import "strings"

var htmlReplacer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces the five HTML special characters with their named entities.
// Unlike html.EscapeString it emits &apos; rather than &#39;.
func Escape(s string) string {
	return htmlReplacer.Replace(s)
}
