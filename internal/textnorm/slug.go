package textnorm

import (
	"regexp"
	"strings"
)

// whitespace matches the full Unicode whitespace set, not just ASCII.
const whitespace = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`

var (
	nonSlugChars = regexp.MustCompile(`[^\p{L}\p{N}_` + whitespace + `-]`)
	slugBreaks   = regexp.MustCompile(`[` + whitespace + `-]+`)
)

// Slugify lower-cases text, drops everything except word characters,
// whitespace and hyphens, joins the remaining words with single hyphens and
// trims hyphens from both ends. Empty input yields an empty slug.
func Slugify(text string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(text), "")
	slug = slugBreaks.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
