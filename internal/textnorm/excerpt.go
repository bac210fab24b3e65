package textnorm

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// DefaultExcerptLength is the excerpt size used for imported posts.
const DefaultExcerptLength = 200

const ellipsis = "..."

var tags = regexp.MustCompile(`<[^>]+>`)

// StripTags removes markup tags and any stray angle brackets, then collapses
// whitespace to single spaces.
func StripTags(markup string) string {
	text := tags.ReplaceAllString(markup, "")
	text = strings.NewReplacer("<", "", ">", "").Replace(text)
	return strings.TrimSpace(spaceRuns.ReplaceAllString(text, " "))
}

// Excerpt is ExtractExcerpt with DefaultExcerptLength.
func Excerpt(markup string) string {
	return ExtractExcerpt(markup, DefaultExcerptLength)
}

// ExtractExcerpt returns at most maxLength runes of plain text from markup.
// Longer text is cut after the last period when that period sits in the
// final 30% of the window; otherwise it is cut at the last space and "..."
// is appended. Without any space the raw cut gets the ellipsis.
func ExtractExcerpt(markup string, maxLength int) string {
	text := StripTags(markup)
	runes := []rune(text)
	if maxLength <= 0 || len(runes) <= maxLength {
		return text
	}

	window := runes[:maxLength]
	threshold := int(math.Ceil(float64(maxLength) * 0.7))

	if period := lastIndex(window, func(r rune) bool { return r == '.' }); period >= threshold {
		return string(window[:period+1])
	}
	if space := lastIndex(window, unicode.IsSpace); space > 0 {
		return string(window[:space]) + ellipsis
	}
	return string(window) + ellipsis
}

func lastIndex(runes []rune, match func(rune) bool) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if match(runes[i]) {
			return i
		}
	}
	return -1
}
