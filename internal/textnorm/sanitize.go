package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Attribute and URL patterns exclude '<' and '>' so a removal can never
// split a tag.
var (
	styleAttr    = regexp.MustCompile(`(?i)style="[^"<>]*"|style='[^'<>]*'`)
	classAttr    = regexp.MustCompile(`(?i)class="[^"<>]*"|class='[^'<>]*'`)
	dataAttr     = regexp.MustCompile(`(?i)data-[\w-]*="[^"<>]*"|data-[\w-]*='[^'<>]*'`)
	blockTag     = regexp.MustCompile(`(?i)<(div|span|p)(?:\s[^<>]*)?>`)
	bloggerImage = regexp.MustCompile(`https://blogger\.googleusercontent\.com/img/[^"'\s<>]*`)
	emptyTag     = regexp.MustCompile(`<(\w+)[^<>]*>[` + whitespace + `]*</(\w+)>`)
	breakOnlyTag = regexp.MustCompile(`<(\w+)[^<>]*>[` + whitespace + `]*<br[` + whitespace + `]*/?[` + whitespace + `]*>[` + whitespace + `]*</(\w+)>`)
	spaceRuns    = regexp.MustCompile(`[` + whitespace + `]+`)
	interTag     = regexp.MustCompile(`>[` + whitespace + `]+<`)
)

// SanitizeMarkup simplifies exported blog markup: it decodes entities,
// drops style, class and data-* attributes, reduces div/span/p tags to their
// bare form, removes hosted-image URLs and tags holding only whitespace or a
// single <br>, and collapses whitespace. The result is trimmed.
func SanitizeMarkup(markup string) string {
	if markup == "" {
		return ""
	}

	content := html.UnescapeString(markup)

	content = styleAttr.ReplaceAllString(content, "")
	content = classAttr.ReplaceAllString(content, "")
	content = dataAttr.ReplaceAllString(content, "")
	content = blockTag.ReplaceAllStringFunc(content, func(tag string) string {
		return "<" + strings.ToLower(blockTag.FindStringSubmatch(tag)[1]) + ">"
	})

	content = bloggerImage.ReplaceAllString(content, "")

	content = removePairs(emptyTag, content)
	content = removePairs(breakOnlyTag, content)

	content = spaceRuns.ReplaceAllString(content, " ")
	content = interTag.ReplaceAllString(content, "><")

	return strings.TrimSpace(content)
}

// removePairs deletes matches whose opening and closing tag names agree.
// RE2 has no backreferences, so a mismatched match is retried one byte
// further on, which finds pairs nested inside a malformed opening tag.
func removePairs(re *regexp.Regexp, content string) string {
	var b strings.Builder
	for {
		loc := re.FindStringSubmatchIndex(content)
		if loc == nil {
			b.WriteString(content)
			return b.String()
		}
		open := content[loc[2]:loc[3]]
		closing := content[loc[4]:loc[5]]
		if strings.EqualFold(open, closing) {
			b.WriteString(content[:loc[0]])
		} else {
			b.WriteString(content[:loc[0]+1])
			loc[1] = loc[0] + 1
		}
		content = content[loc[1]:]
	}
}
