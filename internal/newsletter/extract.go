package newsletter

import (
	"strings"

	"golang.org/x/net/html"
)

// FirstParagraph extracts the plain text of the first non-empty <p> element
// from rich HTML post content. If the content has no paragraph element, the
// text content of the whole fragment is returned instead, so plain text
// passes through unchanged. Pure function.
func FirstParagraph(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))

	var full strings.Builder
	var para strings.Builder
	depth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			// End of input (or malformed trailing markup).
			return strings.TrimSpace(full.String())

		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "p" {
				depth++
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "p" && depth > 0 {
				depth--
				if depth == 0 {
					if text := strings.TrimSpace(para.String()); text != "" {
						return text
					}
					para.Reset()
				}
			}

		case html.TextToken:
			text := string(z.Text())
			full.WriteString(text)
			if depth > 0 {
				para.WriteString(text)
			}
		}
	}
}
