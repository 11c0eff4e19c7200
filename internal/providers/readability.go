// internal/providers/readability.go
package providers

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ExtractMainText runs a readability pass over rendered HTML and returns the
// main body text, or "" when nothing useful could be isolated.
func ExtractMainText(html, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(article.TextContent)
}
