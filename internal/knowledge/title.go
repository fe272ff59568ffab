package knowledge

import (
	"net/url"
	"regexp"
	"strings"
)

var headingPattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// ExtractTitle derives a display title from a Markdown document: the first
// top-level heading, else the URL host, else the raw URL string.
func ExtractTitle(markdown, rawURL string) string {
	if m := headingPattern.FindStringSubmatch(markdown); m != nil {
		return strings.TrimSpace(m[1])
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
