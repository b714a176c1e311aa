package openlibrary

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// MaxDescriptionLength is the longest description kept, in characters.
const MaxDescriptionLength = 600

var (
	htmlTagPattern    = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
	blankLinePattern  = regexp.MustCompile(`\n{3,}`)
)

// CleanDescription turns a raw work description into tidy text: HTML is
// converted to markdown and the result is cut to MaxDescriptionLength at a
// word boundary.
func CleanDescription(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if htmlTagPattern.MatchString(strings.ToLower(s)) {
		if md, err := htmltomarkdown.ConvertString(s); err == nil {
			s = md
		} else {
			s = stripHTML(s)
		}
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = blankLinePattern.ReplaceAllString(s, "\n\n")
	return truncate(strings.TrimSpace(s), MaxDescriptionLength)
}

// truncate cuts s to at most n runes, backing off to the last space, and
// appends an ellipsis when anything was removed.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndexAny(cut, " \n"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " \n.,;:") + "…"
}

// stripHTML removes markup and returns plain text.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				buf.WriteString("\n")
			}
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String())
}
