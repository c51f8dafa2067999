package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// Comment reduces user-supplied comment content to plain text: HTML markup
// is parsed and dropped (script and style subtrees entirely), whitespace is
// collapsed, and invalid UTF-8 removed. Plain text passes through unchanged
// apart from whitespace normalization.
func Comment(content string) string {
	if !strings.ContainsAny(content, "<>") {
		return normalize(content)
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return normalize(content)
	}
	return normalize(extractText(doc))
}

func extractText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return buf.String()
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	return strings.Join(strings.Fields(text), " ")
}
