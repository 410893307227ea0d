package status

import (
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
)

func renderInlineChildren(node *nethtml.Node) string {
	parts := make([]string, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		parts = append(parts, renderInlineNode(child))
	}
	return strings.Join(parts, "")
}

func renderInlineNode(node *nethtml.Node) string {
	switch node.Type {
	case nethtml.TextNode:
		return node.Data
	case nethtml.ElementNode:
		switch strings.ToLower(node.Data) {
		case "script", "style", "img":
			return ""
		case "br":
			return "\n"
		case "p", "div":
			return "\n" + renderInlineChildren(node) + "\n"
		case "a":
			text := normalizeInlineText(renderInlineChildren(node))
			href := nodeAttr(node, "href")
			switch {
			case href == "":
				return text
			case text == "":
				return href
			case strings.EqualFold(text, href), strings.HasPrefix(href, "#"):
				return text
			case reHTTPURL.MatchString(text):
				return href
			default:
				return text + " (" + href + ")"
			}
		default:
			return renderInlineChildren(node)
		}
	default:
		return ""
	}
}

func normalizeInlineText(s string) string {
	s = html.UnescapeString(s)
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Join(strings.Fields(part), " ")
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return strings.Join(out, "\n")
}
