package busybird

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const statusClass = "bb-status"

// ParseStatusesHTML extracts statuses from a statuses.html fragment. Each
// status is an <li class="bb-status"> carrying its level in
// data-bb-status-level and its id in a .bb-status-id element.
func ParseStatusesHTML(r io.Reader) ([]Status, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "ul", DataAtom: atom.Ul}
	nodes, err := html.ParseFragment(r, parent)
	if err != nil {
		return nil, fmt.Errorf("parse statuses html: %w", err)
	}

	var statuses []Status
	for _, n := range nodes {
		collectStatuses(n, &statuses)
	}
	for i, s := range statuses {
		if s.ID == "" {
			return nil, fmt.Errorf("parse statuses html: status %d has no id", i)
		}
	}
	return statuses, nil
}

func collectStatuses(n *html.Node, out *[]Status) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Li && hasClass(n, statusClass) {
		*out = append(*out, statusFromNode(n))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectStatuses(c, out)
	}
}

func statusFromNode(n *html.Node) Status {
	s := Status{}
	if level, err := strconv.Atoi(strings.TrimSpace(attr(n, "data-bb-status-level"))); err == nil {
		s.BusyBird.Level = level
	}
	if node := findClass(n, "bb-status-id"); node != nil {
		s.ID = strings.TrimSpace(textContent(node))
	}
	if node := findClass(n, "bb-status-text"); node != nil {
		s.Text = strings.TrimSpace(textContent(node))
	}
	if node := findClass(n, "bb-status-username"); node != nil {
		s.User.ScreenName = strings.TrimSpace(textContent(node))
	}
	if node := findClass(n, "bb-status-created-at"); node != nil {
		s.CreatedAt = strings.TrimSpace(textContent(node))
	}
	if node := findClass(n, "bb-status-permalink"); node != nil {
		s.BusyBird.StatusPermalink = attr(node, "href")
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err == nil {
		s.HTML = buf.String()
	}
	return s
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if found := findClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
