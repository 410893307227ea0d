package status

import (
	"html"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/glabrego/busybird-cli/internal/busybird"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)
var reHTTPURL = regexp.MustCompile(`https?://[^\s)]+`)

type Options struct {
	StyleLinks bool
}

var DefaultOptions = Options{StyleLinks: true}

// BodyLines renders the status body wrapped to width.
func BodyLines(s busybird.Status, width int) []string {
	return BodyLinesWithOptions(s, width, DefaultOptions)
}

func BodyLinesWithOptions(s busybird.Status, width int, opts Options) []string {
	text := BodyText(s)
	if text == "" {
		return nil
	}
	lines := Wrap(text, width)
	if opts.StyleLinks {
		lines = styleLinks(lines)
	}
	return lines
}

// BodyText is the plain text of a status. HTML statuses render their
// .bb-status-text element; JSON statuses get their t.co style links expanded.
func BodyText(s busybird.Status) string {
	if strings.TrimSpace(s.HTML) != "" {
		if text := textFromFragment(s.HTML); text != "" {
			return text
		}
	}
	return ExpandURLs(strings.TrimSpace(html.UnescapeString(s.Text)), s.Entities)
}

// ExpandURLs replaces shortened urls with their expanded form.
func ExpandURLs(text string, entities busybird.Entities) string {
	pairs := make([]string, 0, len(entities.URLs)*2)
	for _, u := range entities.URLs {
		if u.URL == "" || u.ExpandedURL == "" {
			continue
		}
		pairs = append(pairs, u.URL, u.ExpandedURL)
	}
	if len(pairs) == 0 {
		return text
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func textFromFragment(raw string) string {
	parent := &nethtml.Node{Type: nethtml.ElementNode, Data: "ul", DataAtom: atom.Ul}
	nodes, err := nethtml.ParseFragment(strings.NewReader(raw), parent)
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if body := findClass(n, "bb-status-text"); body != nil {
			return normalizeInlineText(renderInlineChildren(body))
		}
	}
	return ""
}

func findClass(node *nethtml.Node, class string) *nethtml.Node {
	if node.Type == nethtml.ElementNode {
		for _, c := range strings.Fields(nodeAttr(node, "class")) {
			if c == class {
				return node
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findClass(child, class); found != nil {
			return found
		}
	}
	return nil
}

func nodeAttr(node *nethtml.Node, name string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

// Wrap breaks text into lines no wider than width display cells.
func Wrap(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	paragraphs := strings.Split(text, "\n")
	out := make([]string, 0, len(paragraphs))

	for _, p := range paragraphs {
		words := strings.Fields(p)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		lineWidth := 0
		for _, word := range words {
			for runewidth.StringWidth(word) > width {
				if line != "" {
					out = append(out, line)
					line, lineWidth = "", 0
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					head = string([]rune(word)[:1])
				}
				out = append(out, head)
				word = word[len(head):]
			}
			w := runewidth.StringWidth(word)
			if line == "" {
				line, lineWidth = word, w
				continue
			}
			if lineWidth+1+w <= width {
				line += " " + word
				lineWidth += 1 + w
				continue
			}
			out = append(out, line)
			line, lineWidth = word, w
		}
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}

// VisibleWidth is the display width of s ignoring ANSI styling.
func VisibleWidth(s string) int {
	return runewidth.StringWidth(stripANSI(s))
}

func stripANSI(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}
