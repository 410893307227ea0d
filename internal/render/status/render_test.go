package status

import (
	"strings"
	"testing"

	"github.com/glabrego/busybird-cli/internal/busybird"
)

func TestBodyText_FromHTMLFragment(t *testing.T) {
	s := busybird.Status{
		Text: "fallback",
		HTML: `<li class="bb-status"><div class="bb-status-text">Hello &amp; <a href="https://example.com/long">https://t.co/x</a><br>second line</div></li>`,
	}
	got := BodyText(s)
	want := "Hello & https://example.com/long\nsecond line"
	if got != want {
		t.Fatalf("unexpected body text:\n got: %q\nwant: %q", got, want)
	}
}

func TestBodyText_ExpandsJSONEntities(t *testing.T) {
	s := busybird.Status{
		Text: "read this https://t.co/abc now",
		Entities: busybird.Entities{URLs: []busybird.URLEntity{
			{URL: "https://t.co/abc", ExpandedURL: "https://example.com/article"},
		}},
	}
	if got := BodyText(s); got != "read this https://example.com/article now" {
		t.Fatalf("unexpected body text: %q", got)
	}
}

func TestBodyText_FallsBackWithoutTextElement(t *testing.T) {
	s := busybird.Status{Text: "plain &lt;ok&gt;", HTML: `<li class="bb-status"></li>`}
	if got := BodyText(s); got != "plain <ok>" {
		t.Fatalf("unexpected body text: %q", got)
	}
}

func TestWrap_FitsWidth(t *testing.T) {
	lines := Wrap("the quick brown fox jumps over the lazy dog", 10)
	for _, line := range lines {
		if VisibleWidth(line) > 10 {
			t.Fatalf("line %q exceeds width", line)
		}
	}
	if strings.Join(lines, " ") != "the quick brown fox jumps over the lazy dog" {
		t.Fatalf("wrap lost words: %v", lines)
	}
}

func TestWrap_WideRunes(t *testing.T) {
	lines := Wrap("日本語のテキスト", 6)
	for _, line := range lines {
		if VisibleWidth(line) > 6 {
			t.Fatalf("line %q exceeds width", line)
		}
	}
	if strings.Join(lines, "") != "日本語のテキスト" {
		t.Fatalf("wrap lost runes: %v", lines)
	}
}

func TestWrap_KeepsBlankLines(t *testing.T) {
	lines := Wrap("a\n\nb", 10)
	if len(lines) != 3 || lines[1] != "" {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestBodyLinesWithOptions_StylesLinksOnly(t *testing.T) {
	s := busybird.Status{Text: "see https://example.com"}
	plain := BodyLinesWithOptions(s, 80, Options{})
	if len(plain) != 1 || plain[0] != "see https://example.com" {
		t.Fatalf("unexpected plain lines: %q", plain)
	}
	styled := BodyLinesWithOptions(s, 80, Options{StyleLinks: true})
	if stripANSI(styled[0]) != plain[0] {
		t.Fatalf("styling changed text: %q", styled[0])
	}
}
