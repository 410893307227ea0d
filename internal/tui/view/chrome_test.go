package view

import (
	"regexp"
	"strings"
	"testing"

	tuitheme "github.com/glabrego/busybird-cli/internal/tui/theme"
)

var ansiStrip = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiStrip.ReplaceAllString(s, "")
}

func TestToolbar(t *testing.T) {
	for _, want := range []string{"j/k move", "+/- threshold", "r unacked", "q quit"} {
		if got := Toolbar(); !strings.Contains(got, want) {
			t.Fatalf("expected %q in toolbar, got %q", want, got)
		}
	}
}

func TestHeader(t *testing.T) {
	got := stripANSI(Header("home", -1, tuitheme.Default()))
	for _, want := range []string{"BusyBird", "home", "threshold Lv.-1"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in header, got %q", want, got)
		}
	}
}

func TestFooter(t *testing.T) {
	got := stripANSI(Footer(10, 7, 4, 30, tuitheme.Default()))
	for _, want := range []string{"10 statuses", "shown 7", "hidden 3", "line 5/30"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in footer, got %q", want, got)
		}
	}
	if got := stripANSI(Footer(0, 0, 0, 0, tuitheme.Default())); !strings.Contains(got, "line 0/0") {
		t.Fatalf("unexpected empty footer: %q", got)
	}
}

func TestMessage(t *testing.T) {
	th := tuitheme.Default()
	if got := stripANSI(Message(false, "", "", "", th)); !strings.Contains(got, "state: idle | Ready") {
		t.Fatalf("unexpected idle message: %q", got)
	}
	if got := stripANSI(Message(true, "*", "", "", th)); !strings.HasPrefix(got, "* state: loading") {
		t.Fatalf("unexpected loading message: %q", got)
	}
	if got := stripANSI(Message(false, "", "", "boom", th)); !strings.Contains(got, "state: warning | boom") {
		t.Fatalf("unexpected warning message: %q", got)
	}
	if got := stripANSI(Message(false, "", "Loaded 3 statuses", "", th)); !strings.Contains(got, "Loaded 3 statuses") {
		t.Fatalf("unexpected status message: %q", got)
	}
}

func TestHelpLinesCoverKeys(t *testing.T) {
	joined := strings.Join(HelpLines(), "\n")
	for _, want := range []string{"ctrl+d", "threshold", "permalink"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in help, got %q", want, joined)
		}
	}
}
