package help

import (
	"bytes"
	"strings"
	"testing"
)

// =============================================================================
// Command registry
// =============================================================================

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"/links", "/links", true},
		{"links", "/links", true},
		{"/h", "/help", true},
		{"exit", "/quit", true},
		{"/nope", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := Lookup(tt.name)
			if ok != tt.ok {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.name, ok, tt.ok)
			}
			if cmd.Name != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.name, cmd.Name, tt.want)
			}
		})
	}
}

func TestNamesSortedWithAliases(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Names() not sorted: %v", names)
		}
	}
	for _, want := range []string{"actors", "exit", "h", "q", "quit", "threshold", "use"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Names() missing %q", want)
		}
	}
}

func TestEveryCommandHasACategory(t *testing.T) {
	seen := 0
	for _, cat := range CategoryOrder {
		seen += len(ByCategory(cat))
		if cat.DisplayName() == string(cat) {
			t.Errorf("category %q has no display name", cat)
		}
	}
	if seen != len(Commands) {
		t.Errorf("%d commands in ordered categories, %d defined", seen, len(Commands))
	}
}

// =============================================================================
// Rendering
// =============================================================================

func TestRenderFullPlain(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf, false).RenderFull()
	out := buf.String()

	if strings.Contains(out, "\033[") {
		t.Error("plain output should contain no escape codes")
	}
	for _, want := range []string{"Episodes", "Linkograph", "/threshold [x]", "/links <i>", "e.g. /links 0", "Shortcuts"} {
		if !strings.Contains(out, want) {
			t.Errorf("full help missing %q", want)
		}
	}
	// /links has two examples, both shown inline.
	if strings.Count(out, "e.g. /links") != 2 {
		t.Errorf("expected two inline /links examples")
	}
}

func TestRenderFullColorAlignsColumns(t *testing.T) {
	var plain, color bytes.Buffer
	NewRenderer(&plain, false).RenderFull()
	NewRenderer(&color, true).RenderFull()

	if !strings.Contains(color.String(), ColorCyan+"/episodes"+ColorReset) {
		t.Error("colored output should style command names")
	}

	plainLines := strings.Split(plain.String(), "\n")
	colorLines := strings.Split(color.String(), "\n")
	if len(plainLines) != len(colorLines) {
		t.Fatalf("line count differs: %d vs %d", len(plainLines), len(colorLines))
	}
	for i := range plainLines {
		if visibleLength(colorLines[i]) != visibleLength(plainLines[i]) {
			t.Errorf("line %d width differs with color: %q", i, colorLines[i])
		}
	}
}

func TestRenderCommand(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	if !r.RenderCommand("quit") {
		t.Fatal("RenderCommand(quit) should succeed")
	}
	out := buf.String()
	if !strings.Contains(out, "/quit (or /q, /exit)") {
		t.Errorf("aliases missing: %q", out)
	}
	if !strings.Contains(out, "Usage: /quit") {
		t.Errorf("usage missing: %q", out)
	}

	buf.Reset()
	r.RenderCommand("/threshold")
	if !strings.Contains(buf.String(), "/threshold 0.5 -> Only count scores") {
		t.Errorf("examples missing: %q", buf.String())
	}

	buf.Reset()
	if r.RenderCommand("/nope") {
		t.Error("RenderCommand should report unknown commands")
	}
	if buf.Len() != 0 {
		t.Errorf("unknown command should write nothing, got %q", buf.String())
	}
}

func TestVisibleLength(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{ColorCyan + "abc" + ColorReset, 3},
		{"│ x", 3},
	}
	for _, tt := range tests {
		if got := visibleLength(tt.in); got != tt.want {
			t.Errorf("visibleLength(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := padRight(ColorBold+"ab"+ColorReset, 4); visibleLength(got) != 4 {
		t.Errorf("padRight visible width = %d, want 4", visibleLength(got))
	}
}
