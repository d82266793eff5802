package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// captureStderr redirects banner and status output to a buffer.
func captureStderr(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stderr
	stderr = &buf
	t.Cleanup(func() { stderr = prev })
	return &buf
}

func TestBold_ContainsText(t *testing.T) {
	Init(false)
	result := Bold("hello")
	if !strings.Contains(result, "hello") {
		t.Errorf("Bold output should contain 'hello', got %q", result)
	}
}

func TestColorDisabled_PlainText(t *testing.T) {
	Init(true) // no color
	defer Init(false)

	if Bold("hello") != "hello" {
		t.Errorf("expected plain text when color disabled, got %q", Bold("hello"))
	}
	if Dim("dim") != "dim" {
		t.Errorf("expected plain text, got %q", Dim("dim"))
	}
}

func TestLoggerInitialized(t *testing.T) {
	Init(false)
	if Logger == nil {
		t.Error("Logger should be initialized after Init()")
	}
}

func TestSetLevel(t *testing.T) {
	Init(true)
	if err := SetLevel("debug"); err != nil {
		t.Errorf("SetLevel(debug) failed: %v", err)
	}
	if err := SetLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestThoughtHeader(t *testing.T) {
	one, two := 1, 2
	tests := []struct {
		name       string
		branch     string
		revises    *int
		branchFrom *int
		want       string
	}{
		{"plain", "", nil, nil, "💭 Thought 3/5"},
		{"revision", "", &one, nil, "🔄 Revision 3/5 (revising thought 1)"},
		{"new branch", "alt", nil, &two, "🌿 Branch 3/5 (from thought 2, ID: alt)"},
		{"branch continuation", "alt", nil, nil, "🌿 Branch 3/5 (ID: alt)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ThoughtHeader(3, 5, tt.branch, tt.revises, tt.branchFrom); got != tt.want {
				t.Errorf("ThoughtHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderThought_Bordered(t *testing.T) {
	Init(true)
	defer Init(false)

	box := RenderThought("💭 Thought 1/2", "first line\nsecond line")
	lines := strings.Split(box, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected border, header, two content lines and border; got %d lines:\n%s", len(lines), box)
	}
	if !strings.HasPrefix(lines[0], "╭") || !strings.HasPrefix(lines[4], "╰") {
		t.Errorf("expected rounded border, got:\n%s", box)
	}
	if !strings.Contains(lines[1], "Thought 1/2") || !strings.Contains(lines[3], "second line") {
		t.Errorf("unexpected box contents:\n%s", box)
	}
}

func TestTable(t *testing.T) {
	Init(true)
	defer Init(false)

	var buf bytes.Buffer
	Table(&buf, []string{"ID", "KIND"}, [][]string{{"abc", "five_why"}, {"defgh", "scamper"}})
	out := buf.String()
	if !strings.Contains(out, "ID     KIND") {
		t.Errorf("expected aligned header, got:\n%s", out)
	}
	if !strings.Contains(out, "defgh  scamper") {
		t.Errorf("expected aligned row, got:\n%s", out)
	}
}

func TestRenderMarkdown_PlainWithoutColor(t *testing.T) {
	Init(true)
	defer Init(false)

	md := "**bold** and `code`"
	if got := RenderMarkdown(md); got != md {
		t.Errorf("expected markdown unchanged without color, got %q", got)
	}
}

func TestRenderMarkdown_Color(t *testing.T) {
	initMarkdown(termenv.ANSI256)
	defer Init(false)

	raw := RenderMarkdown("# Plan\n\nfirst step")
	if raw == ansi.Strip(raw) {
		t.Errorf("expected escape sequences in colored output, got %q", raw)
	}
	got := ansi.Strip(raw)
	if !strings.Contains(got, "Plan") || !strings.Contains(got, "first step") {
		t.Errorf("rendered markdown lost its text: %q", got)
	}
	if strings.Contains(got, "# Plan") {
		t.Errorf("expected heading markup to be rendered, got %q", got)
	}
}

func TestRenderMarkdown_PlainWhenNotATerminal(t *testing.T) {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		t.Skip("stderr is a terminal")
	}
	t.Setenv("CLICOLOR_FORCE", "0")
	Init(false)

	if got := RenderMarkdown("plain thought"); got != "plain thought" {
		t.Errorf("expected no escape sequences on a non-terminal stderr, got %q", got)
	}

	initMarkdown(termenv.Ascii)
	if got := RenderMarkdown("**bold**"); got != "**bold**" {
		t.Errorf("expected Ascii profile to skip rendering, got %q", got)
	}
}

func TestCommandBanner(t *testing.T) {
	Init(true)
	defer Init(false)
	buf := captureStderr(t)

	CommandBanner("tools", "26 MCP tools")
	out := buf.String()
	for _, want := range []string{"T · H · I · N · K · E · R", "─── TOOLS ───", "26 MCP tools", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q:\n%s", want, out)
		}
	}
}

func TestSectionHeaderAndEmptyState(t *testing.T) {
	Init(true)
	defer Init(false)
	buf := captureStderr(t)

	SectionHeader("Read-only")
	EmptyState("No tools")
	if got, want := buf.String(), "\n── Read-only ──\n\n  No tools\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{"enter defaults to no", []tea.KeyMsg{{Type: tea.KeyEnter}}, false},
		{"quick yes", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune("y")}}, true},
		{"toggle then enter", []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyEnter}}, true},
		{"escape", []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyEsc}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = confirmModel{prompt: "Overwrite?"}
			for _, k := range tt.keys {
				m, _ = m.Update(k)
			}
			if got := m.(confirmModel).accepted; got != tt.want {
				t.Errorf("accepted = %v, want %v", got, tt.want)
			}
		})
	}
}
