package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Logger is the package-level structured logger. It always writes to stderr:
// stdout carries the MCP stdio stream.
var Logger *log.Logger

// stderr receives banners and status lines.
var stderr io.Writer = os.Stderr

// Styles are initialized in Init().
var (
	headerStyle  lipgloss.Style
	thoughtStyle lipgloss.Style
	successStyle lipgloss.Style
	warningStyle lipgloss.Style
	errorStyle   lipgloss.Style
	dimStyle     lipgloss.Style
	boldStyle    lipgloss.Style
	accentStyle  lipgloss.Style
	promptStyle  lipgloss.Style
)

func init() {
	Init(true)
}

// Init sets up color detection, lipgloss styles, and the structured logger.
// Call this once at CLI startup.
func Init(noColorFlag bool) {
	noColor := noColorFlag || os.Getenv("NO_COLOR") != ""

	// Pre-set dark background to prevent termenv OSC query on the MCP terminal
	lipgloss.SetHasDarkBackground(true)

	profile := termenv.Ascii
	if !noColor {
		profile = termenv.NewOutput(os.Stderr).EnvColorProfile()
	}
	lipgloss.SetColorProfile(profile)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	thoughtStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		PaddingLeft(1).
		PaddingRight(1)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle = lipgloss.NewStyle().Faint(true)
	boldStyle = lipgloss.NewStyle().Bold(true)
	accentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))

	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "thinker",
	})
	if noColor {
		Logger.SetStyles(log.DefaultStyles())
	}
	initMarkdown(profile)
}

// SetLevel changes the logger level ("debug", "info", "warn", "error").
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

func Bold(s string) string { return boldStyle.Render(s) }
func Dim(s string) string  { return dimStyle.Render(s) }

// ThoughtHeader describes a thought for its box: plain, revision or branch.
func ThoughtHeader(seq, total int, branchID string, revises, branchFrom *int) string {
	switch {
	case revises != nil:
		return fmt.Sprintf("🔄 Revision %d/%d (revising thought %d)", seq, total, *revises)
	case branchID != "" && branchFrom != nil:
		return fmt.Sprintf("🌿 Branch %d/%d (from thought %d, ID: %s)", seq, total, *branchFrom, branchID)
	case branchID != "":
		return fmt.Sprintf("🌿 Branch %d/%d (ID: %s)", seq, total, branchID)
	default:
		return fmt.Sprintf("💭 Thought %d/%d", seq, total)
	}
}

// RenderThought draws a bordered box with header above content.
func RenderThought(header, content string) string {
	return thoughtStyle.Render(accentStyle.Render(header) + "\n" + content)
}

// PrintThought writes a thought box to stderr, rendering content as markdown
// on color terminals.
func PrintThought(header, content string) {
	fmt.Fprintln(stderr, RenderThought(header, RenderMarkdown(content)))
}

// CommandBanner renders a small branded banner for a command.
func CommandBanner(command string, subtitle string) {
	brand := headerStyle.Render("T · H · I · N · K · E · R")
	content := fmt.Sprintf("%s\n%s", brand, accentStyle.Render(fmt.Sprintf("─── %s ───", strings.ToUpper(command))))
	if subtitle != "" {
		content += "\n" + dimStyle.Render(subtitle)
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		PaddingLeft(1).
		PaddingRight(1).
		Render(content)

	fmt.Fprintf(stderr, "\n%s\n\n", box)
}

// Warning prints a styled warning message.
func Warning(msg string) {
	fmt.Fprintf(stderr, "%s %s\n", warningStyle.Render("⚠"), msg)
}

// Error prints a styled error message.
func Error(msg string) {
	fmt.Fprintf(stderr, "%s %s\n", errorStyle.Render("✗"), msg)
}

// Info prints a styled informational message.
func Info(msg string) {
	fmt.Fprintf(stderr, "%s %s\n", accentStyle.Render("▸"), msg)
}

// Success prints a green check with a message.
func Success(msg string) {
	fmt.Fprintf(stderr, "%s %s\n", successStyle.Render("✓"), msg)
}

// Detail prints an indented key-value detail line.
func Detail(key, value string) {
	label := dimStyle.Render(fmt.Sprintf("  %s", key))
	fmt.Fprintf(stderr, "%s %s\n", label, value)
}

// SectionHeader prints a styled section divider with a label.
func SectionHeader(label string) {
	line := headerStyle.Render(fmt.Sprintf("── %s ──", label))
	fmt.Fprintf(stderr, "\n%s\n\n", line)
}

// EmptyState prints a styled message for empty results.
func EmptyState(msg string) {
	fmt.Fprintf(stderr, "  %s\n", dimStyle.Render(msg))
}

// Table prints a formatted table with headers and rows to w.
func Table(w io.Writer, headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	styled := make([]string, len(headers))
	for i, h := range headers {
		// lipgloss expands tabs, so style each cell on its own
		styled[i] = boldStyle.Render(h)
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}
