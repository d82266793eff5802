package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

var (
	mdMu       sync.Mutex
	mdRenderer *glamour.TermRenderer
	mdEnabled  bool
)

// initMarkdown builds the renderer for thought content. An Ascii profile
// (color off, or stderr is not a terminal) prints content as written.
func initMarkdown(profile termenv.Profile) {
	mdMu.Lock()
	defer mdMu.Unlock()
	mdRenderer, mdEnabled = nil, false
	if profile == termenv.Ascii {
		return
	}
	// Fixed dark style: auto-detection would query the terminal.
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithColorProfile(profile),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		Logger.Warn("markdown rendering disabled", "err", err)
		return
	}
	mdRenderer, mdEnabled = r, true
}

// RenderMarkdown renders md for the terminal, or returns it unchanged when
// rendering is off or fails.
func RenderMarkdown(md string) string {
	mdMu.Lock()
	defer mdMu.Unlock()
	if !mdEnabled {
		return md
	}
	out, err := mdRenderer.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
