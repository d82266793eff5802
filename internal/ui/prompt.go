package ui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// Interactive reports whether stdin and stderr are both terminals, so a
// prompt can be answered.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd())
}

// confirmModel asks a yes/no question; the cursor starts on No.
type confirmModel struct {
	prompt   string
	yes      bool
	accepted bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.accepted = true
		return m, tea.Quit
	case "n", "N", "ctrl+c", "esc", "q":
		m.accepted = false
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.yes = !m.yes
	case "enter", " ":
		m.accepted = m.yes
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	yes, no := dimStyle.Render("  Yes "), errorStyle.Render("▸ No  ")
	if m.yes {
		yes, no = successStyle.Render("▸ Yes "), dimStyle.Render("  No  ")
	}
	return fmt.Sprintf("%s\n\n  %s  %s\n\n%s",
		promptStyle.Render(m.prompt),
		yes, no,
		dimStyle.Render("  ←/→ to select • enter to confirm • y/n for quick select"))
}

// Confirm asks prompt on stderr and returns the answer.
func Confirm(prompt string) (bool, error) {
	p := tea.NewProgram(confirmModel{prompt: prompt}, tea.WithOutput(os.Stderr))
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	fmt.Fprintln(os.Stderr)
	return result.(confirmModel).accepted, nil
}
