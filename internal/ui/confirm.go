// Package ui holds the interactive terminal pieces: the deletion prompt and
// the shared lipgloss theme.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/devcache/internal/ui/styles"
	"github.com/fenilsonani/devcache/pkg/utils"
	"github.com/mattn/go-isatty"
)

type keyMap struct {
	Yes key.Binding
	No  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Yes: key.NewBinding(
			key.WithKeys("y", "Y", "enter"),
			key.WithHelp("y/enter", "delete"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc", "q", "ctrl+c"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// ConfirmModel asks a single yes/no question before deletion
type ConfirmModel struct {
	count     int
	size      int64
	keys      keyMap
	help      help.Model
	confirmed bool
	done      bool
}

// NewConfirmModel creates the prompt for count items totalling size bytes
func NewConfirmModel(count int, size int64) *ConfirmModel {
	return &ConfirmModel{
		count: count,
		size:  size,
		keys:  newKeyMap(),
		help:  help.New(),
	}
}

// Init initializes the model
func (m *ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses; any answer ends the program
func (m *ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.confirmed = true
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.No):
			m.confirmed = false
			m.done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the question, or the answer once given
func (m *ConfirmModel) View() string {
	var b strings.Builder

	question := fmt.Sprintf("About to delete %d items (%s)", m.count, utils.FormatBytes(m.size))
	b.WriteString(styles.DangerPanelStyle.Render(question))
	b.WriteString("\n")

	if m.done {
		if m.confirmed {
			b.WriteString(styles.DimStyle.Render("Deleting..."))
		} else {
			b.WriteString(styles.WarningStyle.Render("Cancelled"))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(styles.BoldStyle.Render("Proceed? "))
	b.WriteString(styles.HelpStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

// Confirmed reports whether the user accepted
func (m *ConfirmModel) Confirmed() bool {
	return m.confirmed
}

// Prompt runs ConfirmModel on the terminal. It declines without asking when
// the input is not a terminal.
type Prompt struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

// NewPrompt creates a prompt reading stdin and drawing on stderr
func NewPrompt() *Prompt {
	fd := os.Stdin.Fd()
	return NewPromptWithIO(os.Stdin, os.Stderr, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewPromptWithIO creates a prompt on the given streams
func NewPromptWithIO(in io.Reader, out io.Writer, interactive bool) *Prompt {
	return &Prompt{in: in, out: out, interactive: interactive}
}

// Confirm asks whether to delete count items totalling size bytes
func (p *Prompt) Confirm(count int, size int64) (bool, error) {
	if !p.interactive {
		fmt.Fprintln(p.out, styles.WarningStyle.Render("Input is not a terminal; pass --yes to delete without confirmation"))
		return false, nil
	}

	final, err := tea.NewProgram(
		NewConfirmModel(count, size),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	).Run()
	if err != nil {
		return false, fmt.Errorf("failed to run prompt: %w", err)
	}

	m, ok := final.(*ConfirmModel)
	return ok && m.Confirmed(), nil
}
