package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/preview"
)

const maxLogLines = 200

type keyMap struct {
	Next     key.Binding
	Previous key.Binding
	Go       key.Binding
	Back     key.Binding
	Describe key.Binding
	Unnamed  key.Binding
	Hush     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Go, k.Back, k.Describe, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Previous, k.Next, k.Go, k.Back},
		{k.Describe, k.Unnamed, k.Hush, k.Quit},
	}
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next road")),
	Previous: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous road")),
	Go:       key.NewBinding(key.WithKeys("up", "k", "enter"), key.WithHelp("↑/enter", "walk")),
	Back:     key.NewBinding(key.WithKeys("down", "j", "backspace"), key.WithHelp("↓/backspace", "back")),
	Describe: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "describe")),
	Unnamed:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unnamed roads")),
	Hush:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "hush")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	calloutStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

type snapshotMsg snapshot

type calloutMsg string

// controls is how the program talks to the navigator.
type controls struct {
	process       func(events.Event)
	hush          func()
	toggleUnnamed func()
	refresh       func()
}

type model struct {
	controls controls
	updates  <-chan tea.Msg

	snapshot snapshot
	log      []string
	viewport viewport.Model
	help     help.Model
	width    int
	ready    bool
}

func newModel(c controls, updates <-chan tea.Msg) model {
	return model{
		controls: c,
		updates:  updates,
		viewport: viewport.New(80, 10),
		help:     help.New(),
		width:    80,
	}
}

// waitForUpdate delivers the next snapshot or callout to Update.
func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

func (m model) Init() tea.Cmd {
	m.controls.refresh()
	return waitForUpdate(m.updates)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height-len(m.snapshot.Edges)-10, 3)
		m.viewport.SetContent(m.renderLog())
		return m, nil

	case snapshotMsg:
		m.snapshot = snapshot(msg)
		m.ready = true
		return m, waitForUpdate(m.updates)

	case calloutMsg:
		m.log = append(m.log, string(msg))
		if len(m.log) > maxLogLines {
			m.log = m.log[len(m.log)-maxLogLines:]
		}
		m.viewport.SetContent(m.renderLog())
		m.viewport.GotoBottom()
		return m, waitForUpdate(m.updates)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			m.controls.process(preview.NewFocusNext())
		case key.Matches(msg, keys.Previous):
			m.controls.process(preview.NewFocusPrevious())
		case key.Matches(msg, keys.Go):
			m.controls.process(preview.NewGo())
		case key.Matches(msg, keys.Back):
			m.controls.process(preview.NewBack())
		case key.Matches(msg, keys.Describe):
			m.controls.process(preview.NewDescribe())
		case key.Matches(msg, keys.Unnamed):
			m.controls.toggleUnnamed()
		case key.Matches(msg, keys.Hush):
			m.controls.hush()
			return m, nil
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.controls.refresh()
		return m, nil
	}

	return m, nil
}

func (m model) renderLog() string {
	width := max(m.viewport.Width, 10)
	lines := make([]string, 0, len(m.log))
	for _, line := range m.log {
		lines = append(lines, calloutStyle.Render(wordwrap.String(line, width)))
	}
	return strings.Join(lines, "\n")
}

func (m model) View() string {
	if !m.ready {
		return dimStyle.Render("Finding the nearest intersection...")
	}

	var b strings.Builder
	if !m.snapshot.Active {
		b.WriteString(titleStyle.Render("Street preview is not active"))
		b.WriteString("\n\n")
	} else {
		b.WriteString(titleStyle.Render(m.snapshot.Node))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %.5f, %.5f", m.snapshot.Location.Latitude, m.snapshot.Location.Longitude)))
		b.WriteString("\n\n")

		rowWidth := uint(max(m.width-8, 20))
		for i, edge := range m.snapshot.Edges {
			row := fmt.Sprintf("%-5s %s, %.0f m", edge.Direction, edge.Name, edge.Length)
			if len(edge.Markers) > 0 {
				row += " past " + strings.Join(edge.Markers, ", ")
			}
			row = truncate.StringWithTail(row, rowWidth, "…")
			if i == m.snapshot.Focus {
				b.WriteString(focusStyle.Render("> " + row))
			} else {
				b.WriteString("  " + row)
			}
			b.WriteString("\n")
		}

		var flags []string
		if m.snapshot.CanBack {
			flags = append(flags, "back available")
		}
		if m.snapshot.Unnamed {
			flags = append(flags, "unnamed roads shown")
		}
		if len(flags) > 0 {
			b.WriteString(dimStyle.Render(strings.Join(flags, " · ")))
			b.WriteString("\n")
		}
	}

	b.WriteString(panelStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}
