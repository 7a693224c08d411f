package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/provtools/asmmeta/metadata"
	"github.com/provtools/asmmeta/pecoff"
	"github.com/provtools/asmmeta/provenance"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectModel struct {
	filename string
	viewport viewport.Model
	report   string
	err      error
	ready    bool
}

type inspectedMsg struct {
	report string
	err    error
}

func newInspectModel(filename string) *inspectModel {
	return &inspectModel{filename: filename}
}

func (m *inspectModel) Init() tea.Cmd {
	return m.inspect
}

// inspect loads the assembly and renders the full metadata report. It runs
// as a command so the UI stays responsive on large images.
func (m *inspectModel) inspect() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return inspectedMsg{err: err}
	}
	return inspectedMsg{report: buildReport(m.filename, data)}
}

func buildReport(filename string, data []byte) string {
	var b strings.Builder

	img, err := pecoff.Locate(data)
	if err != nil {
		return errStyle.Render(err.Error())
	}

	machine := pecoff.MachineName(img.Machine)
	if machine == "" {
		machine = fmt.Sprintf("0x%04x", img.Machine)
	}
	format := "PE32"
	if img.PE32Plus {
		format = "PE32+"
	}

	b.WriteString(sectionStyle.Render("Container"))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  file:     %s\n", filename)
	fmt.Fprintf(&b, "  machine:  %s\n", machine)
	fmt.Fprintf(&b, "  format:   %s\n", format)
	fmt.Fprintf(&b, "  runtime:  %s\n\n", img.MetadataVersion)

	b.WriteString(sectionStyle.Render("Streams"))
	b.WriteByte('\n')
	for _, s := range img.Streams {
		fmt.Fprintf(&b, "  %-10s offset=0x%06x size=%d\n", s.Name, s.Offset, s.Size)
	}
	b.WriteByte('\n')

	if tables, ok := img.Stream("#~"); ok {
		ts, err := metadata.ParseTableStream(tables)
		if err != nil {
			b.WriteString(errStyle.Render(err.Error()))
			b.WriteByte('\n')
		} else {
			b.WriteString(sectionStyle.Render("Tables"))
			b.WriteByte('\n')
			for t, count := range ts.RowCounts {
				if count > 0 {
					fmt.Fprintf(&b, "  0x%02x  %d rows\n", t, count)
				}
			}
			b.WriteByte('\n')
		}
	}

	b.WriteString(sectionStyle.Render("Provenance"))
	b.WriteByte('\n')
	result, err := provenance.Extract(data)
	if result != nil && result.RepositoryURL != "" {
		fmt.Fprintf(&b, "  repository: %s\n", okStyle.Render(result.RepositoryURL))
	}
	if result != nil && result.CommitSHA != "" {
		fmt.Fprintf(&b, "  commit:     %s\n", okStyle.Render(result.CommitSHA))
	}
	if err != nil {
		fmt.Fprintf(&b, "  %s\n", errStyle.Render(err.Error()))
	}

	return b.String()
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.SetContent(m.report)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}

	case inspectedMsg:
		m.err = msg.err
		m.report = msg.report
		if m.ready {
			m.viewport.SetContent(m.report)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *inspectModel) View() string {
	if m.err != nil {
		return errStyle.Render("Error: "+m.err.Error()) + "\n" + helpStyle.Render("q to quit")
	}
	if !m.ready {
		return "Loading..."
	}
	return titleStyle.Render("asmmeta inspector") + "\n" +
		m.viewport.View() + "\n" +
		helpStyle.Render("↑/↓ scroll • q quit")
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInspectModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
