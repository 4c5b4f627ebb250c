package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	refreshInterval = 100 * time.Millisecond
	defaultBarWidth = 40
	maxBarWidth     = 60
	// room for the spinner, the layer name and the counters
	barPadding = 50
)

// Source reports the progress of a running load.
type Source interface {
	Discovered() int64
	DiscoveryFinished() bool
	Resolved() int64
	Written() int64
	Skipped() int64
	Failed() int64
}

type tickMsg time.Time

type doneMsg struct {
	line string
	ok   bool
}

type progressModel struct {
	source  Source
	layer   string
	spinner spinner.Model
	bar     progress.Model
	done    bool
	final   doneMsg
}

func newProgressModel(source Source, layer string) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return progressModel{
		source:  source,
		layer:   layer,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultBarWidth)),
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

// Update implements tea.Model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tick()
	case doneMsg:
		m.done = true
		m.final = msg
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-barPadding, 10), maxBarWidth)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m progressModel) View() string {
	if m.done {
		if m.final.ok {
			return SuccessStyle.Render(SymbolCheck+" "+m.final.line) + "\n"
		}
		return ErrorStyle.Render(SymbolCross+" "+m.final.line) + "\n"
	}

	discovered := m.source.Discovered()
	resolved := m.source.Resolved()
	total := fmt.Sprintf("%d", discovered)
	if !m.source.DiscoveryFinished() {
		total += "+"
	}

	counts := fmt.Sprintf("%d/%s granules", resolved, total)
	detail := fmt.Sprintf("written %d  skipped %d", m.source.Written(), m.source.Skipped())
	if failed := m.source.Failed(); failed > 0 {
		detail += "  " + WarningStyle.Render(fmt.Sprintf("failed %d", failed))
	}

	return m.spinner.View() + " " + TitleStyle.Render(m.layer) + " " +
		m.bar.ViewAs(completion(resolved, discovered, m.source.DiscoveryFinished())) + " " +
		CountStyle.Render(counts) + "  " + MutedStyle.Render(detail) + "\n"
}

// completion is the resolved fraction, held below 1 until discovery is over
// because more granules may still arrive.
func completion(resolved, discovered int64, finished bool) float64 {
	if discovered == 0 {
		return 0
	}
	f := float64(resolved) / float64(discovered)
	if !finished {
		f = min(f, 0.99)
	}
	return min(f, 1)
}
