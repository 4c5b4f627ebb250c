package tui

import (
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Progress draws a live progress line for a load until Stop is called.
type Progress struct {
	program *tea.Program
	done    chan struct{}
}

// StartProgress starts drawing on out. Input is not read and signals are left
// to the caller, so Ctrl+C keeps its usual meaning.
func StartProgress(out io.Writer, source Source, layer string) *Progress {
	p := &Progress{done: make(chan struct{})}
	p.program = tea.NewProgram(newProgressModel(source, layer),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
	return p
}

// Writer returns a writer whose lines are printed above the progress line.
// Each Write must carry whole lines, as zerolog writes do.
func (p *Progress) Writer() io.Writer {
	return printer{program: p.program}
}

// Stop replaces the progress line with a final status line and waits for the
// display to exit.
func (p *Progress) Stop(line string, ok bool) {
	p.program.Send(doneMsg{line: line, ok: ok})
	<-p.done
}

type printer struct {
	program *tea.Program
}

func (w printer) Write(b []byte) (int, error) {
	w.program.Println(strings.TrimRight(string(b), "\n"))
	return len(b), nil
}
