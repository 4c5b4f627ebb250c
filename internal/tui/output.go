package tui

import (
	"io"
	"sync"
)

// Output is a writer whose destination can be swapped while other goroutines
// write to it. Logs are routed through one so that they can move above the
// progress display and back.
type Output struct {
	mu sync.Mutex
	w  io.Writer
}

func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Set redirects subsequent writes to w.
func (o *Output) Set(w io.Writer) {
	o.mu.Lock()
	o.w = w
	o.mu.Unlock()
}

func (o *Output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Write(p)
}
