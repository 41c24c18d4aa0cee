package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"movrr/waitlist/pkg/export"
)

// ProgressReporter reports progress of a long-running operation.
type ProgressReporter interface {
	Start(total int)
	Update(done int, label string)
	Finish()
	Error(err error)
}

// SimpleProgress draws a single-line text progress bar.
type SimpleProgress struct {
	mu      sync.Mutex
	total   int
	done    int
	label   string
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a progress reporter writing to w, or
// os.Stderr when w is nil.
func NewProgressReporter(w io.Writer) *SimpleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w}
}

// Start resets the reporter for total items.
func (p *SimpleProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.label = ""
	p.started = time.Now()
	p.render()
}

// Update sets the number of finished items and the current label.
func (p *SimpleProgress) Update(done int, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.label = label
	p.render()
}

// Finish ends the progress line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.render()
	fmt.Fprintf(p.writer, " in %s\n", time.Since(p.started).Round(time.Millisecond))
}

// Error prints err on its own line; the bar continues on the next update.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ %v\n", err)
}

func (p *SimpleProgress) render() {
	if p.total == 0 {
		return
	}

	const barWidth = 30
	filled := barWidth * p.done / p.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(p.writer, "\r[%s] %d/%d %s", bar, p.done, p.total, p.label)
}

// BatchObserver feeds batch progress events into p. Every dataset that
// reaches a terminal state advances the bar; failures are reported with
// their message.
func BatchObserver(p ProgressReporter) export.Observer {
	done := 0
	return func(ev export.ProgressEvent) {
		switch ev.Progress.Status {
		case export.StatusProcessing:
			p.Update(done, ev.Progress.Dataset)
		case export.StatusCompleted:
			done++
			p.Update(done, ev.Progress.Dataset)
		case export.StatusError:
			done++
			p.Error(fmt.Errorf("%s: %s", ev.Progress.Dataset, ev.Progress.Error))
			p.Update(done, ev.Progress.Dataset)
		}
	}
}
