// Package progress renders engine progress callbacks on the console: a
// single progressbar for one-shot CLI commands and an mpb multi-bar view
// for watching the task queue.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Console returns the reporter for a one-shot command: a live bar when
// stderr is a terminal, otherwise a silent one.
func Console() Reporter {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return NewCLIProgress()
	}
	return NewNoOpProgress()
}

// Reporter is the interface one-shot commands report through.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
	SetDescription(desc string)
}

// CLIProgress renders a single progress bar on stderr.
type CLIProgress struct {
	bar *progressbar.ProgressBar
}

func NewCLIProgress() *CLIProgress {
	return &CLIProgress{}
}

// Start initializes the progress bar with total size and description.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to the current position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error prints an error below the bar.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}
}

// SetDescription updates the bar label.
func (p *CLIProgress) SetDescription(desc string) {
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// NoOpProgress discards all reports (for quiet or scripted runs).
type NoOpProgress struct{}

func NewNoOpProgress() *NoOpProgress { return &NoOpProgress{} }

func (p *NoOpProgress) Start(total int64, description string) {}
func (p *NoOpProgress) Update(current int64)                  {}
func (p *NoOpProgress) Finish()                               {}
func (p *NoOpProgress) Error(err error)                       {}
func (p *NoOpProgress) SetDescription(desc string)            {}

// Percent adapts a Reporter into the engines' percent callback. The
// reporter is started on a 0-100 scale; each callback moves the bar and
// relabels it with the item in flight.
func Percent(r Reporter, label string) func(percent int, currentItem string) {
	r.Start(100, label)
	return func(percent int, currentItem string) {
		if currentItem != "" {
			r.SetDescription(fmt.Sprintf("%s: %s", label, currentItem))
		}
		r.Update(int64(percent))
	}
}
