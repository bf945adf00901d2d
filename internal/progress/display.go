package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

const spinnerInterval = 100 * time.Millisecond

// Display renders one step at a time: a spinner while it runs, then a
// checkmark or failure line. Without a TTY it prints plain lines instead
// of a spinner. A nil *Display is a no-op.
type Display struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	now     func() time.Time

	mu      sync.Mutex
	spinner *spinner.Spinner
	started time.Time
}

// NewDisplay creates a Display writing to out.
func NewDisplay(out io.Writer, caps TerminalCapabilities) *Display {
	return &Display{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
		now:     time.Now,
	}
}

// Start begins a step.
func (d *Display) Start(message string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.started = d.now()

	if !d.caps.IsTTY {
		fmt.Fprintf(d.out, "%s...\n", message)
		return
	}
	s := spinner.New(spinner.CharSets[d.symbols.SpinnerSet], spinnerInterval, spinner.WithWriter(d.out))
	s.Suffix = " " + message
	if d.caps.SupportsColor {
		_ = s.Color("cyan")
	}
	d.spinner = s
	s.Start()
}

// Complete ends the current step successfully.
func (d *Display) Complete(message string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	mark := d.symbols.Checkmark
	if d.caps.SupportsColor {
		mark = color.New(color.FgGreen, color.Bold).Sprint(mark)
	}
	fmt.Fprintf(d.out, "%s %s (%s)\n", mark, message, d.elapsedLocked())
}

// Fail ends the current step with err.
func (d *Display) Fail(message string, err error) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	mark := d.symbols.Failure
	if d.caps.SupportsColor {
		mark = color.New(color.FgRed, color.Bold).Sprint(mark)
	}
	fmt.Fprintf(d.out, "%s %s: %v\n", mark, message, err)
}

// StopSpinner stops the spinner without printing a status line, e.g.
// before prompting the user.
func (d *Display) StopSpinner() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// RefreshStarted reports the start of a template download.
func (d *Display) RefreshStarted(branch string) {
	d.Start(fmt.Sprintf("Downloading templates for branch %s", branch))
}

// RefreshFinished reports the end of a template download.
func (d *Display) RefreshFinished(branch string, err error) {
	if err != nil {
		d.Fail(fmt.Sprintf("Downloading templates for branch %s", branch), err)
		return
	}
	d.Complete(fmt.Sprintf("Templates for branch %s downloaded", branch))
}

func (d *Display) stopLocked() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}

func (d *Display) elapsedLocked() time.Duration {
	if d.started.IsZero() {
		return 0
	}
	return d.now().Sub(d.started).Round(100 * time.Millisecond)
}
