// Package terminal renders the image view and progress dialog on a terminal.
package terminal

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Dialog is a view.ProgressDialog drawn as a progress bar.
type Dialog struct {
	out      io.Writer
	throttle time.Duration
	bar      *progressbar.ProgressBar
	pending  int
}

func NewDialog(out io.Writer) *Dialog {
	return &Dialog{out: out, throttle: 80 * time.Millisecond}
}

func (d *Dialog) Show(title string) {
	if d.bar != nil {
		return
	}
	d.bar = progressbar.NewOptions(
		100,
		progressbar.OptionSetWriter(d.out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(title),
		progressbar.OptionThrottle(d.throttle),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(d.out)
		}),
	)
	if d.pending > 0 {
		_ = d.bar.Set(d.pending)
	}
}

func (d *Dialog) SetProgress(percent int) {
	if d.bar == nil {
		d.pending = percent
		return
	}
	_ = d.bar.Set(percent)
}

// Dismiss removes the bar. An unfinished bar is left where it stopped.
func (d *Dialog) Dismiss() {
	if d.bar == nil {
		return
	}
	if !d.bar.IsFinished() {
		_ = d.bar.Exit()
		fmt.Fprintln(d.out)
	}
	d.bar = nil
}
