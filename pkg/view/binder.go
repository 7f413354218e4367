// Package view binds fetch outcomes to a host's widgets.
//
// The host owns an ImageView and a ProgressDialog and hands them to a Binder
// through Refs. When the host goes away it releases the Refs; the Binder
// checks them before every action, so late callbacks are harmless.
package view

import (
	"context"
	"image"
	"log/slog"

	"imagefetch/pkg/fetch"
	"imagefetch/pkg/logging"
)

// DefaultTitle is shown on the progress dialog.
const DefaultTitle = "Downloading image"

// ImageView displays one image.
type ImageView interface {
	SetImage(img image.Image) error
	// Size is the display area; zero means unconstrained.
	Size() (width, height int)
}

// ProgressDialog shows a 0..100 progress indicator.
type ProgressDialog interface {
	Show(title string)
	SetProgress(percent int)
	Dismiss()
}

// FallbackFunc builds the image shown when no downloaded image is available.
type FallbackFunc func(width, height int) image.Image

// Binder implements task.Observer and task.Starter for a host.
// All methods must be called from the host's UI goroutine.
type Binder struct {
	View   *Ref[ImageView]
	Dialog *Ref[ProgressDialog]
	// Title defaults to DefaultTitle.
	Title string
	// Fallback defaults to Placeholder.
	Fallback FallbackFunc

	logger *slog.Logger
	shown  ProgressDialog
}

func NewBinder(ctx context.Context, v *Ref[ImageView], d *Ref[ProgressDialog]) *Binder {
	return &Binder{
		View:   v,
		Dialog: d,
		logger: logging.GetLogger(ctx),
	}
}

func (b *Binder) log() *slog.Logger {
	if b.logger == nil {
		return slog.Default()
	}
	return b.logger
}

func (b *Binder) OnStart() {
	d, ok := b.Dialog.Get()
	if !ok {
		return
	}
	title := b.Title
	if title == "" {
		title = DefaultTitle
	}
	d.SetProgress(0)
	d.Show(title)
	b.shown = d
}

func (b *Binder) OnProgress(percent int) {
	if b.shown == nil {
		return
	}
	if _, ok := b.Dialog.Get(); !ok {
		return
	}
	b.shown.SetProgress(percent)
}

func (b *Binder) OnComplete(out fetch.Outcome) {
	if b.shown != nil {
		// Dismiss even when the host released the dialog, it may still be on screen
		b.shown.Dismiss()
		b.shown = nil
	}

	v, ok := b.View.Get()
	if !ok {
		b.log().Debug("image view gone, outcome dropped", "status", out.Status)
		return
	}
	w, h := v.Size()

	switch out.Status {
	case fetch.StatusSucceeded:
		if err := v.SetImage(Fit(out.Image, w, h)); err != nil {
			b.log().Error("failed to display image", "err", err)
		}
		return
	case fetch.StatusCancelled:
		b.log().Info("image download cancelled", "bytes", out.Bytes)
	default:
		b.log().Error("failed to download image", "err", out.Err)
	}

	fallback := b.Fallback
	if fallback == nil {
		fallback = Placeholder
	}
	if err := v.SetImage(fallback(w, h)); err != nil {
		b.log().Error("failed to display fallback image", "err", err)
	}
}
