package get

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"imagefetch/pkg/config"
	envdriver "imagefetch/pkg/driver/env"
	"imagefetch/pkg/fetch"
	"imagefetch/pkg/logging"
	"imagefetch/pkg/mainthread"
	"imagefetch/pkg/task"
	"imagefetch/pkg/view"
	"imagefetch/pkg/view/terminal"

	"github.com/spf13/cobra"
)

var ErrCancelled = errors.New("download cancelled")

type Options struct {
	URL    string
	Output string
	// Width and Height bound the saved image; zero keeps the original size.
	Width, Height int
	// Fallback is saved instead when the download fails; empty uses the placeholder.
	Fallback string

	// Progress receives the progress bar, Out the result summary.
	Progress io.Writer
	Out      io.Writer
	// Interrupt requests a cooperative cancel when it is closed.
	Interrupt <-chan struct{}
}

func GetCommand() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Download an image and save it as PNG",
		Long: `Download an image and save it as PNG.

Progress is shown while the body is read. Ctrl-C cancels the download
between two reads. When the download fails or is cancelled the fallback
image is saved instead and the command exits with an error.

Examples:
  imagefetch get https://example.com/cat.jpg
  imagefetch get https://example.com/cat.jpg -o cat.png --width 320
  imagefetch get https://example.com/missing.png --fallback ~/Pictures/offline.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			cfg := config.FromContext(ctx)

			opts.URL = args[0]
			if !c.Flags().Changed("width") {
				opts.Width = cfg.View.Width
			}
			if !c.Flags().Changed("height") {
				opts.Height = cfg.View.Height
			}
			if opts.Fallback == "" {
				opts.Fallback = cfg.View.Fallback
			}
			if opts.Output == "" {
				out, err := DefaultOutput(ctx, opts.URL)
				if err != nil {
					return err
				}
				opts.Output = out
			}
			opts.Progress = c.ErrOrStderr()
			opts.Out = c.OutOrStdout()

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			opts.Interrupt = sigCtx.Done()

			return Run(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "PNG file to write (default: pictures dir)")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Maximum width of the saved image")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "Maximum height of the saved image")
	cmd.Flags().StringVar(&opts.Fallback, "fallback", "", "Image saved when the download fails")
	return cmd
}

// Run downloads opts.URL on a background task while the calling goroutine
// plays the UI thread, and returns once the outcome has been displayed.
func Run(ctx context.Context, opts Options) error {
	logger := logging.GetLogger(ctx)

	fetcher, err := fetch.New(ctx)
	if err != nil {
		return err
	}

	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}
	fileView := &terminal.FileView{
		Path:   opts.Output,
		Width:  opts.Width,
		Height: opts.Height,
		Out:    opts.Out,
	}
	binder := view.NewBinder(ctx,
		view.NewRef[view.ImageView](fileView),
		view.NewRef[view.ProgressDialog](terminal.NewDialog(progress)),
	)
	binder.Fallback = func(w, h int) image.Image {
		return view.LoadFallback(ctx, opts.Fallback, w, h)
	}

	ui := mainthread.New()
	obs := &observer{Binder: binder, ui: ui}
	t := task.New(fetcher, ui, obs)
	if err := t.Execute(ctx, opts.URL); err != nil {
		return err
	}

	go func() {
		select {
		case <-opts.Interrupt:
			if t.Cancel() {
				logger.Info("interrupted, cancelling download")
			}
		case <-t.Done():
		}
	}()

	if err := ui.Run(ctx); err != nil {
		t.Cancel()
		return err
	}

	switch out := obs.outcome; out.Status {
	case fetch.StatusSucceeded:
		return nil
	case fetch.StatusCancelled:
		return ErrCancelled
	default:
		return fmt.Errorf("download failed: %w", out.Err)
	}
}

// observer stops the looper once the outcome was handed to the binder.
type observer struct {
	*view.Binder
	ui      *mainthread.Looper
	outcome fetch.Outcome
}

func (o *observer) OnComplete(out fetch.Outcome) {
	o.Binder.OnComplete(out)
	o.outcome = out
	o.ui.Quit()
}

// DefaultOutput names the PNG after the last URL path segment and places it in
// view.output_dir, or the env driver's pictures directory.
func DefaultOutput(ctx context.Context, rawURL string) (string, error) {
	dir := config.FromContext(ctx).View.OutputDir
	if dir != "" {
		dir = envdriver.ExpandPath(dir)
	} else {
		var err error
		if dir, err = envdriver.GetPicturesDir(ctx); err != nil {
			return "", fmt.Errorf("failed to locate pictures directory: %w", err)
		}
	}
	return filepath.Join(dir, fileName(rawURL)), nil
}

func fileName(rawURL string) string {
	name := "image"
	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		base = strings.TrimSuffix(base, path.Ext(base))
		if base != "" && base != "." && base != "/" {
			name = base
		}
	}
	return name + ".png"
}
