package terminal

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// FileView is a view.ImageView that saves the bound image as a PNG file.
type FileView struct {
	Path          string
	Width, Height int
	// Out receives a one line summary per saved image; nil discards it.
	Out io.Writer
}

func (v *FileView) Size() (int, int) {
	return v.Width, v.Height
}

func (v *FileView) SetImage(img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(v.Path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(v.Path)
	if err != nil {
		return err
	}
	cw := &countingWriter{w: f}
	if err := png.Encode(cw, img); err != nil {
		f.Close()
		return fmt.Errorf("encode PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if v.Out != nil {
		b := img.Bounds()
		fmt.Fprintf(v.Out, "%dx%d image saved to %s (%s)\n", b.Dx(), b.Dy(), v.Path, humanize.Bytes(uint64(cw.n)))
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
