package imagedecode

import (
	"context"
	"image"
	"io"

	"imagefetch/pkg/driver"
)

// Driver turns encoded image bytes into an image.Image.
type Driver interface {
	// Decode reads one encoded image from r and returns it with its format name.
	Decode(ctx context.Context, r io.Reader) (image.Image, string, error)
}

func Decode(ctx context.Context, r io.Reader) (image.Image, string, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return nil, "", err
	}
	return d.Decode(ctx, r)
}
