// Package ximage decodes images with the standard library codecs plus the
// extra formats from golang.org/x/image.
package ximage

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"imagefetch/pkg/driver"
	"imagefetch/pkg/driver/imagedecode"
)

type Driver struct{}

func (d *Driver) Decode(ctx context.Context, r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

type Provider struct{}

func (p Provider) ID() string         { return "ximage" }
func (p Provider) Name() string       { return "Go image codecs (png, jpeg, gif, webp, bmp, tiff)" }
func (p Provider) DefaultWeight() int { return driver.DefaultWeight }
func (p Provider) CheckCompatibility(ctx context.Context) error {
	// Pure Go, always available
	return nil
}
func (p Provider) New(ctx context.Context) (imagedecode.Driver, error) {
	return &Driver{}, nil
}

func init() {
	driver.Register[imagedecode.Driver](Provider{})
}
