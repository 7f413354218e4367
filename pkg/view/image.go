package view

import (
	"context"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/draw"

	"imagefetch/pkg/driver/imagedecode"
	"imagefetch/pkg/logging"
)

// Fit scales img down to fit within width x height, preserving the aspect
// ratio. It never upscales; a zero or negative bound leaves that axis free.
func Fit(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	newW, newH := w, h
	if width > 0 && newW > width {
		newH = newH * width / newW
		newW = width
	}
	if height > 0 && newH > height {
		newW = newW * height / newH
		newH = height
	}
	newW, newH = max(newW, 1), max(newH, 1)
	if newW == w && newH == h {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

const defaultPlaceholderSize = 128

var (
	placeholderBackground = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	placeholderForeground = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
)

// Placeholder draws the default image: a light grey tile with a darker frame
// and a simple mountain silhouette. Zero sizes use a 128px square.
func Placeholder(width, height int) image.Image {
	if width <= 0 {
		width = defaultPlaceholderSize
	}
	if height <= 0 {
		height = defaultPlaceholderSize
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)

	border := max(min(width, height)/32, 1)
	fg := image.NewUniform(placeholderForeground)
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, width, border),
		image.Rect(0, height-border, width, height),
		image.Rect(0, 0, border, height),
		image.Rect(width-border, 0, width, height),
	} {
		draw.Draw(img, r, fg, image.Point{}, draw.Src)
	}

	// Triangle with its apex in the middle, base on the lower third
	base := height * 3 / 4
	apex := height / 3
	for y := apex; y < base; y++ {
		half := (y - apex) * width / 2 / max(base-apex, 1)
		draw.Draw(img, image.Rect(width/2-half, y, width/2+half+1, y+1), fg, image.Point{}, draw.Src)
	}
	return img
}

// LoadFallback decodes the image at path and fits it to width x height. An
// empty path, or any failure, yields Placeholder(width, height).
func LoadFallback(ctx context.Context, path string, width, height int) image.Image {
	if path == "" {
		return Placeholder(width, height)
	}
	logger := logging.GetLogger(ctx)

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("fallback image unavailable, using placeholder", "path", path, "err", err)
		return Placeholder(width, height)
	}
	defer f.Close()

	img, _, err := imagedecode.Decode(ctx, f)
	if err != nil {
		logger.Warn("fallback image unreadable, using placeholder", "path", path, "err", err)
		return Placeholder(width, height)
	}
	return Fit(img, width, height)
}
