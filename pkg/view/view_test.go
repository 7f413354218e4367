package view

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	_ "imagefetch/pkg/driver/imagedecode/ximage"
	"imagefetch/pkg/fetch"
	"imagefetch/pkg/logging"
)

type fakeView struct {
	w, h   int
	images []image.Image
	err    error
}

func (v *fakeView) SetImage(img image.Image) error {
	v.images = append(v.images, img)
	return v.err
}

func (v *fakeView) Size() (int, int) { return v.w, v.h }

type fakeDialog struct {
	events []string
}

func (d *fakeDialog) Show(title string) { d.events = append(d.events, "show:"+title) }
func (d *fakeDialog) SetProgress(p int) { d.events = append(d.events, "p") }
func (d *fakeDialog) Dismiss()          { d.events = append(d.events, "dismiss") }

func newTestBinder(t *testing.T, v *fakeView, d *fakeDialog) (*Binder, *Ref[ImageView], *Ref[ProgressDialog], *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	ctx := logging.WithLogger(context.Background(), slog.New(slog.NewTextHandler(buf, nil)))
	vr := NewRef[ImageView](v)
	dr := NewRef[ProgressDialog](d)
	return NewBinder(ctx, vr, dr), vr, dr, buf
}

func TestBinderSuccess(t *testing.T) {
	v := &fakeView{w: 50, h: 50}
	d := &fakeDialog{}
	b, _, _, _ := newTestBinder(t, v, d)

	b.OnStart()
	b.OnProgress(50)
	b.OnProgress(100)
	b.OnComplete(fetch.Outcome{Status: fetch.StatusSucceeded, Image: image.NewGray(image.Rect(0, 0, 200, 100))})

	want := []string{"p", "show:" + DefaultTitle, "p", "p", "dismiss"}
	if !slices.Equal(d.events, want) {
		t.Errorf("expected dialog events %v, got %v", want, d.events)
	}
	if len(v.images) != 1 {
		t.Fatalf("expected one image, got %d", len(v.images))
	}
	if got := v.images[0].Bounds(); got.Dx() != 50 || got.Dy() != 25 {
		t.Errorf("expected image fitted to 50x25, got %v", got)
	}
}

func TestBinderFailureUsesFallback(t *testing.T) {
	v := &fakeView{}
	d := &fakeDialog{}
	b, _, _, logs := newTestBinder(t, v, d)
	fallback := image.NewGray(image.Rect(0, 0, 1, 1))
	b.Fallback = func(int, int) image.Image { return fallback }

	b.OnStart()
	b.OnComplete(fetch.Outcome{Status: fetch.StatusFailed, Err: &fetch.Error{Kind: fetch.KindProtocol, URL: "u", Err: errors.New("unsuccessful result code: 404 Not Found")}})

	if len(v.images) != 1 || v.images[0] != fallback {
		t.Errorf("expected fallback image to be set")
	}
	if !strings.Contains(logs.String(), "level=ERROR") || !strings.Contains(logs.String(), "404") {
		t.Errorf("expected error log with cause, got %q", logs.String())
	}
	if d.events[len(d.events)-1] != "dismiss" {
		t.Errorf("dialog must be dismissed, got %v", d.events)
	}
}

func TestBinderCancelledUsesPlaceholder(t *testing.T) {
	v := &fakeView{w: 40, h: 30}
	b, _, _, logs := newTestBinder(t, v, &fakeDialog{})

	b.OnComplete(fetch.Outcome{Status: fetch.StatusCancelled})

	if len(v.images) != 1 {
		t.Fatalf("expected placeholder to be set")
	}
	if got := v.images[0].Bounds(); got.Dx() != 40 || got.Dy() != 30 {
		t.Errorf("expected placeholder sized to the view, got %v", got)
	}
	if !strings.Contains(logs.String(), "level=INFO") {
		t.Errorf("expected info log for cancellation, got %q", logs.String())
	}
}

func TestBinderHostGone(t *testing.T) {
	v := &fakeView{}
	d := &fakeDialog{}
	b, vr, dr, _ := newTestBinder(t, v, d)

	b.OnStart()
	dr.Release()
	vr.Release()
	b.OnProgress(10)
	b.OnComplete(fetch.Outcome{Status: fetch.StatusSucceeded, Image: image.NewGray(image.Rect(0, 0, 1, 1))})

	if len(v.images) != 0 {
		t.Errorf("released view must not receive images")
	}
	// Shown before release: still dismissed, never updated again
	want := []string{"p", "show:" + DefaultTitle, "dismiss"}
	if !slices.Equal(d.events, want) {
		t.Errorf("expected %v, got %v", want, d.events)
	}
}

func TestBinderNeverShownDialog(t *testing.T) {
	d := &fakeDialog{}
	b, _, dr, _ := newTestBinder(t, &fakeView{}, d)
	dr.Release()

	b.OnStart()
	b.OnProgress(10)
	b.OnComplete(fetch.Outcome{Status: fetch.StatusCancelled})

	if len(d.events) != 0 {
		t.Errorf("released dialog must not be touched, got %v", d.events)
	}
}

func TestRefNil(t *testing.T) {
	var r *Ref[ImageView]
	if _, ok := r.Get(); ok {
		t.Errorf("nil ref must not be alive")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{name: "downscale width", w: 800, h: 400, maxW: 600, wantW: 600, wantH: 300},
		{name: "downscale height", w: 400, h: 800, maxH: 200, wantW: 100, wantH: 200},
		{name: "both bounds", w: 1000, h: 500, maxW: 300, maxH: 100, wantW: 200, wantH: 100},
		{name: "no upscale", w: 40, h: 30, maxW: 600, maxH: 600, wantW: 40, wantH: 30},
		{name: "unconstrained", w: 40, h: 30, wantW: 40, wantH: 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.maxW, tt.maxH).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, got.Dx(), got.Dy())
			}
		})
	}
}

func TestPlaceholder(t *testing.T) {
	img := Placeholder(0, 0)
	if img.Bounds().Dx() != defaultPlaceholderSize || img.Bounds().Dy() != defaultPlaceholderSize {
		t.Errorf("unexpected default size %v", img.Bounds())
	}
	if c := color.RGBAModel.Convert(img.At(0, 0)); c != placeholderForeground {
		t.Errorf("expected frame colour at corner, got %v", c)
	}
	if c := color.RGBAModel.Convert(img.At(10, 10)); c != placeholderBackground {
		t.Errorf("expected background inside frame, got %v", c)
	}
}

func TestLoadFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 300, 150))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if got := LoadFallback(ctx, path, 100, 100).Bounds(); got.Dx() != 100 || got.Dy() != 50 {
		t.Errorf("expected fitted fallback 100x50, got %v", got)
	}
	if got := LoadFallback(ctx, bad, 20, 10).Bounds(); got.Dx() != 20 || got.Dy() != 10 {
		t.Errorf("expected placeholder for unreadable file, got %v", got)
	}
	if got := LoadFallback(ctx, filepath.Join(dir, "missing.png"), 0, 0).Bounds(); got.Dx() != defaultPlaceholderSize {
		t.Errorf("expected placeholder for missing file, got %v", got)
	}
}
