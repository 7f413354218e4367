package get

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"imagefetch/pkg/config"
	_ "imagefetch/pkg/driver/prelude"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestRunSavesImage(t *testing.T) {
	body := encodePNG(t, 40, 20)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
	}))
	defer ts.Close()

	output := filepath.Join(t.TempDir(), "out", "cat.png")
	var progress, out bytes.Buffer
	err := Run(context.Background(), Options{
		URL:      ts.URL + "/cat.jpg",
		Output:   output,
		Width:    20,
		Progress: &progress,
		Out:      &out,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	img := decodeFile(t, output)
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("saved image is %dx%d, want 20x10", b.Dx(), b.Dy())
	}
	if !strings.Contains(out.String(), "saved to "+output) {
		t.Errorf("summary = %q", out.String())
	}
	if !strings.Contains(progress.String(), "100%") {
		t.Errorf("progress bar never reached 100%%: %q", progress.String())
	}
}

func TestRunFailureSavesFallback(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	output := filepath.Join(t.TempDir(), "missing.png")
	err := Run(context.Background(), Options{
		URL:    ts.URL + "/missing.png",
		Output: output,
		Width:  32,
		Height: 32,
	})
	if err == nil || errors.Is(err, ErrCancelled) {
		t.Fatalf("expected failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should mention the status code: %v", err)
	}

	img := decodeFile(t, output)
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("fallback is %dx%d, want 32x32", b.Dx(), b.Dy())
	}
}

func TestRunInterrupted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for range 500 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
			w.Write([]byte{0})
			flusher.Flush()
		}
	}))
	defer ts.Close()

	interrupt := make(chan struct{})
	close(interrupt)

	output := filepath.Join(t.TempDir(), "slow.png")
	err := Run(context.Background(), Options{
		URL:       ts.URL + "/slow.png",
		Output:    output,
		Interrupt: interrupt,
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("placeholder should be saved on cancel: %v", err)
	}
}

func TestDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.View.OutputDir = dir
	ctx := config.WithConfig(context.Background(), cfg)

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/a/cat.jpg", "cat.png"},
		{"https://example.com/dog", "dog.png"},
		{"https://example.com/", "image.png"},
		{"https://example.com", "image.png"},
		{"https://example.com/pic.tar.gz?size=2", "pic.tar.png"},
	}
	for _, tt := range tests {
		got, err := DefaultOutput(ctx, tt.url)
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(dir, tt.want); got != want {
			t.Errorf("DefaultOutput(%q) = %q, want %q", tt.url, got, want)
		}
	}
}
