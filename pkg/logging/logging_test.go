package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestGetLoggerDefault(t *testing.T) {
	if GetLogger(context.Background()) != slog.Default() {
		t.Errorf("expected slog.Default() when no logger is set")
	}
}

func TestWithAttachesAttributes(t *testing.T) {
	buf := &bytes.Buffer{}
	base := slog.New(slog.NewTextHandler(buf, nil))

	ctx := WithLogger(context.Background(), base)
	ctx = With(ctx, "url", "http://example.com/a.png")
	GetLogger(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "url=http://example.com/a.png") {
		t.Errorf("expected url attribute in output, got: %q", out)
	}
}
