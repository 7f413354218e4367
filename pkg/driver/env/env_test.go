package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("IMAGEFETCH_TEST_DIR", "/tmp/pics")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "tilde only", input: "~", want: home},
		{name: "tilde prefix", input: "~/Pictures/a.png", want: filepath.Join(home, "Pictures/a.png")},
		{name: "env var", input: "$IMAGEFETCH_TEST_DIR/a.png", want: "/tmp/pics/a.png"},
		{name: "plain", input: "/srv/a.png", want: "/srv/a.png"},
		{name: "tilde user form untouched", input: "~other/a.png", want: "~other/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.input); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
