package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imagefetch/pkg/version"
)

func TestRootCommandVersion(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), version.Version()) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"get", "serve"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("missing %s subcommand: %v", name, err)
		}
	}
}

func TestRootCommandRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("[fetch]\nread_buffer_size = -1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--config", path, "get", "http://127.0.0.1:1/x.png"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "read_buffer_size") {
		t.Errorf("err = %v, want read_buffer_size validation error", err)
	}
}
