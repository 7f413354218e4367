package native

import (
	"context"
	"path/filepath"
	"testing"
)

func TestConfigDirHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := (&Driver{}).GetConfigDir(context.Background())
	if err != nil {
		t.Fatalf("GetConfigDir failed: %v", err)
	}
	if want := filepath.Join(dir, "imagefetch"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestPicturesDirPrefersExisting(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_PICTURES_DIR", "")

	got, err := (&Driver{}).GetPicturesDir(context.Background())
	if err != nil {
		t.Fatalf("GetPicturesDir failed: %v", err)
	}
	if got == filepath.Join(home, "Pictures") {
		t.Errorf("Pictures does not exist yet, should not be chosen")
	}
}
