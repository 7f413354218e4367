package env

import (
	"context"
	"os"
	"path/filepath"

	"imagefetch/pkg/driver"
)

// AppName names the per-user directories owned by imagefetch.
const AppName = "imagefetch"

// Driver provides platform-specific environment operations.
type Driver interface {
	// GetHomeDir returns the actual user home directory (handles Termux chroot)
	GetHomeDir(ctx context.Context) (string, error)

	// GetConfigDir returns the path to the user config directory for imagefetch.
	GetConfigDir(ctx context.Context) (string, error)

	// GetPicturesDir returns the directory downloaded images are written to by default.
	GetPicturesDir(ctx context.Context) (string, error)

	// IsPhone checks if the environment suggests we are running on a phone.
	IsPhone(ctx context.Context) bool
}

// Facade functions

// GetHomeDir returns the actual user home directory (handles Termux chroot).
func GetHomeDir(ctx context.Context) (string, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return "", err
	}
	return d.GetHomeDir(ctx)
}

// GetConfigDir returns the path to the user config directory for imagefetch.
func GetConfigDir(ctx context.Context) (string, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return "", err
	}
	return d.GetConfigDir(ctx)
}

// GetPicturesDir returns the default output directory for downloaded images.
func GetPicturesDir(ctx context.Context) (string, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return "", err
	}
	return d.GetPicturesDir(ctx)
}

// IsPhone checks if the environment suggests we are running on a phone.
func IsPhone(ctx context.Context) bool {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return false
	}
	return d.IsPhone(ctx)
}

// ExpandPath expands ~ to home directory and environment variables in a path.
// Examples:
//   - "~/.config" -> "/home/user/.config"
//   - "$HOME/bin" -> "/home/user/bin"
//   - "~/file with spaces" -> "/home/user/file with spaces"
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			if len(path) == 1 {
				return home
			}
			if path[1] == '/' {
				return filepath.Join(home, path[2:])
			}
		}
	}
	return os.ExpandEnv(path)
}
