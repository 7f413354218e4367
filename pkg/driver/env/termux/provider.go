package termux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"imagefetch/pkg/driver"
	envdriver "imagefetch/pkg/driver/env"
)

func init() {
	driver.Register[envdriver.Driver](&Provider{})
}

type Provider struct{}

func (p *Provider) ID() string         { return "env_termux" }
func (p *Provider) Name() string       { return "Termux Environment" }
func (p *Provider) DefaultWeight() int { return 60 } // Higher than native

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if os.Getenv("TERMUX_VERSION") == "" {
		return fmt.Errorf("%w: not running in Termux", driver.ErrIncompatible)
	}
	return nil
}

func (p *Provider) New(ctx context.Context) (envdriver.Driver, error) {
	return &Driver{}, nil
}

type Driver struct{}

func (d *Driver) GetHomeDir(ctx context.Context) (string, error) {
	// In Termux, handle both chrooted and non-chrooted environments
	home := os.Getenv("HOME")

	// If HOME is /home (chrooted) or empty, use Termux default
	if home == "" || home == "/home" {
		home = filepath.Join(filepath.Dir(prefix()), "home")
	}

	return home, nil
}

func (d *Driver) GetConfigDir(ctx context.Context) (string, error) {
	home, err := d.GetHomeDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", envdriver.AppName), nil
}

// GetPicturesDir prefers the shared storage link created by termux-setup-storage,
// so downloads show up in the Android gallery.
func (d *Driver) GetPicturesDir(ctx context.Context) (string, error) {
	home, err := d.GetHomeDir(ctx)
	if err != nil {
		return "", err
	}
	shared := filepath.Join(home, "storage", "pictures")
	if info, err := os.Stat(shared); err == nil && info.IsDir() {
		return shared, nil
	}
	return home, nil
}

func (d *Driver) IsPhone(ctx context.Context) bool {
	return true // Termux always runs on Android phones
}

func prefix() string {
	if p := os.Getenv("PREFIX"); p != "" {
		return p
	}
	return "/data/data/com.termux/files/usr"
}
