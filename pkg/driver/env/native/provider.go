package native

import (
	"context"
	"os"
	"path/filepath"

	"imagefetch/pkg/driver"
	envdriver "imagefetch/pkg/driver/env"
)

type Provider struct{}

func (p *Provider) ID() string {
	return "env_native"
}

func (p *Provider) Name() string {
	return "Native Environment"
}

func (p *Provider) DefaultWeight() int {
	return driver.DefaultWeight
}

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	// Always compatible
	return nil
}

func (p *Provider) New(ctx context.Context) (envdriver.Driver, error) {
	return &Driver{}, nil
}

type Driver struct{}

func (d *Driver) GetHomeDir(ctx context.Context) (string, error) {
	return os.UserHomeDir()
}

func (d *Driver) GetConfigDir(ctx context.Context) (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, envdriver.AppName), nil
	}
	home, err := d.GetHomeDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", envdriver.AppName), nil
}

func (d *Driver) GetPicturesDir(ctx context.Context) (string, error) {
	if dir := os.Getenv("XDG_PICTURES_DIR"); dir != "" {
		return envdriver.ExpandPath(dir), nil
	}
	home, err := d.GetHomeDir(ctx)
	if err != nil {
		return "", err
	}
	pictures := filepath.Join(home, "Pictures")
	if info, err := os.Stat(pictures); err == nil && info.IsDir() {
		return pictures, nil
	}
	// No Pictures folder: fall back to the working directory
	return os.Getwd()
}

func (d *Driver) IsPhone(ctx context.Context) bool {
	return os.Getenv("TERMUX_VERSION") != ""
}

func init() {
	driver.Register[envdriver.Driver](&Provider{})
}
