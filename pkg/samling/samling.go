// Package samling builds static photo galleries from a directory of images.
package samling

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"k8s.io/klog/v2"
)

// ConfigFile is the default name of the settings file.
const ConfigFile = "samling.toml"

// Bounds are maximum dimensions. Zero means unbounded on that axis.
type Bounds struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Theme locates the templates and static assets.
type Theme struct {
	// Path holds templates/index.html and an optional static/ directory.
	// An empty path selects the built-in theme.
	Path              string `toml:"path"`
	ImageColumns      int    `toml:"image_columns"`
	CollectionColumns int    `toml:"collection_columns"`
}

// Config holds configuration for samling.
type Config struct {
	Input      string   `toml:"input"`
	Output     string   `toml:"output"`
	Extensions []string `toml:"extensions"`
	Quality    int      `toml:"quality"`
	Workers    int      `toml:"workers,omitempty"`

	Theme     Theme   `toml:"theme"`
	Thumbnail Bounds  `toml:"thumbnail"`
	Resize    *Bounds `toml:"resize,omitempty"`
}

// DefaultConfig returns the configuration written by `samling new`.
func DefaultConfig() *Config {
	return &Config{
		Input:      "input",
		Output:     "_build",
		Extensions: []string{"jpg", "jpeg", "png"},
		Quality:    85,
		Theme: Theme{
			Path:              "theme",
			ImageColumns:      4,
			CollectionColumns: 3,
		},
		Thumbnail: Bounds{Width: 450, Height: 300},
	}
}

// LoadConfig reads a TOML settings file. Unset fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	for _, k := range md.Undecoded() {
		klog.Warningf("%s: unknown key %q", path, k.String())
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// WriteConfig writes c to path, refusing to overwrite an existing file.
func WriteConfig(path string, c *Config) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode: %w", err)
	}
	return f.Close()
}

// Validate checks c and normalizes the extension list.
func (c *Config) Validate() error {
	var errs []error

	if c.Input == "" {
		errs = append(errs, errors.New("input is required"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}
	if c.Input != "" && c.Output != "" && sameDir(c.Input, c.Output) {
		errs = append(errs, fmt.Errorf("output must differ from input: %s", c.Output))
	}
	if c.Thumbnail.Width < 0 || c.Thumbnail.Height < 0 {
		errs = append(errs, fmt.Errorf("thumbnail bounds must not be negative: %+v", c.Thumbnail))
	}
	if c.Thumbnail.Width == 0 && c.Thumbnail.Height == 0 {
		errs = append(errs, errors.New("thumbnail needs a width or a height"))
	}
	if c.Resize != nil && (c.Resize.Width < 0 || c.Resize.Height < 0) {
		errs = append(errs, fmt.Errorf("resize bounds must not be negative: %+v", *c.Resize))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be within 1-100, got %d", c.Quality))
	}

	exts := []string{}
	for _, e := range c.Extensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	if len(exts) == 0 {
		errs = append(errs, errors.New("extensions must not be empty"))
	}
	c.Extensions = exts

	return errors.Join(errs...)
}

func sameDir(a string, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	ab, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return aa == ab
}

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c *Config) display() Bounds {
	if c.Resize == nil {
		return Bounds{}
	}
	return *c.Resize
}
