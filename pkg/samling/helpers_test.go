package samling

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
)

func testImage(w int, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func writeImage(t *testing.T, path string, w int, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := imgio.JPEGEncoder(90)
	if filepath.Ext(path) == ".png" {
		enc = imgio.PNGEncoder()
	}
	if err := enc(f, testImage(w, h)); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func dimensions(t *testing.T, path string) (int, int) {
	t.Helper()
	ic, err := decodeConfig(path)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return ic.Width, ic.Height
}

// testConfig returns a config with an empty input directory and the built-in theme.
func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()

	c := DefaultConfig()
	c.Input = filepath.Join(dir, "input")
	c.Output = filepath.Join(dir, "output")
	c.Theme.Path = ""
	c.Thumbnail = Bounds{Width: 30, Height: 20}
	c.Workers = 2

	if err := os.MkdirAll(c.Input, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return c
}
