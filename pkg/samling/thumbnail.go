package samling

import (
	"fmt"
	"image"
	_ "image/gif"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/karrick/godirwalk"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// ThumbDir is the per-collection directory holding thumbnails.
const ThumbDir = "_"

// InspectOpts configures Inspect.
type InspectOpts struct {
	Display Bounds
	Thumb   Bounds
	Quality int
}

// Variants describes the files written for one image.
type Variants struct {
	Path   string
	Width  int
	Height int

	ThumbPath   string
	ThumbWidth  int
	ThumbHeight int
}

// Inspect writes the display and thumbnail variants of src to outPath and thumbPath.
// Problems with the source are returned as a skip, problems writing output as an error.
func Inspect(src string, outPath string, thumbPath string, o InspectOpts) (*Variants, *Skip, error) {
	skip := func(err error) (*Variants, *Skip, error) {
		return nil, &Skip{Kind: SkipImage, Path: src, Err: err}, nil
	}

	sst, err := os.Stat(src)
	if err != nil {
		return skip(fmt.Errorf("stat: %w", err))
	}

	ic, err := decodeConfig(src)
	if err != nil {
		return skip(err)
	}
	if ic.Width <= 0 || ic.Height <= 0 {
		return skip(fmt.Errorf("empty image: %dx%d", ic.Width, ic.Height))
	}

	v := &Variants{Path: outPath, ThumbPath: thumbPath}
	v.Width, v.Height = fit(ic.Width, ic.Height, o.Display)
	v.ThumbWidth, v.ThumbHeight = fit(ic.Width, ic.Height, o.Thumb)

	var img image.Image
	load := func() error {
		if img != nil {
			return nil
		}
		img, err = imgio.Open(src)
		if err != nil {
			return fmt.Errorf("imgio.Open: %w", err)
		}
		return nil
	}

	enc := encoder(outPath, o.Quality)
	verbatim := v.Width == ic.Width && v.Height == ic.Height && sameFormat(src, outPath)

	if !upToDate(sst, outPath, v.Width, v.Height) {
		if verbatim {
			// Still decode so that corrupt sources never reach the output.
			if err := load(); err != nil {
				return skip(err)
			}
			if err := copyAtomic(src, outPath); err != nil {
				return nil, nil, fatal("copy", outPath, err)
			}
		} else {
			if err := load(); err != nil {
				return skip(err)
			}
			if err := createVariant(img, outPath, v.Width, v.Height, enc); err != nil {
				return nil, nil, fatal("write", outPath, err)
			}
		}
	} else {
		klog.V(1).Infof("%s is up to date", outPath)
	}

	if !upToDate(sst, thumbPath, v.ThumbWidth, v.ThumbHeight) {
		if err := load(); err != nil {
			return skip(err)
		}
		if err := createVariant(img, thumbPath, v.ThumbWidth, v.ThumbHeight, encoder(thumbPath, o.Quality)); err != nil {
			return nil, nil, fatal("write", thumbPath, err)
		}
	} else {
		klog.V(1).Infof("%s is up to date", thumbPath)
	}

	return v, nil, nil
}

// fit scales w x h down to fit within b, preserving aspect ratio. It never upscales and
// never returns a zero dimension.
func fit(w int, h int, b Bounds) (int, int) {
	scale := 1.0
	if b.Width > 0 && w > b.Width {
		scale = math.Min(scale, float64(b.Width)/float64(w))
	}
	if b.Height > 0 && h > b.Height {
		scale = math.Min(scale, float64(b.Height)/float64(h))
	}
	if scale >= 1 {
		return w, h
	}

	x := max(1, int(math.Round(float64(w)*scale)))
	y := max(1, int(math.Round(float64(h)*scale)))
	return x, y
}

func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("unable to decode: %w", err)
	}
	return ic, nil
}

// upToDate reports whether path exists, is not older than the source, and has the
// expected dimensions.
func upToDate(src os.FileInfo, path string, w int, h int) bool {
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	if st.ModTime().Before(src.ModTime()) {
		klog.V(1).Infof("updating %s: source newer", path)
		return false
	}

	ic, err := decodeConfig(path)
	if err != nil {
		klog.Warningf("unable to read %s: %v", path, err)
		return false
	}
	return ic.Width == w && ic.Height == h
}

func createVariant(img image.Image, path string, w int, h int, enc imgio.Encoder) error {
	klog.V(1).Infof("creating %dx%d variant: %s - %+v", w, h, path, img.Bounds())
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		img = transform.Resize(img, w, h, transform.Lanczos)
	}
	return writeAtomic(path, func(wr io.Writer) error {
		return enc(wr, img)
	})
}

// outputExt returns the extension of the variants generated for a source file.
func outputExt(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".png") {
		return ".png"
	}
	return ".jpg"
}

func sameFormat(src string, out string) bool {
	ext := strings.ToLower(filepath.Ext(src))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return ext == filepath.Ext(out)
}

func encoder(path string, quality int) imgio.Encoder {
	if filepath.Ext(path) == ".png" {
		return imgio.PNGEncoder()
	}
	return imgio.JPEGEncoder(quality)
}

// tempSuffix marks the temporary siblings of writeAtomic and copyAtomic.
const tempSuffix = ".tmp"

var tempRe = regexp.MustCompile(`^\..+\.[0-9]+\.tmp$`)

// sweepTemp removes temporary files left in dir by an interrupted build.
func sweepTemp(dir string) error {
	stale := []string{}
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(p string, de *godirwalk.Dirent) error {
			if de.IsRegular() && tempRe.MatchString(de.Name()) {
				stale = append(stale, p)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	for _, p := range stale {
		klog.Infof("removing stale temporary file %s", p)
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
	}
	return nil
}

// writeAtomic writes a whole file through a temporary sibling, so that readers never see
// a partial file.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*"+tempSuffix)
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return os.Rename(f.Name(), path)
}

// copyAtomic copies src to dest through a temporary sibling.
func copyAtomic(src string, dest string) error {
	tmp := filepath.Join(filepath.Dir(dest), fmt.Sprintf(".%s.%d%s", filepath.Base(dest), os.Getpid(), tempSuffix))
	// Symlinked sources are copied by content.
	opt := copy.Options{OnSymlink: func(string) copy.SymlinkAction { return copy.Deep }}
	if err := copy.Copy(src, tmp, opt); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chmod: %w", err)
	}
	return os.Rename(tmp, dest)
}
