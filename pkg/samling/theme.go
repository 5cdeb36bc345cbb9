package samling

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"k8s.io/klog/v2"
)

//go:embed assets/default
var defaultTheme embed.FS

func builtinTheme() fs.FS {
	sub, err := fs.Sub(defaultTheme, "assets/default")
	if err != nil {
		panic(fmt.Sprintf("embedded theme: %v", err))
	}
	return sub
}

// Scaffold writes the built-in theme to dir, keeping files that already exist.
func Scaffold(dir string) error {
	klog.Infof("writing default theme to %s", dir)
	return writeFS(builtinTheme(), ".", dir, false)
}

// writeFS copies the tree at root within fsys to dest.
func writeFS(fsys fs.FS, root string, dest string, overwrite bool) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				klog.Infof("%s exists, keeping it", target)
				return nil
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}

		f, err := fsys.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", path.Clean(p), err)
		}
		defer f.Close()

		return writeAtomic(target, func(w io.Writer) error {
			_, err := io.Copy(w, f)
			return err
		})
	})
}
