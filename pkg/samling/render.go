package samling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// IndexFile is the page written for every collection.
const IndexFile = "index.html"

var templatePath = "templates/" + IndexFile

// Build runs a complete build of c.Input into c.Output.
func Build(ctx context.Context, c *Config) (*Report, error) {
	if err := c.Validate(); err != nil {
		return nil, fatal("config", c.Input, err)
	}

	st, err := os.Stat(c.Input)
	if err != nil {
		return nil, fatal("stat", c.Input, err)
	}
	if !st.IsDir() {
		return nil, fatal("stat", c.Input, errors.New("not a directory"))
	}

	// A broken theme affects every page, so find out before resizing anything.
	th, err := loadTheme(c.Theme)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.Output, 0o755); err != nil {
		return nil, fatal("mkdir", c.Output, err)
	}
	if err := sweepTemp(c.Output); err != nil {
		return nil, fatal("sweep", c.Output, err)
	}

	t, r, err := Collect(ctx, c)
	if err != nil {
		return r, err
	}

	if err := th.render(ctx, c, t); err != nil {
		return r, err
	}

	klog.Infof("built %s: %s", c.Output, r.Summary())
	for _, s := range r.Skipped {
		klog.Warningf("skipped %s", s)
	}
	return r, nil
}

// Render writes one page per collection of t and copies the theme assets.
func Render(ctx context.Context, c *Config, t *Tree) error {
	th, err := loadTheme(c.Theme)
	if err != nil {
		return err
	}
	return th.render(ctx, c, t)
}

type theme struct {
	path    string
	builtin bool
	fsys    fs.FS
	tmpl    *template.Template
}

func loadTheme(t Theme) (*theme, error) {
	th := &theme{path: t.Path}
	if t.Path == "" {
		th.path = "(built-in)"
		th.builtin = true
		th.fsys = builtinTheme()
	} else {
		th.fsys = os.DirFS(t.Path)
	}

	tmpl, err := template.New(IndexFile).Funcs(tmplFunctions()).ParseFS(th.fsys, templatePath)
	if err != nil {
		return nil, fatal("parse", filepath.Join(th.path, templatePath), err)
	}
	th.tmpl = tmpl
	return th, nil
}

func (th *theme) render(ctx context.Context, c *Config, t *Tree) error {
	if err := th.copyAssets(c.Output); err != nil {
		return err
	}
	return th.writeCollections(ctx, c, t)
}

func (th *theme) copyAssets(outDir string) error {
	dest := filepath.Join(outDir, StaticDir)
	if _, err := fs.Stat(th.fsys, "static"); err != nil {
		klog.V(1).Infof("theme %s has no static assets", th.path)
		return nil
	}

	klog.V(1).Infof("copying assets from %s to %s", th.path, dest)
	if th.builtin {
		if err := writeFS(th.fsys, "static", dest, true); err != nil {
			return fatal("copy", dest, err)
		}
		return nil
	}

	if err := copy.Copy(filepath.Join(th.path, "static"), dest); err != nil {
		return fatal("copy", dest, err)
	}
	return nil
}

func (th *theme) writeCollections(ctx context.Context, c *Config, t *Tree) error {
	klog.Infof("Writing out %d collections ...", len(t.Collections))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())

	for _, col := range t.Collections {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			p := NewPage(t, col.ID, c.Theme)
			klog.V(1).Infof("rendering collection %s [%s] with %d images ...", p.Title, col.Path, len(p.Images))
			bs, err := renderPage(th.tmpl, p)
			if err != nil {
				return fatal("render", col.InPath, err)
			}

			path := filepath.Join(c.Output, filepath.FromSlash(col.Path), IndexFile)
			klog.V(1).Infof("Writing collection index to %s", path)
			if err := writeAtomic(path, func(w io.Writer) error {
				_, err := w.Write(bs)
				return err
			}); err != nil {
				return fatal("write", path, err)
			}
			return nil
		})
	}

	return g.Wait()
}

func renderPage(tmpl *template.Template, p *Page) ([]byte, error) {
	var tpl bytes.Buffer
	if err := tmpl.Execute(&tpl, p); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return tpl.Bytes(), nil
}

// tmplFunctions are functions available to our templates.
func tmplFunctions() template.FuncMap {
	return template.FuncMap{
		"Odd": func(i int) bool {
			return i%2 == 1
		},
		"BasePath": filepath.Base,
	}
}
