package samling

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

type walker struct {
	tree   *Tree
	report *Report
	exts   map[string]bool

	// exclude holds absolute directories that are never collected, such as an output
	// directory nested in the input.
	exclude map[string]bool
	readDir func(string, []byte) (godirwalk.Dirents, error)
}

func newWalker(c *Config, r *Report) *walker {
	w := &walker{
		tree:    &Tree{},
		report:  r,
		exts:    map[string]bool{},
		exclude: map[string]bool{},
		readDir: godirwalk.ReadDirents,
	}
	for _, e := range c.Extensions {
		w.exts["."+strings.ToLower(e)] = true
	}
	if out, err := filepath.Abs(c.Output); err == nil {
		w.exclude[out] = true
	}
	return w
}

// Walk builds the collection tree rooted at c.Input. Images are listed but not yet
// inspected, and no output paths are assigned.
func Walk(c *Config, r *Report) (*Tree, error) {
	return newWalker(c, r).walk(c.Input)
}

func (w *walker) walk(input string) (*Tree, error) {
	des, err := w.list(input)
	if err != nil {
		return nil, fatal("read", input, err)
	}

	name := filepath.Base(filepath.Clean(input))
	if abs, err := filepath.Abs(input); err == nil {
		name = filepath.Base(abs)
	}

	w.collect(input, name, noParent, des)
	return w.tree, nil
}

func (w *walker) list(dir string) (godirwalk.Dirents, error) {
	des, err := w.readDir(dir, nil)
	if err != nil {
		return nil, err
	}
	// Byte-wise order keeps builds reproducible.
	sort.Sort(des)
	return des, nil
}

func (w *walker) excluded(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return w.exclude[abs]
}

func (w *walker) isImage(name string) bool {
	return w.exts[strings.ToLower(filepath.Ext(name))]
}

func (w *walker) collect(dir string, name string, parent CollectionID, des godirwalk.Dirents) CollectionID {
	id := w.tree.addCollection(&Collection{
		Parent: parent,
		Name:   name,
		InPath: dir,
		Title:  name,
	})

	subdirs := []string{}
	for _, de := range des {
		n := de.Name()
		if strings.HasPrefix(n, ".") {
			continue
		}

		switch {
		case de.IsDir():
			if w.excluded(filepath.Join(dir, n)) {
				klog.V(1).Infof("not collecting %s", filepath.Join(dir, n))
				continue
			}
			subdirs = append(subdirs, n)
		case (de.IsRegular() || de.IsSymlink()) && w.isImage(n):
			klog.V(1).Infof("found %s", filepath.Join(dir, n))
			iid := w.tree.addImage(&Image{
				Collection: id,
				Name:       n,
				InPath:     filepath.Join(dir, n),
			})
			w.tree.Collections[id].Images = append(w.tree.Collections[id].Images, iid)
		}
	}

	for _, n := range subdirs {
		sub := filepath.Join(dir, n)
		sdes, err := w.list(sub)
		if err != nil {
			w.report.skip(SkipDirectory, sub, fmt.Errorf("read: %w", err))
			continue
		}
		cid := w.collect(sub, n, id, sdes)
		w.tree.Collections[id].Children = append(w.tree.Collections[id].Children, cid)
	}

	w.applyMetadata(w.tree.Collections[id])
	return id
}

func (w *walker) applyMetadata(c *Collection) {
	m, skip := ParseMetadata(c.InPath)
	if skip != nil {
		w.report.skip(skip.Kind, skip.Path, skip.Err)
		return
	}

	if m.Title != "" {
		c.Title = m.Title
	}
	c.ThumbnailOverride = m.Thumbnail
	c.Description = m.Description

	html, err := renderDescription(m.Description)
	if err != nil {
		w.report.skip(SkipMetadata, filepath.Join(c.InPath, SidecarFile), err)
		return
	}
	c.DescriptionHTML = html
}
