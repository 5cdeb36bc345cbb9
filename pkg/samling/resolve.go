package samling

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"k8s.io/klog/v2"
)

// SanitizeName maps a file name to a URL-safe path segment. The result only contains
// [a-z0-9._-], never starts with '.', '_' or '-', and is never empty.
func SanitizeName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}
	s = strings.ToLower(s)

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash {
				b.WriteRune('-')
				dash = true
			}
		}
	}

	out := strings.TrimLeft(b.String(), "._-")
	out = strings.TrimRight(out, ".-")
	if out == "" {
		return "untitled"
	}
	return out
}

// imageFileName is the output file name of an image variant.
func imageFileName(name string) string {
	ext := filepath.Ext(name)
	return SanitizeName(strings.TrimSuffix(name, ext)) + outputExt(name)
}

// Resolve assigns output paths and breadcrumbs to every collection and image of t. It
// must run after the tree is complete, as a node's path depends on its ancestors.
func Resolve(t *Tree) error {
	root := t.Root()
	root.Path = ""
	root.Breadcrumbs = []Breadcrumb{{Path: "", Title: root.Title}}
	return t.resolve(root)
}

func (t *Tree) resolve(c *Collection) error {
	// Children and images share the collection's output directory with its own page.
	taken := map[string]string{IndexFile: c.InPath}
	claim := func(seg string, src string) error {
		if prev, ok := taken[seg]; ok {
			return &FatalError{Op: "resolve", Path: prev, Other: src, Err: fmt.Errorf("%w %q", ErrCollision, path.Join(c.Path, seg))}
		}
		taken[seg] = src
		return nil
	}

	for _, id := range c.Images {
		i := t.Images[id]
		name := imageFileName(i.Name)
		if err := claim(name, i.InPath); err != nil {
			return err
		}
		i.OutPath = path.Join(c.Path, name)
		i.ThumbPath = path.Join(c.Path, ThumbDir, name)
	}

	for _, id := range c.Children {
		ch := t.Collections[id]
		seg := SanitizeName(ch.Name)
		if err := claim(seg, ch.InPath); err != nil {
			return err
		}

		ch.Path = path.Join(c.Path, seg)
		ch.Breadcrumbs = make([]Breadcrumb, 0, len(c.Breadcrumbs)+1)
		ch.Breadcrumbs = append(ch.Breadcrumbs, c.Breadcrumbs...)
		ch.Breadcrumbs = append(ch.Breadcrumbs, Breadcrumb{Path: ch.Path, Title: ch.Title})
		klog.V(1).Infof("resolved %s -> %q", ch.InPath, ch.Path)

		if err := t.resolve(ch); err != nil {
			return err
		}
	}
	return nil
}
