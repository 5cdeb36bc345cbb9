package samling

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karrick/godirwalk"
)

func names(t *Tree, c *Collection) ([]string, []string) {
	is := []string{}
	for _, id := range c.Images {
		is = append(is, t.Image(id).Name)
	}
	cs := []string{}
	for _, id := range c.Children {
		cs = append(cs, t.Collection(id).Name)
	}
	return is, cs
}

func TestWalk(t *testing.T) {
	c := testConfig(t)
	for _, f := range []string{"b.jpg", "B.jpg", "a.JPG", "c.png", "notes.txt", "foo.bar", ".hidden.jpg", "z.jpeg"} {
		writeFile(t, filepath.Join(c.Input, f), "")
	}
	for _, d := range []string{"beta", "Alpha", "alpha", ".git"} {
		if err := os.MkdirAll(filepath.Join(c.Input, d), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	writeFile(t, filepath.Join(c.Input, "beta", "x.jpg"), "")

	r := &Report{}
	tr, err := Walk(c, r)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	root := tr.Root()
	is, cs := names(tr, root)
	if diff := cmp.Diff([]string{"B.jpg", "a.JPG", "b.jpg", "c.png", "z.jpeg"}, is); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alpha", "alpha", "beta"}, cs); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}

	if root.Name != "input" || root.Title != "input" {
		t.Errorf("root name/title = %q/%q, want input", root.Name, root.Title)
	}
	if root.Description != "" || root.DescriptionHTML != "" {
		t.Errorf("root description = %q, want empty", root.Description)
	}

	beta := tr.Collection(root.Children[2])
	if beta.Parent != root.ID {
		t.Errorf("beta parent = %d, want %d", beta.Parent, root.ID)
	}
	if is, _ := names(tr, beta); len(is) != 1 || is[0] != "x.jpg" {
		t.Errorf("beta images = %v, want [x.jpg]", is)
	}
	if len(r.Skipped) != 0 {
		t.Errorf("skipped = %v, want none", r.Skipped)
	}
}

func TestWalkMetadata(t *testing.T) {
	c := testConfig(t)
	dir := filepath.Join(c.Input, "2019 Italy")
	writeFile(t, filepath.Join(dir, "beach.jpg"), "")
	writeFile(t, filepath.Join(dir, SidecarFile), "Title: Sunny vacation\nThumbnail: beach.jpg\n\nVacation was *just* perfect!\n")

	tr, err := Walk(c, &Report{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	got := tr.Collection(tr.Root().Children[0])
	if got.Title != "Sunny vacation" {
		t.Errorf("title = %q, want %q", got.Title, "Sunny vacation")
	}
	if got.ThumbnailOverride != "beach.jpg" {
		t.Errorf("thumbnail override = %q, want beach.jpg", got.ThumbnailOverride)
	}
	if got.Description != "Vacation was *just* perfect!" {
		t.Errorf("description = %q", got.Description)
	}
	if want := "<p>Vacation was <em>just</em> perfect!</p>\n"; string(got.DescriptionHTML) != want {
		t.Errorf("description html = %q, want %q", got.DescriptionHTML, want)
	}
}

func TestWalkMissingInput(t *testing.T) {
	c := testConfig(t)
	c.Input = filepath.Join(c.Input, "does-not-exist")

	_, err := Walk(c, &Report{})
	if !IsFatal(err) {
		t.Errorf("Walk() = %v, want a fatal error", err)
	}
}

func TestWalkUnreadableSidecar(t *testing.T) {
	c := testConfig(t)
	if err := os.Mkdir(filepath.Join(c.Input, SidecarFile), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r := &Report{}
	tr, err := Walk(c, r)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(r.Skipped) != 1 || r.Skipped[0].Kind != SkipMetadata {
		t.Errorf("skipped = %v, want one metadata skip", r.Skipped)
	}
	if tr.Root().Title != "input" {
		t.Errorf("title = %q, want the default", tr.Root().Title)
	}
}

func TestWalkSkipsNestedOutput(t *testing.T) {
	c := testConfig(t)
	c.Output = filepath.Join(c.Input, "_build")
	writeFile(t, filepath.Join(c.Input, "a.jpg"), "")
	writeFile(t, filepath.Join(c.Output, "a.jpg"), "")
	writeFile(t, filepath.Join(c.Output, "sub", "b.jpg"), "")
	writeFile(t, filepath.Join(c.Input, "trip", "c.jpg"), "")

	tr, err := Walk(c, &Report{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	is, cs := names(tr, tr.Root())
	if diff := cmp.Diff([]string{"a.jpg"}, is); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"trip"}, cs); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if len(tr.Collections) != 2 || len(tr.Images) != 2 {
		t.Errorf("tree has %d collections and %d images, want 2 and 2", len(tr.Collections), len(tr.Images))
	}
}

func TestWalkUnreadableSubdirectory(t *testing.T) {
	c := testConfig(t)
	for _, f := range []string{"a/x.jpg", "b/y.jpg", "c/z.jpg"} {
		writeFile(t, filepath.Join(c.Input, filepath.FromSlash(f)), "")
	}
	broken := filepath.Join(c.Input, "b")

	r := &Report{}
	w := newWalker(c, r)
	w.readDir = func(dir string, scratch []byte) (godirwalk.Dirents, error) {
		if dir == broken {
			return nil, errors.New("input/output error")
		}
		return godirwalk.ReadDirents(dir, scratch)
	}

	tr, err := w.walk(c.Input)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	if len(r.Skipped) != 1 || r.Skipped[0].Kind != SkipDirectory || r.Skipped[0].Path != broken {
		t.Errorf("skipped = %v, want one directory skip for %s", r.Skipped, broken)
	}
	_, cs := names(tr, tr.Root())
	if diff := cmp.Diff([]string{"a", "c"}, cs); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	for _, id := range tr.Root().Children {
		if is, _ := names(tr, tr.Collection(id)); len(is) != 1 {
			t.Errorf("%s images = %v, want one", tr.Collection(id).Name, is)
		}
	}
}
