package samling

import (
	"html/template"
	"path"
	"strings"
)

// StaticDir holds the theme assets in the output directory.
const StaticDir = "_static"

// Link is a navigation entry.
type Link struct {
	Path  string
	Title string
}

// Child is a sub-collection as listed on its parent's page.
type Child struct {
	Path      string
	Title     string
	Thumbnail string
}

// Picture is an image as shown on a page.
type Picture struct {
	Path   string
	Width  int
	Height int

	Thumbnail   string
	ThumbWidth  int
	ThumbHeight int
}

// Page is everything a template sees. All paths are relative to the page itself.
type Page struct {
	Title       string
	Breadcrumbs []Link
	Children    []Child
	Images      []Picture
	Description template.HTML
	ThemeURL    string

	ImageColumns      int
	CollectionColumns int
}

// NewPage builds the template view of a resolved collection.
func NewPage(t *Tree, id CollectionID, th Theme) *Page {
	c := t.Collection(id)
	p := &Page{
		Title:             c.Title,
		Breadcrumbs:       make([]Link, 0, len(c.Breadcrumbs)),
		Children:          make([]Child, 0, len(c.Children)),
		Images:            make([]Picture, 0, len(c.Images)),
		Description:       c.DescriptionHTML,
		ThemeURL:          dirURL(c.Path, StaticDir),
		ImageColumns:      th.ImageColumns,
		CollectionColumns: th.CollectionColumns,
	}

	for _, b := range c.Breadcrumbs {
		p.Breadcrumbs = append(p.Breadcrumbs, Link{Path: dirURL(c.Path, b.Path), Title: b.Title})
	}

	for _, cid := range c.Children {
		ch := t.Collection(cid)
		thumb := ""
		if i := t.Image(ch.Thumbnail); i != nil {
			thumb = relURL(c.Path, i.ThumbPath)
		}
		p.Children = append(p.Children, Child{Path: dirURL(c.Path, ch.Path), Title: ch.Title, Thumbnail: thumb})
	}

	for _, iid := range c.Images {
		i := t.Image(iid)
		p.Images = append(p.Images, Picture{
			Path:        relURL(c.Path, i.OutPath),
			Width:       i.Width,
			Height:      i.Height,
			Thumbnail:   relURL(c.Path, i.ThumbPath),
			ThumbWidth:  i.ThumbWidth,
			ThumbHeight: i.ThumbHeight,
		})
	}
	return p
}

func segments(p string) []string {
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(path.Clean(p), "/")
}

// relURL returns the relative URL from directory from to the output path to.
func relURL(from string, to string) string {
	fs := segments(from)
	ts := segments(to)

	n := 0
	for n < len(fs) && n < len(ts) && fs[n] == ts[n] {
		n++
	}

	parts := []string{}
	for range fs[n:] {
		parts = append(parts, "..")
	}
	parts = append(parts, ts[n:]...)

	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// dirURL is relURL for directories, with a trailing slash.
func dirURL(from string, to string) string {
	return relURL(from, to) + "/"
}
