package samling

import (
	"html/template"
)

// CollectionID addresses a Collection within a Tree.
type CollectionID int

// ImageID addresses an Image within a Tree.
type ImageID int

// NoImage is the thumbnail of a collection whose subtree holds no images.
const NoImage ImageID = -1

const noParent CollectionID = -1

// Image represents a photo and its generated variants.
type Image struct {
	ID         ImageID
	Collection CollectionID

	// Name is the source file name, InPath the full source path.
	Name   string
	InPath string

	// OutPath and ThumbPath are slash-separated and relative to the output directory.
	OutPath   string
	ThumbPath string

	// Width and Height describe the display variant as written, not the source.
	Width  int
	Height int

	ThumbWidth  int
	ThumbHeight int
}

// Breadcrumb is one step of the navigation trail.
type Breadcrumb struct {
	Path  string
	Title string
}

// Collection represents one directory level of the gallery.
type Collection struct {
	ID     CollectionID
	Parent CollectionID

	Name   string
	InPath string

	Title           string
	Description     string
	DescriptionHTML template.HTML

	// ThumbnailOverride is the file name requested by the sidecar, if any.
	ThumbnailOverride string
	Thumbnail         ImageID

	Images   []ImageID
	Children []CollectionID

	// Path and Breadcrumbs are assigned by Resolve.
	Path        string
	Breadcrumbs []Breadcrumb
}

// Tree owns every collection and image of a build. The root collection has ID 0.
type Tree struct {
	Collections []*Collection
	Images      []*Image
}

// Root returns the root collection.
func (t *Tree) Root() *Collection {
	return t.Collections[0]
}

// Collection returns the collection with the given ID.
func (t *Tree) Collection(id CollectionID) *Collection {
	return t.Collections[id]
}

// Image returns the image with the given ID, or nil for NoImage.
func (t *Tree) Image(id ImageID) *Image {
	if id == NoImage {
		return nil
	}
	return t.Images[id]
}

func (t *Tree) addCollection(c *Collection) CollectionID {
	c.ID = CollectionID(len(t.Collections))
	c.Thumbnail = NoImage
	t.Collections = append(t.Collections, c)
	return c.ID
}

func (t *Tree) addImage(i *Image) ImageID {
	i.ID = ImageID(len(t.Images))
	t.Images = append(t.Images, i)
	return i.ID
}

// ImageCount returns the number of images referenced by collections.
func (t *Tree) ImageCount() int {
	n := 0
	for _, c := range t.Collections {
		n += len(c.Images)
	}
	return n
}
