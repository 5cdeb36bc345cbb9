package samling

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Collect walks c.Input, resolves output paths, writes image variants and selects
// collection thumbnails. Per-item failures end up in the report; the error is fatal.
func Collect(ctx context.Context, c *Config) (*Tree, *Report, error) {
	klog.Infof("collect: %s -> %s", c.Input, c.Output)
	r := &Report{}

	t, err := Walk(c, r)
	if err != nil {
		return nil, r, err
	}

	if err := Resolve(t); err != nil {
		return nil, r, err
	}

	if err := inspectAll(ctx, c, t, r); err != nil {
		return nil, r, err
	}

	t.selectThumbnail(t.Root())

	r.Collections = len(t.Collections)
	r.Images = t.ImageCount()
	return t, r, nil
}

// inspectAll runs Inspect over every image on a bounded pool and drops images that could
// not be read from their collections.
func inspectAll(ctx context.Context, c *Config, t *Tree, r *Report) error {
	o := InspectOpts{Display: c.display(), Thumb: c.Thumbnail, Quality: c.Quality}
	skips := make([]*Skip, len(t.Images))

	klog.Infof("inspecting %d images with %d workers ...", len(t.Images), c.workers())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())

	for _, i := range t.Images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			v, skip, err := Inspect(i.InPath, filepath.Join(c.Output, i.OutPath), filepath.Join(c.Output, i.ThumbPath), o)
			if err != nil {
				return err
			}
			if skip != nil {
				skips[i.ID] = skip
				return nil
			}

			i.Width, i.Height = v.Width, v.Height
			i.ThumbWidth, i.ThumbHeight = v.ThumbWidth, v.ThumbHeight
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, col := range t.Collections {
		kept := col.Images[:0]
		for _, id := range col.Images {
			if s := skips[id]; s != nil {
				r.skip(s.Kind, s.Path, s.Err)
				continue
			}
			kept = append(kept, id)
		}
		col.Images = kept
	}
	return nil
}

// selectThumbnail picks the thumbnail of c and its descendants: a valid sidecar override,
// else the first image, else the first thumbnail found among the children.
func (t *Tree) selectThumbnail(c *Collection) {
	for _, id := range c.Children {
		t.selectThumbnail(t.Collections[id])
	}

	c.Thumbnail = NoImage
	if c.ThumbnailOverride != "" {
		for _, id := range c.Images {
			if t.Images[id].Name == c.ThumbnailOverride {
				c.Thumbnail = id
				break
			}
		}
		if c.Thumbnail == NoImage {
			klog.Warningf("%s: thumbnail %q not found, using default", c.InPath, c.ThumbnailOverride)
		}
	}

	if c.Thumbnail == NoImage && len(c.Images) > 0 {
		c.Thumbnail = c.Images[0]
	}

	for _, id := range c.Children {
		if c.Thumbnail != NoImage {
			break
		}
		c.Thumbnail = t.Collections[id].Thumbnail
	}
}
