package samling

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"
)

// Skip kinds.
const (
	SkipImage     = "image"
	SkipMetadata  = "metadata"
	SkipDirectory = "directory"
)

// Skip describes an item left out of the gallery. Skips are collected into a Report
// and never returned as errors.
type Skip struct {
	Kind string
	Path string
	Err  error
}

func (s Skip) String() string {
	return fmt.Sprintf("%s %s: %v", s.Kind, s.Path, s.Err)
}

// FatalError aborts a build.
type FatalError struct {
	Op   string
	Path string
	// Other is set when two source paths are involved, as in a name collision.
	Other string
	Err   error
}

func (e *FatalError) Error() string {
	if e.Other != "" {
		return fmt.Sprintf("%s %s and %s: %v", e.Op, e.Path, e.Other, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func fatal(op string, path string, err error) error {
	return &FatalError{Op: op, Path: path, Err: err}
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// ErrCollision is wrapped by the FatalError returned for sibling name collisions.
var ErrCollision = errors.New("names map to the same output path")

// Report summarises a build.
type Report struct {
	Collections int
	Images      int
	Skipped     []Skip
}

func (r *Report) skip(kind string, path string, err error) {
	klog.Warningf("skipping %s %s: %v", kind, path, err)
	r.Skipped = append(r.Skipped, Skip{Kind: kind, Path: path, Err: err})
}

// Summary returns a one line description of the build.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d collections, %d images", r.Collections, r.Images)
	if len(r.Skipped) > 0 {
		s += fmt.Sprintf(", %d items skipped", len(r.Skipped))
	}
	return s
}
