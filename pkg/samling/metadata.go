package samling

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"k8s.io/klog/v2"
)

// SidecarFile is the per-directory metadata file.
const SidecarFile = "index.md"

var headerRe = regexp.MustCompile(`^(Title|Thumbnail):\s*(.*?)\s*$`)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer))
	policy   = bluemonday.UGCPolicy()
)

// Metadata holds the overrides of a sidecar file. Empty fields mean no override.
type Metadata struct {
	Title       string
	Thumbnail   string
	Description string
}

// ParseMetadata reads the sidecar in dir. A missing sidecar yields empty metadata; an
// unreadable one yields empty metadata and a skip.
func ParseMetadata(dir string) (Metadata, *Skip) {
	path := filepath.Join(dir, SidecarFile)
	bs, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, nil
		}
		return Metadata{}, &Skip{Kind: SkipMetadata, Path: path, Err: err}
	}

	klog.V(1).Infof("parsing %s (%d bytes)", path, len(bs))
	return parseMetadata(bs), nil
}

// parseMetadata scans a sidecar line by line. The first Title and Thumbnail lines win,
// later ones are dropped. Every other line forms the description, with blank lines
// collapsed into single paragraph breaks.
func parseMetadata(bs []byte) Metadata {
	m := Metadata{}
	seenTitle, seenThumb := false, false

	paras := []string{}
	cur := []string{}
	flush := func() {
		if len(cur) > 0 {
			paras = append(paras, strings.Join(cur, "\n"))
			cur = cur[:0]
		}
	}

	s := bufio.NewScanner(bytes.NewReader(bs))
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for s.Scan() {
		line := strings.TrimRight(s.Text(), " \t\r")

		if ms := headerRe.FindStringSubmatch(line); ms != nil {
			switch ms[1] {
			case "Title":
				if !seenTitle {
					m.Title = ms[2]
					seenTitle = true
				}
			case "Thumbnail":
				if !seenThumb {
					m.Thumbnail = ms[2]
					seenThumb = true
				}
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()

	if err := s.Err(); err != nil {
		klog.Warningf("sidecar scan stopped early: %v", err)
	}

	m.Description = strings.TrimSpace(strings.Join(paras, "\n\n"))
	return m
}

// renderDescription converts a markdown description into sanitized HTML.
func renderDescription(md string) (template.HTML, error) {
	if md == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}
