package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	_ "golang.org/x/image/webp"

	"ogstub/internal/util"
)

// ErrNotFound is returned when an image path has no backing file.
var ErrNotFound = errors.New("image file not found")

// Meta describes an image as announced in og:image:* tags. Width and Height
// are zero for formats without a registered decoder (e.g. SVG).
type Meta struct {
	Type   string
	Width  int
	Height int
}

// Probe inspects the local file served at imagePath. The asset prefix is
// stripped first, and the remainder is resolved inside staticDir.
func Probe(fs afero.Fs, staticDir, assetPrefix, imagePath string) (Meta, error) {
	rel, _ := util.StripPrefix(assetPrefix, imagePath)
	rel = strings.TrimPrefix(filepath.FromSlash(rel), string(filepath.Separator))
	if rel == "" || strings.HasPrefix(filepath.Clean(rel), "..") {
		return Meta{}, fmt.Errorf("image path %q does not name a file", imagePath)
	}
	path := filepath.Join(staticDir, rel)

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, iofs.ErrNotExist) {
		return Meta{}, ErrNotFound
	} else if err != nil {
		return Meta{}, fmt.Errorf("failed to read image %s: %w", path, err)
	}

	meta := Meta{Type: mimetype.Detect(data).String()}
	if !strings.HasPrefix(meta.Type, "image/") {
		return Meta{}, fmt.Errorf("%s is not an image (%s)", path, meta.Type)
	}
	// Strip parameters such as "; charset=utf-8" reported for SVG.
	if i := strings.Index(meta.Type, ";"); i >= 0 {
		meta.Type = strings.TrimSpace(meta.Type[:i])
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}

	return meta, nil
}

// Fill sets every zero field of m from fallback.
func (m Meta) Fill(fallback Meta) Meta {
	if m.Type == "" {
		m.Type = fallback.Type
	}
	if m.Width == 0 {
		m.Width = fallback.Width
	}
	if m.Height == 0 {
		m.Height = fallback.Height
	}
	return m
}
