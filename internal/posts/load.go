package posts

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

const dateLayout = "2006-01-02"

// Load reads every Markdown post in dir, skips drafts and returns the
// descriptors newest first. Undated posts sort last; ties are broken by slug.
func Load(fs afero.Fs, dir string) ([]Descriptor, error) {
	sources, err := LoadSources(fs, dir)
	if err != nil {
		return nil, err
	}
	return lo.Map(sources, func(s Source, _ int) Descriptor {
		return s.Descriptor
	}), nil
}

// LoadSources is Load keeping the file each descriptor came from.
func LoadSources(fs afero.Fs, dir string) ([]Source, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory %s: %w", dir, err)
	}

	var sources []Source
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}

		d, body, err := Parse(raw, strings.TrimSuffix(entry.Name(), ".md"))
		if err != nil {
			return nil, fmt.Errorf("failed to process content for %s: %w", path, err)
		}
		if d.Draft {
			continue
		}

		if d.Date != "" {
			if _, err := time.Parse(dateLayout, d.Date); err != nil {
				return nil, fmt.Errorf("invalid date %q in %s: want YYYY-MM-DD", d.Date, path)
			}
		}

		if d.Excerpt == "" {
			d.Excerpt, err = DeriveExcerpt(body)
			if err != nil {
				return nil, fmt.Errorf("failed to derive excerpt for %s: %w", path, err)
			}
		}

		sources = append(sources, Source{Path: path, Descriptor: d, Body: body})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i].Descriptor, sources[j].Descriptor
		if a.Date != b.Date {
			if a.Date == "" || b.Date == "" {
				return b.Date == ""
			}
			return a.Date > b.Date
		}
		return a.Slug < b.Slug
	})

	return sources, nil
}
