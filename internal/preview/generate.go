package preview

import (
	"path/filepath"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"ogstub/internal/posts"
	"ogstub/internal/util"
)

// IndexFile is the name of the stub written in every post directory.
const IndexFile = "index.html"

// Validate checks the whole descriptor list and reports every problem at once.
func (g *Generator) Validate(descriptors []posts.Descriptor) error {
	var problems []*Problem
	add := func(i int, d posts.Descriptor, err error) {
		problems = append(problems, &Problem{Index: i, Slug: d.Slug, Err: err})
	}

	for i, d := range descriptors {
		required := []struct {
			field string
			value string
		}{
			{"slug", d.Slug},
			{"title", d.Title},
			{"excerpt", d.Excerpt},
			{"image", d.Image},
			{"image_alt", d.ImageAlt},
		}
		for _, r := range required {
			if r.value == "" {
				add(i, d, &FieldError{Field: r.field, Reason: "is required"})
			}
		}

		if d.Slug != "" && !util.IsPathSafe(d.Slug) {
			add(i, d, &FieldError{Field: "slug", Reason: "must contain only letters, digits, '-', '_', '.' or '~'"})
		}
		if d.Image != "" {
			if _, err := ResolveImageURL(g.opts.BaseURL, g.opts.AssetPrefix, d.Image); err != nil {
				add(i, d, err)
			}
		}
	}

	bySlug := lo.GroupBy(lo.Range(len(descriptors)), func(i int) string {
		return descriptors[i].Slug
	})
	for slug, indices := range bySlug {
		if slug == "" || len(indices) < 2 {
			continue
		}
		add(indices[1], descriptors[indices[1]], &DuplicateSlugError{Slug: slug, Indices: indices})
	}

	if len(problems) == 0 {
		return nil
	}

	sort.SliceStable(problems, func(i, j int) bool {
		return problems[i].Index < problems[j].Index
	})
	return &ValidationError{Problems: problems}
}

// OutputPath is where the stub for slug is written under outputRoot.
func OutputPath(outputRoot, slug string) string {
	return filepath.Join(outputRoot, slug, IndexFile)
}

// GenerateAll validates descriptors, renders every stub and writes each one to
// outputRoot/<slug>/index.html. Nothing is written if validation or rendering
// fails. The first filesystem failure stops the run with a *WriteError; stubs
// written before it are kept. Written paths are returned in input order.
func (g *Generator) GenerateAll(descriptors []posts.Descriptor, outputRoot string) ([]string, error) {
	if err := g.Validate(descriptors); err != nil {
		return nil, err
	}

	pages := make([]string, len(descriptors))
	for i, d := range descriptors {
		page, err := g.RenderPage(d)
		if err != nil {
			return nil, err
		}
		pages[i] = page
	}

	written := make([]string, 0, len(descriptors))
	for i, d := range descriptors {
		dir := filepath.Join(outputRoot, d.Slug)
		if err := g.fs.MkdirAll(dir, 0755); err != nil {
			return written, &WriteError{Path: dir, Err: err}
		}

		path := OutputPath(outputRoot, d.Slug)
		if err := afero.WriteFile(g.fs, path, []byte(pages[i]), 0644); err != nil {
			return written, &WriteError{Path: path, Err: err}
		}

		g.log.Infof("Wrote %s", path)
		written = append(written, path)
	}

	return written, nil
}
