package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"ogstub/internal/config"
	"ogstub/internal/util"
)

// ErrExists is returned instead of overwriting an existing file.
var ErrExists = errors.New("file already exists")

// ArchetypePath is where a site keeps the template for new posts.
const ArchetypePath = "archetypes/post.md"

var now = time.Now

// CreateNewSite writes a starter configuration, archetype and first post
// into dir. Existing files are left alone.
func CreateNewSite(fs afero.Fs, dir string) ([]string, error) {
	for _, d := range []string{"content/blog", "static", "archetypes", "public"} {
		if err := fs.MkdirAll(filepath.Join(dir, d), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}

	files := []struct {
		path    string
		content string
	}{
		{config.DefaultFile, siteYamlContent},
		{ArchetypePath, archetypePostContent},
		{"content/blog/hello-world.md", helloWorldContent},
	}

	var created []string
	for _, f := range files {
		path := filepath.Join(dir, f.path)
		if err := writeNew(fs, path, []byte(f.content)); errors.Is(err, ErrExists) {
			continue
		} else if err != nil {
			return created, err
		}
		created = append(created, path)
	}
	return created, nil
}

// CreateNewPost creates contentDir/<slug>.md from the site's archetype, or
// the built-in one when the site has none.
func CreateNewPost(fs afero.Fs, root, contentDir, title string) (string, error) {
	slug := util.Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("cannot derive a slug from title %q", title)
	}

	archetype := archetypePostContent
	archetypePath := filepath.Join(root, ArchetypePath)
	if data, err := afero.ReadFile(fs, archetypePath); err == nil {
		archetype = string(data)
	} else if !errors.Is(err, iofs.ErrNotExist) {
		return "", fmt.Errorf("could not read archetype file %s: %w", archetypePath, err)
	}

	tmpl, err := template.New("archetype").Funcs(archetypeFuncs).Parse(archetype)
	if err != nil {
		return "", fmt.Errorf("failed to parse archetype file %s: %w", archetypePath, err)
	}

	data := struct {
		Title string
		Slug  string
		Date  string
	}{
		Title: title,
		Slug:  slug,
		Date:  now().Format("2006-01-02"),
	}

	var output bytes.Buffer
	if err := tmpl.Execute(&output, data); err != nil {
		return "", fmt.Errorf("failed to execute archetype template: %w", err)
	}

	path := filepath.Join(root, contentDir, slug+".md")
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := writeNew(fs, path, output.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

var archetypeFuncs = template.FuncMap{
	"yaml": yamlScalar,
}

// yamlScalar renders s as one YAML value, quoted when needed.
func yamlScalar(s string) (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func writeNew(fs afero.Fs, path string, data []byte) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

const siteYamlContent = `baseurl: https://example.com
owner: Your Name
# sitename: Your Name
# locale: en_US
# assetprefix: /   # "/" leaves image paths untouched
blogpath: blog
content: content/blog
static: static
output: public/blog
manifest: public/posts.json
handoffscript: public/handoff.js
image:
  type: image/png
  width: 1200
  height: 630
`

const archetypePostContent = `---
title: {{ yaml .Title }}
slug: {{ .Slug }}
date: {{ .Date }}
excerpt: ""
image: /og.png
image_alt: ""
tags: []
draft: true
---

Write something meaningful here.
`

const helloWorldContent = `---
title: Hello World
date: 2024-01-01
image: /og.png
image_alt: A blank preview card
tags: [meta]
---

This is the first post. Its preview card is generated by **ogstub**, and the
excerpt is taken from this paragraph because the front matter leaves it out.
`
