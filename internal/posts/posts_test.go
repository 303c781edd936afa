package posts

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	raw := []byte(`---
slug: hello-world
title: "  Hello & World "
excerpt: A test
image: /og.png
image_alt: alt
date: 2024-05-01
tags: [go, web]
image_width: 800
---
Body text.
`)

	d, body, err := Parse(raw, "fallback")
	require.NoError(t, err)

	assert.Equal(t, "hello-world", d.Slug)
	assert.Equal(t, "Hello & World", d.Title)
	assert.Equal(t, "A test", d.Excerpt)
	assert.Equal(t, "/og.png", d.Image)
	assert.Equal(t, "alt", d.ImageAlt)
	assert.Equal(t, "2024-05-01", d.Date)
	assert.Equal(t, []string{"go", "web"}, d.Tags)
	assert.Equal(t, 800, d.ImageWidth)
	assert.Equal(t, "Body text.\n", body)
}

func TestParseFallbackSlugAndNoFrontMatter(t *testing.T) {
	d, body, err := Parse([]byte("Just a body."), "from-file")
	require.NoError(t, err)

	assert.Equal(t, "from-file", d.Slug)
	assert.Equal(t, "Just a body.", body)
}

func TestParseDelimiterMustBeWholeLine(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		title   string
		excerpt string
		body    string
	}{
		{
			name:    "dashes inside a value",
			raw:     "---\ntitle: Before --- After\nexcerpt: e\nimage: /a.png\nimage_alt: a\n---\nBody\n",
			title:   "Before --- After",
			excerpt: "e",
			body:    "Body\n",
		},
		{
			name:    "dashes starting a block scalar line",
			raw:     "---\ntitle: T\nexcerpt: |\n  ---- not a delimiter\n---\n",
			title:   "T",
			excerpt: "---- not a delimiter",
			body:    "",
		},
		{
			name:  "crlf line endings",
			raw:   "---\r\ntitle: T\r\n---\r\nBody\r\n",
			title: "T",
			body:  "Body\r\n",
		},
		{
			name:  "horizontal rule in body",
			raw:   "---\ntitle: T\n---\nAbove\n---\nBelow\n",
			title: "T",
			body:  "Above\n---\nBelow\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, body, err := Parse([]byte(tt.raw), "x")
			require.NoError(t, err)
			assert.Equal(t, tt.title, d.Title)
			assert.Equal(t, tt.excerpt, d.Excerpt)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestParseWithoutClosingDelimiter(t *testing.T) {
	raw := "---\ntitle: Open ended\n"

	d, body, err := Parse([]byte(raw), "x")
	require.NoError(t, err)
	assert.Equal(t, "", d.Title)
	assert.Equal(t, raw, body)

	d, body, err = Parse([]byte("---title: Inline\n---\n"), "x")
	require.NoError(t, err)
	assert.Equal(t, "", d.Title)
	assert.Equal(t, "---title: Inline\n---\n", body)
}

func TestParseInvalid(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: [unterminated\n---\n"), "x")
	assert.Error(t, err)

	_, _, err = Parse([]byte{0xff, 0xfe, 0x00}, "x")
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	text, err := PlainText("# Heading\n\nSome **bold** text & a [link](https://example.com).\n\n<script>alert(1)</script>\n")
	require.NoError(t, err)

	assert.Equal(t, "Heading Some bold text & a link.", text)
}

func TestDeriveExcerptTruncatesAtWordBoundary(t *testing.T) {
	body := strings.Repeat("lorem ipsum ", 40)

	excerpt, err := DeriveExcerpt(body)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(excerpt, "…"))
	assert.LessOrEqual(t, len([]rune(excerpt)), ExcerptLength)
	trimmed := strings.TrimSuffix(excerpt, "…")
	assert.True(t, strings.HasSuffix(trimmed, "lorem") || strings.HasSuffix(trimmed, "ipsum"), trimmed)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "hello…", truncate("hello world again", 10))
	assert.Equal(t, "abcdefghi…", truncate("abcdefghijklmnop", 10))
}

func newContentFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, "content/blog/"+name, []byte(content), 0644))
	}
	return fs
}

func TestLoad(t *testing.T) {
	fs := newContentFs(t, map[string]string{
		"older.md":   "---\ntitle: Older\nexcerpt: e\nimage: /a.png\nimage_alt: a\ndate: 2023-01-01\n---\n",
		"newer.md":   "---\ntitle: Newer\nexcerpt: e\nimage: /a.png\nimage_alt: a\ndate: 2024-01-01\n---\n",
		"undated.md": "---\ntitle: Undated\nexcerpt: e\nimage: /a.png\nimage_alt: a\n---\n",
		"draft.md":   "---\ntitle: Draft\ndraft: true\n---\n",
		"derived.md": "---\ntitle: Derived\nimage: /a.png\nimage_alt: a\ndate: 2024-01-01\n---\nFirst *paragraph* here.\n",
		"notes.txt":  "ignored",
	})

	descriptors, err := Load(fs, "content/blog")
	require.NoError(t, err)

	slugs := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		slugs = append(slugs, d.Slug)
	}
	assert.Equal(t, []string{"derived", "newer", "older", "undated"}, slugs)
	assert.Equal(t, "First paragraph here.", descriptors[0].Excerpt)
}

func TestLoadSources(t *testing.T) {
	fs := newContentFs(t, map[string]string{
		"hello.md": "---\nslug: hello-world\ntitle: Hello\nimage: /a.png\nimage_alt: a\n---\nThe body.\n",
		"draft.md": "---\ntitle: Draft\ndraft: true\n---\n",
	})

	sources, err := LoadSources(fs, "content/blog")
	require.NoError(t, err)
	require.Len(t, sources, 1)

	assert.Equal(t, filepath.Join("content", "blog", "hello.md"), sources[0].Path)
	assert.Equal(t, "hello-world", sources[0].Descriptor.Slug)
	assert.Equal(t, "The body.", sources[0].Descriptor.Excerpt)
	assert.Equal(t, "The body.\n", sources[0].Body)
}

func TestLoadInvalidDate(t *testing.T) {
	fs := newContentFs(t, map[string]string{
		"bad.md": "---\ntitle: Bad\ndate: May 1st\n---\n",
	})

	_, err := Load(fs, "content/blog")
	assert.ErrorContains(t, err, "invalid date")
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "content/blog")
	assert.Error(t, err)
}

func TestWriteManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	descriptors := []Descriptor{
		{Slug: "a", Title: "A", Excerpt: "x", Image: "/a.png", ImageAlt: "alt", Tags: []string{"go", ""}, ImageWidth: 10},
		{Slug: "b", Title: "B", Excerpt: "y", Image: "/b.png", ImageAlt: "alt"},
	}

	require.NoError(t, WriteManifest(fs, "public/posts.json", descriptors))

	data, err := afero.ReadFile(fs, "public/posts.json")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0]["slug"])
	assert.Equal(t, "alt", got[0]["imageAlt"])
	assert.Equal(t, []any{"go"}, got[0]["tags"])
	assert.NotContains(t, got[0], "ImageWidth")
	assert.NotContains(t, got[1], "tags")
}

func TestWriteManifestEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteManifest(fs, "posts.json", nil))

	data, err := afero.ReadFile(fs, "posts.json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
