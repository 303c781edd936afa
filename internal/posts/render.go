package posts

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/verkaro/editml-go"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// ExcerptLength is the maximum length, in runes, of a derived excerpt.
const ExcerptLength = 160

var (
	markdownRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
	)
	textPolicy = bluemonday.StrictPolicy()
)

var frontMatterDelim = []byte("---")

// splitFrontMatter separates YAML front matter from the Markdown body. The
// front matter sits between two lines holding only "---"; files without a
// leading delimiter line, or without a closing one, have no front matter.
func splitFrontMatter(raw []byte) ([]byte, []byte) {
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	line, rest := nextLine(raw)
	if !isDelimiter(line) {
		return nil, raw
	}

	fm := rest
	for offset := 0; rest != nil; {
		line, next := nextLine(rest)
		if isDelimiter(line) {
			return fm[:offset], next
		}
		offset += len(rest) - len(next)
		rest = next
	}
	return nil, raw
}

// nextLine splits b after its first newline. rest is nil on the last line.
func nextLine(b []byte) (line, rest []byte) {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i], b[i+1:]
	}
	return b, nil
}

func isDelimiter(line []byte) bool {
	return bytes.Equal(bytes.TrimRight(line, " \t\r"), frontMatterDelim)
}

// Parse reads a post file. The slug defaults to fallbackSlug when the front
// matter does not set one.
func Parse(raw []byte, fallbackSlug string) (Descriptor, string, error) {
	if !utf8.Valid(raw) {
		return Descriptor{}, "", fmt.Errorf("content is not valid UTF-8")
	}

	d := Descriptor{}
	fm, body := splitFrontMatter(raw)
	if fm != nil {
		if err := yaml.Unmarshal(fm, &d); err != nil {
			return Descriptor{}, "", fmt.Errorf("failed to parse front matter: %w", err)
		}
	}

	d.Slug = strings.TrimSpace(d.Slug)
	if d.Slug == "" {
		d.Slug = fallbackSlug
	}
	d.Title = strings.TrimSpace(d.Title)
	d.Excerpt = strings.TrimSpace(d.Excerpt)
	d.Image = strings.TrimSpace(d.Image)
	d.ImageAlt = strings.TrimSpace(d.ImageAlt)

	return d, string(body), nil
}

// cleanView resolves EditML review markup into the accepted text.
func cleanView(raw string) (string, error) {
	nodes, parseIssues := editml.Parse(raw)
	if len(parseIssues) > 0 && parseIssues[0].Severity == editml.SeverityError {
		return "", fmt.Errorf("editml parsing error: %s", parseIssues[0].Message)
	}
	clean, transformIssues := editml.TransformCleanView(nodes)
	if len(transformIssues) > 0 && transformIssues[0].Severity == editml.SeverityError {
		return "", fmt.Errorf("editml transformation error: %s", transformIssues[0].Message)
	}
	return clean, nil
}

// PlainText renders a Markdown body and reduces it to whitespace-collapsed text.
func PlainText(body string) (string, error) {
	clean, err := cleanView(body)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(clean), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown with goldmark: %w", err)
	}

	text := html.UnescapeString(textPolicy.Sanitize(buf.String()))
	return strings.Join(strings.Fields(text), " "), nil
}

// DeriveExcerpt builds a description from the post body, cut at a word
// boundary so it fits in ExcerptLength runes.
func DeriveExcerpt(body string) (string, error) {
	text, err := PlainText(body)
	if err != nil {
		return "", err
	}
	return truncate(text, ExcerptLength), nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := string(runes[:limit-1])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
