// Package inspect reads generated preview stubs back the way a link-unfurling
// crawler does and checks that every stub announces a usable card.
package inspect

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
)

// Card is what a crawler extracts from a stub.
type Card struct {
	Title       string
	Description string
	Canonical   string
	Refresh     string

	Type        string
	URL         string
	OGTitle     string
	OGDesc      string
	Image       string
	ImageSecure string
	ImageType   string
	ImageWidth  string
	ImageHeight string
	ImageAlt    string
	Locale      string
	SiteName    string

	TwitterCard  string
	TwitterTitle string
	TwitterDesc  string
	TwitterImage string
	TwitterAlt   string
}

// ParseCard extracts the preview card from an HTML document.
func ParseCard(r io.Reader) (Card, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Card{}, err
	}

	property := func(name string) string {
		return strings.TrimSpace(doc.Find(`meta[property="`+name+`"]`).AttrOr("content", ""))
	}
	named := func(name string) string {
		return strings.TrimSpace(doc.Find(`meta[name="`+name+`"]`).AttrOr("content", ""))
	}

	return Card{
		Title:       strings.TrimSpace(doc.Find("head title").First().Text()),
		Description: named("description"),
		Canonical:   doc.Find(`link[rel="canonical"]`).AttrOr("href", ""),
		Refresh:     refreshTarget(doc),

		Type:        property("og:type"),
		URL:         property("og:url"),
		OGTitle:     property("og:title"),
		OGDesc:      property("og:description"),
		Image:       property("og:image"),
		ImageSecure: property("og:image:secure_url"),
		ImageType:   property("og:image:type"),
		ImageWidth:  property("og:image:width"),
		ImageHeight: property("og:image:height"),
		ImageAlt:    property("og:image:alt"),
		Locale:      property("og:locale"),
		SiteName:    property("og:site_name"),

		TwitterCard:  named("twitter:card"),
		TwitterTitle: named("twitter:title"),
		TwitterDesc:  named("twitter:description"),
		TwitterImage: named("twitter:image"),
		TwitterAlt:   named("twitter:image:alt"),
	}, nil
}

// refreshTarget returns the URL of a <meta http-equiv="refresh"> tag. The tag
// usually sits inside <noscript>, which the HTML parser keeps as raw text when
// scripting is enabled, so that text is parsed a second time.
func refreshTarget(doc *goquery.Document) string {
	sel := doc.Find(`meta[http-equiv="refresh"]`)
	if sel.Length() == 0 {
		doc.Find("noscript").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			inner, err := goquery.NewDocumentFromReader(strings.NewReader(s.Text()))
			if err != nil {
				return true
			}
			sel = inner.Find(`meta[http-equiv="refresh"]`)
			return sel.Length() == 0
		})
	}

	content := sel.AttrOr("content", "")
	i := strings.Index(strings.ToLower(content), "url=")
	if i < 0 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(content[i+len("url="):]), `'"`)
}

// Finding is a problem found in one stub.
type Finding struct {
	Slug    string
	Path    string
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Path, f.Message)
}

// Stub is a parsed stub found under an output root.
type Stub struct {
	Slug string
	Path string
	Card Card
}

// ReadStubs parses every <root>/<slug>/index.html in directory order.
func ReadStubs(fs afero.Fs, root string) ([]Stub, []Finding, error) {
	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read output directory %s: %w", root, err)
	}

	var (
		stubs    []Stub
		findings []Finding
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		slug := entry.Name()
		p := filepath.Join(root, slug, "index.html")
		f, err := fs.Open(p)
		if err != nil {
			findings = append(findings, Finding{Slug: slug, Path: p, Message: "missing index.html"})
			continue
		}
		card, err := ParseCard(f)
		f.Close()
		if err != nil {
			findings = append(findings, Finding{Slug: slug, Path: p, Message: fmt.Sprintf("unparseable HTML: %v", err)})
			continue
		}
		stubs = append(stubs, Stub{Slug: slug, Path: p, Card: card})
	}

	return stubs, findings, nil
}

// Audit checks every stub under root and returns what a careful reviewer of
// the generated tree would flag.
func Audit(fs afero.Fs, root string) ([]Finding, error) {
	stubs, findings, err := ReadStubs(fs, root)
	if err != nil {
		return nil, err
	}
	for _, s := range stubs {
		findings = append(findings, Check(s)...)
	}
	return findings, nil
}

// Check validates a single parsed stub.
func Check(s Stub) []Finding {
	var findings []Finding
	flag := func(format string, args ...any) {
		findings = append(findings, Finding{Slug: s.Slug, Path: s.Path, Message: fmt.Sprintf(format, args...)})
	}

	c := s.Card
	required := []struct {
		name  string
		value string
	}{
		{"title", c.Title},
		{"description", c.Description},
		{"canonical link", c.Canonical},
		{"og:type", c.Type},
		{"og:url", c.URL},
		{"og:title", c.OGTitle},
		{"og:description", c.OGDesc},
		{"og:image", c.Image},
		{"og:image:alt", c.ImageAlt},
		{"twitter:card", c.TwitterCard},
		{"twitter:image", c.TwitterImage},
		{"redirect fallback", c.Refresh},
	}
	for _, r := range required {
		if r.value == "" {
			flag("missing %s", r.name)
		}
	}

	absolute := []struct {
		name  string
		value string
	}{
		{"canonical link", c.Canonical},
		{"og:url", c.URL},
		{"og:image", c.Image},
		{"og:image:secure_url", c.ImageSecure},
		{"twitter:image", c.TwitterImage},
	}
	for _, a := range absolute {
		if a.value != "" && !strings.HasPrefix(a.value, "https://") {
			flag("%s is not an absolute https URL: %q", a.name, a.value)
		}
	}

	if c.Canonical != "" && path.Base(c.Canonical) != s.Slug {
		flag("canonical link %q does not end in the slug %q", c.Canonical, s.Slug)
	}
	if c.URL != "" && c.Canonical != "" && c.URL != c.Canonical {
		flag("og:url %q differs from canonical link %q", c.URL, c.Canonical)
	}
	if c.TwitterCard != "" && c.TwitterCard != "summary_large_image" {
		flag("twitter:card is %q, want summary_large_image", c.TwitterCard)
	}
	if c.TwitterImage != "" && c.Image != "" && c.TwitterImage != c.Image {
		flag("twitter:image %q differs from og:image %q", c.TwitterImage, c.Image)
	}

	return findings
}
