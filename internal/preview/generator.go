// Package preview renders the static social-preview stubs for blog posts.
//
// Each stub is a complete HTML document with Open Graph and Twitter card tags
// for crawlers that do not run scripts, plus a hand-off redirect that sends a
// human visitor into the client application at the post's route.
package preview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"ogstub/internal/config"
	"ogstub/internal/handoff"
	"ogstub/internal/images"
	"ogstub/internal/posts"
	"ogstub/internal/util"
)

//go:embed templates/page.html
var templateFS embed.FS

// pageTemplate is the name of the template executed for every stub.
const pageTemplate = "page"

type Options struct {
	BaseURL string
	// AssetPrefix is stripped from image paths. Empty means the path of
	// BaseURL; "/" disables stripping.
	AssetPrefix string
	BlogPath    string
	Owner       string
	SiteName    string
	Locale      string
	Image       images.Meta
	Handoff     handoff.Contract
}

// OptionsFromConfig maps a validated site configuration to generator options.
func OptionsFromConfig(cfg *config.SiteConfig) Options {
	return Options{
		BaseURL:     cfg.BaseURL,
		AssetPrefix: cfg.AssetPrefix,
		BlogPath:    cfg.BlogPath,
		Owner:       cfg.Owner,
		SiteName:    cfg.SiteName,
		Locale:      cfg.Locale,
		Image: images.Meta{
			Type:   cfg.Image.Type,
			Width:  cfg.Image.Width,
			Height: cfg.Image.Height,
		},
		Handoff: handoff.New(cfg.BasePath()),
	}
}

type Generator struct {
	fs   afero.Fs
	tmpl *template.Template
	opts Options
	log  *zap.SugaredLogger
}

type Option func(*Generator)

// WithTemplate replaces the embedded page template. The set must define "page".
func WithTemplate(tmpl *template.Template) Option {
	return func(g *Generator) {
		g.tmpl = tmpl
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// New returns a generator writing to fs. Empty options fall back to values
// derived from BaseURL.
func New(fs afero.Fs, opts Options, options ...Option) (*Generator, error) {
	if err := checkBaseURL(opts.BaseURL); err != nil {
		return nil, err
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	u, _ := url.Parse(opts.BaseURL)
	if opts.AssetPrefix == "" {
		opts.AssetPrefix = strings.TrimRight(u.Path, "/")
	}
	if opts.BlogPath = strings.Trim(opts.BlogPath, "/"); opts.BlogPath == "" {
		opts.BlogPath = config.DefaultBlogPath
	}
	if opts.Owner == "" {
		return nil, fmt.Errorf("preview: owner is empty")
	}
	if opts.SiteName == "" {
		opts.SiteName = opts.Owner
	}
	if opts.Locale == "" {
		opts.Locale = config.DefaultLocale
	}
	if opts.Handoff.StorageKey == "" {
		opts.Handoff = handoff.New(u.Path)
	}

	g := &Generator{
		fs:   fs,
		opts: opts,
		log:  zap.NewNop().Sugar(),
	}
	for _, o := range options {
		o(g)
	}

	if g.tmpl == nil {
		tmpl, err := template.ParseFS(templateFS, "templates/page.html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded page template: %w", err)
		}
		g.tmpl = tmpl
	}
	if g.tmpl.Lookup(pageTemplate) == nil {
		return nil, fmt.Errorf("page template does not define %q", pageTemplate)
	}

	return g, nil
}

// LoadTemplate parses a page template file from disk.
func LoadTemplate(fs afero.Fs, path string) (*template.Template, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	tmpl, err := template.New(path).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	return tmpl, nil
}

// CanonicalURL is the authoritative URL of the post with the given slug.
func (g *Generator) CanonicalURL(slug string) string {
	return util.JoinURL(g.opts.BaseURL, g.opts.BlogPath, slug)
}

// pageData is passed to the page template.
type pageData struct {
	Lang        string
	Title       string
	Owner       string
	Excerpt     string
	Canonical   string
	Image       string
	ImageType   string
	ImageWidth  int
	ImageHeight int
	ImageAlt    string
	Locale      string
	SiteName    string
	Date        string
	Tags        []string
	Redirect    template.JS
	BasePath    string
}

// RenderPage builds the stub document for d. It has no side effects and
// returns identical output for identical input.
func (g *Generator) RenderPage(d posts.Descriptor) (string, error) {
	image, err := ResolveImageURL(g.opts.BaseURL, g.opts.AssetPrefix, d.Image)
	if err != nil {
		return "", err
	}

	meta := images.Meta{Type: d.ImageType, Width: d.ImageWidth, Height: d.ImageHeight}.Fill(g.opts.Image)

	data := pageData{
		Lang:        language(g.opts.Locale),
		Title:       d.Title,
		Owner:       g.opts.Owner,
		Excerpt:     d.Excerpt,
		Canonical:   g.CanonicalURL(d.Slug),
		Image:       image,
		ImageType:   meta.Type,
		ImageWidth:  meta.Width,
		ImageHeight: meta.Height,
		ImageAlt:    d.ImageAlt,
		Locale:      g.opts.Locale,
		SiteName:    g.opts.SiteName,
		Date:        d.Date,
		Tags:        d.Tags,
		Redirect:    g.opts.Handoff.Script(handoff.RoutePath(g.opts.BlogPath, d.Slug)),
		BasePath:    g.opts.Handoff.BasePath,
	}

	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, pageTemplate, data); err != nil {
		return "", fmt.Errorf("failed to render page for %q: %w", d.Slug, err)
	}
	return buf.String(), nil
}

// language turns an og:locale such as "en_US" into an html lang value.
func language(locale string) string {
	lang, _, _ := strings.Cut(locale, "_")
	if lang == "" {
		return "en"
	}
	return strings.ToLower(lang)
}
