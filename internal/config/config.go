package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultFile          = "site.yaml"
	DefaultLocale        = "en_US"
	DefaultBlogPath      = "blog"
	DefaultContentDir    = "content/blog"
	DefaultStaticDir     = "static"
	DefaultOutputDir     = "public/blog"
	DefaultManifest      = "public/posts.json"
	DefaultHandoffScript = "public/handoff.js"
	DefaultImageType     = "image/png"
	DefaultImageWidth    = 1200
	DefaultImageHeight   = 630
)

// ImageConfig holds the og:image metadata used when a post image cannot be probed.
type ImageConfig struct {
	Type   string `mapstructure:"type"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

// SiteConfig holds the configuration from the site.yaml file.
type SiteConfig struct {
	BaseURL       string      `mapstructure:"baseurl"`
	Owner         string      `mapstructure:"owner"`
	SiteName      string      `mapstructure:"sitename"`
	Locale        string      `mapstructure:"locale"`
	AssetPrefix   string      `mapstructure:"assetprefix"`
	BlogPath      string      `mapstructure:"blogpath"`
	ContentDir    string      `mapstructure:"content"`
	StaticDir     string      `mapstructure:"static"`
	OutputDir     string      `mapstructure:"output"`
	Manifest      string      `mapstructure:"manifest"`
	HandoffScript string      `mapstructure:"handoffscript"`
	Template      string      `mapstructure:"template"`
	Image         ImageConfig `mapstructure:"image"`
}

// Load reads the site configuration from path. Values can be overridden through
// OGSTUB_* environment variables, e.g. OGSTUB_BASEURL or OGSTUB_IMAGE_WIDTH.
func Load(path string) (*SiteConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ogstub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("locale", DefaultLocale)
	v.SetDefault("blogpath", DefaultBlogPath)
	v.SetDefault("content", DefaultContentDir)
	v.SetDefault("static", DefaultStaticDir)
	v.SetDefault("output", DefaultOutputDir)
	v.SetDefault("manifest", DefaultManifest)
	v.SetDefault("handoffscript", DefaultHandoffScript)
	v.SetDefault("image.type", DefaultImageType)
	v.SetDefault("image.width", DefaultImageWidth)
	v.SetDefault("image.height", DefaultImageHeight)

	// Env-only keys are invisible to Unmarshal unless they are bound.
	for _, key := range []string{"baseurl", "owner", "sitename", "assetprefix", "template"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	cfg := &SiteConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate normalizes the configuration and fills derived values.
func (c *SiteConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: baseurl is empty")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("config: invalid baseurl: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("config: baseurl must be an absolute https URL, got %q", c.BaseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("config: baseurl must not carry a query or fragment, got %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Owner == "" {
		return errors.New("config: owner is empty")
	}
	if c.SiteName == "" {
		c.SiteName = c.Owner
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}

	// "/" is kept as is: it means image paths are never stripped.
	switch {
	case c.AssetPrefix == "":
		c.AssetPrefix = strings.TrimRight(u.Path, "/")
	case !strings.HasPrefix(c.AssetPrefix, "/"):
		return fmt.Errorf("config: assetprefix must start with /, got %q", c.AssetPrefix)
	case strings.Trim(c.AssetPrefix, "/") == "":
		c.AssetPrefix = "/"
	default:
		c.AssetPrefix = strings.TrimRight(c.AssetPrefix, "/")
	}

	c.BlogPath = strings.Trim(c.BlogPath, "/")
	if c.BlogPath == "" {
		c.BlogPath = DefaultBlogPath
	}

	if c.OutputDir == "" {
		return errors.New("config: output is empty")
	}

	if c.Image.Type == "" {
		c.Image.Type = DefaultImageType
	}
	if c.Image.Width < 0 || c.Image.Height < 0 {
		return errors.New("config: image dimensions must not be negative")
	}

	return nil
}

// BasePath is the path the application is served from, always ending in a slash.
func (c *SiteConfig) BasePath() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return strings.TrimRight(u.Path, "/") + "/"
}
