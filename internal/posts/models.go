package posts

// Descriptor is the minimal record needed to render a social preview page for
// one blog post. It is read from the front matter of the post's Markdown file,
// which is also the file the client application renders.
type Descriptor struct {
	Slug     string   `yaml:"slug" json:"slug"`
	Title    string   `yaml:"title" json:"title"`
	Excerpt  string   `yaml:"excerpt" json:"excerpt"`
	Image    string   `yaml:"image" json:"image"`
	ImageAlt string   `yaml:"image_alt" json:"imageAlt"`
	Date     string   `yaml:"date" json:"date,omitempty"`
	Tags     []string `yaml:"tags" json:"tags,omitempty"`
	Draft    bool     `yaml:"draft" json:"-"`

	// Optional og:image metadata. Zero values are filled by probing the image
	// file or from the site defaults.
	ImageType   string `yaml:"image_type" json:"-"`
	ImageWidth  int    `yaml:"image_width" json:"-"`
	ImageHeight int    `yaml:"image_height" json:"-"`
}

// Source is the file a descriptor was loaded from together with its body.
type Source struct {
	Path       string
	Descriptor Descriptor
	Body       string
}
