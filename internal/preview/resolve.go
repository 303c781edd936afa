package preview

import (
	"net/url"
	"strings"
	"unicode"

	"ogstub/internal/util"
)

// ResolveImageURL turns a root-relative image path into an absolute URL under
// baseURL. Paths under assetPrefix are served relative to the application
// root, so the prefix is dropped before joining to avoid repeating it.
func ResolveImageURL(baseURL, assetPrefix, imagePath string) (string, error) {
	if err := checkBaseURL(baseURL); err != nil {
		return "", err
	}

	switch {
	case imagePath == "":
		return "", &InvalidPathError{Path: imagePath, Reason: "image path is empty"}
	case !strings.HasPrefix(imagePath, "/"):
		return "", &InvalidPathError{Path: imagePath, Reason: "image path must start with /"}
	case strings.HasPrefix(imagePath, "//"):
		return "", &InvalidPathError{Path: imagePath, Reason: "image path must not be protocol-relative"}
	case strings.IndexFunc(imagePath, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		return "", &InvalidPathError{Path: imagePath, Reason: "image path contains whitespace or control characters"}
	}

	rest, _ := util.StripPrefix(assetPrefix, imagePath)
	return strings.TrimRight(baseURL, "/") + rest, nil
}

func checkBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return &InvalidPathError{Path: baseURL, Reason: err.Error()}
	}
	if u.Scheme != "https" || u.Host == "" {
		return &InvalidPathError{Path: baseURL, Reason: "base URL must be an absolute https URL"}
	}
	return nil
}
