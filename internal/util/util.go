package util

import (
	"regexp"
	"strings"
)

var (
	slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)
	slugSafe   = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)
)

// JoinURL appends path segments to base with exactly one slash between each
// part. Empty segments are skipped.
func JoinURL(base string, segments ...string) string {
	out := strings.TrimRight(base, "/")
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg == "" {
			continue
		}
		out += "/" + seg
	}
	return out
}

// Slugify converts a title to a lower-case, dash separated slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugUnsafe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsPathSafe reports whether s can be used as a single URL path segment and
// directory name without escaping.
func IsPathSafe(s string) bool {
	if s == "." || s == ".." {
		return false
	}
	return slugSafe.MatchString(s)
}

// StripPrefix removes prefix from path when path equals prefix or continues
// it with a slash. The result always starts with a slash. An empty or "/"
// prefix never matches.
func StripPrefix(prefix, path string) (string, bool) {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return path, false
	}
	if path == prefix {
		return "/", true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix):], true
	}
	return path, false
}
