package posts

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// WriteManifest writes the descriptors as JSON for the client application, so
// the blog pages and the preview stubs are built from the same list.
func WriteManifest(fs afero.Fs, path string, descriptors []Descriptor) error {
	entries := lo.Map(descriptors, func(d Descriptor, _ int) Descriptor {
		d.Tags = lo.Compact(d.Tags)
		return d
	})
	if entries == nil {
		entries = []Descriptor{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for manifest: %w", err)
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
