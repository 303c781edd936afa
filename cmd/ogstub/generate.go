package main

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"ogstub/internal/config"
	"ogstub/internal/handoff"
	"ogstub/internal/images"
	"ogstub/internal/posts"
	"ogstub/internal/preview"
)

// generate runs the whole build: load posts, fill image metadata, write the
// stubs, the manifest and the application hand-off script.
func generate(fs afero.Fs, cfg *config.SiteConfig, log *zap.SugaredLogger) ([]string, error) {
	sources, err := posts.LoadSources(fs, cfg.ContentDir)
	if err != nil {
		return nil, err
	}
	descriptors := lo.Map(sources, func(s posts.Source, _ int) posts.Descriptor {
		return s.Descriptor
	})
	log.Debugf("Loaded %d posts from %s", len(descriptors), cfg.ContentDir)

	for i := range descriptors {
		probeImage(fs, cfg, &descriptors[i], log)
	}

	options := []preview.Option{preview.WithLogger(log)}
	if cfg.Template != "" {
		tmpl, err := preview.LoadTemplate(fs, cfg.Template)
		if err != nil {
			return nil, err
		}
		options = append(options, preview.WithTemplate(tmpl))
	}

	g, err := preview.New(fs, preview.OptionsFromConfig(cfg), options...)
	if err != nil {
		return nil, err
	}

	written, err := g.GenerateAll(descriptors, cfg.OutputDir)
	if err != nil {
		var verr *preview.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				log.Errorf("%s: %v", sources[p.Index].Path, p)
			}
			return nil, fmt.Errorf("%d invalid post descriptor(s), nothing written", len(verr.Problems))
		}
		return written, err
	}

	if cfg.Manifest != "" {
		if err := posts.WriteManifest(fs, cfg.Manifest, descriptors); err != nil {
			return written, err
		}
		log.Infof("Wrote %s", cfg.Manifest)
	}

	if cfg.HandoffScript != "" {
		if err := handoff.New(cfg.BasePath()).WriteAppScript(fs, cfg.HandoffScript); err != nil {
			return written, err
		}
		log.Infof("Wrote %s", cfg.HandoffScript)
	}

	log.Infof("Generated %d preview pages in %s", len(written), cfg.OutputDir)
	return written, nil
}

// probeImage fills missing og:image metadata from the image file itself.
// Images hosted elsewhere, or not yet present, keep the site defaults.
func probeImage(fs afero.Fs, cfg *config.SiteConfig, d *posts.Descriptor, log *zap.SugaredLogger) {
	if d.Image == "" || (d.ImageType != "" && d.ImageWidth != 0 && d.ImageHeight != 0) {
		return
	}

	meta, err := images.Probe(fs, cfg.StaticDir, cfg.AssetPrefix, d.Image)
	if errors.Is(err, images.ErrNotFound) {
		log.Debugf("No local file for %s, using default image metadata", d.Image)
		return
	} else if err != nil {
		log.Warnf("Could not probe image for %q: %v", d.Slug, err)
		return
	}

	filled := images.Meta{Type: d.ImageType, Width: d.ImageWidth, Height: d.ImageHeight}.Fill(meta)
	d.ImageType, d.ImageWidth, d.ImageHeight = filled.Type, filled.Width, filled.Height
}
