package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"ogstub/internal/config"
	"ogstub/internal/log"
	"ogstub/internal/server"
)

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 1313, "port for the local development server")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site locally and regenerate on change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		fs := afero.NewOsFs()
		build := func() error {
			// Pick up edits to site.yaml as well as to the posts.
			fresh, err := config.Load(configFile)
			if err != nil {
				return err
			}
			_, err = generate(fs, fresh, log.S())
			return err
		}

		return server.Run(ctx, server.Options{
			Port:      servePort,
			SiteRoot:  siteRoot(cfg),
			OutputDir: cfg.OutputDir,
			Watch:     []string{cfg.ContentDir, cfg.StaticDir, cfg.Template, configFile},
			Build:     build,
			Log:       log.S(),
		})
	},
}

// siteRoot is the directory served at "/": the output directory minus the
// trailing blog path, so stubs appear at /<blogpath>/<slug>/.
func siteRoot(cfg *config.SiteConfig) string {
	root := filepath.Clean(cfg.OutputDir)
	segments := strings.Split(cfg.BlogPath, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if filepath.Base(root) != segments[i] {
			return filepath.Clean(cfg.OutputDir)
		}
		root = filepath.Dir(root)
	}
	return root
}
